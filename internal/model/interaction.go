package model

import (
	"context"
	"encoding/json"
	"time"
)

// InteractionStore persists in-flight application command interactions.
type InteractionStore interface {
	Create(ctx context.Context, interaction Interaction) error
	GetByID(ctx context.Context, id int64) (Interaction, error)
	SetStatus(ctx context.Context, id int64, from, to InteractionStatus) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// ApplicationStore reads bot applications and their commands.
type ApplicationStore interface {
	GetByID(ctx context.Context, id int64) (Application, error)
	GetCommand(ctx context.Context, applicationID, commandID int64) (ApplicationCommand, error)
	IsInstalled(ctx context.Context, applicationID, guildID int64) (bool, error)
}

// InteractionTimeout is how long an interaction may stay pending.
const InteractionTimeout = 3 * time.Second

// InteractionStatus tracks how the bot answered.
type InteractionStatus int

const (
	InteractionPending InteractionStatus = iota + 1
	InteractionResponded
	InteractionDeferred
)

// Interaction types.
const (
	InteractionTypePing               = 1
	InteractionTypeApplicationCommand = 2
	InteractionTypeMessageComponent   = 3
)

// Interaction callback types.
const (
	CallbackChannelMessageWithSource         = 4
	CallbackDeferredChannelMessageWithSource = 5
)

// Interaction is a command invocation waiting for its bot to respond.
// Application ids double as the bot user id.
type Interaction struct {
	ID            int64
	ApplicationID int64
	UserID        int64
	GuildID       *int64
	ChannelID     int64
	CommandID     int64
	Type          int
	Token         string
	Data          json.RawMessage
	Status        InteractionStatus
	Nonce         *string
	SessionID     string
}

// Application is a bot application.
type Application struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	Icon        *string
	BotPublic   bool
}

// Command option types.
const (
	OptionSubCommand      = 1
	OptionSubCommandGroup = 2
	OptionString          = 3
	OptionInteger         = 4
	OptionBoolean         = 5
	OptionUser            = 6
	OptionChannel         = 7
	OptionRole            = 8
	OptionMentionable     = 9
	OptionNumber          = 10
	OptionAttachment      = 11
)

// ApplicationCommand is a slash command schema.
type ApplicationCommand struct {
	ID            int64
	ApplicationID int64
	GuildID       *int64
	Name          string
	Description   string
	Type          int
	Options       []CommandOption
}

// CommandOption is a node of a command schema.
type CommandOption struct {
	Type        int             `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Required    bool            `json:"required,omitempty"`
	Choices     []CommandChoice `json:"choices,omitempty"`
	Options     []CommandOption `json:"options,omitempty"`
}

// CommandChoice is a predefined value of an option.
type CommandChoice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}
