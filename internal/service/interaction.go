package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

// CreateInteractionRequest is the body of POST /interactions.
type CreateInteractionRequest struct {
	Type          int                    `json:"type"`
	ApplicationID model.Snowflake        `json:"application_id"`
	ChannelID     model.Snowflake        `json:"channel_id"`
	GuildID       *model.Snowflake       `json:"guild_id"`
	SessionID     string                 `json:"session_id"`
	Nonce         *string                `json:"nonce"`
	Data          InteractionCommandData `json:"data"`
}

// InteractionCommandData names the invoked command and its raw options.
type InteractionCommandData struct {
	ID      model.Snowflake     `json:"id"`
	Name    string              `json:"name"`
	Type    int                 `json:"type"`
	Options []InteractionOption `json:"options"`
}

// InteractionOption is an option value as sent by the client.
type InteractionOption struct {
	Type    int                 `json:"type"`
	Name    string              `json:"name"`
	Value   json.RawMessage     `json:"value,omitempty"`
	Options []InteractionOption `json:"options,omitempty"`
}

// InteractionCallback is the body of POST /interactions/{id}/{token}/callback.
type InteractionCallback struct {
	Type int                      `json:"type"`
	Data *InteractionCallbackData `json:"data"`
}

// InteractionCallbackData is the message a bot answers with.
type InteractionCallbackData struct {
	Content    string                    `json:"content"`
	TTS        bool                      `json:"tts"`
	Embeds     []*discordgo.MessageEmbed `json:"embeds"`
	Flags      int                       `json:"flags"`
	Components json.RawMessage           `json:"components"`
}

// Interactions runs application command interactions: validation,
// delivery to the bot, the response watchdog and bot callbacks.
type Interactions struct {
	Deps
	timeout time.Duration

	mu        sync.Mutex
	watchdogs map[int64]context.CancelFunc
	wg        sync.WaitGroup
}

// NewInteractions returns an orchestrator that fails interactions left
// unanswered for timeout. A zero timeout means model.InteractionTimeout.
func NewInteractions(deps Deps, timeout time.Duration) *Interactions {
	if timeout <= 0 {
		timeout = model.InteractionTimeout
	}
	return &Interactions{
		Deps:      deps,
		timeout:   timeout,
		watchdogs: make(map[int64]context.CancelFunc),
	}
}

// Create validates an invocation by userID, stores it as pending and
// delivers it to the invoking session and to the bot.
func (s *Interactions) Create(ctx context.Context, userID int64, req CreateInteractionRequest) error {
	if req.Type != model.InteractionTypeApplicationCommand {
		return model.InvalidForm("type", model.CodeBaseTypeChoices, "Value must be one of {2}.")
	}

	app, err := s.Stores.Applications.GetByID(ctx, int64(req.ApplicationID))
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownApplication
	}
	if err != nil {
		return fmt.Errorf("failed to get application: %w", err)
	}

	c, member, err := s.channelAccess(ctx, userID, int64(req.ChannelID), model.PermUseApplicationCmds)
	if err != nil {
		return err
	}
	if c.GuildID != nil {
		installed, err := s.Stores.Applications.IsInstalled(ctx, app.ID, *c.GuildID)
		if err != nil {
			return fmt.Errorf("failed to check installation: %w", err)
		}
		if !installed {
			return model.ErrUnknownApplication
		}
	}

	cmd, err := s.Stores.Applications.GetCommand(ctx, app.ID, int64(req.Data.ID))
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownCommand
	}
	if err != nil {
		return fmt.Errorf("failed to get command: %w", err)
	}
	if cmd.GuildID != nil && (c.GuildID == nil || *cmd.GuildID != *c.GuildID) {
		return model.ErrUnknownCommand
	}

	r := &resolver{deps: s.Deps, userID: userID, channel: c, resolved: &event.Resolved{}}
	var fe model.FormErrors
	options := r.options(ctx, &fe, "data.options", cmd.Options, req.Data.Options)
	if r.err != nil {
		return r.err
	}
	if err := fe.Err(); err != nil {
		return err
	}

	data := event.InteractionData{
		ID:      cmd.ID,
		Name:    cmd.Name,
		Type:    cmd.Type,
		GuildID: cmd.GuildID,
		Options: options,
	}
	if !r.resolved.Empty() {
		data.Resolved = r.resolved
	}
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode interaction data: %w", err)
	}

	it := model.Interaction{
		ID:            s.IDs.Next(),
		ApplicationID: app.ID,
		UserID:        userID,
		GuildID:       c.GuildID,
		ChannelID:     c.ID,
		CommandID:     cmd.ID,
		Type:          req.Type,
		Token:         uuid.NewString(),
		Data:          rawData,
		Status:        model.InteractionPending,
		Nonce:         req.Nonce,
		SessionID:     req.SessionID,
	}
	if err := s.Stores.Interactions.Create(ctx, it); err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}

	botPayload := event.Interaction{
		ID:            it.ID,
		ApplicationID: app.ID,
		Type:          it.Type,
		Token:         it.Token,
		Version:       1,
		ChannelID:     c.ID,
		GuildID:       c.GuildID,
		Data:          rawData,
	}
	if member != nil {
		m, err := s.Serializer.Member(ctx, *member)
		if err != nil {
			return err
		}
		botPayload.Member = &m
	} else {
		u, err := s.Serializer.User(ctx, userID)
		if err != nil {
			return err
		}
		botPayload.User = &u
	}

	s.Logger.Info("Interactions: interaction created",
		"interaction_id", it.ID,
		"application_id", app.ID,
		"command", cmd.Name,
		"user_id", userID)
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusInteractionCreate,
		s.invoker(it), event.InteractionState{ID: it.ID, Nonce: it.Nonce})
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusInteractionCreate,
		event.Data{UserIDs: []int64{app.ID}}, botPayload)

	s.watch(it)
	return nil
}

// invoker addresses the session that created it, or all sessions of the
// invoking user when the session is unknown.
func (s *Interactions) invoker(it model.Interaction) event.Data {
	return event.Data{UserIDs: []int64{it.UserID}, SessionID: it.SessionID}
}

// watch starts the response watchdog of it.
func (s *Interactions) watch(it model.Interaction) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.watchdogs[it.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.forget(it.ID)

		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		s.expire(it)
	}()
}

func (s *Interactions) forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.watchdogs[id]; ok {
		cancel()
		delete(s.watchdogs, id)
	}
}

// expire fails it when it is still pending. Another process may have taken
// the callback, so the stored status decides.
func (s *Interactions) expire(it model.Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	current, err := s.Stores.Interactions.GetByID(ctx, it.ID)
	if errors.Is(err, model.ErrNotFound) {
		return
	}
	if err != nil {
		s.Logger.Error("Interactions: failed to load interaction for timeout",
			"interaction_id", it.ID,
			"error", err)
		return
	}
	if current.Status != model.InteractionPending {
		return
	}
	if err := s.Stores.Interactions.Delete(ctx, it.ID); err != nil {
		s.Logger.Error("Interactions: failed to delete timed out interaction",
			"interaction_id", it.ID,
			"error", err)
		return
	}

	s.Logger.Info("Interactions: interaction timed out",
		"interaction_id", it.ID,
		"application_id", it.ApplicationID)
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusInteractionFailure,
		s.invoker(it), event.InteractionState{ID: it.ID, Nonce: it.Nonce})
}

// Callback handles the bot's answer to a pending interaction.
func (s *Interactions) Callback(ctx context.Context, interactionID int64, token string, cb InteractionCallback) (event.Message, error) {
	it, err := s.Stores.Interactions.GetByID(ctx, interactionID)
	if errors.Is(err, model.ErrNotFound) {
		return event.Message{}, model.ErrUnknownInteraction
	}
	if err != nil {
		return event.Message{}, fmt.Errorf("failed to get interaction: %w", err)
	}
	if it.Token != token {
		return event.Message{}, model.ErrUnknownInteraction
	}

	var next model.InteractionStatus
	switch cb.Type {
	case model.CallbackChannelMessageWithSource:
		next = model.InteractionResponded
	case model.CallbackDeferredChannelMessageWithSource:
		next = model.InteractionDeferred
	default:
		return event.Message{}, model.InvalidForm("type", model.CodeBaseTypeChoices, "Value must be one of {4, 5}.")
	}

	data := cb.Data
	if data == nil {
		data = &InteractionCallbackData{}
	}
	if next == model.InteractionResponded {
		if err := validateCallback(data); err != nil {
			return event.Message{}, err
		}
	}

	ok, err := s.Stores.Interactions.SetStatus(ctx, it.ID, model.InteractionPending, next)
	if err != nil {
		return event.Message{}, fmt.Errorf("failed to set interaction status: %w", err)
	}
	if !ok {
		return event.Message{}, model.ErrAlreadyResponded
	}
	s.forget(it.ID)

	msg := model.Message{
		ID:            s.IDs.Next(),
		ChannelID:     it.ChannelID,
		GuildID:       it.GuildID,
		AuthorID:      &it.ApplicationID,
		ApplicationID: &it.ApplicationID,
		InteractionID: &it.ID,
		Type:          model.MessageTypeChatInputCommand,
		Flags:         data.Flags & model.MessageFlagEphemeral,
	}
	if next == model.InteractionDeferred {
		msg.Flags |= model.MessageFlagLoading
	} else {
		msg.Content = data.Content
		msg.Embeds = data.Embeds
		msg.TTS = data.TTS
		msg.Components = data.Components
	}

	rendered, err := s.deliver(ctx, it, msg)
	if err != nil {
		return event.Message{}, err
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusInteractionSuccess,
		s.invoker(it), event.InteractionState{ID: it.ID, Nonce: it.Nonce})
	return rendered, nil
}

// deliver stores and announces a response message. Ephemeral messages are
// never stored and reach only the invoking session and the bot.
func (s *Interactions) deliver(ctx context.Context, it model.Interaction, msg model.Message) (event.Message, error) {
	var (
		rendered event.Message
		err      error
	)
	if msg.Ephemeral() {
		rendered, err = s.Serializer.Message(ctx, msg)
	} else {
		var c model.Channel
		c, err = s.Stores.Channels.GetByID(ctx, it.ChannelID)
		if errors.Is(err, model.ErrNotFound) {
			return event.Message{}, model.ErrUnknownChannel
		}
		if err != nil {
			return event.Message{}, fmt.Errorf("failed to get channel: %w", err)
		}
		var stored model.Message
		if stored, err = s.Stores.Messages.Create(ctx, msg); err != nil {
			return event.Message{}, fmt.Errorf("failed to create message: %w", err)
		}
		if err = s.Stores.Channels.SetLastMessage(ctx, c.ID, stored.ID); err != nil {
			return event.Message{}, fmt.Errorf("failed to set last message: %w", err)
		}
		rendered, err = s.Serializer.Message(ctx, stored)
	}
	if err != nil {
		return event.Message{}, err
	}
	if rendered.Interaction, err = s.messageInteraction(ctx, it); err != nil {
		return event.Message{}, err
	}

	if msg.Ephemeral() {
		s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageCreate,
			s.invoker(it), rendered)
		s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageCreate,
			event.Data{UserIDs: []int64{it.ApplicationID}}, rendered)
		return rendered, nil
	}
	s.Publisher.Publish(ctx, pubsub.TopicMessageEvents, event.BusMessageCreate,
		event.Data{ChannelID: it.ChannelID}, rendered)
	return rendered, nil
}

func (s *Interactions) messageInteraction(ctx context.Context, it model.Interaction) (*event.MessageInteraction, error) {
	var data struct {
		Name string `json:"name"`
	}
	if len(it.Data) > 0 {
		if err := json.Unmarshal(it.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode interaction data: %w", err)
		}
	}
	user, err := s.Serializer.User(ctx, it.UserID)
	if err != nil {
		return nil, err
	}
	return &event.MessageInteraction{ID: it.ID, Type: it.Type, Name: data.Name, User: user}, nil
}

func validateCallback(d *InteractionCallbackData) error {
	var fe model.FormErrors
	if strings.TrimSpace(d.Content) == "" && len(d.Embeds) == 0 {
		fe.Add("data.content", model.CodeBaseTypeRequired, "This field is required")
	}
	if utf8.RuneCountInString(d.Content) > model.MaxMessageLength {
		fe.Add("data.content", model.CodeBaseTypeMaxLength, "Must be 2000 or fewer in length.")
	}
	validateEmbeds(&fe, d.Embeds)
	return fe.Err()
}

// Close stops every watchdog and waits for the running ones to return.
func (s *Interactions) Close() {
	s.mu.Lock()
	for id, cancel := range s.watchdogs {
		cancel()
		delete(s.watchdogs, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// resolver validates option values against a command schema, coercing
// scalar values and resolving referenced entities.
type resolver struct {
	deps     Deps
	userID   int64
	channel  model.Channel
	resolved *event.Resolved
	err      error
}

func (r *resolver) options(ctx context.Context, fe *model.FormErrors, path string, schema []model.CommandOption, given []InteractionOption) []event.InteractionOption {
	byName := make(map[string]InteractionOption, len(given))
	for _, o := range given {
		if _, dup := byName[o.Name]; dup {
			fe.Add(path+"."+o.Name, model.CodeInteractionOption, "Duplicate option")
			continue
		}
		byName[o.Name] = o
	}

	known := make(map[string]struct{}, len(schema))
	var out []event.InteractionOption
	for _, opt := range schema {
		known[opt.Name] = struct{}{}
		p := path + "." + opt.Name
		o, ok := byName[opt.Name]
		if !ok {
			if opt.Required {
				fe.Add(p, model.CodeBaseTypeRequired, "This field is required")
			}
			continue
		}
		if o.Type != opt.Type {
			fe.Add(p, model.CodeInteractionOption, "Option type mismatch")
			continue
		}

		if opt.Type == model.OptionSubCommand || opt.Type == model.OptionSubCommandGroup {
			out = append(out, event.InteractionOption{
				Type:    opt.Type,
				Name:    opt.Name,
				Options: r.options(ctx, fe, p, opt.Options, o.Options),
			})
			continue
		}

		value, ok := r.value(ctx, fe, p, opt, o.Value)
		if !ok {
			continue
		}
		out = append(out, event.InteractionOption{Type: opt.Type, Name: opt.Name, Value: value})
	}

	for _, o := range given {
		if _, ok := known[o.Name]; !ok {
			fe.Add(path+"."+o.Name, model.CodeInteractionOption, "Unknown option")
		}
	}
	return out
}

// value coerces one scalar option. Reference options are resolved and
// returned as id strings.
func (r *resolver) value(ctx context.Context, fe *model.FormErrors, path string, opt model.CommandOption, raw json.RawMessage) (any, bool) {
	var (
		value any
		ok    bool
	)
	switch opt.Type {
	case model.OptionString:
		value, ok = coerceString(raw)
		if !ok {
			fe.Add(path, model.CodeInteractionOption, "Value must be a string")
		}
	case model.OptionInteger:
		value, ok = coerceInteger(raw)
		if !ok {
			fe.Add(path, model.CodeNumberTypeCoerce, "Value is not int.")
		}
	case model.OptionNumber:
		value, ok = coerceNumber(raw)
		if !ok {
			fe.Add(path, model.CodeNumberTypeCoerce, "Value is not float.")
		}
	case model.OptionBoolean:
		value, ok = coerceBool(raw)
		if !ok {
			fe.Add(path, model.CodeBooleanTypeCoerce, "Value is not boolean.")
		}
	case model.OptionUser, model.OptionChannel, model.OptionRole, model.OptionMentionable:
		id, idOK := coerceID(raw)
		if !idOK {
			fe.Add(path, model.CodeNumberTypeCoerce, "Value is not snowflake.")
			return nil, false
		}
		ok = r.resolve(ctx, fe, path, opt.Type, id)
		value = strconv.FormatInt(id, 10)
	default:
		fe.Add(path, model.CodeInteractionOption, "Unsupported option type")
	}
	if !ok {
		return nil, false
	}

	if len(opt.Choices) > 0 && !matchesChoice(value, opt.Choices) {
		fe.Add(path, model.CodeBaseTypeChoices, "Value must be one of the choices.")
		return nil, false
	}
	return value, true
}

// resolve checks that id names an entity of kind visible from the
// interaction's channel and records it.
func (r *resolver) resolve(ctx context.Context, fe *model.FormErrors, path string, kind int, id int64) bool {
	if r.err != nil {
		return false
	}
	switch kind {
	case model.OptionUser:
		return r.resolveUser(ctx, fe, path, id)
	case model.OptionChannel:
		return r.resolveChannel(ctx, fe, path, id)
	case model.OptionRole:
		return r.resolveRole(ctx, fe, path, id)
	case model.OptionMentionable:
		if r.channel.GuildID != nil {
			if _, err := r.deps.Stores.Guilds.GetRole(ctx, *r.channel.GuildID, id); err == nil {
				return r.resolveRole(ctx, fe, path, id)
			}
		}
		return r.resolveUser(ctx, fe, path, id)
	}
	return false
}

func (r *resolver) resolveUser(ctx context.Context, fe *model.FormErrors, path string, id int64) bool {
	u, err := r.deps.Stores.Users.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) || (err == nil && u.Deleted) {
		fe.Add(path, model.CodeInteractionOption, "Unknown user")
		return false
	}
	if err != nil {
		r.err = fmt.Errorf("failed to get user: %w", err)
		return false
	}

	key := strconv.FormatInt(id, 10)
	if r.channel.GuildID != nil {
		m, err := r.deps.Stores.Guilds.GetMember(ctx, *r.channel.GuildID, id)
		if errors.Is(err, model.ErrNotFound) {
			fe.Add(path, model.CodeInteractionOption, "User is not a member of this guild")
			return false
		}
		if err != nil {
			r.err = fmt.Errorf("failed to get member: %w", err)
			return false
		}
		rendered, err := r.deps.Serializer.Member(ctx, m)
		if err != nil {
			r.err = err
			return false
		}
		if r.resolved.Members == nil {
			r.resolved.Members = make(map[string]event.Member)
		}
		r.resolved.Members[key] = rendered
	} else if !r.channel.HasRecipient(id) {
		fe.Add(path, model.CodeInteractionOption, "User is not a recipient of this channel")
		return false
	}

	user, err := r.deps.Serializer.User(ctx, id)
	if err != nil {
		r.err = err
		return false
	}
	if r.resolved.Users == nil {
		r.resolved.Users = make(map[string]event.User)
	}
	r.resolved.Users[key] = user
	return true
}

func (r *resolver) resolveChannel(ctx context.Context, fe *model.FormErrors, path string, id int64) bool {
	c, err := r.deps.Stores.Channels.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		fe.Add(path, model.CodeInteractionOption, "Unknown channel")
		return false
	}
	if err != nil {
		r.err = fmt.Errorf("failed to get channel: %w", err)
		return false
	}

	sameGuild := r.channel.GuildID != nil && c.GuildID != nil && *c.GuildID == *r.channel.GuildID
	if !sameGuild && c.ID != r.channel.ID {
		fe.Add(path, model.CodeInteractionOption, "Channel is not in this guild")
		return false
	}

	rendered, err := r.deps.Serializer.Channel(ctx, c, r.userID)
	if err != nil {
		r.err = err
		return false
	}
	if r.resolved.Channels == nil {
		r.resolved.Channels = make(map[string]event.Channel)
	}
	r.resolved.Channels[strconv.FormatInt(id, 10)] = rendered
	return true
}

func (r *resolver) resolveRole(ctx context.Context, fe *model.FormErrors, path string, id int64) bool {
	if r.channel.GuildID == nil {
		fe.Add(path, model.CodeInteractionOption, "Roles are only available in guilds")
		return false
	}
	role, err := r.deps.Stores.Guilds.GetRole(ctx, *r.channel.GuildID, id)
	if errors.Is(err, model.ErrNotFound) {
		fe.Add(path, model.CodeInteractionOption, "Unknown role")
		return false
	}
	if err != nil {
		r.err = fmt.Errorf("failed to get role: %w", err)
		return false
	}
	if r.resolved.Roles == nil {
		r.resolved.Roles = make(map[string]event.Role)
	}
	r.resolved.Roles[strconv.FormatInt(id, 10)] = event.NewRole(role)
	return true
}

func coerceString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func coerceInteger(raw json.RawMessage) (int64, bool) {
	f, ok := coerceNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

func coerceNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func coerceID(raw json.RawMessage) (int64, bool) {
	var id model.Snowflake
	if err := json.Unmarshal(bytes.TrimSpace(raw), &id); err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

// matchesChoice compares by canonical string form so that 1 and 1.0 match.
func matchesChoice(value any, choices []model.CommandChoice) bool {
	want := canonical(value)
	for _, c := range choices {
		if canonical(c.Value) == want {
			return true
		}
	}
	return false
}

func canonical(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case int:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
