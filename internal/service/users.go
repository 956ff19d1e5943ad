package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

const maxNoteLength = 256

// UpdateProfileRequest is the body of PATCH /users/@me. Password is
// required when the tag changes.
type UpdateProfileRequest struct {
	model.UserPatch
	Password string `json:"password"`
}

// Users implements the profile, settings and note endpoints.
type Users struct {
	Deps
	auth   *Auth
	tokens *TokenService
}

func NewUsers(deps Deps, auth *Auth, tokens *TokenService) *Users {
	return &Users{Deps: deps, auth: auth, tokens: tokens}
}

// Me renders the private user object of userID.
func (s *Users) Me(ctx context.Context, userID int64) (event.PrivateUser, error) {
	return s.Serializer.PrivateUser(ctx, userID)
}

// Get renders the public user object of targetID.
func (s *Users) Get(ctx context.Context, targetID int64) (event.User, error) {
	if _, err := s.user(ctx, targetID); err != nil {
		return event.User{}, err
	}
	return s.Serializer.User(ctx, targetID)
}

// Profile renders targetID's profile with the guilds it shares with userID.
func (s *Users) Profile(ctx context.Context, userID, targetID int64) (event.Profile, error) {
	if _, err := s.user(ctx, targetID); err != nil {
		return event.Profile{}, err
	}
	data, err := s.Stores.Users.GetData(ctx, targetID)
	if err != nil {
		return event.Profile{}, fmt.Errorf("failed to get user data: %w", err)
	}

	mutual := []event.Mutual{}
	if userID != targetID {
		mutual, err = s.mutualGuilds(ctx, userID, targetID)
		if err != nil {
			return event.Profile{}, err
		}
	}
	return event.NewProfile(data, mutual), nil
}

func (s *Users) mutualGuilds(ctx context.Context, userID, targetID int64) ([]event.Mutual, error) {
	mine, err := s.Stores.Guilds.UserGuilds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guilds: %w", err)
	}
	out := []event.Mutual{}
	for _, g := range mine {
		m, err := s.Stores.Guilds.GetMember(ctx, g.ID, targetID)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get member: %w", err)
		}
		out = append(out, event.Mutual{ID: g.ID, Nick: m.Nick})
	}
	return out, nil
}

// UpdateProfile applies req to the profile of userID. A username change
// keeps the discriminator when it is free under the new name and picks a
// random free one otherwise.
func (s *Users) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (event.PrivateUser, error) {
	before, err := s.Stores.Users.GetData(ctx, userID)
	if err != nil {
		return event.PrivateUser{}, fmt.Errorf("failed to get user data: %w", err)
	}
	patch := req.UserPatch

	var fe model.FormErrors
	if patch.Username.Set {
		patch.Username.Value = strings.TrimSpace(patch.Username.Value)
		if n := utf8.RuneCountInString(patch.Username.Value); n < 2 || n > 32 {
			fe.Add("username", model.CodeBaseTypeBadLength, "Must be between 2 and 32 in length.")
		}
	}
	if patch.Discriminator.Set && (patch.Discriminator.Value < 1 || patch.Discriminator.Value > 9999) {
		fe.Add("discriminator", model.CodeBaseTypeBadLength, "Must be between 1 and 9999.")
	}
	if patch.Bio.Set && utf8.RuneCountInString(patch.Bio.Value) > 190 {
		fe.Add("bio", model.CodeBaseTypeMaxLength, "Must be 190 or fewer in length.")
	}
	if err := fe.Err(); err != nil {
		return event.PrivateUser{}, err
	}

	after := patch.Apply(before)
	tagChanged := after.Username != before.Username || after.Discriminator != before.Discriminator
	if tagChanged {
		if err := s.auth.VerifyPassword(ctx, userID, req.Password); err != nil {
			if errors.Is(err, model.ErrPasswordMismatch) {
				return event.PrivateUser{}, model.InvalidForm("password", model.CodePasswordDoesNotMatch, "Passwords does not match.")
			}
			return event.PrivateUser{}, err
		}
		if after.Discriminator, err = s.freeDiscriminator(ctx, userID, after, patch.Discriminator.Set); err != nil {
			return event.PrivateUser{}, err
		}
	}

	if len(model.DiffUserData(before, after).Changes()) > 0 {
		if err := s.Stores.Users.UpdateData(ctx, after); err != nil {
			return event.PrivateUser{}, fmt.Errorf("failed to update user data: %w", err)
		}
	}

	rendered, err := s.Serializer.PrivateUser(ctx, userID)
	if err != nil {
		return event.PrivateUser{}, err
	}
	s.Logger.Info("Users: profile updated",
		"user_id", userID,
		"tag_changed", tagChanged)
	s.Publisher.Publish(ctx, pubsub.TopicUserEvents, event.BusUserUpdate,
		event.Data{UserID: userID}, rendered)
	return rendered, nil
}

// freeDiscriminator returns a discriminator not used by anyone else under
// d.Username. An explicitly requested one must be free.
func (s *Users) freeDiscriminator(ctx context.Context, userID int64, d model.UserData, explicit bool) (int, error) {
	owner, err := s.Stores.Users.GetByUsername(ctx, d.Username, d.Discriminator)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return d.Discriminator, nil
	case err != nil:
		return 0, fmt.Errorf("failed to check discriminator: %w", err)
	case owner.ID == userID:
		return d.Discriminator, nil
	case explicit:
		return 0, model.InvalidForm("discriminator", model.CodeUsernameTooManyUsers, "This discriminator already used by someone.")
	}

	disc, ok, err := s.Stores.Users.RandomFreeDiscriminator(ctx, d.Username)
	if err != nil {
		return 0, fmt.Errorf("failed to find discriminator: %w", err)
	}
	if !ok {
		return 0, model.InvalidForm("username", model.CodeUsernameTooManyUsers, "This name is used by too many users. Please enter something else and try again.")
	}
	return disc, nil
}

// Settings renders the settings of userID.
func (s *Users) Settings(ctx context.Context, userID int64) (event.UserSettings, error) {
	st, err := s.Stores.Users.GetSettings(ctx, userID)
	if err != nil {
		return event.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return event.NewUserSettings(st), nil
}

// UpdateSettings applies patch and mirrors the result to the user's other
// sessions as a settings proto.
func (s *Users) UpdateSettings(ctx context.Context, userID int64, patch model.SettingsPatch) (event.UserSettings, error) {
	var fe model.FormErrors
	if patch.Status.Set && !validStatus(patch.Status.Value) {
		fe.Add("status", model.CodeBaseTypeChoices, "Value must be one of ('online', 'idle', 'dnd', 'invisible').")
	}
	if patch.Theme.Set && patch.Theme.Value != "dark" && patch.Theme.Value != "light" {
		fe.Add("theme", model.CodeBaseTypeChoices, "Value must be one of ('dark', 'light').")
	}
	if patch.CustomStatus.Set && patch.CustomStatus.Value != nil && utf8.RuneCountInString(patch.CustomStatus.Value.Text) > 128 {
		fe.Add("custom_status.text", model.CodeBaseTypeMaxLength, "Must be 128 or fewer in length.")
	}
	if err := fe.Err(); err != nil {
		return event.UserSettings{}, err
	}

	before, err := s.Stores.Users.GetSettings(ctx, userID)
	if err != nil {
		return event.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	after := patch.Apply(before)
	if err := s.saveSettings(ctx, after); err != nil {
		return event.UserSettings{}, err
	}
	return event.NewUserSettings(after), nil
}

// UpdateSettingsProto merges a base64 settings proto into the settings of
// userID and returns the re-encoded result.
func (s *Users) UpdateSettingsProto(ctx context.Context, userID int64, encoded string) (string, error) {
	before, err := s.Stores.Users.GetSettings(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}
	after, err := event.ApplySettingsProto(before, encoded)
	if err != nil {
		return "", model.InvalidForm("settings", model.CodeBaseTypeRequired, "Invalid settings proto.")
	}
	if !validStatus(after.Status) {
		after.Status = before.Status
	}
	if err := s.saveSettings(ctx, after); err != nil {
		return "", err
	}
	return event.EncodeSettingsProto(after), nil
}

func (s *Users) saveSettings(ctx context.Context, st model.UserSettings) error {
	if err := s.Stores.Users.UpdateSettings(ctx, st); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	s.Publisher.Publish(ctx, pubsub.TopicUserEvents, event.BusUserSettingsProtoUpdate,
		event.Data{UserID: st.UserID},
		event.NewSettingsProtoPayload(event.EncodeSettingsProto(st)))
	return nil
}

func validStatus(status string) bool {
	switch status {
	case model.StatusOnline, model.StatusIdle, model.StatusDND, model.StatusInvisible:
		return true
	}
	return false
}

// Note returns the note userID keeps about targetID.
func (s *Users) Note(ctx context.Context, userID, targetID int64) (event.NotePayload, error) {
	note, err := s.Stores.Users.GetNote(ctx, userID, targetID)
	if errors.Is(err, model.ErrNotFound) {
		return event.NotePayload{}, model.ErrUnknownUser
	}
	if err != nil {
		return event.NotePayload{}, fmt.Errorf("failed to get note: %w", err)
	}
	return event.NotePayload{ID: targetID, Note: note}, nil
}

// SetNote stores a private note about targetID.
func (s *Users) SetNote(ctx context.Context, userID, targetID int64, note string) error {
	if _, err := s.user(ctx, targetID); err != nil {
		return err
	}
	if utf8.RuneCountInString(note) > maxNoteLength {
		return model.InvalidForm("note", model.CodeBaseTypeMaxLength, "Must be 256 or fewer in length.")
	}
	if err := s.Stores.Users.SetNote(ctx, userID, targetID, note); err != nil {
		return fmt.Errorf("failed to set note: %w", err)
	}
	s.Publisher.Publish(ctx, pubsub.TopicUserEvents, event.BusUserNoteUpdate,
		event.Data{UserID: userID}, event.NotePayload{ID: targetID, Note: note})
	return nil
}

// Delete removes the account of userID after checking its password and
// invalidates every session.
func (s *Users) Delete(ctx context.Context, userID int64, password string) error {
	if err := s.auth.VerifyPassword(ctx, userID, password); err != nil {
		if errors.Is(err, model.ErrPasswordMismatch) {
			return model.InvalidForm("password", model.CodePasswordDoesNotMatch, "Passwords does not match.")
		}
		return err
	}
	guilds, err := s.Stores.Guilds.UserGuilds(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get guilds: %w", err)
	}
	for _, g := range guilds {
		if g.OwnerID == userID {
			return model.ErrInvalidGuild
		}
	}

	if err := s.Stores.Users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	s.Logger.Info("Users: account deleted",
		"user_id", userID)
	s.Publisher.Publish(ctx, pubsub.TopicUserEvents, event.BusUserDelete,
		event.Data{UserID: userID}, event.DeletedUser(userID))
	return nil
}
