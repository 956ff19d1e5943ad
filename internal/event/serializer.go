package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yepcord/server-sub002/internal/cdn"
	"github.com/yepcord/server-sub002/internal/model"
)

// PresenceReader looks up current presences.
type PresenceReader interface {
	Get(ctx context.Context, userID int64) (model.Presence, bool, error)
}

// Serializer renders payloads that need the store.
type Serializer struct {
	stores     model.Stores
	presences  PresenceReader
	urls       cdn.URLs
	gatewayURL string
}

// NewSerializer creates a Serializer. presences may be nil on processes that
// do not track presence; everyone then appears offline.
func NewSerializer(stores model.Stores, presences PresenceReader, urls cdn.URLs, gatewayURL string) *Serializer {
	return &Serializer{stores: stores, presences: presences, urls: urls, gatewayURL: gatewayURL}
}

// URLs returns the CDN link builder.
func (s *Serializer) URLs() cdn.URLs {
	return s.urls
}

// User renders one public user.
func (s *Serializer) User(ctx context.Context, userID int64) (User, error) {
	d, err := s.stores.Users.GetData(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return DeletedUser(userID), nil
	}
	if err != nil {
		return User{}, err
	}
	return NewUser(d), nil
}

// Users renders public users keyed by id. Unknown ids map to deleted users.
func (s *Serializer) Users(ctx context.Context, ids []int64) (map[int64]User, error) {
	out := make(map[int64]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	data, err := s.stores.Users.GetDataMany(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, d := range data {
		out[d.UserID] = NewUser(d)
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = DeletedUser(id)
		}
	}
	return out, nil
}

// PrivateUser renders userID for themselves.
func (s *Serializer) PrivateUser(ctx context.Context, userID int64) (PrivateUser, error) {
	u, err := s.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return PrivateUser{}, err
	}
	d, err := s.stores.Users.GetData(ctx, userID)
	if err != nil {
		return PrivateUser{}, err
	}
	st, err := s.stores.Users.GetSettings(ctx, userID)
	if err != nil {
		return PrivateUser{}, err
	}
	return NewPrivateUser(u, d, st), nil
}

// Channel renders c for viewerID. Private channel recipients exclude the viewer.
func (s *Serializer) Channel(ctx context.Context, c model.Channel, viewerID int64) (Channel, error) {
	if !c.IsPrivate() {
		return NewChannel(c, nil), nil
	}
	others := make([]int64, 0, len(c.Recipients))
	for _, id := range c.Recipients {
		if id != viewerID {
			others = append(others, id)
		}
	}
	users, err := s.Users(ctx, others)
	if err != nil {
		return Channel{}, err
	}
	recipients := make([]User, 0, len(others))
	for _, id := range others {
		recipients = append(recipients, users[id])
	}
	return NewChannel(c, recipients), nil
}

// Member renders m with its user.
func (s *Serializer) Member(ctx context.Context, m model.GuildMember) (Member, error) {
	u, err := s.User(ctx, m.UserID)
	if err != nil {
		return Member{}, err
	}
	return NewMember(m, u), nil
}

// Members renders members in order.
func (s *Serializer) Members(ctx context.Context, members []model.GuildMember) ([]Member, error) {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := s.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(members))
	for _, m := range members {
		out = append(out, NewMember(m, users[m.UserID]))
	}
	return out, nil
}

// Guild renders g as seen by viewerID, who must be a member.
func (s *Serializer) Guild(ctx context.Context, g model.Guild, viewerID int64) (Guild, error) {
	roles, err := s.stores.Guilds.Roles(ctx, g.ID)
	if err != nil {
		return Guild{}, fmt.Errorf("failed to load roles: %w", err)
	}
	emojis, err := s.stores.Guilds.Emojis(ctx, g.ID)
	if err != nil {
		return Guild{}, fmt.Errorf("failed to load emojis: %w", err)
	}
	channels, err := s.stores.Channels.GuildChannels(ctx, g.ID)
	if err != nil {
		return Guild{}, fmt.Errorf("failed to load channels: %w", err)
	}
	count, err := s.stores.Guilds.MemberCount(ctx, g.ID)
	if err != nil {
		return Guild{}, fmt.Errorf("failed to count members: %w", err)
	}

	out := NewGuild(g, roles, emojis)
	out.Channels = make([]Channel, 0, len(channels))
	for _, c := range channels {
		out.Channels = append(out.Channels, NewChannel(c, nil))
	}
	out.Threads = []any{}
	out.GuildScheduledEvents = []any{}
	out.StageInstances = []any{}
	out.MemberCount = count
	out.Large = count > LargeThreshold
	out.Lazy = true
	out.Members = []Member{}

	member, err := s.stores.Guilds.GetMember(ctx, g.ID, viewerID)
	switch {
	case err == nil:
		m, err := s.Member(ctx, member)
		if err != nil {
			return Guild{}, err
		}
		out.Members = append(out.Members, m)
		out.JoinedAt = m.JoinedAt
	case !errors.Is(err, model.ErrNotFound):
		return Guild{}, fmt.Errorf("failed to load member: %w", err)
	}
	return out, nil
}

// Message renders one message.
func (s *Serializer) Message(ctx context.Context, m model.Message) (Message, error) {
	out, err := s.Messages(ctx, []model.Message{m})
	if err != nil {
		return Message{}, err
	}
	return out[0], nil
}

// Messages renders messages in order, loading all referenced users at once.
func (s *Serializer) Messages(ctx context.Context, msgs []model.Message) ([]Message, error) {
	var ids []int64
	for _, m := range msgs {
		ids = append(ids, MessageUserIDs(m)...)
	}
	users, err := s.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewMessage(m, users, s.urls))
	}
	return out, nil
}

// Relationships renders the relationships visible to userID.
func (s *Serializer) Relationships(ctx context.Context, userID int64) ([]Relationship, error) {
	rels, err := s.stores.Relationships.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}
	var ids []int64
	for _, r := range rels {
		ids = append(ids, r.Other(userID))
	}
	users, err := s.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Relationship, 0, len(rels))
	for _, r := range rels {
		t := r.TypeFor(userID)
		if t == 0 {
			continue
		}
		other := r.Other(userID)
		out = append(out, Relationship{ID: other, Type: t, User: users[other]})
	}
	return out, nil
}

// Relationship renders the relationship of userID with otherID with type t.
func (s *Serializer) Relationship(ctx context.Context, otherID int64, t int) (Relationship, error) {
	u, err := s.User(ctx, otherID)
	if err != nil {
		return Relationship{}, err
	}
	return Relationship{ID: otherID, Type: t, User: u}, nil
}

// Presence is the JSON form of a presence.
type Presence struct {
	UserID       int64             `json:"user_id,string,omitempty"`
	User         *PresenceUser     `json:"user,omitempty"`
	GuildID      *int64            `json:"guild_id,string,omitempty"`
	Status       string            `json:"status"`
	Activities   []model.Activity  `json:"activities"`
	LastModified int64             `json:"last_modified,omitempty"`
	ClientStatus map[string]string `json:"client_status"`
}

// PresenceUser identifies the subject of a PRESENCE_UPDATE.
type PresenceUser struct {
	ID int64 `json:"id,string"`
}

// NewPresence renders p with invisible shown as offline.
func NewPresence(p model.Presence) Presence {
	status := p.PublicStatus()
	activities := p.Activities
	clientStatus := map[string]string{}
	if status == model.StatusOffline {
		activities = nil
	} else {
		clientStatus["desktop"] = status
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	return Presence{
		Status:       status,
		Activities:   activities,
		LastModified: p.LastModified,
		ClientStatus: clientStatus,
	}
}

// NewPresenceUpdate renders the PRESENCE_UPDATE payload for p.
func NewPresenceUpdate(p model.Presence) Presence {
	out := NewPresence(p)
	out.User = &PresenceUser{ID: p.UserID}
	return out
}

// Presence returns the current presence of userID, offline if unknown.
func (s *Serializer) Presence(ctx context.Context, userID int64) model.Presence {
	if s.presences != nil {
		p, ok, err := s.presences.Get(ctx, userID)
		if err == nil && ok {
			return p
		}
	}
	return model.Presence{UserID: userID, Status: model.StatusOffline}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// memberSortKey orders member list entries by display name.
func memberSortKey(m Member) string {
	if m.Nick != nil && *m.Nick != "" {
		return strings.ToLower(*m.Nick)
	}
	return strings.ToLower(m.User.Username)
}

func sortMembers(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return memberSortKey(members[i]) < memberSortKey(members[j])
	})
}

func sortedIDs(ids []int64) []int64 {
	out := dedupe(ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
