package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/yepcord/server-sub002/internal/model"
)

// ReadyPayload is the payload of READY.
type ReadyPayload struct {
	V                    int                `json:"v"`
	User                 PrivateUser        `json:"user"`
	UserSettings         UserSettings       `json:"user_settings"`
	UserSettingsProto    string             `json:"user_settings_proto"`
	Guilds               []Guild            `json:"guilds"`
	PrivateChannels      []Channel          `json:"private_channels"`
	Relationships        []Relationship     `json:"relationships"`
	Users                []User             `json:"users"`
	ReadState            ReadStateList      `json:"read_state"`
	UserGuildSettings    ReadStateList      `json:"user_guild_settings"`
	SessionID            string             `json:"session_id"`
	SessionType          string             `json:"session_type"`
	ResumeGatewayURL     string             `json:"resume_gateway_url"`
	Sessions             []Session          `json:"sessions"`
	ConnectedAccounts    []any              `json:"connected_accounts"`
	GuildJoinRequests    []any              `json:"guild_join_requests"`
	Experiments          []any              `json:"experiments"`
	GuildExperiments     []any              `json:"guild_experiments"`
	GeoOrderedRTCRegions []string           `json:"geo_ordered_rtc_regions"`
	CountryCode          string             `json:"country_code"`
	MergedMembers        [][]Member         `json:"merged_members"`
	Consents             map[string]Consent `json:"consents"`
}

// ReadStateList is a versioned list of read state entries.
type ReadStateList struct {
	Version int              `json:"version"`
	Partial bool             `json:"partial"`
	Entries []ReadStateEntry `json:"entries"`
}

// ReadStateEntry is the read marker of one channel.
type ReadStateEntry struct {
	ID            int64  `json:"id,string"`
	LastMessageID int64  `json:"last_message_id,string"`
	MentionCount  int    `json:"mention_count"`
	LastPinTS     string `json:"last_pin_timestamp"`
}

// Session describes the gateway session in READY.
type Session struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Active    bool   `json:"active"`
}

// Consent is one privacy consent flag.
type Consent struct {
	Consented bool `json:"consented"`
}

// Ready renders READY for userID on a new session.
func (s *Serializer) Ready(ctx context.Context, userID int64, sessionID string) (ReadyPayload, error) {
	user, err := s.PrivateUser(ctx, userID)
	if err != nil {
		return ReadyPayload{}, fmt.Errorf("failed to load user: %w", err)
	}
	settings, err := s.stores.Users.GetSettings(ctx, userID)
	if err != nil {
		return ReadyPayload{}, fmt.Errorf("failed to load settings: %w", err)
	}

	guilds, err := s.stores.Guilds.UserGuilds(ctx, userID)
	if err != nil {
		return ReadyPayload{}, fmt.Errorf("failed to load guilds: %w", err)
	}
	rendered := make([]Guild, 0, len(guilds))
	merged := make([][]Member, 0, len(guilds))
	for _, g := range guilds {
		gj, err := s.Guild(ctx, g, userID)
		if err != nil {
			return ReadyPayload{}, fmt.Errorf("failed to render guild %d: %w", g.ID, err)
		}
		rendered = append(rendered, gj)
		merged = append(merged, gj.Members)
	}

	private, err := s.stores.Channels.PrivateChannels(ctx, userID)
	if err != nil {
		return ReadyPayload{}, fmt.Errorf("failed to load private channels: %w", err)
	}
	channels := make([]Channel, 0, len(private))
	related := make(map[int64]struct{})
	for _, c := range private {
		cj, err := s.Channel(ctx, c, userID)
		if err != nil {
			return ReadyPayload{}, err
		}
		channels = append(channels, cj)
		for _, id := range c.Recipients {
			related[id] = struct{}{}
		}
	}

	rels, err := s.Relationships(ctx, userID)
	if err != nil {
		return ReadyPayload{}, err
	}
	for _, r := range rels {
		related[r.ID] = struct{}{}
	}
	delete(related, userID)

	ids := make([]int64, 0, len(related))
	for id := range related {
		ids = append(ids, id)
	}
	users, err := s.Users(ctx, ids)
	if err != nil {
		return ReadyPayload{}, err
	}
	userList := make([]User, 0, len(users))
	for _, id := range sortedIDs(ids) {
		userList = append(userList, users[id])
	}

	states, err := s.stores.ReadStates.GetAll(ctx, userID)
	if err != nil {
		return ReadyPayload{}, fmt.Errorf("failed to load read states: %w", err)
	}
	entries := make([]ReadStateEntry, 0, len(states))
	for _, st := range states {
		entries = append(entries, ReadStateEntry{
			ID:            st.ChannelID,
			LastMessageID: st.LastReadID,
			MentionCount:  st.MentionCount,
			LastPinTS:     "1970-01-01T00:00:00+00:00",
		})
	}

	return ReadyPayload{
		V:                    9,
		User:                 user,
		UserSettings:         NewUserSettings(settings),
		UserSettingsProto:    EncodeSettingsProto(settings),
		Guilds:               rendered,
		PrivateChannels:      channels,
		Relationships:        rels,
		Users:                userList,
		ReadState:            ReadStateList{Version: 1, Entries: entries},
		UserGuildSettings:    ReadStateList{Entries: []ReadStateEntry{}},
		SessionID:            sessionID,
		SessionType:          "normal",
		ResumeGatewayURL:     s.gatewayURL,
		Sessions:             []Session{{SessionID: sessionID, Status: settings.Status, Active: true}},
		ConnectedAccounts:    []any{},
		GuildJoinRequests:    []any{},
		Experiments:          []any{},
		GuildExperiments:     []any{},
		GeoOrderedRTCRegions: []string{},
		CountryCode:          "US",
		MergedMembers:        merged,
		Consents: map[string]Consent{
			"personalization": {Consented: settings.PersonalizationConsent},
		},
	}, nil
}

// SupplementalPayload is the payload of READY_SUPPLEMENTAL.
type SupplementalPayload struct {
	MergedPresences     MergedPresences   `json:"merged_presences"`
	MergedMembers       [][]Member        `json:"merged_members"`
	Guilds              []SupplementGuild `json:"guilds"`
	LazyPrivateChannels []any             `json:"lazy_private_channels"`
	Disclose            []string          `json:"disclose"`
}

// MergedPresences groups presences of friends and of guild members.
type MergedPresences struct {
	Friends []Presence   `json:"friends"`
	Guilds  [][]Presence `json:"guilds"`
}

// SupplementGuild is a guild placeholder in READY_SUPPLEMENTAL.
type SupplementGuild struct {
	ID                 int64 `json:"id,string"`
	VoiceStates        []any `json:"voice_states"`
	EmbeddedActivities []any `json:"embedded_activities"`
}

// ReadySupplemental renders READY_SUPPLEMENTAL for userID.
func (s *Serializer) ReadySupplemental(ctx context.Context, userID int64) (SupplementalPayload, error) {
	friends, err := s.stores.Relationships.FriendIDs(ctx, userID)
	if err != nil {
		return SupplementalPayload{}, fmt.Errorf("failed to load friends: %w", err)
	}
	out := SupplementalPayload{
		MergedPresences: MergedPresences{
			Friends: make([]Presence, 0, len(friends)),
			Guilds:  [][]Presence{},
		},
		MergedMembers:       [][]Member{},
		Guilds:              []SupplementGuild{},
		LazyPrivateChannels: []any{},
		Disclose:            []string{},
	}
	for _, id := range sortedIDs(friends) {
		p := s.Presence(ctx, id)
		if p.PublicStatus() == model.StatusOffline {
			continue
		}
		pj := NewPresence(p)
		pj.UserID = id
		out.MergedPresences.Friends = append(out.MergedPresences.Friends, pj)
	}

	guilds, err := s.stores.Guilds.UserGuilds(ctx, userID)
	if err != nil {
		return SupplementalPayload{}, fmt.Errorf("failed to load guilds: %w", err)
	}
	for _, g := range guilds {
		out.Guilds = append(out.Guilds, SupplementGuild{ID: g.ID, VoiceStates: []any{}, EmbeddedActivities: []any{}})
		out.MergedPresences.Guilds = append(out.MergedPresences.Guilds, []Presence{})
		out.MergedMembers = append(out.MergedMembers, []Member{})
	}
	return out, nil
}

// MemberListPageSize is how many members one member list sync carries.
const MemberListPageSize = 100

// MemberListUpdatePayload is the payload of GUILD_MEMBER_LIST_UPDATE.
type MemberListUpdatePayload struct {
	ID          string            `json:"id"`
	GuildID     int64             `json:"guild_id,string"`
	MemberCount int               `json:"member_count"`
	OnlineCount int               `json:"online_count"`
	Groups      []MemberListGroup `json:"groups"`
	Ops         []MemberListOp    `json:"ops"`
}

// MemberListGroup is a status group header.
type MemberListGroup struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// MemberListOp is one list operation; only SYNC is produced.
type MemberListOp struct {
	Op    string           `json:"op"`
	Range [2]int           `json:"range"`
	Items []MemberListItem `json:"items"`
}

// MemberListItem is either a group header or a member.
type MemberListItem struct {
	Group  *MemberListGroup `json:"group,omitempty"`
	Member *ListMember      `json:"member,omitempty"`
}

// ListMember is a member with its presence.
type ListMember struct {
	Member
	Presence Presence `json:"presence"`
}

// MemberListUpdate renders the first page of the member list of guildID,
// online members first, each group sorted by display name.
func (s *Serializer) MemberListUpdate(ctx context.Context, guildID int64) (MemberListUpdatePayload, error) {
	members, err := s.stores.Guilds.Members(ctx, guildID, MemberListPageSize)
	if err != nil {
		return MemberListUpdatePayload{}, fmt.Errorf("failed to load members: %w", err)
	}
	total, err := s.stores.Guilds.MemberCount(ctx, guildID)
	if err != nil {
		return MemberListUpdatePayload{}, fmt.Errorf("failed to count members: %w", err)
	}
	rendered, err := s.Members(ctx, members)
	if err != nil {
		return MemberListUpdatePayload{}, err
	}

	var online, offline []ListMember
	for _, m := range rendered {
		p := s.Presence(ctx, m.User.ID)
		pj := NewPresenceUpdate(p)
		lm := ListMember{Member: m, Presence: pj}
		if pj.Status == model.StatusOffline {
			offline = append(offline, lm)
		} else {
			online = append(online, lm)
		}
	}
	sortListMembers(online)
	sortListMembers(offline)

	items := make([]MemberListItem, 0, len(rendered)+2)
	groups := make([]MemberListGroup, 0, 2)
	for _, g := range []struct {
		id      string
		members []ListMember
	}{{"online", online}, {"offline", offline}} {
		group := MemberListGroup{ID: g.id, Count: len(g.members)}
		groups = append(groups, group)
		if len(g.members) == 0 {
			continue
		}
		items = append(items, MemberListItem{Group: &group})
		for i := range g.members {
			items = append(items, MemberListItem{Member: &g.members[i]})
		}
	}

	return MemberListUpdatePayload{
		ID:          "everyone",
		GuildID:     guildID,
		MemberCount: total,
		OnlineCount: len(online),
		Groups:      groups,
		Ops: []MemberListOp{{
			Op:    "SYNC",
			Range: [2]int{0, MemberListPageSize - 1},
			Items: items,
		}},
	}, nil
}

func sortListMembers(members []ListMember) {
	plain := make([]Member, len(members))
	index := make(map[int64]ListMember, len(members))
	for i, m := range members {
		plain[i] = m.Member
		index[m.User.ID] = m
	}
	sortMembers(plain)
	for i, m := range plain {
		members[i] = index[m.User.ID]
	}
}

// MembersChunkPayload is the payload of GUILD_MEMBERS_CHUNK.
type MembersChunkPayload struct {
	GuildID    int64      `json:"guild_id,string"`
	Members    []Member   `json:"members"`
	ChunkIndex int        `json:"chunk_index"`
	ChunkCount int        `json:"chunk_count"`
	NotFound   []string   `json:"not_found"`
	Presences  []Presence `json:"presences,omitempty"`
	Nonce      string     `json:"nonce,omitempty"`
}

// MembersChunk renders members of guildID whose name starts with query, or
// the members named by userIDs when it is not empty.
func (s *Serializer) MembersChunk(ctx context.Context, guildID int64, query string, userIDs []int64, limit int, presences bool, nonce string) (MembersChunkPayload, error) {
	if limit <= 0 || limit > MemberListPageSize {
		limit = MemberListPageSize
	}

	var (
		members  []model.GuildMember
		notFound = []string{}
	)
	if len(userIDs) > 0 {
		for _, id := range userIDs {
			m, err := s.stores.Guilds.GetMember(ctx, guildID, id)
			if err != nil {
				notFound = append(notFound, fmt.Sprint(id))
				continue
			}
			members = append(members, m)
		}
	} else {
		all, err := s.stores.Guilds.Members(ctx, guildID, 0)
		if err != nil {
			return MembersChunkPayload{}, fmt.Errorf("failed to load members: %w", err)
		}
		members = all
	}

	rendered, err := s.Members(ctx, members)
	if err != nil {
		return MembersChunkPayload{}, err
	}

	query = strings.ToLower(query)
	out := MembersChunkPayload{GuildID: guildID, Members: []Member{}, ChunkCount: 1, NotFound: notFound, Nonce: nonce}
	for _, m := range rendered {
		if len(out.Members) == limit {
			break
		}
		if query != "" && !strings.HasPrefix(memberSortKey(m), query) && !strings.HasPrefix(strings.ToLower(m.User.Username), query) {
			continue
		}
		out.Members = append(out.Members, m)
		if presences {
			pj := NewPresenceUpdate(s.Presence(ctx, m.User.ID))
			out.Presences = append(out.Presences, pj)
		}
	}
	return out, nil
}
