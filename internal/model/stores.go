package model

// Stores bundles the persistence layer handed to services and the gateway.
type Stores struct {
	Users         UserStore
	Sessions      SessionStore
	Channels      ChannelStore
	Messages      MessageStore
	Guilds        GuildStore
	Relationships RelationshipStore
	ReadStates    ReadStateStore
	Invites       InviteStore
	Interactions  InteractionStore
	Applications  ApplicationStore
}
