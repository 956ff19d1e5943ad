package model

import "context"

// RelationshipStore persists friendships, pending requests and blocks.
type RelationshipStore interface {
	Get(ctx context.Context, userA, userB int64) (Relationship, error)
	GetAll(ctx context.Context, userID int64) ([]Relationship, error)
	Blocked(ctx context.Context, blocker, target int64) (bool, error)
	Request(ctx context.Context, from, to int64) error
	Accept(ctx context.Context, from, to int64) error
	Delete(ctx context.Context, userA, userB int64) (Relationship, error)
	Block(ctx context.Context, blocker, target int64) error
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RelationshipType is the stored state of a relationship row.
type RelationshipType int

const (
	RelationshipFriend  RelationshipType = 1
	RelationshipBlock   RelationshipType = 2
	RelationshipPending RelationshipType = 4
)

// Relationship types as seen by a client.
const (
	RelTypeFriend   = 1
	RelTypeBlocked  = 2
	RelTypeIncoming = 3
	RelTypeOutgoing = 4
)

// Relationship is a row between two users. For pending rows User1 sent the
// request to User2; for blocks User1 blocked User2.
type Relationship struct {
	User1 int64
	User2 int64
	Type  RelationshipType
}

// Other returns the user on the other side of the relationship.
func (r Relationship) Other(userID int64) int64 {
	if r.User1 == userID {
		return r.User2
	}
	return r.User1
}

// TypeFor returns the client-facing type for userID, or 0 if userID should
// not see this row (the blocked side of a block).
func (r Relationship) TypeFor(userID int64) int {
	switch r.Type {
	case RelationshipFriend:
		return RelTypeFriend
	case RelationshipPending:
		if r.User1 == userID {
			return RelTypeOutgoing
		}
		return RelTypeIncoming
	case RelationshipBlock:
		if r.User1 == userID {
			return RelTypeBlocked
		}
	}
	return 0
}
