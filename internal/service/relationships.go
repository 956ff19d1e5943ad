package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
)

// Relationships manages friend requests, friendships and blocks.
type Relationships struct {
	Deps
}

func NewRelationships(deps Deps) *Relationships {
	return &Relationships{Deps: deps}
}

// List returns the relationships of userID as that user sees them.
func (s *Relationships) List(ctx context.Context, userID int64) ([]event.Relationship, error) {
	return s.Serializer.Relationships(ctx, userID)
}

// RequestByTag sends a friend request to username#discriminator.
func (s *Relationships) RequestByTag(ctx context.Context, userID int64, username, discriminator string) error {
	disc, err := strconv.Atoi(discriminator)
	if err != nil {
		return model.InvalidForm("discriminator", model.CodeNumberTypeCoerce, "Value \""+discriminator+"\" is not int.")
	}
	target, err := s.Stores.Users.GetByUsername(ctx, username, disc)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("failed to get user by username: %w", err)
	}
	return s.Request(ctx, userID, target.ID)
}

// Request sends a friend request from userID to targetID. A pending request
// in the other direction is accepted instead.
func (s *Relationships) Request(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return model.ErrCannotFriendSelf
	}
	if _, err := s.user(ctx, targetID); err != nil {
		return err
	}

	blocked, err := s.Stores.Relationships.Blocked(ctx, targetID, userID)
	if err != nil {
		return err
	}
	if blocked {
		return model.ErrRequestBlocked
	}

	existing, err := s.Stores.Relationships.Get(ctx, userID, targetID)
	switch {
	case errors.Is(err, model.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to get relationship: %w", err)
	case existing.Type == model.RelationshipFriend:
		return model.ErrAlreadyFriends
	case existing.Type == model.RelationshipBlock:
		return model.ErrRequestBlocked
	case existing.Type == model.RelationshipPending && existing.User1 == targetID:
		return s.Accept(ctx, userID, targetID)
	default:
		return model.ErrRelationshipExists
	}

	if err := s.Stores.Relationships.Request(ctx, userID, targetID); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.ErrRelationshipExists
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}

	s.Logger.Info("Relationships: friend request sent",
		"user_id", userID,
		"target_id", targetID)
	s.Publisher.Relationship(ctx, event.BusRelationshipReq, event.RelationshipData{
		CurrentUser: userID,
		TargetUser:  targetID,
		CurrentType: model.RelTypeOutgoing,
		TargetType:  model.RelTypeIncoming,
	})
	return nil
}

// Accept turns the pending request from targetID into a friendship and
// opens a DM between the two if none exists.
func (s *Relationships) Accept(ctx context.Context, userID, targetID int64) error {
	existing, err := s.Stores.Relationships.Get(ctx, userID, targetID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("failed to get relationship: %w", err)
	}
	switch {
	case existing.Type == model.RelationshipFriend:
		return model.ErrAlreadyFriends
	case existing.Type != model.RelationshipPending || existing.User1 != targetID:
		return model.ErrRelationshipExists
	}

	if err := s.Stores.Relationships.Accept(ctx, targetID, userID); err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}

	dm, created, err := openDM(ctx, s.Deps, userID, targetID)
	if err != nil {
		return err
	}

	s.Logger.Info("Relationships: friend request accepted",
		"user_id", userID,
		"target_id", targetID,
		"channel_id", dm.ID)
	s.Publisher.Relationship(ctx, event.BusRelationshipAcc, event.RelationshipData{
		CurrentUser:    userID,
		TargetUser:     targetID,
		CurrentType:    model.RelTypeFriend,
		TargetType:     model.RelTypeFriend,
		ChannelID:      dm.ID,
		ChannelCreated: created,
	})
	return nil
}

// Remove unfriends, cancels or declines a request, or unblocks. Each side is
// told which of its entries disappeared.
func (s *Relationships) Remove(ctx context.Context, userID, targetID int64) error {
	existing, err := s.Stores.Relationships.Get(ctx, userID, targetID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("failed to get relationship: %w", err)
	}
	if existing.TypeFor(userID) == 0 {
		// Being blocked is invisible to the blocked side.
		return model.ErrUnknownUser
	}

	removed, err := s.Stores.Relationships.Delete(ctx, userID, targetID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}

	s.Logger.Info("Relationships: relationship removed",
		"user_id", userID,
		"target_id", targetID,
		"type", removed.Type)
	s.Publisher.Relationship(ctx, event.BusRelationshipDel, event.RelationshipData{
		CurrentUser: userID,
		TargetUser:  targetID,
		CurrentType: removed.TypeFor(userID),
		TargetType:  removed.TypeFor(targetID),
	})
	return nil
}

// Block replaces any relationship with a block by userID. The target loses
// whatever entry it had.
func (s *Relationships) Block(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return model.ErrCannotFriendSelf
	}
	if _, err := s.user(ctx, targetID); err != nil {
		return err
	}

	var previous int
	existing, err := s.Stores.Relationships.Get(ctx, userID, targetID)
	switch {
	case errors.Is(err, model.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to get relationship: %w", err)
	case existing.Type == model.RelationshipBlock && existing.User1 == userID:
		return nil
	default:
		previous = existing.TypeFor(targetID)
	}

	if err := s.Stores.Relationships.Block(ctx, userID, targetID); err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}

	s.Logger.Info("Relationships: user blocked",
		"user_id", userID,
		"target_id", targetID)
	s.Publisher.Relationship(ctx, event.BusRelationshipBlock, event.RelationshipData{
		CurrentUser: userID,
		TargetUser:  targetID,
		CurrentType: model.RelTypeBlocked,
		TargetType:  previous,
	})
	return nil
}

// blocked reports whether either user blocked the other.
func blocked(ctx context.Context, rels model.RelationshipStore, userA, userB int64) (bool, error) {
	rel, err := rels.Get(ctx, userA, userB)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel.Type == model.RelationshipBlock, nil
}
