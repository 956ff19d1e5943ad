// Package presence keeps the TTL-bounded status of connected users and
// reports entries that expire without a refresh.
package presence

import (
	"context"
	"time"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/pubsub"
)

// ExpireFunc is called once for every presence that expired.
type ExpireFunc func(ctx context.Context, userID int64)

// Store maps user ids to presences that expire after a fixed TTL.
type Store interface {
	// Set stores p and restarts its TTL. A nil p only restarts the TTL of an
	// existing entry and returns model.ErrNotFound when there is none.
	Set(ctx context.Context, userID int64, p *model.Presence) error
	// Get returns the presence of userID. ok is false when it is absent or expired.
	Get(ctx context.Context, userID int64) (p model.Presence, ok bool, err error)
	// Delete removes the entry without calling the expire callback.
	Delete(ctx context.Context, userID int64) error
	// Connect counts one more socket of userID, across every process sharing
	// the store, and returns the new count.
	Connect(ctx context.Context, userID int64) (int64, error)
	// Disconnect uncounts one socket and returns how many remain.
	Disconnect(ctx context.Context, userID int64) (int64, error)
	Close() error
}

const publishTimeout = 5 * time.Second

// PublishOffline returns an ExpireFunc broadcasting presence_update with
// status offline on the user events topic.
func PublishOffline(bus pubsub.Bus, log *logger.Logger) ExpireFunc {
	return func(ctx context.Context, userID int64) {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		ev, err := pubsub.NewEvent(event.BusPresenceUpdate, model.Presence{
			UserID:       userID,
			Status:       model.StatusOffline,
			Activities:   []model.Activity{},
			LastModified: time.Now().UnixMilli(),
		})
		if err != nil {
			log.Error("Presence: failed to build offline event", "user_id", userID, "error", err)
			return
		}
		if err := bus.Publish(ctx, pubsub.TopicUserEvents, ev); err != nil {
			log.Error("Presence: failed to publish offline event", "user_id", userID, "error", err)
		}
	}
}

func stamp(p *model.Presence, userID int64, now time.Time, ttl time.Duration) model.Presence {
	out := *p
	out.UserID = userID
	if out.LastModified == 0 {
		out.LastModified = now.UnixMilli()
	}
	if out.Activities == nil {
		out.Activities = []model.Activity{}
	}
	out.ExpiresAt = now.Add(ttl)
	return out
}
