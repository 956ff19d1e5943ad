package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
)

const (
	keyPrefix     = "presence:"
	lockPrefix    = "presence-lock:"
	connsPrefix   = "presence-conns:"
	expiredEvents = "__keyevent@*__:expired"
	expireLockTTL = 10 * time.Second
)

// disconnectScript decrements a connection counter and removes it at zero so
// that a concurrent Connect never sees a stale negative count.
var disconnectScript = redis.NewScript(`
local n = redis.call("DECR", KEYS[1])
if n <= 0 then
	redis.call("DEL", KEYS[1])
	return 0
end
return n
`)

// RedisStore is a Store shared by every gateway process. Entries are keys
// with a TTL; expiry is observed through keyspace notifications and a
// short-lived lock makes sure only one process reports each expiry.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	onExpire ExpireFunc
	log      *logger.Logger

	sub  *redis.PubSub
	wg   sync.WaitGroup
	once sync.Once
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to url and starts listening for expired keys.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration, onExpire ExpireFunc, log *logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// Managed instances may forbid CONFIG; notifications must then be enabled by the operator.
	if err := client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn("Presence: failed to enable keyspace notifications", "error", err)
	}

	sub := client.PSubscribe(ctx, expiredEvents)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("failed to subscribe to expired keys: %w", err)
	}

	s := &RedisStore{
		client:   client,
		ttl:      ttl,
		onExpire: onExpire,
		log:      log,
		sub:      sub,
	}
	s.wg.Add(1)
	go s.listen()

	return s, nil
}

func presenceKey(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

func connsKey(userID int64) string {
	return connsPrefix + strconv.FormatInt(userID, 10)
}

// Set also restarts the TTL of the connection counter so that counts left by
// a crashed process go away with its presence.
func (s *RedisStore) Set(ctx context.Context, userID int64, p *model.Presence) error {
	key := presenceKey(userID)

	if p == nil {
		pipe := s.client.TxPipeline()
		refreshed := pipe.PExpire(ctx, key, s.ttl)
		pipe.PExpire(ctx, connsKey(userID), s.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to refresh presence: %w", err)
		}
		if !refreshed.Val() {
			return model.ErrNotFound
		}
		return nil
	}

	raw, err := json.Marshal(stamp(p, userID, time.Now(), s.ttl))
	if err != nil {
		return fmt.Errorf("failed to encode presence: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, raw, s.ttl)
	pipe.PExpire(ctx, connsKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (model.Presence, bool, error) {
	raw, err := s.client.Get(ctx, presenceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Presence{}, false, nil
	}
	if err != nil {
		return model.Presence{}, false, fmt.Errorf("failed to get presence: %w", err)
	}

	var p model.Presence
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Presence{}, false, fmt.Errorf("failed to decode presence: %w", err)
	}
	return p, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, presenceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}
	return nil
}

func (s *RedisStore) Connect(ctx context.Context, userID int64) (int64, error) {
	key := connsKey(userID)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to count connection: %w", err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) Disconnect(ctx context.Context, userID int64) (int64, error) {
	n, err := disconnectScript.Run(ctx, s.client, []string{connsKey(userID)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to uncount connection: %w", err)
	}
	return n, nil
}

// Ping reports whether the redis server answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.sub.Close()
		s.wg.Wait()
		err = s.client.Close()
	})
	return err
}

func (s *RedisStore) listen() {
	defer s.wg.Done()

	for msg := range s.sub.Channel() {
		if !strings.HasPrefix(msg.Payload, keyPrefix) {
			continue
		}
		userID, err := strconv.ParseInt(strings.TrimPrefix(msg.Payload, keyPrefix), 10, 64)
		if err != nil {
			continue
		}
		s.handleExpired(userID)
	}
}

func (s *RedisStore) handleExpired(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	won, err := s.client.SetNX(ctx, lockPrefix+strconv.FormatInt(userID, 10), 1, expireLockTTL).Result()
	if err != nil {
		s.log.Error("Presence: failed to take expiry lock", "user_id", userID, "error", err)
		return
	}
	if !won {
		return
	}

	s.log.Debug("Presence: expired", "user_id", userID)
	if s.onExpire != nil {
		s.onExpire(ctx, userID)
	}
}
