package presence

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
)

// MemoryStore is an in-process Store. Expiry times are kept in a min-heap
// served by a single timer armed for the earliest entry.
type MemoryStore struct {
	ttl      time.Duration
	onExpire ExpireFunc
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[int64]*entry
	conns   map[int64]int64
	queue   expiryQueue
	timer   *time.Timer
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

type entry struct {
	presence model.Presence
	index    int
}

// NewMemoryStore creates a MemoryStore. onExpire may be nil.
func NewMemoryStore(ttl time.Duration, onExpire ExpireFunc, log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		onExpire: onExpire,
		log:      log,
		now:      time.Now,
		entries:  make(map[int64]*entry),
		conns:    make(map[int64]int64),
	}
}

func (s *MemoryStore) Set(_ context.Context, userID int64, p *model.Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[userID]
	switch {
	case p == nil && !ok:
		return model.ErrNotFound
	case p == nil:
		e.presence.ExpiresAt = now.Add(s.ttl)
		heap.Fix(&s.queue, e.index)
	case ok:
		e.presence = stamp(p, userID, now, s.ttl)
		heap.Fix(&s.queue, e.index)
	default:
		e = &entry{presence: stamp(p, userID, now, s.ttl)}
		s.entries[userID] = e
		heap.Push(&s.queue, e)
	}

	s.arm(now)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (model.Presence, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok || !e.presence.ExpiresAt.After(s.now()) {
		return model.Presence{}, false, nil
	}
	return e.presence, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[userID]; ok {
		heap.Remove(&s.queue, e.index)
		delete(s.entries, userID)
	}
	return nil
}

func (s *MemoryStore) Connect(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conns[userID]++
	return s.conns[userID], nil
}

func (s *MemoryStore) Disconnect(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.conns[userID] - 1
	if n <= 0 {
		delete(s.conns, userID)
		return 0, nil
	}
	s.conns[userID] = n
	return n, nil
}

// Connections returns the number of counted sockets of userID.
func (s *MemoryStore) Connections(userID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[userID]
}

// Len returns the number of stored presences, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	return nil
}

// arm schedules the timer for the head of the queue. Callers hold mu.
func (s *MemoryStore) arm(now time.Time) {
	if s.closed || len(s.queue) == 0 {
		return
	}
	d := s.queue[0].presence.ExpiresAt.Sub(now)
	if d < 0 {
		d = 0
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(d, s.expire)
		return
	}
	s.timer.Reset(d)
}

func (s *MemoryStore) expire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	now := s.now()
	var expired []int64
	for len(s.queue) > 0 && !s.queue[0].presence.ExpiresAt.After(now) {
		e := heap.Pop(&s.queue).(*entry)
		delete(s.entries, e.presence.UserID)
		expired = append(expired, e.presence.UserID)
	}
	s.arm(now)
	s.mu.Unlock()

	for _, id := range expired {
		s.log.Debug("Presence: expired", "user_id", id)
		if s.onExpire != nil {
			s.onExpire(context.Background(), id)
		}
	}
}

type expiryQueue []*entry

func (q expiryQueue) Len() int { return len(q) }

func (q expiryQueue) Less(i, j int) bool {
	return q[i].presence.ExpiresAt.Before(q[j].presence.ExpiresAt)
}

func (q expiryQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *expiryQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *expiryQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}
