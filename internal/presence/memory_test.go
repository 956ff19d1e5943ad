package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/testutil"
)

type expiryRecorder struct {
	mu  sync.Mutex
	ids []int64
}

func (r *expiryRecorder) record(_ context.Context, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *expiryRecorder) get() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

func TestMemoryStore_SetGet(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(time.Minute, nil, testutil.MakeNoopLogger())
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, 1, &model.Presence{Status: model.StatusIdle}))
	p, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), p.UserID)
	assert.Equal(t, model.StatusIdle, p.Status)
	assert.NotZero(t, p.LastModified)
	assert.NotNil(t, p.Activities)

	require.NoError(t, s.Delete(ctx, 1))
	_, ok, err = s.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Connections(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(time.Minute, nil, testutil.MakeNoopLogger())
	defer s.Close()
	ctx := context.Background()

	steps := []struct {
		connect bool
		want    int64
	}{
		{connect: true, want: 1},
		{connect: true, want: 2},
		{connect: false, want: 1},
		{connect: false, want: 0},
		{connect: false, want: 0},
		{connect: true, want: 1},
	}
	for _, step := range steps {
		var (
			n   int64
			err error
		)
		if step.connect {
			n, err = s.Connect(ctx, 5)
		} else {
			n, err = s.Disconnect(ctx, 5)
		}
		require.NoError(t, err)
		assert.Equal(t, step.want, n)
		assert.Equal(t, step.want, s.Connections(5))
	}

	require.NoError(t, s.Set(ctx, 5, &model.Presence{Status: model.StatusOnline}))
	require.NoError(t, s.Delete(ctx, 5))
	assert.Equal(t, int64(1), s.Connections(5))
}

func TestMemoryStore_RefreshKeepsFields(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(time.Minute, nil, testutil.MakeNoopLogger())
	defer s.Close()
	ctx := context.Background()

	assert.ErrorIs(t, s.Set(ctx, 7, nil), model.ErrNotFound)

	require.NoError(t, s.Set(ctx, 7, &model.Presence{
		Status:     model.StatusDND,
		Activities: []model.Activity{{Name: "Custom Status", Type: model.ActivityTypeCustom, State: "busy"}},
	}))
	before, _, _ := s.Get(ctx, 7)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Set(ctx, 7, nil))

	after, ok, err := s.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusDND, after.Status)
	assert.Equal(t, before.Activities, after.Activities)
	assert.Equal(t, before.LastModified, after.LastModified)
	assert.True(t, after.ExpiresAt.After(before.ExpiresAt))
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	rec := &expiryRecorder{}
	s := NewMemoryStore(40*time.Millisecond, rec.record, testutil.MakeNoopLogger())
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 1, &model.Presence{Status: model.StatusOnline}))
	require.NoError(t, s.Set(ctx, 2, &model.Presence{Status: model.StatusOnline}))

	// Keep 2 alive past the first deadline.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Set(ctx, 2, nil))

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1}, rec.get())

	_, ok, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 2}, rec.get())
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_DeleteDoesNotExpire(t *testing.T) {
	t.Parallel()

	rec := &expiryRecorder{}
	s := NewMemoryStore(20*time.Millisecond, rec.record, testutil.MakeNoopLogger())
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 3, &model.Presence{Status: model.StatusOnline}))
	require.NoError(t, s.Delete(ctx, 3))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.get())
}

func TestMemoryStore_ExpiredEntryIsHidden(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(time.Minute, nil, testutil.MakeNoopLogger())
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Set(ctx, 4, &model.Presence{Status: model.StatusOnline}))

	s.mu.Lock()
	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	s.mu.Unlock()

	_, ok, err := s.Get(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ManyEntriesExpireInOrder(t *testing.T) {
	t.Parallel()

	rec := &expiryRecorder{}
	s := NewMemoryStore(30*time.Millisecond, rec.record, testutil.MakeNoopLogger())
	defer s.Close()
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		require.NoError(t, s.Set(ctx, id, &model.Presence{Status: model.StatusOnline}))
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(rec.get()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, rec.get())
}
