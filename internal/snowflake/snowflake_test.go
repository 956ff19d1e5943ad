package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Monotonic(t *testing.T) {
	g := NewGenerator(1, 2)

	prev := g.Next()
	for i := 0; i < 20000; i++ {
		id := g.Next()
		require.Greater(t, id, prev)
		require.LessOrEqual(t, Timestamp(prev), Timestamp(id))
		prev = id
	}
}

func TestGenerator_ConcurrentUnique(t *testing.T) {
	g := NewGenerator(0, 0)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		ids = make(map[int64]struct{})
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, 1000)
			for i := 0; i < 1000; i++ {
				local = append(local, g.Next())
			}
			mu.Lock()
			for _, id := range local {
				ids[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 8000)
}

func TestGenerator_Layout(t *testing.T) {
	g := NewGenerator(3, 7)
	g.now = func() int64 { return Epoch + 1000 }

	id := g.Next()
	assert.Equal(t, Epoch+1000, Timestamp(id))
	assert.Equal(t, int64(3), id>>17&31)
	assert.Equal(t, int64(7), id>>12&31)
	assert.Equal(t, int64(0), id&4095)

	id2 := g.Next()
	assert.Equal(t, int64(1), id2&4095)
}

func TestGenerator_CounterWrap(t *testing.T) {
	g := NewGenerator(0, 0)
	g.now = func() int64 { return Epoch + 5 }

	prev := g.Next()
	for i := 0; i < 4096; i++ {
		id := g.Next()
		require.Greater(t, id, prev)
		prev = id
	}
	assert.Equal(t, Epoch+6, Timestamp(prev))
}

func TestGenerator_ClockBackwards(t *testing.T) {
	g := NewGenerator(0, 0)
	now := Epoch + 100
	g.now = func() int64 { return now }

	a := g.Next()
	now = Epoch + 50
	b := g.Next()

	assert.Greater(t, b, a)
	assert.Equal(t, Timestamp(a), Timestamp(b))
}

func TestGenerator_MintWithoutIncrement(t *testing.T) {
	g := NewGenerator(0, 0)
	g.now = func() int64 { return Epoch + 10 }

	a := g.Next()
	lookup := g.Mint(false)
	b := g.Next()

	assert.Equal(t, a, lookup)
	assert.Equal(t, a+1, b)
}

func TestFromTime(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := FromTime(at)

	assert.True(t, at.Equal(Time(id)))
	assert.Equal(t, int64(0), id&(1<<22-1))
}

func TestParse(t *testing.T) {
	id, err := Parse("1234567890123")
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890123), id)

	_, err = Parse("nope")
	assert.Error(t, err)
}
