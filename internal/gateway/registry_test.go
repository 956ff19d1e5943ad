package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConn() *Conn {
	return &Conn{
		remote: "test",
		send:   make(chan outbound, 64),
		done:   make(chan struct{}),
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a1 := newSession(1)
	a2 := newSession(1)
	b := newSession(2)

	r.Add(a1)
	r.Add(a2)
	r.Add(b)
	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.UserSessions(1), 2)
	assert.Equal(t, []int64{2, 1}, r.Local([]int64{2, 3, 1, 2}))

	got, ok := r.Get(a1.ID)
	assert.True(t, ok)
	assert.Same(t, a1, got)

	assert.False(t, r.Online(1))
	a2.attach(testConn(), 0, false)
	assert.True(t, r.Online(1))

	assert.True(t, r.Remove(a1))
	assert.False(t, r.Remove(a1))
	assert.True(t, r.Remove(a2))
	assert.False(t, r.HasUser(1))
	assert.True(t, r.HasUser(2))
	assert.Equal(t, 1, r.Len())
}

func TestSession_SequenceAndReplay(t *testing.T) {
	s := newSession(1)
	first := testConn()
	s.attach(first, 0, false)

	for i := 0; i < 3; i++ {
		queued, err := s.Send(dispatchOf("MESSAGE_CREATE"))
		assert.NoError(t, err)
		assert.True(t, queued)
	}
	queued, err := s.Send(controlOf())
	assert.NoError(t, err)
	assert.True(t, queued)
	assert.Equal(t, int64(3), s.Seq())

	seqs := drainSeqs(t, first)
	assert.Equal(t, []int64{1, 2, 3, 0}, seqs)

	assert.True(t, s.detach(first, timeoutNever, func(*Session) {}))
	assert.False(t, s.Connected())

	// Dispatches while detached are only buffered.
	queued, err = s.Send(dispatchOf("TYPING_START"))
	assert.NoError(t, err)
	assert.False(t, queued)

	second := testConn()
	assert.True(t, s.attach(second, 1, true))
	assert.Equal(t, []int64{2, 3, 4}, drainSeqs(t, second))

	third := testConn()
	assert.False(t, s.attach(third, 10, true))
	select {
	case o := <-second.send:
		assert.Equal(t, CloseUnknownError, o.closeCode)
	default:
		t.Fatal("previous socket was not closed")
	}
}

func TestSession_DetachExpires(t *testing.T) {
	s := newSession(1)
	c := testConn()
	s.attach(c, 0, false)

	expired := make(chan *Session, 1)
	assert.False(t, s.detach(testConn(), timeoutShort, func(x *Session) { expired <- x }))
	assert.True(t, s.detach(c, timeoutShort, func(x *Session) { expired <- x }))

	select {
	case got := <-expired:
		assert.Same(t, s, got)
	case <-timeoutAfter():
		t.Fatal("session did not expire")
	}
}
