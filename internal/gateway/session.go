package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/yepcord/server-sub002/internal/event"
)

// Session is an identified client. It outlives its socket for a grace
// period so that the client can RESUME on a new one.
type Session struct {
	ID     string
	UserID int64

	mu     sync.Mutex
	seq    int64
	replay *replayBuffer
	conn   *Conn
	expiry *time.Timer
}

func newSession(userID int64) *Session {
	return &Session{
		ID:     newSessionID(),
		UserID: userID,
		replay: newReplayBuffer(ReplayBufferSize),
	}
}

func newSessionID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Send sequences m and queues it on the current socket. Dispatches are kept
// for replay even while no socket is attached. It reports whether the frame
// reached a socket queue.
func (s *Session) Send(m event.Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seq int64
	if m.Op == event.OpDispatch {
		seq = s.seq + 1
	}
	b, err := m.Encode(seq)
	if err != nil {
		return false, err
	}
	if m.Op == event.OpDispatch {
		s.seq = seq
		s.replay.push(seq, b)
	}
	if s.conn == nil {
		return false, nil
	}
	return s.conn.enqueue(b), nil
}

// Seq returns the sequence of the last dispatch.
func (s *Session) Seq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Connected reports whether a socket is attached.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// open attaches c to a session that has never had a socket and queues first
// as its first dispatch.
func (s *Session) open(c *Conn, first event.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seq + 1
	b, err := first.Encode(seq)
	if err != nil {
		return err
	}
	s.seq = seq
	s.replay.push(seq, b)
	s.conn = c
	c.setSession(s)
	c.enqueue(b)
	return nil
}

// attach moves the session onto c and replays dispatches after seq. The
// previous socket, if any, is closed. replayed is false when the frames
// after seq are no longer buffered.
func (s *Session) attach(c *Conn, seq int64, resume bool) (replayed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	if s.conn != nil && s.conn != c {
		s.conn.closeWith(CloseUnknownError, "session resumed elsewhere")
	}
	s.conn = c
	c.setSession(s)

	if !resume {
		return true
	}
	frames, ok := s.replay.since(seq)
	if !ok {
		return false
	}
	for _, f := range frames {
		c.enqueue(f)
	}
	return true
}

// detach clears c if it is still the attached socket and arms the grace
// timer. It reports whether the session lost its socket.
func (s *Session) detach(c *Conn, grace time.Duration, onExpire func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != c {
		return false
	}
	s.conn = nil
	s.expiry = time.AfterFunc(grace, func() {
		s.mu.Lock()
		expired := s.conn == nil
		s.mu.Unlock()
		if expired {
			onExpire(s)
		}
	})
	return true
}

func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiry != nil {
		s.expiry.Stop()
	}
	if s.conn != nil {
		s.conn.close()
	}
}
