package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	connSendBuffer = 512
	writeWait      = 10 * time.Second
	maxInboundSize = 1 << 16
)

// Close codes sent to clients.
const (
	CloseUnknownError         = 4000
	CloseAuthenticationFailed = 4004
	CloseAlreadyAuthenticated = 4005
	CloseInvalidSession       = 4009
)

type outbound struct {
	data      []byte
	closeCode int
	reason    string
}

// Conn is one client socket. Frames are written by a single goroutine in
// the order they were enqueued.
type Conn struct {
	ws     *websocket.Conn
	zlib   *zlibStream
	remote string

	send chan outbound
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	session *Session
}

func newConn(ws *websocket.Conn, compress bool) *Conn {
	c := &Conn{
		ws:     ws,
		remote: ws.RemoteAddr().String(),
		send:   make(chan outbound, connSendBuffer),
		done:   make(chan struct{}),
	}
	if compress {
		c.zlib = newZlibStream()
	}
	return c
}

// enqueue reports false if the connection is closed or its queue is full.
func (c *Conn) enqueue(b []byte) bool {
	return c.push(outbound{data: b})
}

// closeWith sends a close frame after every frame queued before it.
func (c *Conn) closeWith(code int, reason string) {
	if !c.push(outbound{closeCode: code, reason: reason}) {
		c.close()
	}
}

func (c *Conn) push(o outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- o:
		return true
	default:
		c.close()
		return false
	}
}

func (c *Conn) close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed when the connection stops accepting frames.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) getSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Conn) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Conn) writeLoop(onWrite func(n int)) {
	defer func() {
		_ = c.ws.Close()
		if c.zlib != nil {
			c.zlib.close()
		}
	}()

	for {
		select {
		case o := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if o.closeCode != 0 {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(o.closeCode, o.reason))
				c.close()
				return
			}
			if err := c.write(o.data); err != nil {
				c.close()
				return
			}
			if onWrite != nil {
				onWrite(len(o.data))
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) write(b []byte) error {
	if c.zlib == nil {
		return c.ws.WriteMessage(websocket.TextMessage, b)
	}
	compressed, err := c.zlib.compress(b)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.BinaryMessage, compressed)
}
