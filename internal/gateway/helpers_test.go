package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/event"
)

const (
	timeoutNever = time.Hour
	timeoutShort = 20 * time.Millisecond
)

func timeoutAfter() <-chan time.Time {
	return time.After(2 * time.Second)
}

func dispatchOf(name string) event.Message {
	return event.Dispatch(name, map[string]string{"name": name})
}

func controlOf() event.Message {
	return event.Control(event.OpHeartbeatAck, nil)
}

// drainFrames returns every frame queued on c without blocking.
func drainFrames(t *testing.T, c *Conn) []event.Envelope {
	t.Helper()

	var out []event.Envelope
	for {
		select {
		case o := <-c.send:
			if o.closeCode != 0 {
				continue
			}
			var env event.Envelope
			require.NoError(t, json.Unmarshal(o.data, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func drainSeqs(t *testing.T, c *Conn) []int64 {
	t.Helper()

	var seqs []int64
	for _, env := range drainFrames(t, c) {
		if env.S == nil {
			seqs = append(seqs, 0)
			continue
		}
		seqs = append(seqs, *env.S)
	}
	return seqs
}

func names(envs []event.Envelope) []string {
	out := make([]string, 0, len(envs))
	for _, e := range envs {
		if e.T != nil {
			out = append(out, *e.T)
		}
	}
	return out
}
