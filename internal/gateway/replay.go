package gateway

// ReplayBufferSize is how many dispatches a session keeps for RESUME.
const ReplayBufferSize = 256

type replayFrame struct {
	seq  int64
	data []byte
}

// replayBuffer is a fixed-size ring of the most recent dispatches.
type replayBuffer struct {
	frames []replayFrame
	start  int
	size   int
}

func newReplayBuffer(capacity int) *replayBuffer {
	return &replayBuffer{frames: make([]replayFrame, capacity)}
}

func (b *replayBuffer) push(seq int64, data []byte) {
	if len(b.frames) == 0 {
		return
	}
	if b.size < len(b.frames) {
		b.frames[(b.start+b.size)%len(b.frames)] = replayFrame{seq: seq, data: data}
		b.size++
		return
	}
	b.frames[b.start] = replayFrame{seq: seq, data: data}
	b.start = (b.start + 1) % len(b.frames)
}

// since returns every buffered frame with a sequence greater than seq. ok is
// false when frames after seq have already been evicted or seq is ahead of
// the newest frame.
func (b *replayBuffer) since(seq int64) ([][]byte, bool) {
	if b.size == 0 {
		return nil, seq == 0
	}
	oldest := b.frames[b.start].seq
	newest := b.frames[(b.start+b.size-1)%len(b.frames)].seq
	if seq > newest || seq < oldest-1 {
		return nil, false
	}

	out := make([][]byte, 0, newest-seq)
	for i := 0; i < b.size; i++ {
		f := b.frames[(b.start+i)%len(b.frames)]
		if f.seq > seq {
			out = append(out, f.data)
		}
	}
	return out, true
}
