package gateway

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"
)

// CompressZlibStream is the compress query value that enables compression.
const CompressZlibStream = "zlib-stream"

// zlibSuffix ends every flushed frame; clients buffer until they see it.
var zlibSuffix = []byte{0x00, 0x00, 0xff, 0xff}

// zlibStream compresses successive frames of one connection into a single
// zlib stream. The dictionary persists across frames and every frame is
// sync-flushed so it can be inflated as soon as it arrives.
type zlibStream struct {
	buf bytes.Buffer
	w   *zlib.Writer
}

func newZlibStream() *zlibStream {
	s := &zlibStream{}
	s.w = zlib.NewWriter(&s.buf)
	return s
}

// compress returns the compressed form of frame. The result is owned by
// the caller. Not safe for concurrent use; only the connection writer calls it.
func (s *zlibStream) compress(frame []byte) ([]byte, error) {
	s.buf.Reset()
	if _, err := s.w.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to compress frame: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush frame: %w", err)
	}
	return bytes.Clone(s.buf.Bytes()), nil
}

func (s *zlibStream) close() {
	_ = s.w.Close()
}
