// Package snowflake mints 64-bit time-ordered identifiers.
//
// Layout, most significant bit first:
//
//	42 bits  milliseconds since Epoch
//	 5 bits  worker id
//	 5 bits  process id
//	12 bits  per-process increment
package snowflake

import (
	"strconv"
	"sync"
	"time"
)

// Epoch is 2022-01-01T00:00:00Z in unix milliseconds.
const Epoch int64 = 1640995200000

const (
	timestampBits = 42
	workerBits    = 5
	processBits   = 5
	incrementBits = 12

	maxTimestamp = 1<<timestampBits - 1
	maxWorker    = 1<<workerBits - 1
	maxProcess   = 1<<processBits - 1
	maxIncrement = 1<<incrementBits - 1

	timestampShift = workerBits + processBits + incrementBits
	workerShift    = processBits + incrementBits
	processShift   = incrementBits
)

// Generator mints ids for one process. It is safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	worker    int64
	process   int64
	increment int64
	lastTs    int64
	now       func() int64
}

// NewGenerator returns a generator for the given worker and process ids.
// Values above 31 are masked.
func NewGenerator(worker, process int64) *Generator {
	return &Generator{
		worker:  worker & maxWorker,
		process: process & maxProcess,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Next mints a new id. Ids returned by one generator strictly increase.
func (g *Generator) Next() int64 {
	return g.Mint(true)
}

// Mint builds an id for the current time. With increment=false the counter is
// not advanced and the result is only suitable as a time bound for lookups.
func (g *Generator) Mint(increment bool) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	if !increment {
		return compose(ts, g.worker, g.process, g.increment)
	}

	if ts < g.lastTs {
		// clock went backwards, keep minting on the last seen millisecond
		ts = g.lastTs
	}
	if ts == g.lastTs {
		g.increment = (g.increment + 1) & maxIncrement
		if g.increment == 0 {
			// counter exhausted for this millisecond
			ts++
		}
	} else {
		g.increment = 0
	}
	g.lastTs = ts

	return compose(ts, g.worker, g.process, g.increment)
}

func compose(ts, worker, process, increment int64) int64 {
	return ((ts-Epoch)&maxTimestamp)<<timestampShift |
		(worker&maxWorker)<<workerShift |
		(process&maxProcess)<<processShift |
		increment&maxIncrement
}

// Timestamp returns the unix millisecond timestamp embedded in id.
func Timestamp(id int64) int64 {
	return id>>timestampShift + Epoch
}

// Time returns the creation time embedded in id.
func Time(id int64) time.Time {
	return time.UnixMilli(Timestamp(id)).UTC()
}

// FromTime returns the smallest id that could have been minted at t.
func FromTime(t time.Time) int64 {
	return compose(t.UnixMilli(), 0, 0, 0)
}

// Parse parses a decimal id string.
func Parse(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

var defaultGenerator = NewGenerator(0, 0)

// SetDefault replaces the process-wide generator, typically once at startup.
func SetDefault(g *Generator) {
	defaultGenerator = g
}

// Next mints an id from the process-wide generator.
func Next() int64 {
	return defaultGenerator.Next()
}
