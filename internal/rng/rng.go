// Package rng provides the random streams the simulation draws from.
// Seeded streams are deterministic; a zero seed draws a fresh one from
// crypto/rand.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	mrand "math/rand/v2"
	"sync"
)

// Source is the minimal draw interface the selectors need.
type Source interface {
	Float64() float64
}

// Seeded returns a PCG stream derived from seed and a stream label, so
// independent subsystems seeded alike do not share draws.
func Seeded(seed int64, stream string) *mrand.Rand {
	// Non-cryptographic PRNG is intentional for reproducible runs.
	// #nosec G404
	return mrand.New(mrand.NewPCG(seedWord(seed, stream+":a"), seedWord(seed, stream+":b")))
}

// Resumed returns the stream for a run picking up at tick. Tick 0 is the
// plain Seeded stream; later ticks get their own, so a restarted run does
// not replay the draws of the first one.
func Resumed(seed int64, stream string, tick uint64) *mrand.Rand {
	if tick == 0 {
		return Seeded(seed, stream)
	}
	return Seeded(seed, fmt.Sprintf("%s@%d", stream, tick))
}

// NewSeed returns a non-zero seed from crypto/rand.
func NewSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 1
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		return 1
	}
	return s
}

// Resolve maps the configured seed to the one actually used: zero means
// pick one.
func Resolve(seed int64) int64 {
	if seed == 0 {
		return NewSeed()
	}
	return seed
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}

// Locked serializes draws from a stream shared between goroutines.
type Locked struct {
	mu  sync.Mutex
	src Source
}

// NewLocked wraps src.
func NewLocked(src Source) *Locked {
	return &Locked{src: src}
}

// Float64 draws one value in [0, 1).
func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// Counting wraps a source and counts draws. Tests use it to check that a
// failed selection consumes nothing.
type Counting struct {
	Src   Source
	Draws int
}

// Float64 draws from the wrapped source.
func (c *Counting) Float64() float64 {
	c.Draws++
	return c.Src.Float64()
}
