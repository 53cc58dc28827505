package dgp

import (
	"context"
	"hash/fnv"
	"math/rand/v2"

	"panelfit/ports"
)

// RNGAdapter hands out PCG streams. The stream for a draw depends only on
// the seed and the draw's key, never on which worker asks or when.
type RNGAdapter struct{}

// NewRNGAdapter creates the stream factory
func NewRNGAdapter() *RNGAdapter {
	return &RNGAdapter{}
}

// SeededStream creates a deterministic generator for a named operation
func (a *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewPCG(uint64(seed), splitmix(h.Sum64()))), nil
}

// Stream creates the generator for one (stage, tuple, draw)
func (a *RNGAdapter) Stream(ctx context.Context, key ports.StreamKey, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(uint64(seed), streamID(key))), nil
}

func streamID(key ports.StreamKey) uint64 {
	h := splitmix(uint64(key.Stage))
	h = splitmix(h ^ uint64(key.Tuple))
	return splitmix(h ^ uint64(key.Draw))
}

// splitmix is one step of SplitMix64
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

var _ ports.RNGPort = (*RNGAdapter)(nil)
