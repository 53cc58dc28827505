package ports

import (
	"context"
	"math/rand/v2"
)

// StreamKey identifies one simulation draw. Draw is the global draw index of
// the tuple across all stages, so stage 2 never replays stage 1 draws.
type StreamKey struct {
	Stage int
	Tuple int
	Draw  int
}

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates the generator for one draw. The same key and seed always
	// yield the same sequence, whatever goroutine asks for it.
	Stream(ctx context.Context, key StreamKey, seed int64) (*rand.Rand, error)
}
