package dgp

import (
	"context"
	"testing"

	"panelfit/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_SameKeySameSequence(t *testing.T) {
	ctx := context.Background()
	adapter := NewRNGAdapter()
	key := ports.StreamKey{Stage: 2, Tuple: 117, Draw: 45}

	a, err := adapter.Stream(ctx, key, 42)
	require.NoError(t, err)
	b, err := adapter.Stream(ctx, key, 42)
	require.NoError(t, err)

	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestStream_KeysAndSeedsDiverge(t *testing.T) {
	ctx := context.Background()
	adapter := NewRNGAdapter()
	first := func(key ports.StreamKey, seed int64) uint64 {
		r, err := adapter.Stream(ctx, key, seed)
		require.NoError(t, err)
		return r.Uint64()
	}

	base := first(ports.StreamKey{Stage: 1, Tuple: 0, Draw: 0}, 42)
	assert.NotEqual(t, base, first(ports.StreamKey{Stage: 1, Tuple: 0, Draw: 1}, 42))
	assert.NotEqual(t, base, first(ports.StreamKey{Stage: 1, Tuple: 1, Draw: 0}, 42))
	assert.NotEqual(t, base, first(ports.StreamKey{Stage: 2, Tuple: 0, Draw: 0}, 42))
	assert.NotEqual(t, base, first(ports.StreamKey{Stage: 1, Tuple: 0, Draw: 0}, 43))
}

func TestSeededStream(t *testing.T) {
	ctx := context.Background()
	adapter := NewRNGAdapter()

	a, err := adapter.SeededStream(ctx, "synthetic-panel", 7)
	require.NoError(t, err)
	b, err := adapter.SeededStream(ctx, "synthetic-panel", 7)
	require.NoError(t, err)
	c, err := adapter.SeededStream(ctx, "other", 7)
	require.NoError(t, err)

	va, vb, vc := a.Uint64(), b.Uint64(), c.Uint64()
	assert.Equal(t, va, vb)
	assert.NotEqual(t, va, vc)
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRNGAdapter().Stream(ctx, ports.StreamKey{}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
