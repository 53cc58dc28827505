// Package testkit provides fixtures shared by package tests: a synthetic
// panel generator, a counting RNG adapter and scripted simulators.
package testkit

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"panelfit/adapters/dgp"
	"panelfit/domain/panel"
	"panelfit/domain/search"
	"panelfit/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rng *RNGAdapter
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{rng: NewRNGAdapter()}
}

// RNGAdapter returns the shared counting RNG adapter
func (t *TestKit) RNGAdapter() *RNGAdapter {
	return t.rng
}

// Observations generates the default synthetic panel
func (t *TestKit) Observations() []panel.Observation {
	return NewPanelGenerator(DefaultPanelConfig()).Generate()
}

// RNGAdapter wraps the production stream factory and counts the streams
// handed out per stage
type RNGAdapter struct {
	inner   ports.RNGPort
	streams atomic.Int64
	mu      sync.Mutex
	byStage map[int]int
}

// NewRNGAdapter creates a counting RNG adapter
func NewRNGAdapter() *RNGAdapter {
	return &RNGAdapter{inner: dgp.NewRNGAdapter(), byStage: make(map[int]int)}
}

func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return r.inner.SeededStream(ctx, name, seed)
}

func (r *RNGAdapter) Stream(ctx context.Context, key ports.StreamKey, seed int64) (*rand.Rand, error) {
	r.streams.Add(1)
	r.mu.Lock()
	r.byStage[key.Stage]++
	r.mu.Unlock()
	return r.inner.Stream(ctx, key, seed)
}

// Streams returns the number of draw streams handed out so far
func (r *RNGAdapter) Streams() int64 {
	return r.streams.Load()
}

// StageStreams returns the number of streams handed out for stage
func (r *RNGAdapter) StageStreams(stage int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byStage[stage]
}

// ScriptedSimulator returns contingency signatures whose distance to
// Reference grows with the tuple's distance from Target, plus a little noise
// drawn from the stream. Fail, when set, decides which draws fail.
type ScriptedSimulator struct {
	Reference panel.Contingency
	Target    search.Key
	Noise     float64
	Fail      func(t search.Tuple, rng *rand.Rand) error
	calls     atomic.Int64
}

// NewScriptedSimulator creates a scripted simulator aiming at target
func NewScriptedSimulator(reference panel.Contingency, target search.Key) *ScriptedSimulator {
	return &ScriptedSimulator{Reference: reference, Target: target, Noise: 0.5}
}

// Calls returns the number of Simulate calls
func (s *ScriptedSimulator) Calls() int64 {
	return s.calls.Load()
}

// Simulate shifts units from the first reference pattern to a pattern the
// reference does not have, so the deviation is twice the rounded scripted
// distance.
func (s *ScriptedSimulator) Simulate(ctx context.Context, req ports.SimulationRequest, rng *rand.Rand) (panel.Signature, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Fail != nil {
		if err := s.Fail(req.Tuple, rng); err != nil {
			return nil, err
		}
	}

	k := req.Tuple.Key()
	distance := 20*math.Abs(k.Rate-s.Target.Rate) +
		5*math.Abs(k.Strength-s.Target.Strength) +
		4*math.Abs(k.Direction-s.Target.Direction) +
		s.Noise*rng.Float64()
	shift := int(math.Round(distance))

	keys := s.Reference.Keys()
	out := make(panel.Contingency, len(s.Reference)+1)
	for _, key := range keys {
		out[key] = s.Reference[key]
	}
	if shift > out[keys[0]] {
		shift = out[keys[0]]
	}
	out[keys[0]] -= shift
	out["scripted"] += shift
	return out, nil
}

var (
	_ ports.RNGPort       = (*RNGAdapter)(nil)
	_ ports.SimulatorPort = (*ScriptedSimulator)(nil)
)
