package run

import (
	"crypto/sha256"
	"fmt"
	"strconv"

	"panelfit/domain/core"
	"panelfit/internal/errors"
)

// CodeVersion is recorded in every manifest
const CodeVersion = "0.3.0"

// Settings are the search parameters that determine a run's result.
// Workers is recorded but left out of the hash: results do not depend on it.
type Settings struct {
	Pattern     string  `json:"pattern"`
	Steps       [3]int  `json:"steps"`
	Reliability float64 `json:"reliability"`
	Seed        int64   `json:"seed"`
	Workers     int     `json:"workers"`
}

// Draws returns the number of new draws each stage runs per tuple
func (s Settings) Draws() [3]int {
	return [3]int{s.Steps[0], s.Steps[1] - s.Steps[0], s.Steps[2] - s.Steps[1]}
}

// Validate checks the step schedule and reliability
func (s Settings) Validate() error {
	if s.Steps[0] <= 0 || s.Steps[1] <= s.Steps[0] || s.Steps[2] <= s.Steps[1] {
		return errors.Validation(core.ErrStepOrder,
			"each step should have higher runs than the previous one (got %d, %d, %d)",
			s.Steps[0], s.Steps[1], s.Steps[2])
	}
	if s.Reliability < 0 || s.Reliability > 1 {
		return errors.Validation(core.ErrReliabilityRange,
			"reliability must be within [0,1], got %v", s.Reliability)
	}
	return nil
}

// Hash identifies the result-relevant settings
func (s Settings) Hash() core.Hash {
	return core.HashFields(map[string]string{
		"pattern":     s.Pattern,
		"step1":       strconv.Itoa(s.Steps[0]),
		"step2":       strconv.Itoa(s.Steps[1]),
		"step3":       strconv.Itoa(s.Steps[2]),
		"reliability": strconv.FormatFloat(s.Reliability, 'g', -1, 64),
		"seed":        strconv.FormatInt(s.Seed, 10),
	})
}

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	InputHash   core.Hash `json:"input_hash"`
	ConfigHash  core.Hash `json:"config_hash"`
	Seed        int64     `json:"seed"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(inputHash, configHash core.Hash, seed int64, codeVersion string) RunFingerprint {
	return RunFingerprint{
		InputHash:   inputHash,
		ConfigHash:  configHash,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(inputHash, configHash, seed, codeVersion),
	}
}

func computeRunFingerprint(inputHash, configHash core.Hash, seed int64, codeVersion string) core.Hash {
	data := fmt.Sprintf("input:%s|config:%s|seed:%d|code:%s", inputHash, configHash, seed, codeVersion)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
