package universe

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// FileProvider reads the target universe from a JSON file on disk.
// The file is the output of an external curation step; it holds an
// array of securities with symbol, price and optional score.
type FileProvider struct {
	path      string
	validator *Validator
	log       zerolog.Logger
}

// NewFileProvider creates a provider backed by a JSON snapshot file
func NewFileProvider(path string, log zerolog.Logger) *FileProvider {
	return &FileProvider{
		path:      path,
		validator: NewValidator(log),
		log:       log.With().Str("component", "universe_file").Logger(),
	}
}

// Snapshot reads and validates the universe file
func (p *FileProvider) Snapshot() (Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read universe file %s: %w", p.path, err)
	}

	var securities []Security
	if err := json.Unmarshal(data, &securities); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse universe file %s: %w", p.path, err)
	}

	valid, rejected := p.validator.Validate(securities)
	if len(rejected) > 0 {
		p.log.Warn().
			Strs("rejected", rejected).
			Msg("Universe file contained securities with unusable prices")
	}

	return Snapshot{Securities: valid, FetchedAt: time.Now()}, nil
}

// StaticProvider serves a fixed snapshot. Used in tests and as a
// fallback when no universe file is configured.
type StaticProvider struct {
	snapshot Snapshot
}

// NewStaticProvider creates a provider that always returns the given securities
func NewStaticProvider(securities []Security) *StaticProvider {
	return &StaticProvider{snapshot: Snapshot{Securities: securities, FetchedAt: time.Now()}}
}

// Snapshot returns the fixed snapshot
func (p *StaticProvider) Snapshot() (Snapshot, error) {
	return p.snapshot, nil
}
