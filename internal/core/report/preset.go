package report

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/restocklab/restock-backend/internal/core/aggregate"
	"github.com/restocklab/restock-backend/internal/core/timeframe"
)

// ErrPresetNotFound is returned when a preset name is not configured.
var ErrPresetNotFound = errors.New("report preset not found")

// Preset is a named, operator-curated analytics view: a period, an optional
// breakdown dimension, and the timezone the calendar math runs in. Presets
// are loaded at startup from YAML files and fingerprinted for staleness
// detection.
type Preset struct {
	Name        string               `yaml:"name"`
	Period      timeframe.PeriodType `yaml:"period"`
	Dimension   aggregate.Dimension  `yaml:"dimension"` // empty for totals-only
	TimeZone    string               `yaml:"timezone"`
	Fingerprint string               // SHA-256 of the raw YAML file; computed at load time
}

// rawPreset is the on-disk YAML shape.
type rawPreset struct {
	Name      string `yaml:"name"`
	Period    string `yaml:"period"`
	Dimension string `yaml:"dimension"`
	TimeZone  string `yaml:"timezone"`
}

// PresetRepository defines the interface for loading report presets.
type PresetRepository interface {
	// Get returns the preset with the given name.
	// Returns ErrPresetNotFound if no such preset is configured.
	Get(ctx context.Context, name string) (*Preset, error)

	// List returns all loaded presets sorted by name.
	List(ctx context.Context) ([]Preset, error)
}

// FileSystemPresetRepository loads report presets from *.yaml files in a
// directory. Each file contains exactly one preset at the top level. Presets
// are loaded once at startup and cached in memory — no hot reload.
type FileSystemPresetRepository struct {
	dir     string
	presets map[string]Preset // keyed by Name
}

// NewFileSystemPresetRepository creates a new repository and eagerly loads
// all presets from dir. Returns an error if any preset file is malformed or
// invalid.
func NewFileSystemPresetRepository(dir string) (*FileSystemPresetRepository, error) {
	repo := &FileSystemPresetRepository{
		dir:     dir,
		presets: make(map[string]Preset),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemPresetRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no preset directory — valid (zero presets configured)
	}
	if err != nil {
		return fmt.Errorf("report preset dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("report preset path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading report preset dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading preset file %s: %w", path, err)
		}

		var raw rawPreset
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing preset file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		period, err := timeframe.ParsePeriodType(raw.Period)
		if err != nil {
			return fmt.Errorf("preset %q: %w", raw.Name, err)
		}

		if raw.Dimension != "" && !aggregate.ValidDimension(aggregate.Dimension(raw.Dimension)) {
			return fmt.Errorf("preset %q: unsupported dimension %q", raw.Name, raw.Dimension)
		}

		tz := raw.TimeZone
		if tz == "" {
			tz = "UTC"
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("preset %q: unknown timezone %q", raw.Name, tz)
		}

		fingerprint := fmt.Sprintf("%x", sha256.Sum256(data))

		if _, exists := r.presets[raw.Name]; exists {
			return fmt.Errorf("preset %q: duplicate preset name (check multiple YAML files)", raw.Name)
		}

		r.presets[raw.Name] = Preset{
			Name:        raw.Name,
			Period:      period,
			Dimension:   aggregate.Dimension(raw.Dimension),
			TimeZone:    tz,
			Fingerprint: fingerprint,
		}
	}
	return nil
}

// Get returns the preset with the given name.
func (r *FileSystemPresetRepository) Get(_ context.Context, name string) (*Preset, error) {
	preset, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return &preset, nil
}

// List returns all loaded presets sorted by name.
func (r *FileSystemPresetRepository) List(_ context.Context) ([]Preset, error) {
	out := make([]Preset, 0, len(r.presets))
	for _, preset := range r.presets {
		out = append(out, preset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
