// Package gamelog loads published plate appearance logs.
package gamelog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/okian/pitchrecord/internal/domain/model"
)

// Season describes one season's log file.
type Season struct {
	Season             string `yaml:"season"`
	Era                int    `yaml:"era"`
	RegularSeasonGames int    `yaml:"regular_season_games"`
	File               string `yaml:"file"`
}

// Manifest lists the seasons to load.
type Manifest struct {
	Seasons []Season `yaml:"seasons"`
	dir     string
}

// LoadManifest reads a manifest file. Relative log paths resolve against the
// manifest's directory unless dataDir is set.
func LoadManifest(path, dataDir string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, err
	}
	m.dir = dataDir
	if m.dir == "" {
		m.dir = filepath.Dir(path)
	}
	return m, nil
}

// ParseManifest decodes and validates manifest YAML.
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	seen := make(map[string]bool, len(m.Seasons))
	for i := range m.Seasons {
		s := &m.Seasons[i]
		if s.Season == "" {
			return nil, fmt.Errorf("%w: entry %d has no season", ErrManifest, i)
		}
		if seen[s.Season] {
			return nil, fmt.Errorf("%w: season %s listed twice", ErrManifest, s.Season)
		}
		seen[s.Season] = true
		if s.File == "" {
			return nil, fmt.Errorf("%w: season %s has no file", ErrManifest, s.Season)
		}
		if s.Era == 0 {
			s.Era = model.EraFromSeason(s.Season)
		}
		if s.Era < 1 {
			return nil, fmt.Errorf("%w: season %s has no era", ErrManifest, s.Season)
		}
		if s.RegularSeasonGames < 0 {
			return nil, fmt.Errorf("%w: season %s has negative game count", ErrManifest, s.Season)
		}
	}
	return &m, nil
}

// Path returns the log file location for a season.
func (m *Manifest) Path(s Season) string {
	if filepath.IsAbs(s.File) || m.dir == "" {
		return s.File
	}
	return filepath.Join(m.dir, s.File)
}

// Find returns the manifest entry for a season id.
func (m *Manifest) Find(season string) (Season, bool) {
	for _, s := range m.Seasons {
		if s.Season == season {
			return s, true
		}
	}
	return Season{}, false
}

// Load reads a season's plate appearances.
func (m *Manifest) Load(s Season) ([]model.PlateAppearance, error) {
	f, err := os.Open(m.Path(s))
	if err != nil {
		return nil, fmt.Errorf("season %s: %w", s.Season, err)
	}
	defer f.Close()
	plays, err := ReadPlays(f, s.Season, s.Era)
	if err != nil {
		return nil, fmt.Errorf("season %s: %w", s.Season, err)
	}
	return plays, nil
}

// IsRegularSeason reports whether a game session falls inside the regular season.
// A zero game count treats every session as regular.
func IsRegularSeason(session, regularGames int) bool {
	return regularGames == 0 || session <= regularGames
}
