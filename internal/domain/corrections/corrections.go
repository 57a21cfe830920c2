// Package corrections fixes known errors in published game logs.
package corrections

import (
	"github.com/okian/pitchrecord/internal/domain/model"
)

// Correction rewrites the plays of a single game.
type Correction struct {
	Key         model.GameKey
	Description string
	Apply       func([]model.PlateAppearance) []model.PlateAppearance
}

// Registry holds corrections by game.
type Registry struct {
	byGame map[model.GameKey][]Correction
}

// New creates a registry with the given corrections.
func New(cs ...Correction) *Registry {
	r := &Registry{byGame: make(map[model.GameKey][]Correction)}
	for _, c := range cs {
		r.byGame[c.Key] = append(r.byGame[c.Key], c)
	}
	return r
}

// Default returns the registry of known league log errors.
func Default() *Registry { return New(known...) }

// Len returns the number of registered corrections. A nil registry has none.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, cs := range r.byGame {
		n += len(cs)
	}
	return n
}

// Apply returns the corrected plays for key and the descriptions of the
// corrections that ran. The input slice is not modified.
func (r *Registry) Apply(key model.GameKey, plays []model.PlateAppearance) ([]model.PlateAppearance, []string) {
	cs := r.byGame[key]
	if len(cs) == 0 {
		return plays, nil
	}
	out := make([]model.PlateAppearance, len(plays))
	copy(out, plays)
	applied := make([]string, 0, len(cs))
	for _, c := range cs {
		out = c.Apply(out)
		applied = append(applied, c.Description)
	}
	return out, applied
}

// SetOBC corrects the base state of plays matching hitter, inning and legacy result.
func SetOBC(hitterID, inning, legacyResult string, code int) func([]model.PlateAppearance) []model.PlateAppearance {
	return func(plays []model.PlateAppearance) []model.PlateAppearance {
		for i := range plays {
			p := &plays[i]
			if p.HitterID == hitterID && p.InningLabel == inning && p.LegacyResult == legacyResult {
				p.OBC = model.BasesFromCode(code)
			}
		}
		return plays
	}
}

// AppendPlay adds a play missing from the log. Season, game, era and order
// are taken from the existing plays.
func AppendPlay(p model.PlateAppearance) func([]model.PlateAppearance) []model.PlateAppearance {
	return func(plays []model.PlateAppearance) []model.PlateAppearance {
		if len(plays) > 0 {
			last := plays[len(plays)-1]
			p.Season, p.GameID, p.Era = last.Season, last.GameID, last.Era
			p.Seq = last.Seq + 1
		}
		return append(plays, p)
	}
}

var known = []Correction{
	{
		Key:         model.GameKey{Season: "S2", GameID: "164"},
		Description: "hitter 382 home run in T1 came with a runner on second",
		Apply:       SetOBC("382", "T1", "HR", 2),
	},
	{
		Key:         model.GameKey{Season: "S3", GameID: "90"},
		Description: "hitter 192 flyout in T5 came with runners on second and third",
		Apply:       SetOBC("192", "T5", "FO", 6),
	},
	{
		Key:         model.GameKey{Season: "S3", GameID: "188"},
		Description: "hitter 299 groundout in T2 came with runners on second and third",
		Apply:       SetOBC("299", "T2", "LGO", 6),
	},
	{
		Key:         model.GameKey{Season: "S5", GameID: "228"},
		Description: "missing final play of B6",
		Apply: AppendPlay(model.PlateAppearance{
			InningLabel:  "B6",
			Session:      16,
			BatterTeam:   "TBR",
			PitcherTeam:  "TOR",
			HitterID:     "284",
			PitcherID:    "394",
			Hitter:       "Hudson Hildebrandt",
			Pitcher:      "Ryan Gastings",
			OBC:          model.BasesFromCode(3),
			Outs:         1,
			LegacyResult: "Sac",
			ExactResult:  "FO",
			Diff:         186,
		}),
	},
}
