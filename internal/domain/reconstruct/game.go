// Package reconstruct replays a game log into score, pitching and lead history.
package reconstruct

import (
	"fmt"

	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/simulate"
	"github.com/okian/pitchrecord/internal/domain/vocab"
)

// Gap is a play no simulator rule recognized.
type Gap struct {
	Seq    int          `json:"seq"`
	Inning model.Inning `json:"-"`
	Code   string       `json:"code"`
	Legacy string       `json:"legacy,omitempty"`
	Era    int          `json:"era"`
}

// Step traces one applied play.
type Step struct {
	Seq         int             `json:"seq"`
	Inning      model.Inning    `json:"inning"`
	PitcherID   string          `json:"pitcher_id"`
	Code        string          `json:"code"`
	Rule        string          `json:"rule"`
	BasesBefore model.BaseState `json:"bases_before"`
	BasesAfter  model.BaseState `json:"bases_after"`
	OutsBefore  int             `json:"outs_before"`
	Outs        int             `json:"outs"` // outs made by the play
	Runs        int             `json:"runs"`
	HomeScore   int             `json:"home_score"`
	AwayScore   int             `json:"away_score"`
}

// Game is a reconstructed game. PitchingLog and LeadChanges are append-only
// during reconstruction and read-only afterwards.
type Game struct {
	Key         model.GameKey
	Era         int
	Home        string
	Away        string
	HomeScore   int
	AwayScore   int
	HomeStarter string
	AwayStarter string
	PitchingLog []model.PitchingLogEntry
	LeadChanges []model.LeadChange
	// OutsByPitcher holds outs credited to each pitcher for decisions.
	OutsByPitcher map[string]int
	// PitchersByTeam lists each team's pitchers in first-appearance order.
	PitchersByTeam map[string][]string
	Gaps           []Gap
	// OutDrift counts plays whose tracked outs disagree with the logged outs.
	OutDrift int
	Steps    []Step
}

// state is the mutable replay state for one game.
type state struct {
	game        *Game
	inning      model.Inning
	outs        int
	homePitcher string
	awayPitcher string
}

// Reconstruct replays one game's plays in chronological order.
func Reconstruct(plays []model.PlateAppearance) (*Game, error) {
	if len(plays) == 0 {
		return nil, ErrEmptyGame
	}
	sorted, err := sortPlays(plays)
	if err != nil {
		return nil, err
	}

	first := plays[0]
	g := &Game{
		Key:            model.GameKey{Season: first.Season, GameID: first.GameID},
		Era:            first.Era,
		OutsByPitcher:  make(map[string]int),
		PitchersByTeam: make(map[string][]string),
		Steps:          make([]Step, 0, len(sorted)),
	}
	firstInning, _ := ParseInning(first.InningLabel)
	if firstInning.Half == model.Bottom {
		g.Home, g.Away = first.BatterTeam, first.PitcherTeam
	} else {
		g.Home, g.Away = first.PitcherTeam, first.BatterTeam
	}

	seen := make(map[string]bool)
	for _, p := range sorted {
		if p.PitcherTeam != g.Home && p.PitcherTeam != g.Away {
			return nil, fmt.Errorf("%w: play %d pitcher team %q (home %q, away %q)",
				ErrUnknownTeam, p.Seq, p.PitcherTeam, g.Home, g.Away)
		}
		if !seen[p.PitcherID] {
			seen[p.PitcherID] = true
			g.PitchersByTeam[p.PitcherTeam] = append(g.PitchersByTeam[p.PitcherTeam], p.PitcherID)
		}
		g.OutsByPitcher[p.PitcherID] += vocab.Resolve(p.ExactResult, p.LegacyResult).PitcherOutCredit()
	}
	if len(g.PitchersByTeam[g.Home]) == 0 {
		return nil, fmt.Errorf("%w: home team %q", ErrMissingStarter, g.Home)
	}
	if len(g.PitchersByTeam[g.Away]) == 0 {
		return nil, fmt.Errorf("%w: away team %q", ErrMissingStarter, g.Away)
	}
	g.HomeStarter = g.PitchersByTeam[g.Home][0]
	g.AwayStarter = g.PitchersByTeam[g.Away][0]

	s := &state{
		game:        g,
		inning:      model.Inning{Number: 1, Half: model.Top},
		homePitcher: g.HomeStarter,
		awayPitcher: g.AwayStarter,
	}
	g.PitchingLog = append(g.PitchingLog,
		model.PitchingLogEntry{PitcherID: g.HomeStarter, Team: g.Home, Inning: model.Inning{Number: 1, Half: model.Top}},
		model.PitchingLogEntry{PitcherID: g.AwayStarter, Team: g.Away, Inning: model.Inning{Number: 1, Half: model.Bottom}},
	)

	for _, p := range sorted {
		s.apply(p)
	}
	return g, nil
}

func (s *state) apply(p sortedPlay) {
	g := s.game
	if p.inning != s.inning {
		s.outs = 0
		s.inning = p.inning
	}

	switch {
	case p.PitcherTeam == g.Home && p.PitcherID != s.homePitcher:
		s.homePitcher = p.PitcherID
		s.logEntry(p.PitcherID, g.Home)
	case p.PitcherTeam == g.Away && p.PitcherID != s.awayPitcher:
		s.awayPitcher = p.PitcherID
		s.logEntry(p.PitcherID, g.Away)
	}

	if p.Outs != s.outs {
		g.OutDrift++
	}

	play := vocab.Resolve(p.ExactResult, p.LegacyResult)
	in := simulate.Input{
		Bases:   p.OBC,
		Outs:    s.outs,
		Play:    play,
		Diff:    p.Diff,
		Era:     p.Era,
		Subtype: p.PAType,
	}
	res := simulate.Simulate(in)
	if !res.Covered {
		g.Gaps = append(g.Gaps, Gap{Seq: p.Seq, Inning: p.inning, Code: play.Code, Legacy: play.Legacy, Era: p.Era})
	}

	beforeDiff := g.HomeScore - g.AwayScore
	if p.inning.Half == model.Top {
		g.AwayScore += res.Runs
	} else {
		g.HomeScore += res.Runs
	}
	s.outs += res.Outs
	after := res.Bases
	if s.outs >= 3 {
		after = model.Empty
	}

	afterDiff := g.HomeScore - g.AwayScore
	if beforeDiff*afterDiff <= 0 && afterDiff != 0 {
		g.LeadChanges = append(g.LeadChanges, model.LeadChange{
			Inning:      s.inning,
			HomeScore:   g.HomeScore,
			AwayScore:   g.AwayScore,
			HomePitcher: s.homePitcher,
			AwayPitcher: s.awayPitcher,
		})
	}

	g.Steps = append(g.Steps, Step{
		Seq:         p.Seq,
		Inning:      p.inning,
		PitcherID:   p.PitcherID,
		Code:        play.Code,
		Rule:        res.Rule,
		BasesBefore: p.OBC,
		BasesAfter:  after,
		OutsBefore:  in.Outs,
		Outs:        res.Outs,
		Runs:        res.Runs,
		HomeScore:   g.HomeScore,
		AwayScore:   g.AwayScore,
	})
}

func (s *state) logEntry(pitcherID, team string) {
	g := s.game
	g.PitchingLog = append(g.PitchingLog, model.PitchingLogEntry{
		PitcherID: pitcherID,
		Team:      team,
		Inning:    s.inning,
		HomeScore: g.HomeScore,
		AwayScore: g.AwayScore,
	})
}
