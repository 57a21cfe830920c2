// Package decision attributes wins, losses, saves and holds to pitchers.
package decision

import (
	"fmt"
	"slices"

	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/reconstruct"
)

// Default scoring-rule thresholds, in outs and runs.
const (
	defaultStarterOuts  = 10 // 3 1/3 innings
	defaultSaveLead     = 3
	defaultSaveOuts     = 3
	defaultLongSaveOuts = 9
	defaultHoldLead     = 3
)

// Option applies a configuration option to the Attributor.
type Option func(*Attributor)

// WithStarterOuts sets the outs a starter needs to keep a win.
func WithStarterOuts(outs int) Option {
	return func(a *Attributor) {
		if outs > 0 {
			a.starterOuts = outs
		}
	}
}

// WithSaveRule sets the save thresholds: the largest lead at entry and the
// outs needed with it, plus the outs that earn a save regardless of lead.
func WithSaveRule(lead, outs, longOuts int) Option {
	return func(a *Attributor) {
		if lead >= 0 && outs > 0 && longOuts >= outs {
			a.saveLead = lead
			a.saveOuts = outs
			a.longSaveOuts = longOuts
		}
	}
}

// WithHoldLead sets the largest lead at entry that still earns a hold.
func WithHoldLead(lead int) Option {
	return func(a *Attributor) {
		if lead >= 0 {
			a.holdLead = lead
		}
	}
}

// Input is the event log a decision is computed from. It can be built from a
// reconstructed game or replayed directly.
type Input struct {
	Home           string
	Away           string
	HomeScore      int
	AwayScore      int
	PitchersByTeam map[string][]string
	PitchingLog    []model.PitchingLogEntry
	LeadChanges    []model.LeadChange
	OutsByPitcher  map[string]int
}

// FromGame extracts the decision input from a reconstructed game.
func FromGame(g *reconstruct.Game) Input {
	return Input{
		Home:           g.Home,
		Away:           g.Away,
		HomeScore:      g.HomeScore,
		AwayScore:      g.AwayScore,
		PitchersByTeam: g.PitchersByTeam,
		PitchingLog:    g.PitchingLog,
		LeadChanges:    g.LeadChanges,
		OutsByPitcher:  g.OutsByPitcher,
	}
}

// Attributor assigns pitcher decisions.
type Attributor struct {
	starterOuts  int
	saveLead     int
	saveOuts     int
	longSaveOuts int
	holdLead     int
}

// New creates an Attributor with standard scoring rules.
func New(opts ...Option) *Attributor {
	a := &Attributor{
		starterOuts:  defaultStarterOuts,
		saveLead:     defaultSaveLead,
		saveOuts:     defaultSaveOuts,
		longSaveOuts: defaultLongSaveOuts,
		holdLead:     defaultHoldLead,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Decide reconstructs a game and attributes its decisions. A game that
// cannot be reconstructed yields an Invalid decision and the error.
func (a *Attributor) Decide(plays []model.PlateAppearance) (model.Decision, *reconstruct.Game, error) {
	g, err := reconstruct.Reconstruct(plays)
	if err != nil {
		return model.Decision{Status: model.Invalid}, nil, fmt.Errorf("reconstruct: %w", err)
	}
	return a.Attribute(FromGame(g)), g, nil
}

// Attribute computes decisions for a game. Ties give the empty Tied decision.
func (a *Attributor) Attribute(in Input) model.Decision {
	winTeam, loseTeam, ok := winner(in)
	if !ok {
		return model.Decision{Status: model.Tied}
	}
	pitchers := in.PitchersByTeam[winTeam]
	if len(pitchers) == 0 || len(in.PitchersByTeam[loseTeam]) == 0 {
		return model.Decision{Status: model.Invalid}
	}
	starter := pitchers[0]

	var ofRecord, loss string
	if lc, found := goAhead(in, winTeam); found {
		if winTeam == in.Home {
			ofRecord, loss = lc.HomePitcher, lc.AwayPitcher
		} else {
			ofRecord, loss = lc.AwayPitcher, lc.HomePitcher
		}
	} else {
		ofRecord, loss = starter, in.PitchersByTeam[loseTeam][0]
	}

	win := ofRecord
	if ofRecord == starter && in.OutsByPitcher[starter] < a.starterOuts && len(pitchers) > 1 {
		win = ""
		for _, p := range pitchers[1:] {
			if in.OutsByPitcher[p] > 0 {
				win = p
				break
			}
		}
	}

	d := model.Decision{Status: model.Decided, Win: win, Loss: loss}
	if len(pitchers) > 1 {
		last := pitchers[len(pitchers)-1]
		if last != win {
			if entry, found := latestEntry(in.PitchingLog, last); found {
				outs := in.OutsByPitcher[last]
				if (entry.Lead() <= a.saveLead && outs >= a.saveOuts) || outs >= a.longSaveOuts {
					d.Save = last
				}
			}
		}
		for _, p := range pitchers[1 : len(pitchers)-1] {
			entry, found := latestEntry(in.PitchingLog, p)
			if !found || p == loss {
				continue
			}
			if entry.Lead() <= a.holdLead && in.OutsByPitcher[p] > 0 {
				d.Holds = append(d.Holds, p)
			}
		}
	}
	exclusive(&d)
	return d
}

func winner(in Input) (win, lose string, ok bool) {
	switch {
	case in.HomeScore > in.AwayScore:
		return in.Home, in.Away, true
	case in.AwayScore > in.HomeScore:
		return in.Away, in.Home, true
	default:
		return "", "", false
	}
}

// goAhead finds the last lead change after which the winning team led.
func goAhead(in Input, winTeam string) (model.LeadChange, bool) {
	for i := len(in.LeadChanges) - 1; i >= 0; i-- {
		lc := in.LeadChanges[i]
		if lc.HomeLeads() == (winTeam == in.Home) {
			return lc, true
		}
	}
	return model.LeadChange{}, false
}

// latestEntry returns the pitcher's most recent entry into the game.
func latestEntry(log []model.PitchingLogEntry, pitcherID string) (model.PitchingLogEntry, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].PitcherID == pitcherID {
			return log[i], true
		}
	}
	return model.PitchingLogEntry{}, false
}

// exclusive leaves each pitcher with at most one decision.
func exclusive(d *model.Decision) {
	drop := func(id string) {
		d.Holds = slices.DeleteFunc(d.Holds, func(h string) bool { return h == id })
	}
	if d.Win != "" {
		if d.Loss == d.Win {
			d.Loss = ""
		}
		if d.Save == d.Win {
			d.Save = ""
		}
		drop(d.Win)
	}
	if d.Loss != "" {
		if d.Save == d.Loss {
			d.Save = ""
		}
		drop(d.Loss)
	}
	if d.Save != "" {
		drop(d.Save)
	}
	if len(d.Holds) == 0 {
		d.Holds = nil
	}
}
