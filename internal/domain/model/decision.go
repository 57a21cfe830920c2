package model

// PitchingLogEntry records a pitcher taking the mound.
type PitchingLogEntry struct {
	PitcherID string `json:"pitcher_id"`
	Team      string `json:"team"`
	Inning    Inning `json:"-"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// Lead returns the absolute score differential when the pitcher entered.
func (e PitchingLogEntry) Lead() int {
	d := e.HomeScore - e.AwayScore
	if d < 0 {
		return -d
	}
	return d
}

// LeadChange records the moment a team took the lead.
type LeadChange struct {
	Inning      Inning `json:"-"`
	HomeScore   int    `json:"home_score"`
	AwayScore   int    `json:"away_score"`
	HomePitcher string `json:"home_pitcher"`
	AwayPitcher string `json:"away_pitcher"`
}

// HomeLeads reports whether the home team led after the change.
func (c LeadChange) HomeLeads() bool { return c.HomeScore > c.AwayScore }

// DecisionStatus tells a real decision apart from the two kinds of empty result.
type DecisionStatus int

const (
	// Decided means attribution ran; individual awards may still be empty.
	Decided DecisionStatus = iota
	// Tied means the game ended level and nothing is awarded.
	Tied
	// Invalid means the log could not be reconstructed.
	Invalid
)

func (s DecisionStatus) String() string {
	switch s {
	case Decided:
		return "decided"
	case Tied:
		return "tied"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Decision holds the pitchers credited for a game. Empty strings mean no award.
type Decision struct {
	Status DecisionStatus `json:"-"`
	Win    string         `json:"win,omitempty"`
	Loss   string         `json:"loss,omitempty"`
	Save   string         `json:"save,omitempty"`
	Holds  []string       `json:"holds,omitempty"`
}

// Empty reports whether nothing was awarded.
func (d Decision) Empty() bool {
	return d.Win == "" && d.Loss == "" && d.Save == "" && len(d.Holds) == 0
}

// Stat names used to count decisions.
const (
	StatWin  = "W"
	StatLoss = "L"
	StatSave = "SV"
	StatHold = "HLD"
)

// Stats lists decision stats in display order.
var Stats = []string{StatWin, StatLoss, StatSave, StatHold}

// Awards flattens d into (stat, pitcher) pairs.
func (d Decision) Awards() [][2]string {
	var out [][2]string
	if d.Win != "" {
		out = append(out, [2]string{StatWin, d.Win})
	}
	if d.Loss != "" {
		out = append(out, [2]string{StatLoss, d.Loss})
	}
	if d.Save != "" {
		out = append(out, [2]string{StatSave, d.Save})
	}
	for _, h := range d.Holds {
		out = append(out, [2]string{StatHold, h})
	}
	return out
}
