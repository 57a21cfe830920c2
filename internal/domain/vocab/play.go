package vocab

import "strings"

// Play is a resolved play code. Code is the authoritative raw code: the
// current column when present, the legacy column otherwise.
type Play struct {
	Code          string
	Outcome       Outcome
	Exact         string
	Legacy        string
	LegacyOutcome Outcome
}

// Resolve picks the authoritative code for a log row.
func Resolve(exact, legacy string) Play {
	exact = strings.TrimSpace(exact)
	legacy = strings.TrimSpace(legacy)
	code := exact
	if code == "" {
		code = legacy
	}
	return Play{
		Code:          code,
		Outcome:       Lookup(code),
		Exact:         exact,
		Legacy:        legacy,
		LegacyOutcome: Lookup(legacy),
	}
}

// OutCredit is the out count the simulator starts from for this play.
func (p Play) OutCredit() int { return OutCredit(p.Code, p.Legacy) }

// PitcherOutCredit is the out credited to the pitcher of record. Only the
// current column counts on the current side, so legacy-only rows credit
// fewer plays.
func (p Play) PitcherOutCredit() int { return OutCredit(p.Exact, p.Legacy) }

var (
	currentOutCodes = foldSet(
		"FO", "LGO", "PO", "RGO", "LO", "BUNT GO", "BUNT Sac", "Sac",
		"K", "Auto K", "Bunt K",
		"CS 2B", "CS 3B", "CS Home", "CMS 3B", "CMS Home",
	)
	legacyOutCodes = foldSet(
		"FO", "LGO", "PO", "RGO", "Bunt", "LO",
		"K", "Auto K",
		"CS",
	)
)

// OutCredit returns 1 when either code records a single out and 0 otherwise.
// Double and triple plays credit nothing.
func OutCredit(current, legacy string) int {
	if _, ok := currentOutCodes[Fold(current)]; ok {
		return 1
	}
	if _, ok := legacyOutCodes[Fold(legacy)]; ok {
		return 1
	}
	return 0
}

func foldSet(codes ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[Fold(c)] = struct{}{}
	}
	return m
}
