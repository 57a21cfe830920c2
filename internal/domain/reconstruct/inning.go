package reconstruct

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/pitchrecord/internal/domain/model"
)

var inningNumber = regexp.MustCompile(`\d+`)

// ParseInning reads labels such as "T3", "B10" or "Bot 7". The half marker
// is an upper-case T or B and the first digit run is the inning number.
func ParseInning(label string) (model.Inning, error) {
	var half model.Half
	switch {
	case strings.Contains(label, "T"):
		half = model.Top
	case strings.Contains(label, "B"):
		half = model.Bottom
	default:
		return model.Inning{}, fmt.Errorf("%w: %q has no half marker", ErrMalformedInning, label)
	}
	digits := inningNumber.FindString(label)
	if digits == "" {
		return model.Inning{}, fmt.Errorf("%w: %q has no inning number", ErrMalformedInning, label)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return model.Inning{}, fmt.Errorf("%w: %q", ErrMalformedInning, label)
	}
	return model.Inning{Number: n, Half: half}, nil
}

type sortedPlay struct {
	model.PlateAppearance
	inning model.Inning
}

// SortPlays orders plays by inning, top before bottom, then by log position.
// Any unparseable inning fails the whole game.
func SortPlays(plays []model.PlateAppearance) ([]model.PlateAppearance, error) {
	sorted, err := sortPlays(plays)
	if err != nil {
		return nil, err
	}
	out := make([]model.PlateAppearance, len(sorted))
	for i, p := range sorted {
		out[i] = p.PlateAppearance
	}
	return out, nil
}

func sortPlays(plays []model.PlateAppearance) ([]sortedPlay, error) {
	out := make([]sortedPlay, len(plays))
	for i, p := range plays {
		inn, err := ParseInning(p.InningLabel)
		if err != nil {
			return nil, fmt.Errorf("play %d: %w", i, err)
		}
		out[i] = sortedPlay{PlateAppearance: p, inning: inn}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].inning.Before(out[j].inning)
	})
	return out, nil
}
