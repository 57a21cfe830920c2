package gamelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/pitchrecord/internal/domain/model"
)

// Column names in published logs.
const (
	ColGameID      = "Game ID"
	ColInning      = "Inning"
	ColBatterTeam  = "Batter Team"
	ColPitcherTeam = "Pitcher Team"
	ColPitcherID   = "Pitcher ID"
	ColHitterID    = "Hitter ID"
	ColPitcher     = "Pitcher"
	ColHitter      = "Hitter"
	ColOBC         = "OBC"
	ColOuts        = "Outs"
	ColOldResult   = "Old Result"
	ColExactResult = "Exact Result"
	ColDiff        = "Diff"
	ColPAType      = "PA Type"
	ColSession     = "Session"
)

var required = []string{ColGameID, ColInning, ColBatterTeam, ColPitcherTeam, ColPitcherID}

// ReadPlays parses a CSV log. Columns are located by header name; optional
// columns that are absent read as blank.
func ReadPlays(r io.Reader, season string, era int) ([]model.PlateAppearance, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}

	var plays []model.PlateAppearance
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get(ColGameID) == "" {
			continue
		}
		plays = append(plays, model.PlateAppearance{
			Season:       season,
			Era:          era,
			GameID:       get(ColGameID),
			InningLabel:  get(ColInning),
			Session:      model.ParseIntOrZero(get(ColSession)),
			BatterTeam:   get(ColBatterTeam),
			PitcherTeam:  get(ColPitcherTeam),
			HitterID:     get(ColHitterID),
			PitcherID:    get(ColPitcherID),
			Hitter:       get(ColHitter),
			Pitcher:      get(ColPitcher),
			OBC:          model.BasesFromCode(model.ParseIntOrZero(get(ColOBC))),
			Outs:         model.ParseIntOrZero(get(ColOuts)),
			LegacyResult: get(ColOldResult),
			ExactResult:  get(ColExactResult),
			Diff:         model.ParseIntOrZero(get(ColDiff)),
			PAType:       model.ParseIntOrZero(get(ColPAType)),
			Seq:          row,
		})
	}
	return plays, nil
}

// Game is one game's plays in log order.
type Game struct {
	Key     model.GameKey
	Era     int
	Session int
	Plays   []model.PlateAppearance
}

// GroupGames splits plays by game, keeping log order within each game and
// returning games in the order they first appear.
func GroupGames(plays []model.PlateAppearance) []Game {
	pos := make(map[model.GameKey]int)
	var games []Game
	for _, p := range plays {
		key := model.GameKey{Season: p.Season, GameID: p.GameID}
		i, ok := pos[key]
		if !ok {
			i = len(games)
			pos[key] = i
			games = append(games, Game{Key: key, Era: p.Era, Session: p.Session})
		}
		games[i].Plays = append(games[i].Plays, p)
	}
	return games
}
