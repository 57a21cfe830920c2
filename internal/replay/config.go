// Package replay posts a season's games to a running server and checks the
// standings it reports back.
package replay

import "time"

// Config holds settings for one replay.
type Config struct {
	BaseURL string        // server root, e.g. http://localhost:9080
	Workers int           // concurrent submitters
	Timeout time.Duration // per-request timeout
	Wait    time.Duration // how long to wait for every game to be decided
	TopN    int           // leaderboard rows to verify
}

// Play is one plate appearance in POST /games.
type Play struct {
	Inning       string `json:"inning"`
	Session      int    `json:"session"`
	BatterTeam   string `json:"batter_team"`
	PitcherTeam  string `json:"pitcher_team"`
	HitterID     string `json:"hitter_id,omitempty"`
	PitcherID    string `json:"pitcher_id"`
	OBC          int    `json:"obc"`
	Outs         int    `json:"outs"`
	ExactResult  string `json:"exact_result,omitempty"`
	LegacyResult string `json:"legacy_result,omitempty"`
	Diff         int    `json:"diff"`
	PAType       int    `json:"pa_type"`
}

// Game is the body of POST /games.
type Game struct {
	Season string `json:"season"`
	GameID string `json:"game_id"`
	Era    int    `json:"era"`
	Plays  []Play `json:"plays"`
}

// Entry is a leaderboard row.
type Entry struct {
	Rank      int    `json:"rank"`
	PitcherID string `json:"pitcher_id"`
	Count     int    `json:"count"`
}

// Line is a pitcher's decision line.
type Line struct {
	PitcherID string `json:"pitcher_id"`
	Wins      int    `json:"w"`
	Losses    int    `json:"l"`
	Saves     int    `json:"sv"`
	Holds     int    `json:"hld"`
}

// AckResponse is the reply to POST /games.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats summarizes a replay.
type Stats struct {
	Games     int           `json:"games"`
	Accepted  int           `json:"accepted"`
	Duplicate int           `json:"duplicate"`
	Failed    int           `json:"failed"`
	Decided   int           `json:"decided"`
	Verified  int           `json:"verified"`
	Leaders   []Entry       `json:"leaders"`
	Duration  time.Duration `json:"duration_ns"`
}
