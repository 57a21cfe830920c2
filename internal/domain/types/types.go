// Package types contains common types used across the application
package types

// Entry represents a standings entry for one decision stat
type Entry struct {
	Rank      int    `json:"rank"`
	PitcherID string `json:"pitcher_id"`
	Count     int    `json:"count"`
}

// Line is a pitcher's season decision line
type Line struct {
	Season    string `json:"season"`
	PitcherID string `json:"pitcher_id"`
	Wins      int    `json:"w"`
	Losses    int    `json:"l"`
	Saves     int    `json:"sv"`
	Holds     int    `json:"hld"`
}

// Decisions returns the total number of decisions on the line
func (l Line) Decisions() int { return l.Wins + l.Losses + l.Saves + l.Holds }
