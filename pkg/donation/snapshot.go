package donation

import (
	"math"
	"time"
)

// Snapshot is the donation progress computed for one organization at one
// point in time. A Snapshot is a plain value and is never mutated after
// NewSnapshot returns it.
type Snapshot struct {
	// RaisedText is the first currency token on the page, or "$0".
	RaisedText string `json:"raised_text"`

	// GoalText is the second currency token on the page, or "$0".
	GoalText string `json:"goal_text"`

	Raised float64 `json:"raised"`
	Goal   float64 `json:"goal"`

	// ProgressPercent is Raised / Goal * 100, or 0 when Goal is not positive.
	ProgressPercent float64 `json:"progress_percent"`

	// FetchedAt is the RFC 3339 UTC time the snapshot was computed.
	FetchedAt string `json:"fetched_at"`

	// SourceURL is the exact URL the page was fetched from.
	SourceURL string `json:"source_url"`
}

// NewSnapshot extracts the raised and goal amounts from a page body and
// assembles a Snapshot stamped with fetchedAt and sourceURL.
func NewSnapshot(body, sourceURL string, fetchedAt time.Time) Snapshot {
	raisedText, goalText := Extract(body)
	raised := ParseMoney(raisedText)
	goal := ParseMoney(goalText)

	return Snapshot{
		RaisedText:      raisedText,
		GoalText:        goalText,
		Raised:          raised,
		Goal:            goal,
		ProgressPercent: ProgressPercent(raised, goal),
		FetchedAt:       fetchedAt.UTC().Format(time.RFC3339Nano),
		SourceURL:       sourceURL,
	}
}

// ProgressPercent returns raised as a percentage of goal.
// Returns 0 if goal is not positive. The result is capped at
// math.MaxFloat64 so it always encodes as a finite JSON number.
func ProgressPercent(raised, goal float64) float64 {
	if goal <= 0 || raised <= 0 {
		return 0
	}

	pct := raised / goal * 100
	if math.IsInf(pct, 1) {
		return math.MaxFloat64
	}
	return pct
}
