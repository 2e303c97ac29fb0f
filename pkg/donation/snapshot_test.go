package donation

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://hcb.hackclub.com/donations/start/test-org"

func TestNewSnapshot_NoTokens(t *testing.T) {
	snap := NewSnapshot("<html>no money here</html>", testURL, time.Now())

	assert.Equal(t, "$0", snap.RaisedText)
	assert.Equal(t, "$0", snap.GoalText)
	assert.Zero(t, snap.Raised)
	assert.Zero(t, snap.Goal)
	assert.Zero(t, snap.ProgressPercent)
}

func TestNewSnapshot_OneToken(t *testing.T) {
	snap := NewSnapshot("raised <b>$500</b>", testURL, time.Now())

	assert.Equal(t, "$500", snap.RaisedText)
	assert.Equal(t, "$0", snap.GoalText)
	assert.Equal(t, 500.0, snap.Raised)
	assert.Zero(t, snap.ProgressPercent)
}

func TestNewSnapshot_TwoTokens(t *testing.T) {
	fetchedAt := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	snap := NewSnapshot("<p>$250</p><p>$1,000</p>", testURL, fetchedAt)

	assert.Equal(t, 250.0, snap.Raised)
	assert.Equal(t, 1000.0, snap.Goal)
	assert.InDelta(t, 25.0, snap.ProgressPercent, 1e-9)
	assert.Equal(t, "2024-03-01T12:30:00Z", snap.FetchedAt)
	assert.Equal(t, testURL, snap.SourceURL)
}

func TestNewSnapshot_FetchedAtIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	snap := NewSnapshot("", testURL, time.Date(2024, 3, 1, 14, 0, 0, 0, loc))

	parsed, err := time.Parse(time.RFC3339Nano, snap.FetchedAt)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:00:00Z", snap.FetchedAt)
	assert.Equal(t, time.UTC, parsed.Location())
}

func TestNewSnapshot_JSONFields(t *testing.T) {
	snap := NewSnapshot("$1 $4", testURL, time.Unix(0, 0))

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	for _, key := range []string{
		"raised_text", "goal_text", "raised", "goal",
		"progress_percent", "fetched_at", "source_url",
	} {
		assert.Contains(t, fields, key)
	}
	assert.Len(t, fields, 7)
	assert.Equal(t, 25.0, fields["progress_percent"])
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name     string
		raised   float64
		goal     float64
		expected float64
	}{
		{name: "quarter", raised: 250, goal: 1000, expected: 25},
		{name: "over goal", raised: 1500, goal: 1000, expected: 150},
		{name: "zero goal", raised: 100, goal: 0, expected: 0},
		{name: "negative goal", raised: 100, goal: -5, expected: 0},
		{name: "nothing raised", raised: 0, goal: 1000, expected: 0},
		{name: "overflow capped", raised: math.MaxFloat64, goal: 0.5, expected: math.MaxFloat64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressPercent(tt.raised, tt.goal)
			assert.Equal(t, tt.expected, got)
			assert.False(t, math.IsInf(got, 0))
		})
	}
}
