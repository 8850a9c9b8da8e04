package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFrom(t *testing.T) {
	// Wednesday, 2024-01-17
	ref := time.Date(2024, 1, 17, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected string
	}{
		{"today", "2024-01-17"},
		{"TODAY", "2024-01-17"},
		{" Yesterday ", "2024-01-16"},

		{"last week", "2024-01-10"},
		{"lastweek", "2024-01-10"},
		{"last month", "2023-12-17"},
		{"last year", "2023-01-17"},

		{"this week", "2024-01-15"},
		{"this month", "2024-01-01"},
		{"this year", "2024-01-01"},

		// Weekdays look back; the same weekday is a week ago.
		{"monday", "2024-01-15"},
		{"mon", "2024-01-15"},
		{"last monday", "2024-01-15"},
		{"tuesday", "2024-01-16"},
		{"wednesday", "2024-01-10"},
		{"thursday", "2024-01-11"},
		{"sun", "2024-01-14"},

		{"-0", "2024-01-17"},
		{"-7", "2024-01-10"},
		{"-30", "2023-12-18"},
		{"1 day ago", "2024-01-16"},
		{"3 days ago", "2024-01-14"},
		{"2 weeks ago", "2024-01-03"},
		{"6 months ago", "2023-07-17"},

		{"2023-11-05", "2023-11-05"},
		{"2023-11", "2023-11-01"},
		{"2022", "2022-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFrom(tt.input, ref)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, got.Format("2006-01-02"))
			assert.Zero(t, got.Hour())
			assert.Zero(t, got.Minute())
		})
	}
}

func TestParseFromRejects(t *testing.T) {
	ref := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)

	for _, input := range []string{
		"", " ", "tomorrow", "next week", "+3", "--1", "-x",
		"days ago", "3 years ago", "2024-13-01", "2024-02-30", "soon",
	} {
		t.Run(input, func(t *testing.T) {
			_, ok := ParseFrom(input, ref)
			assert.False(t, ok)
		})
	}
}

func TestParseFromKeepsLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	ref := time.Date(2024, 1, 17, 1, 0, 0, 0, shanghai)

	got, ok := ParseFrom("yesterday", ref)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, shanghai), got)

	got, ok = ParseFrom("2024-01-01", ref)
	assert.True(t, ok)
	assert.Equal(t, shanghai, got.Location())
}

func TestParse(t *testing.T) {
	got, ok := Parse("today")
	assert.True(t, ok)
	y, m, d := time.Now().Date()
	assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.Local), got)
}
