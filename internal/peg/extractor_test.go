package peg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// series builds one sample per consecutive day starting at start.
func series(t *testing.T, start string, prices ...float64) []domain.PriceSample {
	t.Helper()
	d := day(t, start)
	out := make([]domain.PriceSample, 0, len(prices))
	for i, p := range prices {
		out = append(out, domain.PriceSample{Date: d.AddDate(0, 0, i), Price: p})
	}
	return out
}

func TestDescribe_ThresholdTable(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{1.0005, DescAtPeg},
		{0.9995, DescAtPeg},
		{1.005, DescNormalFluctation},
		{0.992, DescNormalFluctation},
		{1.012, DescMinor},
		{0.985, DescMinor},
		{1.03, DescSignificant},
		{0.96, DescSignificant},
		{1.08, DescMajorDepeg},
		{0.90, DescMajorDepeg},
		// Boundary values resolve to the higher-severity bucket.
		{1.05, DescMajorDepeg},
		{1.02, DescSignificant},
		{1.01, DescMinor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.price), "price %v", tt.price)
	}
}

func TestExtractEvents_EmptyInput(t *testing.T) {
	assert.Empty(t, ExtractEvents(nil))
	assert.Empty(t, ExtractEvents([]domain.PriceSample{}))
}

func TestExtractEvents_OnePerWeeklyBucket(t *testing.T) {
	// Two deviating samples in the same week bucket (days 8..13); the larger
	// deviation wins. A third deviation in the next bucket survives too.
	samples := series(t, "2023-03-08",
		0.995, 0.990, 1.000, 1.000, 1.000, 1.000, // days 8-13, bucket 1
		0.970, 1.000, 1.000, 1.000, 1.000, 1.000, // days 14-19, bucket 2
	)

	events := ExtractEvents(samples)

	seen := map[[3]int]bool{}
	for _, e := range events {
		key := [3]int{e.Date.Year(), int(e.Date.Month()), e.Date.Day() / 7}
		assert.False(t, seen[key], "duplicate bucket for %s", e.Date)
		seen[key] = true
	}

	// Bucket 1 keeps the 0.990 sample (larger deviation than 0.995).
	require.NotEmpty(t, events)
	assert.Equal(t, 0.990, events[0].Price)
	assert.Equal(t, day(t, "2023-03-09"), events[0].Date)

	// Bucket 2 keeps the 0.970 sample.
	assert.Equal(t, 0.970, events[1].Price)
}

func TestExtractEvents_EventsSortedAscending(t *testing.T) {
	samples := series(t, "2023-01-01",
		0.97, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0,
		1.0, 0.96, 1.0, 1.0, 1.0, 1.0, 1.0,
		1.0, 1.0, 0.95, 1.0, 1.0, 1.0, 1.0,
	)

	events := ExtractEvents(samples)
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i-1].Date.Before(events[i].Date))
	}
}

func TestExtractEvents_ShortSeriesClipsWindow(t *testing.T) {
	// Shorter than the 7-sample window; every sample is at an edge, so the
	// extractor must not panic and must produce at most one event per bucket.
	samples := series(t, "2023-06-01", 1.0, 0.99, 1.0)

	events := ExtractEvents(samples)
	require.Len(t, events, 1)
	assert.Equal(t, 0.99, events[0].Price)
}

func TestExtractEvents_LocalExtremumKept(t *testing.T) {
	// A sample inside the noise floor but forming a local maximum within its
	// 7-sample window is still a candidate.
	samples := series(t, "2023-05-01",
		1.0000, 1.0000, 1.0000, 1.0000, // edge zone
		1.0001, 1.0002, 1.0008, 1.0002, 1.0001, // local max at 1.0008
		1.0000, 1.0000, 1.0000, 1.0000,
	)

	events := ExtractEvents(samples)

	var found bool
	for _, e := range events {
		if e.Price == 1.0008 {
			found = true
			assert.Equal(t, DescAtPeg, e.Description)
		}
	}
	assert.True(t, found, "local maximum should survive extraction")
}

func TestExtractEvents_MonthEdgeStartsNewBucket(t *testing.T) {
	// Jan 30 and Feb 2 are days apart but land in different buckets because
	// bucketing uses day-of-month/7, not ISO weeks.
	samples := []domain.PriceSample{
		{Date: day(t, "2023-01-30"), Price: 0.99},
		{Date: day(t, "2023-01-31"), Price: 1.0},
		{Date: day(t, "2023-02-01"), Price: 1.0},
		{Date: day(t, "2023-02-02"), Price: 0.985},
	}

	events := ExtractEvents(samples)
	require.Len(t, events, 2)
	assert.Equal(t, 0.99, events[0].Price)
	assert.Equal(t, 0.985, events[1].Price)
}
