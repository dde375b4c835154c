// Package peg reduces a daily stablecoin price series into a small set of
// noteworthy, de-noised deviation events.
package peg

import (
	"math"
	"sort"
	"time"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

const (
	// significantDeviation is the minimum relative deviation from peg for a
	// sample to be considered on its own merit (0.2%).
	significantDeviation = 0.002

	// edgeSamples at either end of the series are always kept as candidates.
	edgeSamples = 3

	// windowRadius is the half-width of the centered local-extremum window
	// (3 before, 3 after).
	windowRadius = 3
)

// Severity descriptions, ordered from most to least severe.
const (
	DescMajorDepeg       = "Major depeg event"
	DescSignificant      = "Significant price deviation"
	DescMinor            = "Minor price deviation"
	DescAtPeg            = "At peg"
	DescNormalFluctation = "Normal market fluctuation"
)

// ExtractEvents converts an ascending daily price series into at most one
// PegEvent per weekly bucket. An empty series yields no events.
func ExtractEvents(samples []domain.PriceSample) []domain.PegEvent {
	if len(samples) == 0 {
		return nil
	}

	// Step 1: keep samples that are significant on deviation, position, or
	// local-extremum grounds.
	var significant []domain.PriceSample
	for i, s := range samples {
		if isSignificant(samples, i) {
			significant = append(significant, s)
		}
	}

	// Step 2: within each weekly bucket keep only the sample with the
	// largest absolute deviation from peg.
	byBucket := make(map[weekBucket]domain.PriceSample)
	var order []weekBucket
	for _, s := range significant {
		b := bucketOf(s.Date)
		best, seen := byBucket[b]
		if !seen {
			byBucket[b] = s
			order = append(order, b)
			continue
		}
		if s.Deviation() > best.Deviation() {
			byBucket[b] = s
		}
	}

	// Step 3: sort survivors by date ascending.
	survivors := make([]domain.PriceSample, 0, len(order))
	for _, b := range order {
		survivors = append(survivors, byBucket[b])
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].Date.Before(survivors[j].Date)
	})

	// Step 4: annotate with severity descriptions.
	events := make([]domain.PegEvent, 0, len(survivors))
	for _, s := range survivors {
		events = append(events, domain.PegEvent{
			Date:        s.Date,
			Price:       s.Price,
			Description: Describe(s.Price),
		})
	}
	return events
}

// Describe classifies a price by its absolute deviation from peg. Boundary
// values resolve to the higher-severity bucket.
func Describe(price float64) string {
	devPct := math.Abs(price-domain.PegTarget) * 100
	switch {
	case devPct >= 5:
		return DescMajorDepeg
	case devPct >= 2:
		return DescSignificant
	case devPct >= 1:
		return DescMinor
	case devPct < 0.1:
		return DescAtPeg
	default:
		return DescNormalFluctation
	}
}

// weekBucket identifies one weekly dedup bucket. Week is day-of-month/7, so
// buckets reset at month boundaries rather than following ISO weeks.
type weekBucket struct {
	year  int
	month time.Month
	week  int
}

func bucketOf(date time.Time) weekBucket {
	return weekBucket{
		year:  date.Year(),
		month: date.Month(),
		week:  date.Day() / 7,
	}
}

// isSignificant reports whether samples[i] survives the candidate filter: a
// deviation above the noise floor, a position at either edge of the series,
// or a local price extremum within the centered window.
func isSignificant(samples []domain.PriceSample, i int) bool {
	s := samples[i]

	if s.Deviation()/domain.PegTarget > significantDeviation {
		return true
	}
	if i < edgeSamples || i >= len(samples)-edgeSamples {
		return true
	}

	lo := max(0, i-windowRadius)
	hi := min(len(samples)-1, i+windowRadius)
	isMax, isMin := true, true
	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		if samples[j].Price >= s.Price {
			isMax = false
		}
		if samples[j].Price <= s.Price {
			isMin = false
		}
	}
	return isMax || isMin
}
