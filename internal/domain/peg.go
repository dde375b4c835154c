package domain

import (
	"math"
	"time"
)

// PegTarget is the price a stablecoin is designed to hold.
const PegTarget = 1.0

// PriceSample is one daily close from the market-data provider. Samples are
// ordered ascending by date; sparse series are not backfilled.
type PriceSample struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Deviation returns the absolute deviation from peg as a fraction
// (0.01 = 1%).
func (s PriceSample) Deviation() float64 {
	return math.Abs(s.Price - PegTarget)
}

// PegEvent is a de-noised, noteworthy deviation extracted from a daily price
// series. At most one event survives per weekly bucket.
type PegEvent struct {
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
}

// DeviationPct returns the event's absolute deviation from peg in percent.
func (e PegEvent) DeviationPct() float64 {
	return math.Abs(e.Price-PegTarget) * 100
}
