package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput flags malformed horizon data or configuration. It is
// detected before any scheduling starts; engines never see bad input.
var ErrInvalidInput = errors.New("invalid input")

// Period is one fixed-width slot of the input series.
type Period struct {
	Timestamp  time.Time `json:"timestamp"`
	PriceMWh   float64   `json:"price_mwh"`   // wholesale price in currency/MWh
	Irradiance float64   `json:"irradiance"`  // plane-of-array irradiance in W/m²
}

// Horizon is a contiguous, gap-free sequence of periods with a uniform width.
// It is read-only to the engines; a schedule run never mutates it.
type Horizon struct {
	Periods  []Period
	Interval time.Duration
}

// NewHorizon validates the series and returns a Horizon. Timestamps must be
// strictly increasing with a uniform spacing equal to interval, and
// irradiance values must be non-negative.
func NewHorizon(periods []Period, interval time.Duration) (*Horizon, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: empty horizon", ErrInvalidInput)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidInput, interval)
	}
	for i, p := range periods {
		if p.Irradiance < 0 {
			return nil, fmt.Errorf("%w: negative irradiance %.3f at %v", ErrInvalidInput, p.Irradiance, p.Timestamp)
		}
		if i == 0 {
			continue
		}
		gap := p.Timestamp.Sub(periods[i-1].Timestamp)
		if gap <= 0 {
			return nil, fmt.Errorf("%w: timestamps not strictly increasing at %v", ErrInvalidInput, p.Timestamp)
		}
		if gap != interval {
			return nil, fmt.Errorf("%w: non-uniform period width %v at %v, want %v", ErrInvalidInput, gap, p.Timestamp, interval)
		}
	}
	return &Horizon{Periods: periods, Interval: interval}, nil
}

// Len returns the number of periods.
func (h *Horizon) Len() int { return len(h.Periods) }

// IntervalHours returns the period width in hours, the unit used to convert
// between power (kW) and energy (kWh).
func (h *Horizon) IntervalHours() float64 { return h.Interval.Hours() }

// Prices returns the price column as a slice.
func (h *Horizon) Prices() []float64 {
	out := make([]float64, len(h.Periods))
	for i, p := range h.Periods {
		out[i] = p.PriceMWh
	}
	return out
}

// DayBounds partitions the horizon into calendar days, using the timezone of
// each period's timestamp. Each element is the half-open index range
// [Start, End) of one day, in chronological order.
type DayBounds struct {
	Date  time.Time // midnight starting the day
	Start int
	End   int
}

// Days groups the horizon's period indices by calendar day.
func (h *Horizon) Days() []DayBounds {
	var days []DayBounds
	for i, p := range h.Periods {
		d := time.Date(p.Timestamp.Year(), p.Timestamp.Month(), p.Timestamp.Day(), 0, 0, 0, 0, p.Timestamp.Location())
		if len(days) == 0 || !days[len(days)-1].Date.Equal(d) {
			days = append(days, DayBounds{Date: d, Start: i})
		}
		days[len(days)-1].End = i + 1
	}
	return days
}
