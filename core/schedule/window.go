package schedule

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats are the local price statistics the look-ahead rules compare
// against. They are pure functions of a slice of the series and recomputed
// per period, keeping the heuristic stateless.
type WindowStats struct {
	MaxFuture float64
	AvgFuture float64
}

// lookaheadStats computes statistics over the next width periods after t,
// excluding t itself. At the end of the horizon, where no future periods
// remain, the current price stands in for both statistics so the comparisons
// degrade to equality checks.
func lookaheadStats(prices []float64, t, width int) WindowStats {
	end := t + 1 + width
	if end > len(prices) {
		end = len(prices)
	}
	future := prices[t+1 : max(t+1, end)]
	if len(future) == 0 {
		return WindowStats{MaxFuture: prices[t], AvgFuture: prices[t]}
	}
	return WindowStats{
		MaxFuture: floats.Max(future),
		AvgFuture: stat.Mean(future, nil),
	}
}

// PriceQuantile returns the q-quantile of a price window. Exposed for rule
// variants that rank the current price against its local distribution.
func PriceQuantile(prices []float64, q float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}
