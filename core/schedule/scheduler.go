// Package schedule contains the dispatch engines: an exact MILP scheduler
// solved by LP relaxation plus branch and bound, and two heuristic
// strategies (sequential look-ahead rules and day-partitioned price ranking).
// All engines consume the same horizon and plant parameters and produce the
// same per-period decision series, so they are interchangeable and directly
// comparable.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/pvbess/core/model"
)

// Status reports the outcome of a scheduling run.
type Status string

const (
	// StatusOptimal means the exact engine proved global optimality within
	// the configured gap tolerance.
	StatusOptimal Status = "optimal"
	// StatusTimeLimit means the exact engine stopped at its time budget and
	// returned the best incumbent; Result.Gap holds the achieved bound.
	StatusTimeLimit Status = "time_limit"
	// StatusHeuristic marks schedules produced without optimality proof.
	StatusHeuristic Status = "heuristic"
)

// Result is the output of one scheduler invocation. The schedule and SoC
// trace are owned by the result and never shared between runs.
type Result struct {
	RunID     string
	Engine    string
	Status    Status
	Schedule  model.Schedule
	Objective float64 // total net revenue in currency units
	Gap       float64 // relative optimality gap, exact engine only
	Nodes     int     // branch-and-bound nodes explored, exact engine only
	SolveTime time.Duration
}

// Scheduler is the contract shared by every engine: a validated horizon and
// plant parameters in, a complete feasible decision series out. The context
// is honoured by the exact engine for cancellation; the heuristics run to
// completion.
type Scheduler interface {
	Name() string
	Schedule(ctx context.Context, h *model.Horizon, p model.PlantParams) (*Result, error)
}

func newRunID() string { return uuid.NewString() }

// Objective computes the total net revenue of a schedule: export proceeds
// minus import cost plus the fixed generation incentive. Prices are per MWh
// while energies are kWh, hence the 1000 divisor.
func Objective(s model.Schedule, p model.PlantParams, interval time.Duration) float64 {
	dt := interval.Hours()
	total := 0.0
	for _, d := range s {
		total += (d.GridExportKW()*d.PriceMWh - d.GridImportKW()*d.PriceMWh + d.GenerationKW*p.IncentiveRateMWh) * dt / 1000.0
	}
	return total
}

// NewEngine builds a scheduler by mode name. Modes: "exact", "lookahead",
// "daily".
func NewEngine(mode string, solver SolverConfig, rules RuleParams, daily DailyParams) (Scheduler, error) {
	switch mode {
	case "exact":
		return NewExactScheduler(solver), nil
	case "lookahead":
		return NewLookaheadScheduler(rules), nil
	case "daily":
		return NewDailyScheduler(daily), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine mode %q", model.ErrInvalidInput, mode)
	}
}
