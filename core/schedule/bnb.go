package schedule

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/pvbess/core/model"
	"github.com/kilianp07/pvbess/core/pv"
	"github.com/kilianp07/pvbess/internal/eventbus"
)

// SolverConfig bounds the branch-and-bound search of the exact engine.
type SolverConfig struct {
	// TimeLimitSeconds caps wall-clock search time. On expiry the best
	// incumbent is returned with StatusTimeLimit.
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	// GapTolerance is the relative bound-to-incumbent gap at which the
	// incumbent is accepted as optimal.
	GapTolerance float64 `json:"gap_tolerance"`
	// MaxNodes caps the number of relaxations solved.
	MaxNodes int `json:"max_nodes"`
}

// SetDefaults applies the default search limits.
func (c *SolverConfig) SetDefaults() {
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 600
	}
	if c.GapTolerance == 0 {
		c.GapTolerance = 1e-4
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = 100000
	}
}

// Validate rejects non-positive budgets.
func (c SolverConfig) Validate() error {
	if c.TimeLimitSeconds < 0 || c.GapTolerance < 0 || c.MaxNodes < 0 {
		return fmt.Errorf("%w: solver budgets must be non-negative", model.ErrInvalidInput)
	}
	return nil
}

// ProgressEvent is published on incumbent improvements and at search end.
type ProgressEvent struct {
	RunID     string
	Nodes     int
	Incumbent float64
	Bound     float64
	Gap       float64
}

// ExactScheduler maximises net revenue with an optimality proof. The mixed
// program is solved by LP relaxation plus depth-first branch and bound on
// the charge/discharge mutual exclusion; a look-ahead heuristic run seeds
// the incumbent, so a feasible schedule exists from the first node and a
// time-limited run can never return less revenue than the heuristic.
type ExactScheduler struct {
	Config   SolverConfig
	Progress *eventbus.TypedBus[ProgressEvent]
}

// NewExactScheduler returns the exact engine with the given search budget.
func NewExactScheduler(cfg SolverConfig) *ExactScheduler {
	cfg.SetDefaults()
	return &ExactScheduler{Config: cfg, Progress: eventbus.NewTyped[ProgressEvent]()}
}

func (s *ExactScheduler) Name() string { return "exact" }

// node is one open branch-and-bound subproblem with the bound inherited
// from its parent relaxation.
type node struct {
	br    branching
	bound float64
}

// Schedule implements the Scheduler interface.
func (s *ExactScheduler) Schedule(ctx context.Context, h *model.Horizon, p model.PlantParams) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	gen, err := pv.Profile(h, p.ConversionRatio)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	deadline := start.Add(time.Duration(s.Config.TimeLimitSeconds * float64(time.Second)))
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	runID := newRunID()
	prob := buildProblem(h, p, gen)
	incConst := prob.incentiveConstant()

	// Seed the incumbent with the heuristic schedule.
	heur, err := NewLookaheadScheduler(RuleParams{}).Schedule(ctx, h, p)
	if err != nil {
		return nil, fmt.Errorf("seeding incumbent: %w", err)
	}
	incumbent := heur.Schedule
	incObj := heur.Objective

	root := branching{noCharge: map[int]bool{}, noDischarge: map[int]bool{}}
	stack := []node{{br: root, bound: math.Inf(1)}}
	nodes := 0
	timedOut := false

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.bound <= incObj+absEps(incObj) {
			continue
		}
		if time.Now().After(deadline) || nodes >= s.Config.MaxNodes {
			stack = append(stack, n)
			timedOut = true
			break
		}

		x, relaxObj, err := lpSolve(prob, n.br)
		nodes++
		if err != nil {
			mapped := mapSolverErr(err)
			if errors.Is(mapped, ErrInfeasible) {
				// The root relaxation being infeasible means the problem
				// itself is; deeper nodes are just pruned.
				if nodes == 1 {
					return nil, mapped
				}
				continue
			}
			return nil, mapped
		}
		bound := relaxObj + incConst
		if bound <= incObj+absEps(incObj) {
			continue
		}

		t := prob.mostViolated(x, n.br)
		if t < 0 {
			sched := prob.scheduleFromSolution(h, x)
			obj := Objective(sched, p, h.Interval)
			if obj > incObj {
				if err := sched.Verify(p, h.Interval); err != nil {
					return nil, fmt.Errorf("exact scheduler produced invalid schedule: %w", err)
				}
				incumbent, incObj = sched, obj
				s.publish(runID, nodes, incObj, openBound(stack, incObj))
			}
			continue
		}
		// Explore the discharge branch first: discharging tends to carry
		// the revenue, so it finds strong incumbents earlier.
		stack = append(stack, node{br: n.br.child(t, false), bound: bound})
		stack = append(stack, node{br: n.br.child(t, true), bound: bound})
	}

	bound := openBound(stack, incObj)
	gap := relGap(bound, incObj)
	status := StatusOptimal
	if timedOut && gap > s.Config.GapTolerance {
		status = StatusTimeLimit
	} else {
		gap = math.Min(gap, s.Config.GapTolerance)
	}
	s.publish(runID, nodes, incObj, bound)

	return &Result{
		RunID:     runID,
		Engine:    s.Name(),
		Status:    status,
		Schedule:  incumbent,
		Objective: incObj,
		Gap:       gap,
		Nodes:     nodes,
		SolveTime: time.Since(start),
	}, nil
}

func (s *ExactScheduler) publish(runID string, nodes int, inc, bound float64) {
	if s.Progress == nil {
		return
	}
	s.Progress.Publish(ProgressEvent{
		RunID:     runID,
		Nodes:     nodes,
		Incumbent: inc,
		Bound:     bound,
		Gap:       relGap(bound, inc),
	})
}

// openBound is the best upper bound still open: the maximum parent bound on
// the stack, or the incumbent itself once the search is exhausted.
func openBound(stack []node, incObj float64) float64 {
	bound := incObj
	for _, n := range stack {
		if n.bound > bound {
			bound = n.bound
		}
	}
	return bound
}

func relGap(bound, inc float64) float64 {
	if bound <= inc {
		return 0
	}
	return (bound - inc) / math.Max(math.Abs(inc), 1e-9)
}

// absEps is the pruning slack: bounds within this margin of the incumbent
// cannot improve it meaningfully.
func absEps(inc float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(inc))
}
