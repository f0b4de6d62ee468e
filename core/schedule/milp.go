package schedule

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/pvbess/core/model"
)

// ErrInfeasible indicates the exact formulation has no feasible point: the
// configuration is contradictory. Fatal to the scheduling attempt, no
// partial schedule is returned.
var ErrInfeasible = errors.New("infeasible problem")

// ErrUnbounded indicates the objective can grow without limit, which can
// only happen through a modeling defect.
var ErrUnbounded = errors.New("unbounded problem")

// exclusionTol is the power level (kW) below which simultaneous charge and
// discharge in a relaxed solution counts as numerically zero.
const exclusionTol = 1e-6

// Variable layout per period: six contiguous slots.
const (
	varChargePV = iota
	varChargeGrid
	varDischarge
	varExportPV
	varCurtail
	varSoC
	varsPerPeriod
)

// milpProblem is the linear relaxation of the dispatch program. Mutual
// exclusion between charging and discharging is not expressible linearly;
// the branch-and-bound search restores it by fixing per-period modes.
type milpProblem struct {
	n      int
	dt     float64
	prices []float64
	gen    []float64
	plant  model.PlantParams

	// Per-period variable upper bounds with floor, charging-window and
	// interconnection rules already folded in.
	ub         [][varsPerPeriod]float64
	exportable []bool
}

// branching records the mode decisions taken along one branch-and-bound
// path: periods where charging, or discharging, has been fixed to zero.
type branching struct {
	noCharge    map[int]bool
	noDischarge map[int]bool
}

func (b branching) child(t int, forbidCharge bool) branching {
	c := branching{
		noCharge:    make(map[int]bool, len(b.noCharge)+1),
		noDischarge: make(map[int]bool, len(b.noDischarge)+1),
	}
	for k := range b.noCharge {
		c.noCharge[k] = true
	}
	for k := range b.noDischarge {
		c.noDischarge[k] = true
	}
	if forbidCharge {
		c.noCharge[t] = true
	} else {
		c.noDischarge[t] = true
	}
	return c
}

func buildProblem(h *model.Horizon, p model.PlantParams, gen []float64) *milpProblem {
	n := h.Len()
	prob := &milpProblem{
		n:          n,
		dt:         h.IntervalHours(),
		prices:     h.Prices(),
		gen:        gen,
		plant:      p,
		ub:         make([][varsPerPeriod]float64, n),
		exportable: make([]bool, n),
	}
	for t := 0; t < n; t++ {
		price := prob.prices[t]
		exportOK := price >= p.MinExportPriceMWh
		chargeOK := p.ChargeIrradianceThreshold == 0 || h.Periods[t].Irradiance > p.ChargeIrradianceThreshold
		prob.exportable[t] = exportOK

		var ub [varsPerPeriod]float64
		if chargeOK && (exportOK || p.AllowChargeBelowFloor) {
			ub[varChargePV] = math.Min(p.MaxChargeKW, gen[t])
		}
		if chargeOK {
			ub[varChargeGrid] = math.Min(p.MaxChargeKW, p.GridImportLimitKW)
		}
		if exportOK {
			ub[varDischarge] = math.Min(p.MaxDischargeKW, p.GridExportLimitKW)
			ub[varExportPV] = math.Min(gen[t], p.GridExportLimitKW)
		}
		ub[varCurtail] = gen[t]
		ub[varSoC] = p.CapacityKWh
		prob.ub[t] = ub
	}
	return prob
}

func (prob *milpProblem) nVars() int { return prob.n * varsPerPeriod }

func (prob *milpProblem) idx(t, v int) int { return t*varsPerPeriod + v }

// objectiveCoeffs returns the minimisation vector: the negated per-kW
// revenue of export and the cost of import, scaled to currency per period.
// The generation incentive is constant with respect to the decisions and is
// reintroduced by incentiveConstant.
func (prob *milpProblem) objectiveCoeffs() []float64 {
	c := make([]float64, prob.nVars())
	for t := 0; t < prob.n; t++ {
		rate := prob.prices[t] * prob.dt / 1000.0
		c[prob.idx(t, varExportPV)] = -rate
		c[prob.idx(t, varDischarge)] = -rate
		c[prob.idx(t, varChargeGrid)] = rate
	}
	return c
}

func (prob *milpProblem) incentiveConstant() float64 {
	total := 0.0
	for t := 0; t < prob.n; t++ {
		total += prob.gen[t] * prob.dt * prob.plant.IncentiveRateMWh / 1000.0
	}
	return total
}

// equalities builds A x = b: the PV balance and the SoC recurrence.
func (prob *milpProblem) equalities() (*mat.Dense, []float64) {
	n := prob.n
	p := prob.plant
	a := mat.NewDense(2*n, prob.nVars(), nil)
	b := make([]float64, 2*n)

	for t := 0; t < n; t++ {
		// charge_pv + export_pv + curtail = generation
		a.Set(t, prob.idx(t, varChargePV), 1)
		a.Set(t, prob.idx(t, varExportPV), 1)
		a.Set(t, prob.idx(t, varCurtail), 1)
		b[t] = prob.gen[t]

		// soc_t - soc_{t-1} - Δt·η_c·(charge_pv+charge_grid) + Δt/η_d·discharge = 0
		row := n + t
		a.Set(row, prob.idx(t, varSoC), 1)
		a.Set(row, prob.idx(t, varChargePV), -prob.dt*p.ChargeEfficiency)
		a.Set(row, prob.idx(t, varChargeGrid), -prob.dt*p.ChargeEfficiency)
		a.Set(row, prob.idx(t, varDischarge), prob.dt/p.DischargeEfficiency)
		if t == 0 {
			b[row] = p.InitialSoCKWh
		} else {
			a.Set(row, prob.idx(t-1, varSoC), -1)
		}
	}
	return a, b
}

// inequalities builds G x <= h under the given branching: variable bounds
// (upper and non-negativity), the joint charge rate cap, the interconnection
// export cap and the export ramp limits.
func (prob *milpProblem) inequalities(br branching) (*mat.Dense, []float64) {
	n := prob.n
	p := prob.plant
	nv := prob.nVars()

	rows := 2*nv + 2*n
	rampRows := 0
	if p.RampLimitKW > 0 {
		for t := 1; t < n; t++ {
			if prob.exportable[t] && prob.exportable[t-1] {
				rampRows += 2
			}
		}
	}
	g := mat.NewDense(rows+rampRows, nv, nil)
	h := make([]float64, rows+rampRows)

	for t := 0; t < n; t++ {
		for v := 0; v < varsPerPeriod; v++ {
			ub := prob.ub[t][v]
			if br.noCharge[t] && (v == varChargePV || v == varChargeGrid) {
				ub = 0
			}
			if br.noDischarge[t] && v == varDischarge {
				ub = 0
			}
			i := prob.idx(t, v)
			g.Set(i, i, 1)
			h[i] = ub
			g.Set(nv+i, i, -1)
			h[nv+i] = 0
		}
		// charge_pv + charge_grid <= battery charge rate
		g.Set(2*nv+t, prob.idx(t, varChargePV), 1)
		g.Set(2*nv+t, prob.idx(t, varChargeGrid), 1)
		h[2*nv+t] = p.MaxChargeKW

		// export_pv + discharge <= grid export limit
		g.Set(2*nv+n+t, prob.idx(t, varExportPV), 1)
		g.Set(2*nv+n+t, prob.idx(t, varDischarge), 1)
		h[2*nv+n+t] = p.GridExportLimitKW
	}

	if p.RampLimitKW > 0 {
		r := rows
		for t := 1; t < n; t++ {
			if !prob.exportable[t] || !prob.exportable[t-1] {
				continue
			}
			for _, sign := range []float64{1, -1} {
				g.Set(r, prob.idx(t, varExportPV), sign)
				g.Set(r, prob.idx(t, varDischarge), sign)
				g.Set(r, prob.idx(t-1, varExportPV), -sign)
				g.Set(r, prob.idx(t-1, varDischarge), -sign)
				h[r] = p.RampLimitKW
				r++
			}
		}
	}
	return g, h
}

// solveSimplex solves the relaxation for one branch-and-bound node and
// returns the decision vector and the maximised net revenue (excluding the
// incentive constant).
func solveSimplex(prob *milpProblem, br branching) ([]float64, float64, error) {
	c := prob.objectiveCoeffs()
	a, b := prob.equalities()
	g, h := prob.inequalities(br)

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	optMin, sol, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, 0, err
	}

	nv := prob.nVars()
	x := make([]float64, nv)
	for i := 0; i < nv; i++ {
		x[i] = sol[i] - sol[nv+i]
	}
	return x, -optMin, nil
}

// lpSolve points to the relaxation solver so tests can simulate solver
// failures.
var lpSolve = solveSimplex

// mostViolated returns the period with the largest simultaneous
// charge/discharge power, or -1 when the solution already honours mutual
// exclusion.
func (prob *milpProblem) mostViolated(x []float64, br branching) int {
	worst, at := exclusionTol, -1
	for t := 0; t < prob.n; t++ {
		if br.noCharge[t] || br.noDischarge[t] {
			continue
		}
		charge := x[prob.idx(t, varChargePV)] + x[prob.idx(t, varChargeGrid)]
		v := math.Min(charge, x[prob.idx(t, varDischarge)])
		if v > worst {
			worst, at = v, t
		}
	}
	return at
}

// scheduleFromSolution converts a relaxed solution into a decision series:
// numerical noise is snapped to zero, residual sub-tolerance exclusion
// violations are resolved towards the larger side, the PV balance is closed
// through curtailment and the SoC trace is replayed through the recurrence.
func (prob *milpProblem) scheduleFromSolution(h *model.Horizon, x []float64) model.Schedule {
	p := prob.plant
	soc := p.InitialSoCKWh
	sched := make(model.Schedule, 0, prob.n)
	for t := 0; t < prob.n; t++ {
		cp := snap(x[prob.idx(t, varChargePV)])
		cg := snap(x[prob.idx(t, varChargeGrid)])
		d := snap(x[prob.idx(t, varDischarge)])
		ep := snap(x[prob.idx(t, varExportPV)])
		if cp+cg > 0 && d > 0 {
			if cp+cg <= d {
				cp, cg = 0, 0
			} else {
				d = 0
			}
		}
		u := math.Max(0, prob.gen[t]-cp-ep)
		soc = clamp(soc+(cp+cg)*prob.dt*p.ChargeEfficiency-d*prob.dt/p.DischargeEfficiency, 0, p.CapacityKWh)
		sched = append(sched, model.PeriodDecision{
			Timestamp:           h.Periods[t].Timestamp,
			PriceMWh:            prob.prices[t],
			GenerationKW:        prob.gen[t],
			ChargeFromPVKW:      cp,
			ChargeFromGridKW:    cg,
			DischargeKW:         d,
			ExportFromPVKW:      ep,
			ExportFromBatteryKW: d,
			CurtailedKW:         u,
			SoCKWh:              soc,
		})
	}
	return sched
}

func snap(v float64) float64 {
	if v < 1e-9 {
		return 0
	}
	return v
}

func mapSolverErr(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return fmt.Errorf("%w: %v", ErrInfeasible, err)
	case errors.Is(err, lp.ErrUnbounded):
		return fmt.Errorf("%w: %v", ErrUnbounded, err)
	default:
		return fmt.Errorf("simplex: %w", err)
	}
}
