package schedule

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kilianp07/pvbess/core/model"
	"github.com/kilianp07/pvbess/core/pv"
)

// DailyParams tunes the day-partitioned ranking strategy.
type DailyParams struct {
	// ChargeIrradianceThreshold marks periods eligible for charging. The
	// stricter of this and the plant's charging window applies.
	ChargeIrradianceThreshold float64 `json:"charge_irradiance_threshold"`
	// DaylightIrradianceThreshold marks daylight periods; the discharge
	// window runs from the first daylight period of a day to the first
	// daylight period of the next.
	DaylightIrradianceThreshold float64 `json:"daylight_irradiance_threshold"`
}

// SetDefaults applies the default thresholds (W/m²).
func (d *DailyParams) SetDefaults() {
	if d.ChargeIrradianceThreshold == 0 {
		d.ChargeIrradianceThreshold = 10
	}
	if d.DaylightIrradianceThreshold == 0 {
		d.DaylightIrradianceThreshold = 5
	}
}

// Validate rejects out-of-range thresholds.
func (d DailyParams) Validate() error {
	if d.ChargeIrradianceThreshold < 0 || d.DaylightIrradianceThreshold < 0 {
		return fmt.Errorf("%w: irradiance thresholds must be non-negative", model.ErrInvalidInput)
	}
	return nil
}

// DailyScheduler processes the horizon one calendar day at a time, carrying
// SoC across day boundaries. Within each day it greedily fills charging into
// the cheapest charge-eligible periods and discharging into the most
// expensive periods of the day-spanning discharge window.
//
// Price-ranked allocation only plans intents; the schedule itself is
// materialised by a single chronological pass that re-enforces SoC bounds,
// power limits and the ramp bound, so the SoC recurrence is never applied
// out of order.
type DailyScheduler struct {
	Params DailyParams
}

// NewDailyScheduler returns the day-partitioned ranking engine.
func NewDailyScheduler(params DailyParams) *DailyScheduler {
	params.SetDefaults()
	return &DailyScheduler{Params: params}
}

func (s *DailyScheduler) Name() string { return "daily" }

// chargeThreshold combines the strategy's eligibility threshold with the
// plant's charging window, keeping the stricter of the two.
func (s *DailyScheduler) chargeThreshold(p model.PlantParams) float64 {
	if p.ChargeIrradianceThreshold > s.Params.ChargeIrradianceThreshold {
		return p.ChargeIrradianceThreshold
	}
	return s.Params.ChargeIrradianceThreshold
}

// intent is the planned battery action for one period, before the
// chronological feasibility pass.
type intent struct {
	chargeFromPV   float64
	chargeFromGrid float64
	discharge      float64
	assigned       bool
}

// Schedule implements the Scheduler interface.
func (s *DailyScheduler) Schedule(_ context.Context, h *model.Horizon, p model.PlantParams) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}
	gen, err := pv.Profile(h, p.ConversionRatio)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dt := h.IntervalHours()
	days := h.Days()
	intents := make([]intent, h.Len())
	planSoC := p.InitialSoCKWh

	for di, day := range days {
		planSoC = s.planChargeDay(h, p, gen, dt, day, intents, planSoC)

		winStart, winEnd := s.dischargeWindow(h, days, di)
		planSoC = s.planDischargeWindow(h, p, gen, dt, winStart, winEnd, intents, planSoC)
	}

	sched := s.materialize(h, p, gen, dt, intents)
	if err := sched.Verify(p, h.Interval); err != nil {
		return nil, fmt.Errorf("daily scheduler produced invalid schedule: %w", err)
	}

	return &Result{
		RunID:     newRunID(),
		Engine:    s.Name(),
		Status:    StatusHeuristic,
		Schedule:  sched,
		Objective: Objective(sched, p, h.Interval),
		SolveTime: time.Since(start),
	}, nil
}

// planChargeDay allocates charging into the day's eligible periods in
// ascending price order: generation first, then grid import, until the
// battery is planned full.
func (s *DailyScheduler) planChargeDay(h *model.Horizon, p model.PlantParams, gen []float64, dt float64, day model.DayBounds, intents []intent, planSoC float64) float64 {
	threshold := s.chargeThreshold(p)
	var eligible []int
	for i := day.Start; i < day.End; i++ {
		if intents[i].assigned {
			continue
		}
		if h.Periods[i].Irradiance <= threshold {
			continue
		}
		if h.Periods[i].PriceMWh < p.MinExportPriceMWh && !p.AllowChargeBelowFloor {
			continue
		}
		eligible = append(eligible, i)
	}
	sort.SliceStable(eligible, func(a, b int) bool {
		return h.Periods[eligible[a]].PriceMWh < h.Periods[eligible[b]].PriceMWh
	})

	for _, i := range eligible {
		if planSoC >= p.CapacityKWh*0.999 {
			break
		}
		headroomKW := (p.CapacityKWh - planSoC) / (dt * p.ChargeEfficiency)
		cp := math.Max(0, min3(gen[i], p.MaxChargeKW, headroomKW))
		cg := math.Max(0, min3(p.GridImportLimitKW, p.MaxChargeKW-cp, headroomKW-cp))
		if cp+cg <= 0 {
			continue
		}
		intents[i] = intent{chargeFromPV: cp, chargeFromGrid: cg, assigned: true}
		planSoC += (cp + cg) * dt * p.ChargeEfficiency
	}
	return planSoC
}

// dischargeWindow returns the half-open index range from the first daylight
// period of day di to the first daylight period of day di+1. Without
// daylight in day di the window is empty; without a following day the window
// runs to the end of the horizon.
func (s *DailyScheduler) dischargeWindow(h *model.Horizon, days []model.DayBounds, di int) (int, int) {
	day := days[di]
	first := -1
	for i := day.Start; i < day.End; i++ {
		if h.Periods[i].Irradiance > s.Params.DaylightIrradianceThreshold {
			first = i
			break
		}
	}
	if first < 0 {
		return 0, 0
	}
	end := h.Len()
	if di+1 < len(days) {
		next := days[di+1]
		for i := next.Start; i < next.End; i++ {
			if h.Periods[i].Irradiance > s.Params.DaylightIrradianceThreshold {
				end = i
				break
			}
		}
	}
	return first, end
}

// planDischargeWindow allocates discharging into the window's unassigned
// periods in descending price order. Daylight periods top the PV export up
// to the interconnection limit from the battery; night periods discharge at
// full rate. Periods at or below the export floor are skipped.
func (s *DailyScheduler) planDischargeWindow(h *model.Horizon, p model.PlantParams, gen []float64, dt float64, winStart, winEnd int, intents []intent, planSoC float64) float64 {
	var candidates []int
	for i := winStart; i < winEnd; i++ {
		if !intents[i].assigned {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return h.Periods[candidates[a]].PriceMWh > h.Periods[candidates[b]].PriceMWh
	})

	for _, i := range candidates {
		if planSoC <= 1e-9 {
			break
		}
		if h.Periods[i].PriceMWh <= p.MinExportPriceMWh {
			continue
		}
		availKW := planSoC * p.DischargeEfficiency / dt
		var d float64
		if h.Periods[i].Irradiance > s.Params.DaylightIrradianceThreshold {
			d = min3(p.MaxDischargeKW, math.Max(0, p.GridExportLimitKW-gen[i]), availKW)
		} else {
			d = min3(p.MaxDischargeKW, p.GridExportLimitKW, availKW)
		}
		if d <= 0 {
			continue
		}
		intents[i] = intent{discharge: d, assigned: true}
		planSoC -= d * dt / p.DischargeEfficiency
	}
	return planSoC
}

// materialize walks the horizon chronologically, replaying the planned
// intents under the real SoC recurrence. Plans that turn out infeasible in
// time order (a discharge ranked before the charge that funds it) are
// clipped rather than reordered.
func (s *DailyScheduler) materialize(h *model.Horizon, p model.PlantParams, gen []float64, dt float64, intents []intent) model.Schedule {
	soc := p.InitialSoCKWh
	prevExport := 0.0
	sched := make(model.Schedule, 0, h.Len())

	for t, period := range h.Periods {
		in := intents[t]
		price := period.PriceMWh
		exportOK := price >= p.MinExportPriceMWh
		headroomKW := (p.CapacityKWh - soc) / (dt * p.ChargeEfficiency)
		availKW := soc * p.DischargeEfficiency / dt

		cp := math.Max(0, min3(in.chargeFromPV, gen[t], headroomKW))
		cg := math.Max(0, min3(in.chargeFromGrid, p.GridImportLimitKW, headroomKW-cp))
		var d float64
		if cp+cg == 0 {
			d = math.Max(0, min3(in.discharge, p.MaxDischargeKW, availKW))
		}

		var ep float64
		if exportOK {
			ep = math.Max(0, math.Min(gen[t]-cp, p.GridExportLimitKW-d))
		}

		ep, d, cp, cg = clampRamp(prevExport, ep, d, cp, cg, gen[t], availKW, exportOK, p)

		u := math.Max(0, gen[t]-cp-ep)
		soc += (cp+cg)*dt*p.ChargeEfficiency - d*dt/p.DischargeEfficiency
		soc = clamp(soc, 0, p.CapacityKWh)

		sched = append(sched, model.PeriodDecision{
			Timestamp:           period.Timestamp,
			PriceMWh:            price,
			GenerationKW:        gen[t],
			ChargeFromPVKW:      cp,
			ChargeFromGridKW:    cg,
			DischargeKW:         d,
			ExportFromPVKW:      ep,
			ExportFromBatteryKW: d,
			CurtailedKW:         u,
			SoCKWh:              soc,
		})
		prevExport = ep + d
	}
	return sched
}
