package schedule

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/pvbess/core/model"
	"github.com/kilianp07/pvbess/core/pv"
)

// RuleParams tunes the sequential look-ahead strategy. The defaults are the
// most common constants across the rule-set variants; none of them is
// canonical, which is why they are configuration rather than code.
type RuleParams struct {
	// LookaheadPeriods is the forward window width consulted for local
	// price statistics.
	LookaheadPeriods int `json:"lookahead_periods"`
	// ChargeAlpha: charge opportunistically when price < avg_future · alpha.
	ChargeAlpha float64 `json:"charge_alpha"`
	// DeepChargeAlpha: additionally draw from the grid when
	// price < avg_future · deep_alpha and a large future spread exists.
	DeepChargeAlpha float64 `json:"deep_charge_alpha"`
	// SpikeBeta: discharge aggressively when price > max_future · beta.
	SpikeBeta float64 `json:"spike_beta"`
	// SpikeSpreadRatio is the future-to-current price multiple that
	// justifies cautious grid charging.
	SpikeSpreadRatio float64 `json:"spike_spread_ratio"`
	// ReserveFloor is the SoC fraction kept back during spike discharge.
	ReserveFloor float64 `json:"reserve_floor"`
	// ModerateReserveFloor is the SoC fraction kept back during
	// above-average discharge.
	ModerateReserveFloor float64 `json:"moderate_reserve_floor"`
	// ModerateDischargeRatio is the fraction of available discharge power
	// used when the price is merely above average.
	ModerateDischargeRatio float64 `json:"moderate_discharge_ratio"`
	// CautiousGridFraction scales grid charging outside negative-price
	// periods.
	CautiousGridFraction float64 `json:"cautious_grid_fraction"`
	// ChargeSoCCap stops opportunistic charging above this SoC fraction.
	ChargeSoCCap float64 `json:"charge_soc_cap"`
}

// SetDefaults fills unset tuning values.
func (r *RuleParams) SetDefaults() {
	if r.LookaheadPeriods == 0 {
		r.LookaheadPeriods = 12
	}
	if r.ChargeAlpha == 0 {
		r.ChargeAlpha = 0.5
	}
	if r.DeepChargeAlpha == 0 {
		r.DeepChargeAlpha = 0.3
	}
	if r.SpikeBeta == 0 {
		r.SpikeBeta = 0.9
	}
	if r.SpikeSpreadRatio == 0 {
		r.SpikeSpreadRatio = 3
	}
	if r.ReserveFloor == 0 {
		r.ReserveFloor = 0.15
	}
	if r.ModerateReserveFloor == 0 {
		r.ModerateReserveFloor = 0.30
	}
	if r.ModerateDischargeRatio == 0 {
		r.ModerateDischargeRatio = 0.5
	}
	if r.CautiousGridFraction == 0 {
		r.CautiousGridFraction = 0.5
	}
	if r.ChargeSoCCap == 0 {
		r.ChargeSoCCap = 0.9
	}
}

// Validate rejects out-of-range tuning values.
func (r RuleParams) Validate() error {
	if r.LookaheadPeriods < 1 {
		return fmt.Errorf("%w: lookahead_periods must be at least 1", model.ErrInvalidInput)
	}
	for name, v := range map[string]float64{
		"charge_alpha":             r.ChargeAlpha,
		"deep_charge_alpha":        r.DeepChargeAlpha,
		"spike_beta":               r.SpikeBeta,
		"reserve_floor":            r.ReserveFloor,
		"moderate_reserve_floor":   r.ModerateReserveFloor,
		"moderate_discharge_ratio": r.ModerateDischargeRatio,
		"cautious_grid_fraction":   r.CautiousGridFraction,
		"charge_soc_cap":           r.ChargeSoCCap,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1]", model.ErrInvalidInput, name)
		}
	}
	return nil
}

// LookaheadScheduler walks the horizon once in chronological order, deciding
// each period from a rule table evaluated against look-ahead window
// statistics. It never backtracks, so its runtime is linear in the horizon
// length.
type LookaheadScheduler struct {
	Rules RuleParams
}

// NewLookaheadScheduler returns the sequential rule-based engine.
func NewLookaheadScheduler(rules RuleParams) *LookaheadScheduler {
	rules.SetDefaults()
	return &LookaheadScheduler{Rules: rules}
}

func (s *LookaheadScheduler) Name() string { return "lookahead" }

// Schedule produces a feasible schedule for the horizon. The only error
// conditions are invalid inputs; the rule evaluation itself cannot fail.
func (s *LookaheadScheduler) Schedule(_ context.Context, h *model.Horizon, p model.PlantParams) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Rules.Validate(); err != nil {
		return nil, err
	}
	gen, err := pv.Profile(h, p.ConversionRatio)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	prices := h.Prices()
	dt := h.IntervalHours()
	soc := p.InitialSoCKWh
	prevExport := 0.0
	sched := make(model.Schedule, 0, h.Len())

	for t, period := range h.Periods {
		price := prices[t]
		stats := lookaheadStats(prices, t, s.Rules.LookaheadPeriods)
		exportOK := price >= p.MinExportPriceMWh
		chargeOK := p.ChargeIrradianceThreshold == 0 || period.Irradiance > p.ChargeIrradianceThreshold
		pvChargeOK := chargeOK && (exportOK || p.AllowChargeBelowFloor)
		headroomKW := (p.CapacityKWh - soc) / (dt * p.ChargeEfficiency)
		availDischargeKW := soc * p.DischargeEfficiency / dt

		var cp, cg, d float64
		switch {
		case price < 0 && chargeOK:
			// Negative price: being paid to consume, fill from the grid
			// at full rate and top up with generation.
			cg = math.Max(0, min3(p.MaxChargeKW, p.GridImportLimitKW, headroomKW))
			if pvChargeOK {
				cp = math.Max(0, min3(gen[t], p.MaxChargeKW-cg, headroomKW-cg))
			}
		case price < stats.AvgFuture*s.Rules.ChargeAlpha && pvChargeOK && soc < s.Rules.ChargeSoCCap*p.CapacityKWh:
			cp = math.Max(0, min3(gen[t], p.MaxChargeKW, headroomKW))
			if price < stats.AvgFuture*s.Rules.DeepChargeAlpha && stats.MaxFuture > price*s.Rules.SpikeSpreadRatio {
				cg = math.Max(0, min3(p.GridImportLimitKW, p.MaxChargeKW-cp, headroomKW-cp)) * s.Rules.CautiousGridFraction
			}
		case price > stats.MaxFuture*s.Rules.SpikeBeta && exportOK:
			if soc > s.Rules.ReserveFloor*p.CapacityKWh {
				ratio := 1.0
				if stats.AvgFuture > 0 {
					ratio = clamp((price-stats.AvgFuture*0.5)/stats.AvgFuture, 0, 1)
				}
				d = math.Min(p.MaxDischargeKW, availDischargeKW) * ratio
			}
		case price > stats.AvgFuture && exportOK:
			if soc > s.Rules.ModerateReserveFloor*p.CapacityKWh {
				d = math.Min(p.MaxDischargeKW, availDischargeKW) * s.Rules.ModerateDischargeRatio
			}
		}

		// Generation not stored is exported when the floor allows it.
		var ep float64
		if exportOK {
			ep = gen[t] - cp
		}

		// Interconnection export cap: shed battery export before PV.
		if over := ep + d - p.GridExportLimitKW; over > 0 {
			cut := math.Min(d, over)
			d -= cut
			ep -= over - cut
		}

		ep, d, cp, cg = clampRamp(prevExport, ep, d, cp, cg, gen[t], availDischargeKW, exportOK, p)

		u := gen[t] - cp - ep
		if u < 0 {
			u = 0
		}
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

	return &Result{
		RunID:     newRunID(),
		Engine:    s.Name(),
		Status:    StatusHeuristic,
		Schedule:  sched,
		Objective: Objective(sched, p, h.Interval),
		SolveTime: time.Since(start),
	}, nil
}

// clampRamp limits the change of total export against the previous period.
// Ramping up curtails PV export before battery export; ramping down recruits
// additional supply via meetRampDown. Floor-blocked periods drop to zero in
// one step and the change is attributed to the floor clamp.
func clampRamp(prevExport, ep, d, cp, cg, gen, availDischargeKW float64, exportOK bool, p model.PlantParams) (float64, float64, float64, float64) {
	if p.RampLimitKW <= 0 || !exportOK {
		return ep, d, cp, cg
	}
	export := ep + d
	switch {
	case export-prevExport > p.RampLimitKW:
		cut := export - (prevExport + p.RampLimitKW)
		epCut := math.Min(ep, cut)
		ep -= epCut
		d -= cut - epCut
	case prevExport-export > p.RampLimitKW:
		target := math.Max(0, prevExport-p.RampLimitKW)
		ep, d, cp, cg = meetRampDown(target, ep, d, cp, cg, gen, availDischargeKW, p)
	}
	return ep, d, cp, cg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}
