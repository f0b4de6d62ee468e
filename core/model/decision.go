package model

import (
	"fmt"
	"math"
	"time"
)

// PeriodDecision is the dispatch decided for a single period. All power
// figures are kW averaged over the period; SoCKWh is the stored energy at the
// end of the period.
//
// Charge and discharge are measured at the plant bus: the battery absorbs
// ChargeKW·Δt·η_charge and releases DischargeKW·Δt/η_discharge from storage.
type PeriodDecision struct {
	Timestamp    time.Time `json:"timestamp"`
	PriceMWh     float64   `json:"price_mwh"`
	GenerationKW float64   `json:"generation_kw"`

	ChargeFromPVKW   float64 `json:"charge_from_pv_kw"`
	ChargeFromGridKW float64 `json:"charge_from_grid_kw"`
	DischargeKW      float64 `json:"discharge_kw"`

	ExportFromPVKW      float64 `json:"export_from_pv_kw"`
	ExportFromBatteryKW float64 `json:"export_from_battery_kw"`
	CurtailedKW         float64 `json:"curtailed_kw"`

	SoCKWh float64 `json:"soc_kwh"`
}

// ChargeKW is the total charging power drawn from PV and grid.
func (d PeriodDecision) ChargeKW() float64 { return d.ChargeFromPVKW + d.ChargeFromGridKW }

// GridImportKW is the power drawn from the grid. Import is only ever used to
// charge the battery; there is no on-site load.
func (d PeriodDecision) GridImportKW() float64 { return d.ChargeFromGridKW }

// GridExportKW is the total power injected into the grid.
func (d PeriodDecision) GridExportKW() float64 { return d.ExportFromPVKW + d.ExportFromBatteryKW }

// Schedule is the per-period decision series produced by one scheduler run.
type Schedule []PeriodDecision

// VerifyTolerance is the floating-point slack allowed when checking the
// schedule invariants.
const VerifyTolerance = 1e-6

// Verify checks every invariant a well-formed schedule must satisfy: energy
// balance, SoC recurrence and bounds, charge/discharge mutual exclusion,
// power limits, ramp bound and the export price floor. A failure indicates a
// scheduler defect, not a runtime condition.
func (s Schedule) Verify(p PlantParams, interval time.Duration) error {
	dt := interval.Hours()
	soc := p.InitialSoCKWh
	prevExport := 0.0
	for i, d := range s {
		if d.ChargeFromPVKW < -VerifyTolerance || d.ChargeFromGridKW < -VerifyTolerance ||
			d.DischargeKW < -VerifyTolerance || d.ExportFromPVKW < -VerifyTolerance ||
			d.ExportFromBatteryKW < -VerifyTolerance || d.CurtailedKW < -VerifyTolerance {
			return fmt.Errorf("period %d: negative power component", i)
		}
		if d.ChargeKW() > p.MaxChargeKW+VerifyTolerance {
			return fmt.Errorf("period %d: charge %.6f exceeds limit %.2f", i, d.ChargeKW(), p.MaxChargeKW)
		}
		if d.DischargeKW > p.MaxDischargeKW+VerifyTolerance {
			return fmt.Errorf("period %d: discharge %.6f exceeds limit %.2f", i, d.DischargeKW, p.MaxDischargeKW)
		}
		if d.GridImportKW() > p.GridImportLimitKW+VerifyTolerance {
			return fmt.Errorf("period %d: import %.6f exceeds limit %.2f", i, d.GridImportKW(), p.GridImportLimitKW)
		}
		if d.GridExportKW() > p.GridExportLimitKW+VerifyTolerance {
			return fmt.Errorf("period %d: export %.6f exceeds limit %.2f", i, d.GridExportKW(), p.GridExportLimitKW)
		}
		if d.ChargeKW() > VerifyTolerance && d.DischargeKW > VerifyTolerance {
			return fmt.Errorf("period %d: simultaneous charge and discharge", i)
		}
		// Generation split must account for every generated kW.
		pvUse := d.ChargeFromPVKW + d.ExportFromPVKW + d.CurtailedKW
		if math.Abs(pvUse-d.GenerationKW) > VerifyTolerance {
			return fmt.Errorf("period %d: generation balance off by %.9f", i, pvUse-d.GenerationKW)
		}
		// Battery export is the discharge stream.
		if math.Abs(d.ExportFromBatteryKW-d.DischargeKW) > VerifyTolerance {
			return fmt.Errorf("period %d: battery export %.6f does not match discharge %.6f", i, d.ExportFromBatteryKW, d.DischargeKW)
		}
		// Full bus balance: generation + discharge + import = charge + export + curtailed.
		in := d.GenerationKW + d.DischargeKW + d.GridImportKW()
		out := d.ChargeKW() + d.GridExportKW() + d.CurtailedKW
		if math.Abs(in-out) > VerifyTolerance {
			return fmt.Errorf("period %d: energy balance off by %.9f", i, in-out)
		}
		if d.PriceMWh < p.MinExportPriceMWh && d.GridExportKW() > VerifyTolerance {
			return fmt.Errorf("period %d: export %.6f below price floor", i, d.GridExportKW())
		}
		// The ramp bound applies between periods where export is permitted;
		// a floor-blocked period clamps export to zero in one step. A
		// downward step larger than the limit is tolerated only when the
		// period already exports every kW it can supply.
		if p.RampLimitKW > 0 && i > 0 && d.PriceMWh >= p.MinExportPriceMWh && s[i-1].PriceMWh >= p.MinExportPriceMWh {
			step := d.GridExportKW() - prevExport
			if step > p.RampLimitKW+VerifyTolerance {
				return fmt.Errorf("period %d: export ramp +%.6f exceeds limit %.2f", i, step, p.RampLimitKW)
			}
			if -step > p.RampLimitKW+VerifyTolerance {
				maxDischarge := math.Min(p.MaxDischargeKW, soc*p.DischargeEfficiency/dt)
				maxExport := math.Min(p.GridExportLimitKW, d.GenerationKW+maxDischarge)
				if d.GridExportKW()+VerifyTolerance < maxExport {
					return fmt.Errorf("period %d: export ramp %.6f exceeds limit %.2f with supply to spare", i, step, p.RampLimitKW)
				}
			}
		}
		soc += d.ChargeKW()*dt*p.ChargeEfficiency - d.DischargeKW*dt/p.DischargeEfficiency
		if soc < -VerifyTolerance || soc > p.CapacityKWh+VerifyTolerance {
			return fmt.Errorf("period %d: soc %.6f outside [0, %.2f]", i, soc, p.CapacityKWh)
		}
		if math.Abs(soc-d.SoCKWh) > 1e-4 {
			return fmt.Errorf("period %d: recorded soc %.6f diverges from recurrence %.6f", i, d.SoCKWh, soc)
		}
		soc = d.SoCKWh
		prevExport = d.GridExportKW()
	}
	return nil
}
