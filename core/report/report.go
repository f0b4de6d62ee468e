// Package report turns a schedule into revenue and utilisation figures: a
// per-period ledger, per-day aggregates and horizon totals. Everything here
// is pure arithmetic over the decision series.
package report

import (
	"time"

	"github.com/kilianp07/pvbess/core/model"
)

const hoursPerYear = 8760

// PeriodRevenue decomposes one period's cash flow.
type PeriodRevenue struct {
	Timestamp        time.Time `json:"timestamp"`
	PriceMWh         float64   `json:"price_mwh"`
	ExportRevenue    float64   `json:"export_revenue"`
	ImportCost       float64   `json:"import_cost"`
	IncentiveRevenue float64   `json:"incentive_revenue"`
	NetRevenue       float64   `json:"net_revenue"`
}

// DaySummary aggregates one calendar day of the horizon.
type DaySummary struct {
	Date          time.Time `json:"date"`
	NetRevenue    float64   `json:"net_revenue"`
	ChargeKWh     float64   `json:"charge_kwh"`
	DischargeKWh  float64   `json:"discharge_kwh"`
	CurtailedKWh  float64   `json:"curtailed_kwh"`
	GenerationKWh float64   `json:"generation_kwh"`
	MaxSoCKWh     float64   `json:"max_soc_kwh"`
}

// Report is the full revenue and utilisation breakdown of one run.
type Report struct {
	Engine  string          `json:"engine"`
	Status  string          `json:"status"`
	Periods []PeriodRevenue `json:"periods"`
	Days    []DaySummary    `json:"days"`

	TotalExportRevenue float64 `json:"total_export_revenue"`
	TotalImportCost    float64 `json:"total_import_cost"`
	TotalIncentive     float64 `json:"total_incentive"`
	NetRevenue         float64 `json:"net_revenue"`
	// AnnualizedNetRevenue extrapolates the horizon's net revenue to a
	// full year at the same run rate.
	AnnualizedNetRevenue float64 `json:"annualized_net_revenue"`

	GenerationKWh        float64 `json:"generation_kwh"`
	ChargeFromPVKWh      float64 `json:"charge_from_pv_kwh"`
	ChargeFromGridKWh    float64 `json:"charge_from_grid_kwh"`
	DischargeKWh         float64 `json:"discharge_kwh"`
	ExportFromPVKWh      float64 `json:"export_from_pv_kwh"`
	ExportFromBatteryKWh float64 `json:"export_from_battery_kwh"`
	CurtailedKWh         float64 `json:"curtailed_kwh"`

	// RoundTripEfficiency is delivered over absorbed grid-side energy. It
	// approaches the η_c·η_d product over horizons that start and end at
	// the same state of charge.
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
	// CurtailmentRatio is curtailed over generated energy.
	CurtailmentRatio float64 `json:"curtailment_ratio"`

	ChargePeriods    int `json:"charge_periods"`
	DischargePeriods int `json:"discharge_periods"`
	IdlePeriods      int `json:"idle_periods"`

	// Negative-price arbitrage: energy bought while being paid to consume,
	// and the payment collected for it.
	NegativePriceChargeKWh float64 `json:"negative_price_charge_kwh"`
	NegativePriceBenefit   float64 `json:"negative_price_benefit"`
}

// Build computes the report for one scheduler result.
func Build(engine, status string, s model.Schedule, p model.PlantParams, interval time.Duration) *Report {
	dt := interval.Hours()
	r := &Report{
		Engine:  engine,
		Status:  status,
		Periods: make([]PeriodRevenue, 0, len(s)),
	}

	var day *DaySummary
	for _, d := range s {
		exportRev := d.GridExportKW() * d.PriceMWh * dt / 1000.0
		importCost := d.GridImportKW() * d.PriceMWh * dt / 1000.0
		incentive := d.GenerationKW * p.IncentiveRateMWh * dt / 1000.0
		net := exportRev - importCost + incentive

		r.Periods = append(r.Periods, PeriodRevenue{
			Timestamp:        d.Timestamp,
			PriceMWh:         d.PriceMWh,
			ExportRevenue:    exportRev,
			ImportCost:       importCost,
			IncentiveRevenue: incentive,
			NetRevenue:       net,
		})

		r.TotalExportRevenue += exportRev
		r.TotalImportCost += importCost
		r.TotalIncentive += incentive
		r.NetRevenue += net

		r.GenerationKWh += d.GenerationKW * dt
		r.ChargeFromPVKWh += d.ChargeFromPVKW * dt
		r.ChargeFromGridKWh += d.ChargeFromGridKW * dt
		r.DischargeKWh += d.DischargeKW * dt
		r.ExportFromPVKWh += d.ExportFromPVKW * dt
		r.ExportFromBatteryKWh += d.ExportFromBatteryKW * dt
		r.CurtailedKWh += d.CurtailedKW * dt

		switch {
		case d.ChargeKW() > model.VerifyTolerance:
			r.ChargePeriods++
		case d.DischargeKW > model.VerifyTolerance:
			r.DischargePeriods++
		default:
			r.IdlePeriods++
		}

		if d.PriceMWh < 0 && d.GridImportKW() > 0 {
			r.NegativePriceChargeKWh += d.GridImportKW() * dt
			r.NegativePriceBenefit += d.GridImportKW() * -d.PriceMWh * dt / 1000.0
		}

		date := dayOf(d.Timestamp)
		if day == nil || !day.Date.Equal(date) {
			r.Days = append(r.Days, DaySummary{Date: date})
			day = &r.Days[len(r.Days)-1]
		}
		day.NetRevenue += net
		day.ChargeKWh += d.ChargeKW() * dt
		day.DischargeKWh += d.DischargeKW * dt
		day.CurtailedKWh += d.CurtailedKW * dt
		day.GenerationKWh += d.GenerationKW * dt
		if d.SoCKWh > day.MaxSoCKWh {
			day.MaxSoCKWh = d.SoCKWh
		}
	}

	charge := r.ChargeFromPVKWh + r.ChargeFromGridKWh
	if charge > 0 {
		r.RoundTripEfficiency = r.DischargeKWh / charge
	}
	if r.GenerationKWh > 0 {
		r.CurtailmentRatio = r.CurtailedKWh / r.GenerationKWh
	}
	if horizonHours := float64(len(s)) * dt; horizonHours > 0 {
		r.AnnualizedNetRevenue = r.NetRevenue / horizonHours * hoursPerYear
	}
	return r
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
