package report

import (
	"math"
	"testing"
	"time"

	"github.com/kilianp07/pvbess/core/model"
)

func almost(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s: got %v want %v", name, got, want)
	}
}

func TestBuild(t *testing.T) {
	p := model.PlantParams{
		CapacityKWh:         100,
		MaxChargeKW:         50,
		MaxDischargeKW:      50,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		GridImportLimitKW:   50,
		GridExportLimitKW:   200,
		ConversionRatio:     0.1,
		IncentiveRateMWh:    10,
	}
	// Two calendar days: a negative-price grid charge, a mixed-source
	// discharge hour, and a plain PV export hour after midnight.
	start := time.Date(2024, 7, 1, 22, 0, 0, 0, time.UTC)
	s := model.Schedule{
		{
			Timestamp: start, PriceMWh: -10, GenerationKW: 0,
			ChargeFromGridKW: 50, SoCKWh: 50,
		},
		{
			Timestamp: start.Add(time.Hour), PriceMWh: 100, GenerationKW: 20,
			DischargeKW: 30, ExportFromPVKW: 20, ExportFromBatteryKW: 30, SoCKWh: 20,
		},
		{
			Timestamp: start.Add(2 * time.Hour), PriceMWh: 50, GenerationKW: 10,
			ExportFromPVKW: 10, SoCKWh: 20,
		},
	}
	if err := s.Verify(p, time.Hour); err != nil {
		t.Fatalf("fixture schedule invalid: %v", err)
	}

	r := Build("exact", "optimal", s, p, time.Hour)

	almost(t, "export revenue", r.TotalExportRevenue, 5.5)
	almost(t, "import cost", r.TotalImportCost, -0.5)
	almost(t, "incentive", r.TotalIncentive, 0.3)
	almost(t, "net revenue", r.NetRevenue, 6.3)
	almost(t, "annualized", r.AnnualizedNetRevenue, 6.3/3*8760)

	almost(t, "generation", r.GenerationKWh, 30)
	almost(t, "grid charge", r.ChargeFromGridKWh, 50)
	almost(t, "discharge", r.DischargeKWh, 30)
	almost(t, "pv export", r.ExportFromPVKWh, 30)
	almost(t, "battery export", r.ExportFromBatteryKWh, 30)
	almost(t, "round trip", r.RoundTripEfficiency, 0.6)
	almost(t, "curtailment ratio", r.CurtailmentRatio, 0)

	if r.ChargePeriods != 1 || r.DischargePeriods != 1 || r.IdlePeriods != 1 {
		t.Fatalf("period counts: %d/%d/%d", r.ChargePeriods, r.DischargePeriods, r.IdlePeriods)
	}

	almost(t, "negative price volume", r.NegativePriceChargeKWh, 50)
	almost(t, "negative price benefit", r.NegativePriceBenefit, 0.5)

	if len(r.Days) != 2 {
		t.Fatalf("days: got %d want 2", len(r.Days))
	}
	almost(t, "day 1 net", r.Days[0].NetRevenue, 5.7)
	almost(t, "day 1 max soc", r.Days[0].MaxSoCKWh, 50)
	almost(t, "day 2 net", r.Days[1].NetRevenue, 0.6)

	if len(r.Periods) != 3 {
		t.Fatalf("period ledger: got %d rows", len(r.Periods))
	}
	almost(t, "ledger net t1", r.Periods[1].NetRevenue, 5.2)
}

func TestBuildEmptySchedule(t *testing.T) {
	r := Build("lookahead", "heuristic", nil, model.PlantParams{}, time.Hour)
	if r.NetRevenue != 0 || r.RoundTripEfficiency != 0 || len(r.Days) != 0 {
		t.Fatalf("empty schedule produced non-zero report: %+v", r)
	}
}
