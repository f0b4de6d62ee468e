package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/kilianp07/pvbess/core/model"
)

func testHorizon(t *testing.T, interval time.Duration, prices, irr []float64) *model.Horizon {
	t.Helper()
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	periods := make([]model.Period, len(prices))
	for i := range prices {
		periods[i] = model.Period{
			Timestamp:  start.Add(time.Duration(i) * interval),
			PriceMWh:   prices[i],
			Irradiance: irr[i],
		}
	}
	h, err := model.NewHorizon(periods, interval)
	if err != nil {
		t.Fatalf("horizon: %v", err)
	}
	return h
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testPlant() model.PlantParams {
	p := model.PlantParams{
		CapacityKWh:       100,
		MaxChargeKW:       50,
		MaxDischargeKW:    50,
		GridImportLimitKW: 50,
		GridExportLimitKW: 200,
		ConversionRatio:   0.1,
	}
	p.SetDefaults()
	return p
}

func TestObjective(t *testing.T) {
	p := testPlant()
	p.IncentiveRateMWh = 10
	s := model.Schedule{
		{PriceMWh: 100, GenerationKW: 60, ExportFromPVKW: 40, DischargeKW: 20, ExportFromBatteryKW: 20, CurtailedKW: 20},
		{PriceMWh: 20, GenerationKW: 0, ChargeFromGridKW: 50},
	}
	// Hourly periods: export 60 kWh at 100, import 50 kWh at 20, incentive on
	// 60 kWh generated.
	want := (60*100 - 50*20 + 60*10) / 1000.0
	got := Objective(s, p, time.Hour)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("objective: got %v want %v", got, want)
	}
}

func TestNewEngineModes(t *testing.T) {
	for _, mode := range []string{"exact", "lookahead", "daily"} {
		eng, err := NewEngine(mode, SolverConfig{}, RuleParams{}, DailyParams{})
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		if eng.Name() != mode {
			t.Fatalf("mode %s: engine named %s", mode, eng.Name())
		}
	}
	if _, err := NewEngine("simulated-annealing", SolverConfig{}, RuleParams{}, DailyParams{}); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}
