package schedule

import (
	"context"
	"math"
	"testing"
	"time"
)

// dayProfile builds one 24-hour day: daylight with cheap prices from hour 8
// to 16, an evening peak, and flat shoulders elsewhere.
func dayProfile(peakStart, peakEnd int, peakPrice float64) (prices, irr []float64) {
	prices = make([]float64, 24)
	irr = make([]float64, 24)
	for hr := 0; hr < 24; hr++ {
		prices[hr] = 40
		if hr >= 8 && hr <= 16 {
			prices[hr] = 20
			irr[hr] = 500
		}
		if hr >= peakStart && hr <= peakEnd {
			prices[hr] = peakPrice
		}
	}
	return prices, irr
}

func TestDailyChargesCheapDischargesEveningPeak(t *testing.T) {
	prices, irr := dayProfile(17, 20, 100)
	h := testHorizon(t, time.Hour, prices, irr)
	p := testPlant()

	res, err := NewDailyScheduler(DailyParams{}).Schedule(context.Background(), h, p)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s := res.Schedule

	// Cheapest eligible daylight hours fill first, at full charge rate until
	// the battery is planned full.
	if got := s[8].ChargeFromPVKW; math.Abs(got-50) > 1e-9 {
		t.Fatalf("hour 8 charge: got %v want 50", got)
	}
	if got := s[9].ChargeFromPVKW; math.Abs(got-50) > 1e-9 {
		t.Fatalf("hour 9 charge: got %v want 50", got)
	}
	if got := s[10].ChargeFromPVKW; math.Abs(got-100.0/19) > 1e-6 {
		t.Fatalf("hour 10 residual charge: got %v want %v", got, 100.0/19)
	}
	for hr := 0; hr < 8; hr++ {
		if s[hr].ChargeKW() != 0 || s[hr].DischargeKW != 0 {
			t.Fatalf("pre-dawn hour %d not idle", hr)
		}
	}

	// The evening peak drains the battery in price order until empty.
	if got := s[17].DischargeKW; math.Abs(got-50) > 1e-9 {
		t.Fatalf("hour 17 discharge: got %v want 50", got)
	}
	if got := s[18].DischargeKW; math.Abs(got-45) > 1e-6 {
		t.Fatalf("hour 18 discharge: got %v want 45", got)
	}
	if got := s[19].DischargeKW; got != 0 {
		t.Fatalf("hour 19 discharge with empty battery: got %v", got)
	}

	var exported float64
	for _, d := range s {
		exported += d.ExportFromBatteryKW
	}
	if math.Abs(exported-95) > 1e-6 {
		t.Fatalf("battery export energy: got %v kWh want 95", exported)
	}
}

func TestDailySkipsPeakBelowFloor(t *testing.T) {
	prices, irr := dayProfile(19, 20, 100)
	// The earlier shoulder hours sit below the floor and must be skipped.
	prices[17], prices[18] = 30, 30
	h := testHorizon(t, time.Hour, prices, irr)
	p := testPlant()
	p.MinExportPriceMWh = 50
	p.AllowChargeBelowFloor = true

	res, err := NewDailyScheduler(DailyParams{}).Schedule(context.Background(), h, p)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s := res.Schedule
	if got := s[17].DischargeKW; got != 0 {
		t.Fatalf("discharge below floor at hour 17: got %v", got)
	}
	if got := s[19].DischargeKW; math.Abs(got-50) > 1e-9 {
		t.Fatalf("hour 19 discharge: got %v want 50", got)
	}
	if got := s[20].DischargeKW; math.Abs(got-45) > 1e-6 {
		t.Fatalf("hour 20 discharge: got %v want 45", got)
	}
}

func TestDailyNoDaylightMeansIdle(t *testing.T) {
	h := testHorizon(t, time.Hour, flat(24, 60), flat(24, 0))
	p := testPlant()

	res, err := NewDailyScheduler(DailyParams{}).Schedule(context.Background(), h, p)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	for i, d := range res.Schedule {
		if d.ChargeKW() != 0 || d.DischargeKW != 0 || d.GridExportKW() != 0 {
			t.Fatalf("hour %d not idle: %+v", i, d)
		}
	}
}

func TestDailyCarriesSoCAcrossDays(t *testing.T) {
	// Two days; day one has daylight to charge, day two has none, only an
	// early price peak served by the carried state of charge.
	p1, i1 := dayProfile(17, 18, 100)
	prices := append(append([]float64{}, p1...), flat(24, 40)...)
	irr := append(append([]float64{}, i1...), flat(24, 0)...)
	// Day two opens with a peak before any daylight.
	prices[24], prices[25] = 120, 120
	h := testHorizon(t, time.Hour, prices, irr)
	p := testPlant()

	res, err := NewDailyScheduler(DailyParams{}).Schedule(context.Background(), h, p)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s := res.Schedule

	// Day one's discharge window runs to the end of the horizon because day
	// two never reaches daylight, so the 120 peak outranks the 100 one.
	if got := s[24].DischargeKW; math.Abs(got-50) > 1e-9 {
		t.Fatalf("day-two peak discharge: got %v want 50", got)
	}
	if got := s[25].DischargeKW; math.Abs(got-45) > 1e-6 {
		t.Fatalf("day-two peak discharge: got %v want 45", got)
	}
	if got := s[17].DischargeKW; got != 0 {
		t.Fatalf("day-one peak should lose to day-two prices: got %v", got)
	}
}

func TestDailyHonorsPlantChargingWindow(t *testing.T) {
	// The plant restricts charging to periods above 600 W/m²; the daylight
	// hours peak at 500, so the battery must stay untouched even though the
	// strategy's own threshold would admit them.
	prices, irr := dayProfile(17, 20, 100)
	h := testHorizon(t, time.Hour, prices, irr)
	p := testPlant()
	p.ChargeIrradianceThreshold = 600

	res, err := NewDailyScheduler(DailyParams{}).Schedule(context.Background(), h, p)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	for i, d := range res.Schedule {
		if d.ChargeKW() != 0 {
			t.Fatalf("hour %d charges below the plant window: %+v", i, d)
		}
		if d.DischargeKW != 0 {
			t.Fatalf("hour %d discharges an empty battery", i)
		}
	}
}

func TestDailyParamsValidate(t *testing.T) {
	d := DailyParams{}
	d.SetDefaults()
	if d.ChargeIrradianceThreshold != 10 || d.DaylightIrradianceThreshold != 5 {
		t.Fatalf("defaults not applied: %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	d.ChargeIrradianceThreshold = -1
	if err := d.Validate(); err == nil {
		t.Fatalf("negative threshold accepted")
	}
}
