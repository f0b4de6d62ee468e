package model

import (
	"strings"
	"testing"
	"time"
)

func verifyPlant() PlantParams {
	return PlantParams{
		CapacityKWh:         100,
		MaxChargeKW:         50,
		MaxDischargeKW:      50,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		GridImportLimitKW:   50,
		GridExportLimitKW:   100,
		ConversionRatio:     0.1,
	}
}

// A hand-built three-period schedule: grid charge, mixed discharge and PV
// export, then a below-floor period with full curtailment.
func verifySchedule(start time.Time) Schedule {
	return Schedule{
		{
			Timestamp: start, PriceMWh: 10, GenerationKW: 0,
			ChargeFromGridKW: 50, SoCKWh: 50,
		},
		{
			Timestamp: start.Add(time.Hour), PriceMWh: 50, GenerationKW: 20,
			DischargeKW: 30, ExportFromPVKW: 20, ExportFromBatteryKW: 30, SoCKWh: 20,
		},
		{
			Timestamp: start.Add(2 * time.Hour), PriceMWh: -5, GenerationKW: 10,
			CurtailedKW: 10, SoCKWh: 20,
		},
	}
}

func TestVerifyAcceptsValidSchedule(t *testing.T) {
	s := verifySchedule(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if err := s.Verify(verifyPlant(), time.Hour); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
}

func TestVerifyRejectsDefects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(Schedule, *PlantParams)
		want   string
	}{
		{
			"simultaneous charge and discharge",
			func(s Schedule, _ *PlantParams) { s[1].ChargeFromGridKW = 5 },
			"simultaneous",
		},
		{
			"battery export diverges from discharge",
			func(s Schedule, _ *PlantParams) { s[1].ExportFromBatteryKW = 25 },
			"does not match discharge",
		},
		{
			"generation not accounted for",
			func(s Schedule, _ *PlantParams) { s[2].CurtailedKW = 5 },
			"generation balance",
		},
		{
			"export below the price floor",
			func(s Schedule, _ *PlantParams) { s[2].ExportFromPVKW = 10; s[2].CurtailedKW = 0 },
			"below price floor",
		},
		{
			"recorded soc diverges from recurrence",
			func(s Schedule, _ *PlantParams) { s[0].SoCKWh = 40 },
			"diverges from recurrence",
		},
		{
			"charge above battery limit",
			func(s Schedule, _ *PlantParams) { s[0].ChargeFromGridKW = 60; s[0].SoCKWh = 60 },
			"exceeds limit",
		},
		{
			"export ramp too steep",
			func(_ Schedule, p *PlantParams) { p.RampLimitKW = 10 },
			"ramp",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := verifySchedule(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
			p := verifyPlant()
			tc.mutate(s, &p)
			err := s.Verify(p, time.Hour)
			if err == nil {
				t.Fatalf("defect not detected")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
