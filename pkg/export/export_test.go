package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/pvbess/core/model"
	"github.com/kilianp07/pvbess/core/report"
)

func sampleSchedule() model.Schedule {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	return model.Schedule{
		{Timestamp: start, PriceMWh: 10, GenerationKW: 0, ChargeFromGridKW: 50, SoCKWh: 47.5},
		{Timestamp: start.Add(time.Hour), PriceMWh: 90, GenerationKW: 20, DischargeKW: 30, ExportFromPVKW: 20, ExportFromBatteryKW: 30, SoCKWh: 15.9},
	}
}

func TestWriteScheduleCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScheduleCSV(&buf, sampleSchedule()); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d want 3", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][9] != "soc_kwh" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][4] != "50" {
		t.Fatalf("grid charge cell: got %q", rows[1][4])
	}
	if rows[2][5] != "30" {
		t.Fatalf("discharge cell: got %q", rows[2][5])
	}
}

func TestWriteScheduleJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteScheduleJSON(&buf, sampleSchedule()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var back model.Schedule
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(back) != 2 || back[1].DischargeKW != 30 {
		t.Fatalf("unexpected round trip: %+v", back)
	}
}

func TestWriteDailyCSV(t *testing.T) {
	days := []report.DaySummary{
		{Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), NetRevenue: 5.7, ChargeKWh: 50, DischargeKWh: 30, GenerationKWh: 20, MaxSoCKWh: 47.5},
	}
	var buf bytes.Buffer
	if err := WriteDailyCSV(&buf, days); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "2024-07-01") || !strings.Contains(out, "5.7") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestWriteReportJSON(t *testing.T) {
	r := &report.Report{Engine: "exact", Status: "optimal", NetRevenue: 6.3}
	var buf bytes.Buffer
	if err := WriteReportJSON(&buf, r); err != nil {
		t.Fatalf("write: %v", err)
	}
	var back report.Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if back.Engine != "exact" || back.NetRevenue != 6.3 {
		t.Fatalf("unexpected round trip: %+v", back)
	}
}
