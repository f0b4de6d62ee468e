package metrics

import "time"

// RunEvent summarises one completed scheduler run.
type RunEvent struct {
	RunID     string
	Engine    string
	Status    string
	Objective float64
	Gap       float64
	Nodes     int
	Periods   int
	SolveTime time.Duration
	Time      time.Time
}

// SchedulePoint is one period of a schedule flattened for time-series
// storage.
type SchedulePoint struct {
	Timestamp    time.Time
	PriceMWh     float64
	GenerationKW float64
	ChargeKW     float64
	DischargeKW  float64
	ImportKW     float64
	ExportKW     float64
	CurtailedKW  float64
	SoCKWh       float64
}

// MetricsSink records completed scheduler runs.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// ScheduleRecorder is implemented by sinks able to persist the full
// per-period schedule.
type ScheduleRecorder interface {
	RecordSchedule(runID, engine string, points []SchedulePoint) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error                             { return nil }
func (NopSink) RecordSchedule(string, string, []SchedulePoint) error { return nil }
