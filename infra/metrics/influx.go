package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/pvbess/core/metrics"
	"github.com/kilianp07/pvbess/infra/logger"
)

// InfluxSink writes scheduler runs and schedules to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the run summary as a single point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("scheduler_run").
		AddTag("run_id", ev.RunID).
		AddTag("engine", ev.Engine).
		AddTag("status", ev.Status).
		AddField("objective", round3(ev.Objective)).
		AddField("gap", ev.Gap).
		AddField("nodes", ev.Nodes).
		AddField("periods", ev.Periods).
		AddField("solve_ms", round3(ev.SolveTime.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSchedule writes one point per scheduled period.
func (s *InfluxSink) RecordSchedule(runID, engine string, points []coremetrics.SchedulePoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, pt := range points {
		p := write.NewPointWithMeasurement("schedule_period").
			AddTag("run_id", runID).
			AddTag("engine", engine).
			AddField("price_mwh", round3(pt.PriceMWh)).
			AddField("generation_kw", round3(pt.GenerationKW)).
			AddField("charge_kw", round3(pt.ChargeKW)).
			AddField("discharge_kw", round3(pt.DischargeKW)).
			AddField("import_kw", round3(pt.ImportKW)).
			AddField("export_kw", round3(pt.ExportKW)).
			AddField("curtailed_kw", round3(pt.CurtailedKW)).
			AddField("soc_kwh", round3(pt.SoCKWh)).
			SetTime(pt.Timestamp)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
