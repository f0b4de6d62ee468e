package metrics

import (
	"github.com/kilianp07/pvbess/core/factory"
	coremetrics "github.com/kilianp07/pvbess/core/metrics"
	"github.com/kilianp07/pvbess/core/model"
	"github.com/prometheus/client_golang/prometheus"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}

// Points flattens a decision series into time-series schedule points.
func Points(s model.Schedule) []coremetrics.SchedulePoint {
	pts := make([]coremetrics.SchedulePoint, 0, len(s))
	for _, d := range s {
		pts = append(pts, coremetrics.SchedulePoint{
			Timestamp:    d.Timestamp,
			PriceMWh:     d.PriceMWh,
			GenerationKW: d.GenerationKW,
			ChargeKW:     d.ChargeKW(),
			DischargeKW:  d.DischargeKW,
			ImportKW:     d.GridImportKW(),
			ExportKW:     d.GridExportKW(),
			CurtailedKW:  d.CurtailedKW,
			SoCKWh:       d.SoCKWh,
		})
	}
	return pts
}
