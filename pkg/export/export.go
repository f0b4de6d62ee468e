package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/pvbess/core/model"
	"github.com/kilianp07/pvbess/core/report"
)

// WriteScheduleJSON writes the decision series to w in JSON format.
func WriteScheduleJSON(w io.Writer, s model.Schedule) error {
	enc := json.NewEncoder(w)
	return enc.Encode(s)
}

// WriteScheduleCSV writes the decision series to w as a dispatch ledger.
func WriteScheduleCSV(w io.Writer, s model.Schedule) error {
	cw := csv.NewWriter(w)
	header := []string{
		"timestamp", "price_mwh", "generation_kw",
		"charge_from_pv_kw", "charge_from_grid_kw", "discharge_kw",
		"export_from_pv_kw", "export_from_battery_kw", "curtailed_kw",
		"soc_kwh",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range s {
		rec := []string{
			d.Timestamp.Format(time.RFC3339),
			ftoa(d.PriceMWh),
			ftoa(d.GenerationKW),
			ftoa(d.ChargeFromPVKW),
			ftoa(d.ChargeFromGridKW),
			ftoa(d.DischargeKW),
			ftoa(d.ExportFromPVKW),
			ftoa(d.ExportFromBatteryKW),
			ftoa(d.CurtailedKW),
			ftoa(d.SoCKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReportJSON writes the full revenue report to w in JSON format.
func WriteReportJSON(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteDailyCSV writes the per-day aggregates to w in CSV format.
func WriteDailyCSV(w io.Writer, days []report.DaySummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"date", "net_revenue", "charge_kwh", "discharge_kwh",
		"curtailed_kwh", "generation_kwh", "max_soc_kwh",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range days {
		rec := []string{
			d.Date.Format("2006-01-02"),
			ftoa(d.NetRevenue),
			ftoa(d.ChargeKWh),
			ftoa(d.DischargeKWh),
			ftoa(d.CurtailedKWh),
			ftoa(d.GenerationKWh),
			ftoa(d.MaxSoCKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
