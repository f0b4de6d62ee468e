package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pvbess/config"
	coremetrics "github.com/kilianp07/pvbess/core/metrics"
	"github.com/kilianp07/pvbess/core/report"
	"github.com/kilianp07/pvbess/core/schedule"
	"github.com/kilianp07/pvbess/infra/logger"
	inframetrics "github.com/kilianp07/pvbess/infra/metrics"
	"github.com/kilianp07/pvbess/infra/timeseries"
	"github.com/kilianp07/pvbess/pkg/export"
)

var (
	horizonPath string
	engineMode  string
	ledgerPath  string
	reportPath  string
	dailyPath   string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compute a dispatch schedule for a price and irradiance horizon",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&horizonPath, "horizon", "", "CSV file with timestamp, price_mwh, irradiance columns")
	scheduleCmd.Flags().StringVar(&engineMode, "engine", "", "override the configured engine mode")
	scheduleCmd.Flags().StringVar(&ledgerPath, "ledger", "", "write the per-period ledger CSV to this path")
	scheduleCmd.Flags().StringVar(&reportPath, "report", "", "write the revenue report JSON to this path")
	scheduleCmd.Flags().StringVar(&dailyPath, "daily", "", "write the per-day summary CSV to this path")
	_ = scheduleCmd.MarkFlagRequired("horizon")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("schedule-command")

	if engineMode != "" {
		cfg.Engine.Mode = engineMode
	}
	h, err := timeseries.LoadCSV(horizonPath)
	if err != nil {
		return fmt.Errorf("load horizon: %w", err)
	}
	eng, err := cfg.Engine.Build()
	if err != nil {
		return err
	}

	if exact, ok := eng.(*schedule.ExactScheduler); ok {
		sub := exact.Progress.Subscribe()
		defer exact.Progress.Unsubscribe(sub)
		go func() {
			for ev := range sub {
				logg.Infof("node %d: incumbent %.2f bound %.2f gap %.4f", ev.Nodes, ev.Incumbent, ev.Bound, ev.Gap)
			}
		}()
	}

	logg.Infof("scheduling %d periods with engine %s", h.Len(), eng.Name())
	res, err := eng.Schedule(ctx, h, cfg.Plant)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	rep := report.Build(res.Engine, string(res.Status), res.Schedule, cfg.Plant, h.Interval)
	logg.Infof("run %s: status=%s objective=%.2f gap=%.4f nodes=%d in %s",
		res.RunID, res.Status, res.Objective, res.Gap, res.Nodes, res.SolveTime)
	logg.Infof("revenue: export=%.2f import=%.2f incentive=%.2f net=%.2f annualized=%.0f",
		rep.TotalExportRevenue, rep.TotalImportCost, rep.TotalIncentive, rep.NetRevenue, rep.AnnualizedNetRevenue)

	if err := recordRun(cfg, res, h.Len()); err != nil {
		logg.Errorf("metrics: %v", err)
	}
	if ledgerPath != "" {
		if err := writeFile(ledgerPath, func(f *os.File) error {
			return export.WriteScheduleCSV(f, res.Schedule)
		}); err != nil {
			return err
		}
	}
	if reportPath != "" {
		if err := writeFile(reportPath, func(f *os.File) error {
			return export.WriteReportJSON(f, rep)
		}); err != nil {
			return err
		}
	}
	if dailyPath != "" {
		if err := writeFile(dailyPath, func(f *os.File) error {
			return export.WriteDailyCSV(f, rep.Days)
		}); err != nil {
			return err
		}
	}
	return nil
}

func recordRun(cfg *config.Config, res *schedule.Result, periods int) error {
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return err
	}
	if err := sink.RecordRun(coremetrics.RunEvent{
		RunID:     res.RunID,
		Engine:    res.Engine,
		Status:    string(res.Status),
		Objective: res.Objective,
		Gap:       res.Gap,
		Nodes:     res.Nodes,
		Periods:   periods,
		SolveTime: res.SolveTime,
		Time:      time.Now(),
	}); err != nil {
		return err
	}
	if rec, ok := sink.(coremetrics.ScheduleRecorder); ok {
		return rec.RecordSchedule(res.RunID, res.Engine, inframetrics.Points(res.Schedule))
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
