package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pvbess/config"
	"github.com/kilianp07/pvbess/core/schedule"
	"github.com/kilianp07/pvbess/infra/logger"
	"github.com/kilianp07/pvbess/infra/timeseries"
)

var compareHorizonPath string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the exact and heuristic engines on one horizon and compare revenue",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareHorizonPath, "horizon", "", "CSV file with timestamp, price_mwh, irradiance columns")
	_ = compareCmd.MarkFlagRequired("horizon")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("compare-command")

	h, err := timeseries.LoadCSV(compareHorizonPath)
	if err != nil {
		return fmt.Errorf("load horizon: %w", err)
	}

	engines := []schedule.Scheduler{
		schedule.NewExactScheduler(cfg.Engine.Solver),
		schedule.NewLookaheadScheduler(cfg.Engine.Rules),
		schedule.NewDailyScheduler(cfg.Engine.Daily),
	}

	var exact *schedule.Result
	for _, eng := range engines {
		res, err := eng.Schedule(ctx, h, cfg.Plant)
		if err != nil {
			return fmt.Errorf("%s: %w", eng.Name(), err)
		}
		if exact == nil {
			exact = res
			logg.Infof("%-10s objective=%.2f status=%s nodes=%d time=%s",
				res.Engine, res.Objective, res.Status, res.Nodes, res.SolveTime)
			continue
		}
		shortfall := 0.0
		if exact.Objective != 0 {
			shortfall = (exact.Objective - res.Objective) / exact.Objective * 100
		}
		speedup := 0.0
		if res.SolveTime > 0 {
			speedup = float64(exact.SolveTime) / float64(res.SolveTime)
		}
		logg.Infof("%-10s objective=%.2f status=%s time=%s shortfall=%.2f%% speedup=%.0fx",
			res.Engine, res.Objective, res.Status, res.SolveTime, shortfall, speedup)
	}
	return nil
}
