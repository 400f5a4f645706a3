package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wrsn/core/trace"
	infrakpi "github.com/kilianp07/wrsn/infra/kpi"
	jobkpi "github.com/kilianp07/wrsn/jobs/kpi"
)

var kpiRun string

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Charger KPI commands",
}

var kpiLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show the KPIs of a run, or list runs when --run is empty",
	RunE:  runKPILs,
}

var kpiBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild the KPIs of a run from the trace store",
	RunE:  runKPIBackfill,
}

func init() {
	kpiCmd.PersistentFlags().StringVar(&kpiRun, "run", "", "run id")
	kpiCmd.AddCommand(kpiLsCmd, kpiBackfillCmd)
	rootCmd.AddCommand(kpiCmd)
}

func openKPI(cmd *cobra.Command) (*infrakpi.SQLiteStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.KPI.Path == "" {
		return nil, fmt.Errorf("kpi.path is not configured")
	}
	return infrakpi.NewSQLiteStore(cfg.KPI.Path)
}

func runKPILs(cmd *cobra.Command, args []string) error {
	store, err := openKPI(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if kpiRun == "" {
		runs, err := store.Runs()
		if err != nil {
			return err
		}
		for _, id := range runs {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	}
	recs, err := store.Query(kpiRun)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHARGER\tDECISIONS\tREJECTED\tDEPLETIONS\tREFILLS\tENERGY_SPENT\tBUSY_TIME")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%d\t%d\t%.1f\t%.1f\n",
			r.ChargerID, r.Decisions, 100*r.RejectionRate(), r.Depletions, r.Refills, r.EnergySpent, r.BusyTime)
	}
	return tw.Flush()
}

func runKPIBackfill(cmd *cobra.Command, args []string) error {
	if kpiRun == "" {
		return fmt.Errorf("--run is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := trace.Open(cfg.Trace)
	if err != nil {
		return fmt.Errorf("trace store: %w", err)
	}
	defer func() { _ = src.Close() }()
	dst, err := openKPI(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	n, err := jobkpi.Backfill(context.Background(), src, dst, kpiRun)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "replayed %d cycles of run %s\n", n, kpiRun)
	return nil
}
