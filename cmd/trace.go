package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wrsn/core/trace"
	"github.com/kilianp07/wrsn/pkg/export"
)

var traceOpts struct {
	run      string
	charger  string
	rejected bool
	limit    int
	format   string
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Dispatch trace commands",
}

var traceLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded decision cycles",
	RunE:  runTraceLs,
}

var traceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded decision cycles as CSV or JSON",
	RunE:  runTraceExport,
}

func init() {
	f := traceCmd.PersistentFlags()
	f.StringVar(&traceOpts.run, "run", "", "run id")
	f.StringVar(&traceOpts.charger, "charger", "", "charger id")
	f.BoolVar(&traceOpts.rejected, "rejected", false, "only rejected actions")
	f.IntVar(&traceOpts.limit, "limit", 0, "maximum number of records")
	traceExportCmd.Flags().StringVar(&traceOpts.format, "format", "csv", "csv or json")
	traceCmd.AddCommand(traceLsCmd, traceExportCmd)
	rootCmd.AddCommand(traceCmd)
}

func queryTrace(cmd *cobra.Command) ([]trace.Record, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := trace.Open(cfg.Trace)
	if err != nil {
		return nil, fmt.Errorf("trace store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error while closing trace store: %v\n", err)
		}
	}()
	q := trace.Query{RunID: traceOpts.run, ChargerID: traceOpts.charger, Limit: traceOpts.limit}
	if traceOpts.rejected {
		accepted := false
		q.Accepted = &accepted
	}
	return store.Query(context.Background(), q)
}

func runTraceExport(cmd *cobra.Command, args []string) error {
	recs, err := queryTrace(cmd)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), traceOpts.format, recs)
}

func runTraceLs(cmd *cobra.Command, args []string) error {
	recs, err := queryTrace(cmd)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCHARGER\tSIM_TIME\tACCEPTED\tREQUESTED\tEXECUTED\tENERGY\tSTATUS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%t\t(%.1f, %.1f, %.1f)\t(%.1f, %.1f, %.1f)\t%.1f\t%s\n",
			r.RunID, r.ChargerID, r.SimTime, r.Accepted,
			r.Requested.X, r.Requested.Y, r.Requested.ChargingTime,
			r.Executed.X, r.Executed.Y, r.Executed.ChargingTime,
			r.EnergyAfter, r.Status)
	}
	return tw.Flush()
}
