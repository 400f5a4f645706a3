package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/network"
	"github.com/kilianp07/wrsn/core/sim"
)

var checkOpts struct {
	x, y, chargingTime float64
	fromX, fromY       float64
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Price an action against a fully charged charger",
	Long: "Prints the energy estimate used to accept or reject an action. The charger\n" +
		"starts at the base station unless --from-x/--from-y are given.",
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.Float64Var(&checkOpts.x, "x", 0, "destination x")
	f.Float64Var(&checkOpts.y, "y", 0, "destination y")
	f.Float64Var(&checkOpts.chargingTime, "time", 0, "charging time in seconds")
	f.Float64Var(&checkOpts.fromX, "from-x", 0, "charger x")
	f.Float64Var(&checkOpts.fromY, "from-y", 0, "charger y")
	rootCmd.AddCommand(checkCmd)
}

type checkResult struct {
	Charger  mc.Snapshot `json:"charger"`
	Action   mc.Action   `json:"action"`
	Estimate mc.Estimate `json:"estimate"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := cfg.Network.Build()
	if err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	net, err := network.New(sim.NewEnvironment(), sc)
	if err != nil {
		return err
	}
	loc := net.BaseStation()
	if cmd.Flags().Changed("from-x") || cmd.Flags().Changed("from-y") {
		loc = r2.Vec{X: checkOpts.fromX, Y: checkOpts.fromY}
	}
	m, err := mc.New("check", loc, cfg.Charger.Spec)
	if err != nil {
		return err
	}
	act := mc.Action{X: checkOpts.x, Y: checkOpts.y, ChargingTime: checkOpts.chargingTime}
	if err := act.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(checkResult{Charger: m.Snapshot(), Action: act, Estimate: m.EstimateEnergy(net, act)})
}
