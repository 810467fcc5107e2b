package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/factorysim/app"
	"github.com/kilianp07/factorysim/core/engine"
)

var (
	simTicks      int
	simDeployAll  bool
	simDeploy     int
	simProduction bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a headless simulation and print the cart states",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVarP(&simTicks, "ticks", "n", 600, "number of ticks to run")
	simulateCmd.Flags().BoolVar(&simDeployAll, "deploy-all", false, "deploy every idle cart before ticking")
	simulateCmd.Flags().IntVar(&simDeploy, "deploy", 0, "number of random deliveries to create before ticking")
	simulateCmd.Flags().BoolVar(&simProduction, "production", false, "start equipment production")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sim, err := app.NewSimulation(cfg, nil)
	if err != nil {
		return err
	}
	eng := sim.Engine
	disp := eng.Dispatcher()
	if simProduction {
		eng.StartProduction()
	}
	if simDeployAll {
		if _, err := disp.DeployAllCarts(); err != nil {
			return fmt.Errorf("deploy all: %w", err)
		}
	}
	for i := 0; i < simDeploy; i++ {
		if _, err := disp.DeployCart(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "deploy %d: %v\n", i+1, err)
		}
	}
	eng.Run(simTicks)
	return printSnapshot(cmd.OutOrStdout(), eng.Snapshot())
}

func printSnapshot(w io.Writer, snap engine.Snapshot) error {
	if _, err := fmt.Fprintf(w, "tick %d: %d idle, %d pending, %d active\n",
		snap.Tick, snap.Idle, len(snap.Pending), len(snap.Active)); err != nil {
		return err
	}
	for i := range snap.Carts {
		if _, err := fmt.Fprintln(w, snap.Carts[i].String()); err != nil {
			return err
		}
	}
	p := snap.Production
	_, err := fmt.Fprintf(w, "factory produced %.1f units in %s\n", p.TotalProduced, p.Duration)
	return err
}
