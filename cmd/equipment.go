package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/factorysim/core/equipment"
)

var equipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Equipment catalog commands",
}

var equipmentLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List machines and warehouses of the floor layout",
	RunE:  runEquipmentLs,
}

func init() {
	equipmentCmd.AddCommand(equipmentLsCmd)
	rootCmd.AddCommand(equipmentCmd)
}

func runEquipmentLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	layout := equipment.DefaultLayout()
	if cfg.Simulation.CatalogFile != "" {
		if layout, err = equipment.LoadLayout(cfg.Simulation.CatalogFile); err != nil {
			return err
		}
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tWORKSHOP\tPOSITION\tMAX/MIN")
	for _, e := range layout.Equipment {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%.0f\n", e.ID, e.Name, e.Workshop, e.Position, e.MaxProduction)
	}
	for i, wh := range layout.Warehouses {
		fmt.Fprintf(w, "warehouse-%d\t\t\t%v\t\n", i+1, wh)
	}
	return w.Flush()
}
