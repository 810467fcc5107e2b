package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/factorysim/core/journal"
	"github.com/kilianp07/factorysim/pkg/export"
)

var (
	exportFormat  string
	exportCart    string
	exportKind    string
	exportSince   time.Duration
	exportLimit   int
	exportSummary bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Delivery journal commands",
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journal records as CSV or JSON",
	RunE:  runJournalExport,
}

func init() {
	f := journalExportCmd.Flags()
	f.StringVarP(&exportFormat, "format", "f", export.FormatCSV, "output format (csv|json)")
	f.StringVar(&exportCart, "cart", "", "only records of this cart")
	f.StringVar(&exportKind, "kind", "", "only records of this kind (delivery|cart|rejection)")
	f.DurationVar(&exportSince, "since", 0, "only records newer than this duration")
	f.IntVar(&exportLimit, "limit", 0, "keep the most recent n records")
	f.BoolVar(&exportSummary, "summary", false, "export per cart outcome counts")
	journalCmd.AddCommand(journalExportCmd)
	rootCmd.AddCommand(journalCmd)
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg.Logging.Journal())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	q := journal.Query{CartID: exportCart, Kind: exportKind, Limit: exportLimit}
	if exportSince > 0 {
		q.Start = time.Now().Add(-exportSince)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	out := cmd.OutOrStdout()
	if exportSummary {
		return export.WriteSummaryCSV(out, journal.Summarize(recs))
	}
	return export.Write(out, exportFormat, recs)
}
