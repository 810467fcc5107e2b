package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/factorysim/core/journal"
	"github.com/kilianp07/factorysim/core/model"
)

// Format names accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var csvHeader = []string{
	"timestamp", "kind", "action", "cart_id", "delivery_id", "delivery_type",
	"status", "from_x", "from_y", "to_x", "to_y", "tick", "error",
}

// Write encodes recs to w in the given format.
func Write(w io.Writer, format string, recs []journal.Record) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, recs)
	case FormatCSV:
		return WriteCSV(w, recs)
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
}

// WriteJSON writes the journal records to w as a JSON array.
func WriteJSON(w io.Writer, recs []journal.Record) error {
	if recs == nil {
		recs = []journal.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteCSV writes one row per record. Positions are split into x and y
// columns and left empty when absent.
func WriteCSV(w io.Writer, recs []journal.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		fx, fy := coords(r.From)
		tx, ty := coords(r.To)
		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.Kind,
			r.Action,
			r.CartID,
			optionalInt(r.DeliveryID),
			r.DeliveryType,
			r.Status,
			fx, fy, tx, ty,
			strconv.FormatUint(r.Tick, 10),
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the per cart outcome counts.
func WriteSummaryCSV(w io.Writer, sums []journal.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cart_id", "completed", "cancelled", "rejected"}); err != nil {
		return err
	}
	for _, s := range sums {
		if err := cw.Write([]string{
			s.CartID,
			strconv.Itoa(s.Completed),
			strconv.Itoa(s.Cancelled),
			strconv.Itoa(s.Rejected),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func coords(p *model.GridPosition) (string, string) {
	if p == nil {
		return "", ""
	}
	return strconv.FormatFloat(p.X, 'f', -1, 64), strconv.FormatFloat(p.Y, 'f', -1, 64)
}

func optionalInt(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
