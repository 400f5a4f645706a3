// Package export writes dispatch traces in formats suited to offline
// analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/wrsn/core/trace"
)

// Header is the CSV column order.
var Header = []string{
	"run_id", "charger_id", "timestamp", "sim_time", "duration", "accepted",
	"req_x", "req_y", "req_charging_time", "exec_x", "exec_y", "exec_charging_time",
	"estimate_total", "estimate_budget", "energy_before", "energy_after", "x", "y", "status",
}

// Write encodes records in the named format, "csv" or "json".
func Write(w io.Writer, format string, recs []trace.Record) error {
	switch format {
	case "csv":
		return WriteCSV(w, recs)
	case "json":
		return WriteJSON(w, recs)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteJSON writes the records as a JSON array.
func WriteJSON(w io.Writer, recs []trace.Record) error {
	if recs == nil {
		recs = []trace.Record{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(recs)
}

// WriteCSV writes one row per record after the Header row.
func WriteCSV(w io.Writer, recs []trace.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.RunID,
			r.ChargerID,
			r.Timestamp.Format(time.RFC3339),
			ff(r.SimTime),
			ff(r.Duration),
			strconv.FormatBool(r.Accepted),
			ff(r.Requested.X), ff(r.Requested.Y), ff(r.Requested.ChargingTime),
			ff(r.Executed.X), ff(r.Executed.Y), ff(r.Executed.ChargingTime),
			ff(r.Estimate.Total),
			ff(r.Estimate.Budget),
			ff(r.EnergyBefore),
			ff(r.EnergyAfter),
			ff(r.X), ff(r.Y),
			r.Status.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
