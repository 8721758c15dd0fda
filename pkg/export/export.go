package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fieldops/dispatch/core/model"
)

// WriteJSON writes the assignment decisions to w in indented JSON.
func WriteJSON(w io.Writer, decisions []model.AssignmentDecision) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(decisions)
}

// WriteCSV writes the assignment decisions to w as CSV.
func WriteCSV(w io.Writer, decisions []model.AssignmentDecision) error {
	cw := csv.NewWriter(w)
	header := []string{"ticket_id", "executor_id", "algorithm", "score", "reason", "fallback_used", "decided_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range decisions {
		rec := []string{
			d.TicketID,
			d.ExecutorID,
			d.Algorithm,
			strconv.FormatFloat(d.Score, 'f', 4, 64),
			d.Reason,
			strconv.FormatBool(d.FallbackUsed),
			d.DecidedAt.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on the format name: "json" or "csv".
func Write(w io.Writer, format string, decisions []model.AssignmentDecision) error {
	switch format {
	case "json", "":
		return WriteJSON(w, decisions)
	case "csv":
		return WriteCSV(w, decisions)
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}
