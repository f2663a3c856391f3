package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// csvHeader is the fixed export header. Column order is part of the
// external contract and must not change.
var csvHeader = []string{"ID", "Timestamp", "Action", "Severity", "User", "Machine", "Success", "Details", "Error"}

// ExportCSV renders entries as CSV with the fixed header, one row per
// entry in input order. Timestamps are RFC 3339; Details is embedded as
// JSON text; quoting follows standard CSV rules (fields containing the
// delimiter, quote, or newline are quoted with internal quotes doubled).
func ExportCSV(entries []Entry) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, e := range entries {
		details := ""
		if e.Details != nil {
			data, err := json.Marshal(e.Details)
			if err != nil {
				// Details maps only ever hold JSON-safe values, but an
				// export must not lose the row over one bad payload.
				details = fmt.Sprintf("unserializable details: %v", err)
			} else {
				details = string(data)
			}
		}

		row := []string{
			e.ID,
			e.Timestamp.Format(time.RFC3339),
			string(e.Action),
			string(e.Severity),
			e.Actor,
			e.Machine,
			strconv.FormatBool(e.Success),
			details,
			e.ErrorMessage,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write csv row for %s: %w", e.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return sb.String(), nil
}

// ExportCSV renders the trail's current entries, insertion order preserved.
func (t *Trail) ExportCSV() (string, error) {
	return ExportCSV(t.Entries(Filter{}))
}
