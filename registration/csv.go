package registration

import (
	"encoding/csv"
	"io"
	"time"
)

// Entry is one submitted registration as seen by the exporter.
type Entry struct {
	SubmittedAt time.Time
	Data        map[string]string
}

const csvDateLayout = "2006-01-02 15:04"

// ExportCSV writes a header row followed by one row per entry. Columns follow
// the order of fields; answers missing from an entry are written empty.
func ExportCSV(w io.Writer, fields []FormField, entries []Entry) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(fields)+1)
	header = append(header, "Registration Date")
	for _, f := range fields {
		header = append(header, f.Label)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		row := make([]string, 0, len(fields)+1)
		row = append(row, e.SubmittedAt.Format(csvDateLayout))
		for _, f := range fields {
			row = append(row, e.Data[f.ID])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
