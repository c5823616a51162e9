package batch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadbio-cli/internal/model"
)

// reportTimeFormat keeps names sortable and distinct for runs in the same second.
const reportTimeFormat = "20060102T150405.000000Z"

// ReportName returns the skip report file name for a run started at ts.
func ReportName(ts time.Time) string {
	return "skipped_rows_" + ts.UTC().Format(reportTimeFormat) + ".csv"
}

// WriteReport writes the skip records to dir/ReportName(ts) with columns
// row_index, raw_row, reason and returns the file path. raw_row holds the
// original cells joined by commas.
func WriteReport(dir string, ts time.Time, records []model.SkipRecord) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "batch: create report dir")
	}

	path := filepath.Join(dir, ReportName(ts))
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "batch: create report")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row_index", "raw_row", "reason"}); err != nil {
		return "", eris.Wrap(err, "batch: write report header")
	}
	for _, rec := range records {
		row := []string{strconv.Itoa(rec.RowIndex), strings.Join(rec.RawRow, ","), rec.Reason}
		if err := w.Write(row); err != nil {
			return "", eris.Wrap(err, "batch: write report row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "batch: flush report")
	}
	return path, nil
}
