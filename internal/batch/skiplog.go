package batch

import (
	"sort"
	"sync"

	"github.com/sells-group/leadbio-cli/internal/model"
)

// SkipLog collects skip records. Add is safe for concurrent use.
type SkipLog struct {
	mu      sync.Mutex
	records []model.SkipRecord
}

// Add appends a record.
func (l *SkipLog) Add(rowIndex int, raw []string, reason string) {
	rec := model.SkipRecord{
		RowIndex: rowIndex,
		RawRow:   append([]string(nil), raw...),
		Reason:   reason,
	}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
}

// Len returns the number of records.
func (l *SkipLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy of the records ordered by row index.
func (l *SkipLog) Records() []model.SkipRecord {
	l.mu.Lock()
	out := append([]model.SkipRecord(nil), l.records...)
	l.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out
}
