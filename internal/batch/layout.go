// Package batch runs many leads from an uploaded table through the pipeline
// on a bounded pool and accounts for every row it could not process.
package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sells-group/leadbio-cli/internal/model"
)

// InputError means the batch as a whole cannot be processed: unreadable
// upload, no rows, or a first row with an unsupported width.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("batch: invalid input: %s: %v", e.Reason, e.Err)
	}
	return "batch: invalid input: " + e.Reason
}

func (e *InputError) Unwrap() error { return e.Err }

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// Layout is the column layout of a batch, fixed by its first row.
type Layout int

const (
	// LayoutFullName is "full name, company". The name splits on its first
	// whitespace run.
	LayoutFullName Layout = 2
	// LayoutSplitName is "first, last, company".
	LayoutSplitName Layout = 3
)

// Width returns the number of columns a row must have.
func (l Layout) Width() int { return int(l) }

func (l Layout) String() string {
	switch l {
	case LayoutFullName:
		return "name,company"
	case LayoutSplitName:
		return "first,last,company"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// DetectLayout returns the layout fixed by the first row.
func DetectLayout(rows [][]string) (Layout, error) {
	if len(rows) == 0 {
		return 0, &InputError{Reason: "no rows"}
	}
	switch len(rows[0]) {
	case 2:
		return LayoutFullName, nil
	case 3:
		return LayoutSplitName, nil
	default:
		return 0, &InputError{Reason: fmt.Sprintf("first row has %d columns, want 2 or 3", len(rows[0]))}
	}
}

// Parse maps a row to a Lead. A non-empty reason means the row must be
// skipped.
func (l Layout) Parse(row []string) (model.Lead, string) {
	if len(row) != l.Width() {
		return model.Lead{}, fmt.Sprintf("expected %d columns, got %d", l.Width(), len(row))
	}

	var lead model.Lead
	switch l {
	case LayoutFullName:
		lead.FirstName, lead.LastName = SplitName(row[0])
		lead.Company = strings.TrimSpace(row[1])
	case LayoutSplitName:
		lead.FirstName = strings.TrimSpace(row[0])
		lead.LastName = strings.TrimSpace(row[1])
		lead.Company = strings.TrimSpace(row[2])
	}

	switch {
	case lead.FirstName == "":
		return model.Lead{}, "missing first name"
	case lead.Company == "":
		return model.Lead{}, "missing company"
	}
	return lead, ""
}

// SplitName splits a full name on its first whitespace run. The remainder,
// possibly empty, is the last name.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	i := strings.IndexAny(full, " \t\n\r")
	if i < 0 {
		return full, ""
	}
	return full[:i], strings.TrimSpace(full[i:])
}
