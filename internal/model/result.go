package model

// LeadResult is the terminal outcome of one pipeline run. On success Error is
// empty; on failure only Name, Company and Error are populated.
type LeadResult struct {
	Name    string `json:"name" yaml:"name"`
	Company string `json:"company" yaml:"company"`
	Bio     string `json:"bio,omitempty" yaml:"bio,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the result is an error entry.
func (r LeadResult) Failed() bool {
	return r.Error != ""
}

// FailedResult builds an error entry for the given lead.
func FailedResult(lead Lead, reason string) LeadResult {
	return LeadResult{
		Name:    lead.FullName(),
		Company: lead.Company,
		Error:   reason,
	}
}

// SkipRecord is an audit entry for a batch row that could not be processed.
type SkipRecord struct {
	RowIndex int      `json:"row_index"`
	RawRow   []string `json:"raw_row"`
	Reason   string   `json:"reason"`
}
