// Package profile resolves a profile URL into a scraped ProfileRecord through
// the async scraping provider: cache scan, submission and bounded polling.
package profile

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sells-group/leadbio-cli/internal/model"
)

// Readiness classifies a retrieved payload.
type Readiness int

const (
	// NotReady means the job has not produced a complete record yet.
	NotReady Readiness = iota
	// Ready means every required field is present.
	Ready
	// Malformed means the payload is not a JSON object at all.
	Malformed
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "ready"
	case Malformed:
		return "malformed"
	default:
		return "not_ready"
	}
}

// Decode validates a stored scraper payload and extracts the six profile
// fields. A record is Ready only when all six are present as non-null strings and the
// name and profile URL are non-blank; anything less is never a partial
// success.
func Decode(raw json.RawMessage) (model.ProfileRecord, Readiness) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return model.ProfileRecord{}, Malformed
	}

	var rec model.ProfileRecord
	fields := []struct {
		dst  *string
		path []string
	}{
		{&rec.Name, []string{"title"}},
		{&rec.ProfileURL, []string{"profileUrl"}},
		{&rec.Headline, []string{"headline"}},
		{&rec.Position, []string{"positionInfo", "company"}},
		{&rec.School, []string{"educationInfo", "school"}},
		{&rec.Summary, []string{"summary"}},
	}
	for _, f := range fields {
		v, ok := lookupString(top, f.path)
		if !ok {
			return model.ProfileRecord{}, NotReady
		}
		*f.dst = v
	}

	if strings.TrimSpace(rec.Name) == "" || strings.TrimSpace(rec.ProfileURL) == "" {
		return model.ProfileRecord{}, NotReady
	}
	return rec, Ready
}

func lookupString(obj map[string]json.RawMessage, path []string) (string, bool) {
	cur := obj
	for i, key := range path {
		raw, ok := cur[key]
		if !ok {
			return "", false
		}
		if i == len(path)-1 {
			if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				return "", false
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return "", false
			}
			return s, true
		}
		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil || next == nil {
			return "", false
		}
		cur = next
	}
	return "", false
}
