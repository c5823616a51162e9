// Package contact looks up email and phone details for a person at a company.
package contact

import (
	"context"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/model"
	"github.com/sells-group/leadbio-cli/pkg/hunter"
)

// DefaultRegion is used to parse phone numbers without a country prefix.
const DefaultRegion = "US"

// Finder looks up contact details. A lookup that finds nothing returns an
// empty Contact and a nil error.
type Finder interface {
	Find(ctx context.Context, firstName, lastName, company string) (model.Contact, error)
}

// HunterFinder resolves contacts through the Hunter.io email finder.
type HunterFinder struct {
	client hunter.Client
	region string
}

// NewHunterFinder creates a HunterFinder. An empty region uses DefaultRegion.
func NewHunterFinder(client hunter.Client, region string) *HunterFinder {
	if region == "" {
		region = DefaultRegion
	}
	return &HunterFinder{client: client, region: region}
}

// Find queries Hunter with the company's derived domain.
func (f *HunterFinder) Find(ctx context.Context, firstName, lastName, company string) (model.Contact, error) {
	domain := Domain(company)
	if domain == "" {
		return model.Contact{}, eris.New("contact: empty company")
	}

	resp, err := f.client.FindEmail(ctx, hunter.EmailFinderRequest{
		Domain:    domain,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return model.Contact{}, eris.Wrap(err, "contact: hunter lookup")
	}

	var c model.Contact
	if resp.Data.Email != nil {
		c.Email = strings.TrimSpace(*resp.Data.Email)
	}
	if resp.Data.PhoneNumber != nil {
		c.Phone = NormalizePhone(*resp.Data.PhoneNumber, f.region)
	}
	zap.L().Debug("contact: hunter lookup",
		zap.String("domain", domain),
		zap.Bool("email_found", c.Email != ""),
		zap.Bool("phone_found", c.Phone != ""),
	)
	return c, nil
}

// Domain derives an email domain from a company name: lower-cased, whitespace
// removed, and ".com" appended unless the name already contains a dot.
func Domain(company string) string {
	d := strings.ToLower(strings.Join(strings.Fields(company), ""))
	if d == "" {
		return ""
	}
	if !strings.Contains(d, ".") {
		d += ".com"
	}
	return d
}

// NormalizePhone formats a phone number to E.164. Input that does not parse
// to a valid number is returned trimmed.
func NormalizePhone(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
