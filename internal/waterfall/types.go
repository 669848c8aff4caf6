package waterfall

import "github.com/sells-group/leadgen-cli/internal/model"

// Identity is a partial result: who the contact is, without an email.
type Identity struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Title       string `json:"title,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// FullName returns "First Last", or whichever half is known.
func (id Identity) FullName() string {
	switch {
	case id.FirstName != "" && id.LastName != "":
		return id.FirstName + " " + id.LastName
	case id.FirstName != "":
		return id.FirstName
	default:
		return id.LastName
	}
}

// Complete reports whether the identity carries both name halves, which
// is the minimum needed for pattern reconstruction.
func (id Identity) Complete() bool {
	return id.FirstName != "" && id.LastName != ""
}

// DomainInfo is a partial result from a domain-level provider lookup: the
// address pattern the organization uses plus any role-based addresses seen.
type DomainInfo struct {
	Pattern       string   `json:"pattern,omitempty"`
	GenericEmails []string `json:"generic_emails,omitempty"`
}

// Result is the definitive outcome of a cascade run for one lead. Source is
// always set: a provider tag when an email was found, not_found when
// every rung came up empty. A Result never carries a fabricated address.
type Result struct {
	Email    string            `json:"email,omitempty"`
	Source   model.EmailSource `json:"source"`
	Identity Identity          `json:"identity"`
	Steps    int               `json:"steps"` // provider rungs actually invoked
}

// Found reports whether the cascade produced a concrete address.
func (r Result) Found() bool {
	return r.Email != "" && r.Source != model.EmailSourceNotFound
}

// accumulator carries partial outputs forward between rungs so a later
// step can combine them (name + pattern => reconstructed address).
type accumulator struct {
	identity Identity
	domain   DomainInfo
}
