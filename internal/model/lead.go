// Package model defines the lead record and the closed enumerations shared
// across pipeline stages.
package model

import (
	"strings"
	"time"
)

// Lead is a single business lead flowing through the pipeline. Stages only
// add or overwrite the fields they own; nothing is removed within a run.
type Lead struct {
	// Discovery.
	Company    string    `json:"company"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Country    string    `json:"country,omitempty"`
	Website    string    `json:"website,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Industry   string    `json:"industry,omitempty"`
	AddedAt    time.Time `json:"added_at"`

	// Qualification.
	SiteActive   bool          `json:"site_active"`
	Ecommerce    EcommerceFlag `json:"ecommerce,omitempty"`
	BusinessType BusinessType  `json:"business_type,omitempty"`
	TechStack    string        `json:"tech_stack,omitempty"`
	QualifyConf  int           `json:"qualify_confidence,omitempty"`
	GenericEmail string        `json:"generic_email,omitempty"`

	// Enrichment (waterfall).
	Email        string      `json:"email,omitempty"`
	EmailSource  EmailSource `json:"email_source,omitempty"`
	ContactName  string      `json:"contact_name,omitempty"`
	ContactTitle string      `json:"contact_title,omitempty"`
	LinkedInURL  string      `json:"linkedin_url,omitempty"`

	// Verification.
	EmailStatus   VerifyStatus `json:"email_status,omitempty"`
	EmailVerified bool         `json:"email_verified"`
	EmailOriginal string       `json:"email_original,omitempty"`

	// Scoring.
	LeadScore      int          `json:"lead_score,omitempty"`
	ScoreReasoning string       `json:"score_reasoning,omitempty"`
	Priority       LeadPriority `json:"priority,omitempty"`

	// CRM sync.
	CRMSynced bool   `json:"crm_synced"`
	CRMID     string `json:"crm_id,omitempty"`
}

// Key uniquely identifies a lead within a run: company name plus website
// domain. Leads have no synthetic ID.
func (l Lead) Key() string {
	return strings.ToLower(strings.TrimSpace(l.Company)) + "|" + l.Domain()
}

// Domain returns the bare website domain (no scheme, no www, no path).
func (l Lead) Domain() string {
	return ExtractDomain(l.Website)
}

// ExtractDomain strips scheme, www prefix, and path from a URL.
func ExtractDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	d := strings.TrimSpace(rawURL)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.ToLower(d)
}
