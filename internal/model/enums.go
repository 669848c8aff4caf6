package model

// EmailSource records which waterfall provider (or synthesis step) produced
// a lead's email. NotFound is an explicit outcome, distinct from the zero
// value which means "not tried yet".
type EmailSource string

const (
	EmailSourceDropcontact   EmailSource = "dropcontact"
	EmailSourceHunterGeneric EmailSource = "hunter_generic"
	EmailSourceReconstructed EmailSource = "reconstructed"
	EmailSourceApollo        EmailSource = "apollo"
	EmailSourceNotFound      EmailSource = "not_found"
)

// Valid reports whether s is a known email source variant.
func (s EmailSource) Valid() bool {
	switch s {
	case EmailSourceDropcontact, EmailSourceHunterGeneric,
		EmailSourceReconstructed, EmailSourceApollo, EmailSourceNotFound:
		return true
	}
	return false
}

// VerifyStatus is the verdict from the email verification provider.
type VerifyStatus string

const (
	VerifyOK         VerifyStatus = "ok"
	VerifyCatchAll   VerifyStatus = "catch_all"
	VerifyUnknown    VerifyStatus = "unknown"
	VerifyInvalid    VerifyStatus = "invalid"
	VerifyDisposable VerifyStatus = "disposable"
	VerifySkipped    VerifyStatus = "skipped"
)

// Deliverable reports whether an email with this status is safe to contact.
// Catch-all domains accept everything, so they pass with reduced confidence.
func (s VerifyStatus) Deliverable() bool {
	return s == VerifyOK || s == VerifyCatchAll || s == VerifySkipped
}

// Valid reports whether s is a known verification status variant.
func (s VerifyStatus) Valid() bool {
	switch s {
	case VerifyOK, VerifyCatchAll, VerifyUnknown, VerifyInvalid,
		VerifyDisposable, VerifySkipped:
		return true
	}
	return false
}

// EcommerceFlag classifies whether a site sells online.
type EcommerceFlag string

const (
	EcommerceYes     EcommerceFlag = "yes"
	EcommerceNo      EcommerceFlag = "no"
	EcommerceUnknown EcommerceFlag = "unknown"
)

// BusinessType is the coarse business model classification from the
// qualification stage.
type BusinessType string

const (
	BusinessManufacturer BusinessType = "manufacturer"
	BusinessRetailer     BusinessType = "retailer"
	BusinessService      BusinessType = "service"
	BusinessDistributor  BusinessType = "distributor"
	BusinessUnknown      BusinessType = "unknown"
)

// ParseBusinessType maps free-text classifier output onto the closed set,
// falling back to BusinessUnknown.
func ParseBusinessType(s string) BusinessType {
	switch BusinessType(normalize(s)) {
	case BusinessManufacturer:
		return BusinessManufacturer
	case BusinessRetailer:
		return BusinessRetailer
	case BusinessService:
		return BusinessService
	case BusinessDistributor:
		return BusinessDistributor
	}
	return BusinessUnknown
}

// LeadPriority buckets the final lead score for outreach triage.
type LeadPriority string

const (
	PriorityHot  LeadPriority = "hot"
	PriorityWarm LeadPriority = "warm"
	PriorityCold LeadPriority = "cold"
)

// PriorityForScore maps a 0-100 lead score onto a priority bucket.
func PriorityForScore(score int) LeadPriority {
	switch {
	case score >= 70:
		return PriorityHot
	case score >= 40:
		return PriorityWarm
	default:
		return PriorityCold
	}
}

func normalize(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == ' ' || c == '\t' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
