package waterfall

import (
	"context"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// The concrete rungs depend on narrow lookup interfaces rather than the pkg
// clients directly, so the cascade stays testable with in-memory fakes.

// ContactSearcher finds who to contact at a company (OSINT over public
// profiles). It returns nil when nobody plausible turns up.
type ContactSearcher interface {
	FindContact(ctx context.Context, company, domain string) (*Identity, error)
}

// EmailFinder resolves a known person at a domain to a verified address.
type EmailFinder interface {
	FindEmail(ctx context.Context, id Identity, domain string) (string, error)
}

// DomainSearcher returns domain-level address intelligence: the pattern in
// use and any role-based addresses observed.
type DomainSearcher interface {
	SearchDomain(ctx context.Context, domain string) (*DomainInfo, error)
}

// PersonSearcher looks a contact up in a B2B people database, returning a
// direct address when one is on file.
type PersonSearcher interface {
	FindPerson(ctx context.Context, company, domain string, id Identity) (email string, found *Identity, err error)
}

// osintStep is rung 1: cheapest. It never resolves an email itself; it
// seeds the accumulator with the contact's identity so later rungs can
// target a person instead of a domain.
type osintStep struct {
	search ContactSearcher
}

// NewOSINTStep builds the identity-discovery rung.
func NewOSINTStep(s ContactSearcher) Step { return &osintStep{search: s} }

func (s *osintStep) Name() string { return "osint" }

func (s *osintStep) Run(ctx context.Context, lead *model.Lead, acc *accumulator) (*outcome, error) {
	id, err := s.search.FindContact(ctx, lead.Company, model.ExtractDomain(lead.Website))
	if err != nil {
		return nil, err
	}
	if id != nil {
		acc.identity = *id
	}
	return nil, nil
}

// dropcontactStep is rung 2: a B2B database lookup keyed on the identity
// found by OSINT. Without an identity there is nothing to look up.
type dropcontactStep struct {
	find EmailFinder
}

// NewDropcontactStep builds the database-lookup rung.
func NewDropcontactStep(f EmailFinder) Step { return &dropcontactStep{find: f} }

func (s *dropcontactStep) Name() string { return "dropcontact" }

func (s *dropcontactStep) Run(ctx context.Context, lead *model.Lead, acc *accumulator) (*outcome, error) {
	if !acc.identity.Complete() {
		return nil, nil
	}
	email, err := s.find.FindEmail(ctx, acc.identity, model.ExtractDomain(lead.Website))
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, nil
	}
	return &outcome{Email: email, Source: model.EmailSourceDropcontact}, nil
}

// patternStep is rung 3: fetch the domain's address pattern and, when the
// identity is already known, synthesize a concrete address from the two
// partials. A synthesized address carries its own provenance tag; it is not
// a direct provider result. Any role-based addresses seen are stashed for
// the generic rung.
type patternStep struct {
	search DomainSearcher
}

// NewPatternStep builds the pattern-reconstruction rung.
func NewPatternStep(s DomainSearcher) Step { return &patternStep{search: s} }

func (s *patternStep) Name() string { return "pattern" }

func (s *patternStep) Run(ctx context.Context, lead *model.Lead, acc *accumulator) (*outcome, error) {
	info, err := s.search.SearchDomain(ctx, model.ExtractDomain(lead.Website))
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	acc.domain = *info

	if info.Pattern == "" || !acc.identity.Complete() {
		return nil, nil
	}
	email := ExpandPattern(info.Pattern, acc.identity.FirstName, acc.identity.LastName, model.ExtractDomain(lead.Website))
	if email == "" {
		return nil, nil
	}
	return &outcome{Email: email, Source: model.EmailSourceReconstructed}, nil
}

// genericStep is rung 4: fall back to a role-based address already captured
// by the pattern rung. No additional provider call is made.
type genericStep struct{}

// NewGenericStep builds the role-address fallback rung.
func NewGenericStep() Step { return genericStep{} }

func (genericStep) Name() string { return "generic" }

func (genericStep) Run(_ context.Context, lead *model.Lead, acc *accumulator) (*outcome, error) {
	if len(acc.domain.GenericEmails) == 0 {
		// The qualification stage may already have scraped one off the site.
		if lead.GenericEmail != "" {
			return &outcome{Email: lead.GenericEmail, Source: model.EmailSourceHunterGeneric}, nil
		}
		return nil, nil
	}
	if lead.GenericEmail == "" {
		lead.GenericEmail = acc.domain.GenericEmails[0]
	}
	return &outcome{Email: acc.domain.GenericEmails[0], Source: model.EmailSourceHunterGeneric}, nil
}

// apolloStep is rung 5: the most expensive lookup, tried last. It can also
// recover an identity when the OSINT rung found nothing.
type apolloStep struct {
	search PersonSearcher
}

// NewApolloStep builds the people-database rung.
func NewApolloStep(s PersonSearcher) Step { return &apolloStep{search: s} }

func (s *apolloStep) Name() string { return "apollo" }

func (s *apolloStep) Run(ctx context.Context, lead *model.Lead, acc *accumulator) (*outcome, error) {
	email, found, err := s.search.FindPerson(ctx, lead.Company, model.ExtractDomain(lead.Website), acc.identity)
	if err != nil {
		return nil, err
	}
	if found != nil && !acc.identity.Complete() {
		acc.identity = *found
	}
	if email == "" {
		return nil, nil
	}
	return &outcome{Email: email, Source: model.EmailSourceApollo}, nil
}
