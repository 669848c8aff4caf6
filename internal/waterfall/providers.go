package waterfall

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/dropcontact"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/serper"
)

// Adapters from the provider clients to the rung interfaces.

// decisionMakerTitles are the roles worth emailing at a small business.
var decisionMakerTitles = []string{
	"CEO", "Founder", "Co-Founder", "Owner", "President", "Managing Director",
}

type serperContacts struct {
	client serper.Client
}

// NewSerperContacts searches public LinkedIn profiles for a decision maker
// at the company.
func NewSerperContacts(client serper.Client) ContactSearcher {
	return &serperContacts{client: client}
}

func (s *serperContacts) FindContact(ctx context.Context, company, domain string) (*Identity, error) {
	query := fmt.Sprintf(`site:linkedin.com/in "%s" (CEO OR founder OR owner OR president)`, company)
	resp, err := s.client.Search(ctx, serper.SearchRequest{Query: query, Num: 10})
	if err != nil {
		return nil, eris.Wrap(err, "waterfall: linkedin search")
	}

	for _, hit := range resp.Organic {
		// Despite the site: filter, mixed results do slip through.
		fromURL := ParseProfileURL(hit.Link)
		if fromURL == nil {
			continue
		}
		id := ParseProfileTitle(hit.Title)
		if id == nil {
			id = fromURL
		}
		if id.LinkedInURL == "" {
			id.LinkedInURL = fromURL.LinkedInURL
		}
		zap.L().Debug("waterfall: osint hit",
			zap.String("company", company),
			zap.String("contact", id.FullName()),
		)
		return id, nil
	}
	return nil, nil
}

type dropcontactFinder struct {
	client dropcontact.Client
}

// NewDropcontactFinder resolves a named person at a domain to a verified
// professional address.
func NewDropcontactFinder(client dropcontact.Client) EmailFinder {
	return &dropcontactFinder{client: client}
}

func (d *dropcontactFinder) FindEmail(ctx context.Context, id Identity, domain string) (string, error) {
	results, err := d.client.Enrich(ctx, []dropcontact.Contact{{
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Website:   domain,
	}})
	if err != nil {
		return "", eris.Wrap(err, "waterfall: dropcontact enrich")
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].BestEmail(), nil
}

type hunterDomains struct {
	client hunter.Client
}

// NewHunterDomains returns domain-level address intelligence from Hunter.
func NewHunterDomains(client hunter.Client) DomainSearcher {
	return &hunterDomains{client: client}
}

func (h *hunterDomains) SearchDomain(ctx context.Context, domain string) (*DomainInfo, error) {
	resp, err := h.client.DomainSearch(ctx, domain)
	if err != nil {
		return nil, eris.Wrap(err, "waterfall: hunter domain search")
	}

	info := &DomainInfo{Pattern: resp.Data.Pattern}
	for _, e := range resp.Data.Emails {
		if e.Generic() {
			info.GenericEmails = append(info.GenericEmails, e.Value)
		}
	}
	return info, nil
}

type apolloPeople struct {
	client apollo.Client
}

// NewApolloPeople looks contacts up in Apollo's B2B people database.
func NewApolloPeople(client apollo.Client) PersonSearcher {
	return &apolloPeople{client: client}
}

func (a *apolloPeople) FindPerson(ctx context.Context, company, domain string, id Identity) (string, *Identity, error) {
	req := apollo.PeopleSearchRequest{
		OrganizationName: company,
		PersonTitles:     decisionMakerTitles,
		PerPage:          5,
	}
	if domain != "" {
		req.OrganizationDomains = []string{domain}
	}
	if id.Complete() {
		// We already know who we want; title filters would only hide them.
		req.PersonTitles = nil
	}

	resp, err := a.client.PeopleSearch(ctx, req)
	if err != nil {
		return "", nil, eris.Wrap(err, "waterfall: apollo people search")
	}

	for _, p := range resp.People {
		if !p.Usable() {
			continue
		}
		found := &Identity{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Title:       p.Title,
			LinkedInURL: p.LinkedInURL,
		}
		return p.Email, found, nil
	}
	return "", nil, nil
}
