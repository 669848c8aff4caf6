package waterfall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/dropcontact"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/serper"
)

type stubSerper struct {
	organic []serper.OrganicResult
}

func (s *stubSerper) Maps(context.Context, serper.MapsRequest) (*serper.MapsResponse, error) {
	return &serper.MapsResponse{}, nil
}

func (s *stubSerper) Search(context.Context, serper.SearchRequest) (*serper.SearchResponse, error) {
	return &serper.SearchResponse{Organic: s.organic}, nil
}

func TestSerperContacts_ParsesProfileHits(t *testing.T) {
	t.Parallel()

	cs := NewSerperContacts(&stubSerper{organic: []serper.OrganicResult{
		{Title: "Acme Corp: spas and hot tubs", Link: "https://acme.example"},
		{Title: "Jane Doe - CEO - Acme Corp | LinkedIn", Link: "https://www.linkedin.com/in/jane-doe-12ab3"},
	}})

	id, err := cs.FindContact(context.Background(), "Acme Corp", "acme.example")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "Jane", id.FirstName)
	assert.Equal(t, "Doe", id.LastName)
	assert.Equal(t, "CEO", id.Title)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe-12ab3", id.LinkedInURL)
}

func TestSerperContacts_NoPlausibleHit(t *testing.T) {
	t.Parallel()

	cs := NewSerperContacts(&stubSerper{organic: []serper.OrganicResult{
		{Title: "ACME CORP 2024 catalog", Link: "https://acme.example/catalog"},
	}})

	id, err := cs.FindContact(context.Background(), "Acme Corp", "acme.example")
	require.NoError(t, err)
	assert.Nil(t, id)
}

type stubDropcontact struct {
	results []dropcontact.ContactResult
}

func (s *stubDropcontact) Enrich(context.Context, []dropcontact.Contact) ([]dropcontact.ContactResult, error) {
	return s.results, nil
}

func TestDropcontactFinder(t *testing.T) {
	t.Parallel()

	finder := NewDropcontactFinder(&stubDropcontact{results: []dropcontact.ContactResult{
		{Emails: []dropcontact.FoundEmail{
			{Email: "maybe@acme.example", Qualification: "unverified"},
			{Email: "jane.doe@acme.example", Qualification: "nominative@pro"},
		}},
	}})

	email, err := finder.FindEmail(context.Background(), Identity{FirstName: "Jane", LastName: "Doe"}, "acme.example")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@acme.example", email)
}

type stubHunter struct {
	data hunter.DomainData
}

func (s *stubHunter) DomainSearch(context.Context, string) (*hunter.DomainSearchResponse, error) {
	return &hunter.DomainSearchResponse{Data: s.data}, nil
}

func TestHunterDomains_KeepsOnlyGenericAddresses(t *testing.T) {
	t.Parallel()

	ds := NewHunterDomains(&stubHunter{data: hunter.DomainData{
		Pattern: "{first}.{last}",
		Emails: []hunter.Email{
			{Value: "info@acme.example", Type: "generic"},
			{Value: "jane@acme.example", Type: "personal"},
		},
	}})

	info, err := ds.SearchDomain(context.Background(), "acme.example")
	require.NoError(t, err)
	assert.Equal(t, "{first}.{last}", info.Pattern)
	assert.Equal(t, []string{"info@acme.example"}, info.GenericEmails)
}

type stubApollo struct {
	lastReq apollo.PeopleSearchRequest
	people  []apollo.Person
}

func (s *stubApollo) PeopleSearch(_ context.Context, req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	s.lastReq = req
	return &apollo.PeopleSearchResponse{People: s.people}, nil
}

func TestApolloPeople_SkipsLockedEmails(t *testing.T) {
	t.Parallel()

	stub := &stubApollo{people: []apollo.Person{
		{FirstName: "Locked", LastName: "Out", Email: "email_not_unlocked@domain.com"},
		{FirstName: "Bob", LastName: "Smith", Title: "Owner", Email: "bob@acme.example"},
	}}
	ps := NewApolloPeople(stub)

	email, found, err := ps.FindPerson(context.Background(), "Acme Corp", "acme.example", Identity{})
	require.NoError(t, err)
	assert.Equal(t, "bob@acme.example", email)
	require.NotNil(t, found)
	assert.Equal(t, "Bob Smith", found.FullName())
	assert.Equal(t, []string{"acme.example"}, stub.lastReq.OrganizationDomains)
	assert.NotEmpty(t, stub.lastReq.PersonTitles)
}

func TestApolloPeople_KnownIdentityDropsTitleFilter(t *testing.T) {
	t.Parallel()

	stub := &stubApollo{}
	ps := NewApolloPeople(stub)

	_, _, err := ps.FindPerson(context.Background(), "Acme Corp", "acme.example",
		Identity{FirstName: "Jane", LastName: "Doe", Title: "CEO"})
	require.NoError(t, err)
	assert.Empty(t, stub.lastReq.PersonTitles)
}
