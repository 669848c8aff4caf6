package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/waterfall"
)

type stubContacts struct {
	byCompany map[string]waterfall.Identity
}

func (s *stubContacts) FindContact(_ context.Context, company, _ string) (*waterfall.Identity, error) {
	id, ok := s.byCompany[company]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

type stubEmails struct {
	byDomain map[string]string
	calls    int
}

func (s *stubEmails) FindEmail(_ context.Context, _ waterfall.Identity, domain string) (string, error) {
	s.calls++
	return s.byDomain[domain], nil
}

func enrichDataset(t *testing.T) string {
	t.Helper()
	dataPath := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, model.WriteDataset(dataPath, []model.Lead{
		{Company: "Acme Spas", Website: "https://acme.example"},
		{Company: "Ghost Tubs", Website: "https://ghost.example"},
		{Company: "Globex Pools", Website: "https://globex.example"},
	}))
	return dataPath
}

func TestEnrichStage_MarksUnresolvableLeadNotFound(t *testing.T) {
	dataPath := enrichDataset(t)

	contacts := &stubContacts{byCompany: map[string]waterfall.Identity{
		"Acme Spas":    {FirstName: "Jane", LastName: "Doe", Title: "Owner"},
		"Ghost Tubs":   {FirstName: "Sam", LastName: "Hill"},
		"Globex Pools": {FirstName: "Hank", LastName: "Scorpio"},
	}}
	emails := &stubEmails{byDomain: map[string]string{
		"acme.example":   "jane.doe@acme.example",
		"globex.example": "hank@globex.example",
		// ghost.example deliberately absent: no provider has an address.
	}}

	stage := &EnrichStage{
		Enricher: waterfall.NewEnricher([]waterfall.Step{
			waterfall.NewOSINTStep(contacts),
			waterfall.NewDropcontactStep(emails),
		}, waterfall.WithStepDelay(0)),
		DataPath: dataPath,
		Sleep:    noSleep,
	}
	require.NoError(t, stage.Run(context.Background()))

	leads, err := model.ReadDataset(dataPath)
	require.NoError(t, err)
	require.Len(t, leads, 3)

	assert.Equal(t, "jane.doe@acme.example", leads[0].Email)
	assert.Equal(t, model.EmailSourceDropcontact, leads[0].EmailSource)
	assert.Equal(t, "Jane Doe", leads[0].ContactName)
	assert.Equal(t, "Owner", leads[0].ContactTitle)

	// The unresolvable lead keeps an empty address with explicit
	// provenance instead of a guess.
	assert.Empty(t, leads[1].Email)
	assert.Equal(t, model.EmailSourceNotFound, leads[1].EmailSource)
	assert.Equal(t, "Sam Hill", leads[1].ContactName, "partial identity still lands on the lead")

	// The cascade kept going after the miss.
	assert.Equal(t, "hank@globex.example", leads[2].Email)
	assert.Equal(t, model.EmailSourceDropcontact, leads[2].EmailSource)
	assert.Equal(t, 3, emails.calls)
}

func TestEnrichStage_PausesBetweenLeads(t *testing.T) {
	dataPath := enrichDataset(t)

	var pauses []time.Duration
	stage := &EnrichStage{
		Enricher: waterfall.NewEnricher([]waterfall.Step{
			waterfall.NewOSINTStep(&stubContacts{}),
		}, waterfall.WithStepDelay(0)),
		DataPath:  dataPath,
		LeadDelay: 3 * time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			pauses = append(pauses, d)
			return nil
		},
	}
	require.NoError(t, stage.Run(context.Background()))

	// One pause between each pair of leads, none before the first.
	require.Len(t, pauses, 2)
	assert.Equal(t, 3*time.Second, pauses[0])
	assert.Equal(t, 3*time.Second, pauses[1])
}
