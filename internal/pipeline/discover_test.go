package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/serper"
)

type fakeSerper struct {
	lastMaps  serper.MapsRequest
	mapsCalls int
	places    []serper.Place
	pages     [][]serper.Place // when set, indexed by request page
	err       error
}

func (f *fakeSerper) Maps(_ context.Context, req serper.MapsRequest) (*serper.MapsResponse, error) {
	f.lastMaps = req
	f.mapsCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.pages != nil {
		if req.Page < 1 || req.Page > len(f.pages) {
			return &serper.MapsResponse{}, nil
		}
		return &serper.MapsResponse{Places: f.pages[req.Page-1]}, nil
	}
	return &serper.MapsResponse{Places: f.places}, nil
}

func (f *fakeSerper) Search(_ context.Context, req serper.SearchRequest) (*serper.SearchResponse, error) {
	return &serper.SearchResponse{}, nil
}

func TestDiscoverStage_SeedsDataset(t *testing.T) {
	t.Parallel()

	sp := &fakeSerper{places: []serper.Place{
		{Title: "Acme Spas", Address: "12 Main St, 75001 Paris, France", Website: "https://acme.example", PhoneNumber: "+33 1 23 45 67 89"},
		{Title: "Acme Spas", Address: "12 Main St, 75001 Paris, France", Website: "https://acme.example"}, // duplicate
		{Title: "Blue Tubs", Address: "44 Oak Ave, Lyon, France", Website: "https://bluetubs.example"},
		{Title: ""}, // unnamed listing
		{Title: "Third Co", Website: "https://third.example"},
	}}

	dataPath := filepath.Join(t.TempDir(), "leads.json")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stage := &DiscoverStage{
		Serper:   sp,
		DataPath: dataPath,
		Industry: "hot tub manufacturer",
		Location: "Paris",
		MaxLeads: 2,
		Now:      func() time.Time { return now },
	}

	require.NoError(t, stage.Run(context.Background()))

	leads, err := model.ReadDataset(dataPath)
	require.NoError(t, err)
	require.Len(t, leads, 2, "duplicates dropped and MaxLeads enforced")

	assert.Equal(t, "Acme Spas", leads[0].Company)
	assert.Equal(t, "75001", leads[0].PostalCode)
	assert.Equal(t, "France", leads[0].Country)
	assert.Equal(t, "hot/tub", leads[0].Industry)
	assert.Equal(t, "Paris", leads[0].City)
	assert.Equal(t, now, leads[0].AddedAt)

	assert.Equal(t, "Blue Tubs", leads[1].Company)
	assert.Equal(t, "", leads[1].PostalCode)
}

func TestDiscoverStage_CapsRequestSize(t *testing.T) {
	t.Parallel()

	sp := &fakeSerper{places: []serper.Place{{Title: "One", Website: "https://one.example"}}}
	stage := &DiscoverStage{
		Serper:   sp,
		DataPath: filepath.Join(t.TempDir(), "leads.json"),
		Industry: "furniture",
		Location: "Berlin",
		MaxLeads: 500,
	}

	require.NoError(t, stage.Run(context.Background()))
	assert.Equal(t, "furniture Berlin", sp.lastMaps.Query)
	assert.Equal(t, 100, sp.lastMaps.Num, "request size capped at the provider limit")
	assert.Equal(t, 1, sp.mapsCalls, "a short page ends the walk")
}

func TestDiscoverStage_PagesUntilQuotaFilled(t *testing.T) {
	t.Parallel()

	// Page one fills short of the quota (one listing is a duplicate), so
	// the stage must fetch page two.
	sp := &fakeSerper{pages: [][]serper.Place{
		{
			{Title: "Acme Spas", Website: "https://acme.example"},
			{Title: "Acme Spas", Website: "https://acme.example"},
			{Title: "Blue Tubs", Website: "https://bluetubs.example"},
		},
		{
			{Title: "Third Co", Website: "https://third.example"},
			{Title: "Fourth Co", Website: "https://fourth.example"},
		},
	}}

	dataPath := filepath.Join(t.TempDir(), "leads.json")
	stage := &DiscoverStage{
		Serper:   sp,
		DataPath: dataPath,
		Industry: "hot tub",
		Location: "Paris",
		MaxLeads: 3,
	}
	require.NoError(t, stage.Run(context.Background()))

	leads, err := model.ReadDataset(dataPath)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "Third Co", leads[2].Company)

	assert.Equal(t, 2, sp.mapsCalls)
	assert.Equal(t, 2, sp.lastMaps.Page)
}

func TestDiscoverStage_NoResultsFails(t *testing.T) {
	t.Parallel()

	stage := &DiscoverStage{
		Serper:   &fakeSerper{},
		DataPath: filepath.Join(t.TempDir(), "leads.json"),
		Industry: "widgets",
		Location: "Nowhere",
		MaxLeads: 10,
	}

	err := stage.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no places")
}

func TestCleanIndustry(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"hot tub manufacturer sales", "hot/tub"},
		{"furniture", "furniture"},
		{"manufacturers of furniture", "furniture"},
		{"store shop", "store"},
		{"sale and of", "sale"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanIndustry(tc.raw), "raw=%q", tc.raw)
	}
}

func TestExtractCountry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "France", extractCountry("12 Main St, 75001 Paris, France"))
	assert.Equal(t, "Germany", extractCountry("Hauptstr. 1, 10115 Berlin, Germany"))
	assert.Equal(t, "", extractCountry(""))
}
