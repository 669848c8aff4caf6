package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestScoreStage_SortsByScoreDescending(t *testing.T) {
	t.Parallel()

	dataPath := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, model.WriteDataset(dataPath, []model.Lead{
		{Company: "Low", Website: "https://low.example"},
		{Company: "High", Website: "https://high.example"},
	}))

	llm := &routingAnthropic{replies: map[string]string{
		"low.example":  `{"score":35,"reasoning":"weak fit","priority":"cold"}`,
		"high.example": `{"score":82,"reasoning":"strong fit","priority":"hot"}`,
	}}

	stage := &ScoreStage{Anthropic: llm, DataPath: dataPath, Industry: "hot tub", Sleep: noSleep}
	require.NoError(t, stage.Run(context.Background()))

	leads, err := model.ReadDataset(dataPath)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "High", leads[0].Company)
	assert.Equal(t, 82, leads[0].LeadScore)
	assert.Equal(t, model.PriorityHot, leads[0].Priority)
	assert.Equal(t, "strong fit", leads[0].ScoreReasoning)

	assert.Equal(t, "Low", leads[1].Company)
	assert.Equal(t, model.PriorityCold, leads[1].Priority)
}

func TestScoreStage_PriorityDerivedFromScore(t *testing.T) {
	t.Parallel()

	dataPath := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, model.WriteDataset(dataPath, []model.Lead{
		{Company: "Mismatch", Website: "https://mismatch.example"},
	}))

	// The model claims "hot" but the score says warm; the score wins.
	llm := &routingAnthropic{replies: map[string]string{
		"mismatch.example": `{"score":55,"reasoning":"decent","priority":"hot"}`,
	}}

	stage := &ScoreStage{Anthropic: llm, DataPath: dataPath, Industry: "x", Sleep: noSleep}
	require.NoError(t, stage.Run(context.Background()))

	leads, err := model.ReadDataset(dataPath)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityWarm, leads[0].Priority)
}

func TestScoreStage_FallsBackToCompleteness(t *testing.T) {
	t.Parallel()

	dataPath := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, model.WriteDataset(dataPath, []model.Lead{
		{
			Company:      "Fallback Co",
			Website:      "https://fallback.example",
			Email:        "jane@fallback.example",
			EmailSource:  model.EmailSourceDropcontact,
			ContactName:  "Jane Doe",
			ContactTitle: "CEO",
		},
	}))

	llm := &fakeAnthropic{err: assert.AnError}
	stage := &ScoreStage{Anthropic: llm, DataPath: dataPath, Industry: "x", Sleep: noSleep}
	require.NoError(t, stage.Run(context.Background()))

	leads, err := model.ReadDataset(dataPath)
	require.NoError(t, err)
	lead := leads[0]
	assert.Equal(t, CompletenessScore(lead), lead.LeadScore)
	assert.Contains(t, lead.ScoreReasoning, "deterministic fallback")
	assert.Equal(t, model.PriorityForScore(lead.LeadScore), lead.Priority)
}

func TestCompletenessScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, CompletenessScore(model.Lead{}))

	generic := model.Lead{GenericEmail: "info@a.example"}
	assert.Equal(t, 15, CompletenessScore(generic))

	verified := model.Lead{
		Email:         "jane@a.example",
		EmailSource:   model.EmailSourceDropcontact,
		EmailVerified: true,
	}
	assert.Equal(t, 40, CompletenessScore(verified))

	skipped := model.Lead{
		Email:       "jane@a.example",
		EmailSource: model.EmailSourceReconstructed,
		EmailStatus: model.VerifySkipped,
	}
	assert.Equal(t, 35, CompletenessScore(skipped))

	full := model.Lead{
		Email:         "jane@a.example",
		EmailSource:   model.EmailSourceDropcontact,
		EmailVerified: true,
		ContactName:   "Jane Doe",
		ContactTitle:  "CEO",
		LinkedInURL:   "https://linkedin.com/in/janedoe",
		Phone:         "+1 555 0100",
		Website:       "https://a.example",
		Address:       "1 Main St",
		City:          "Austin",
		Industry:      "hot/tub",
		Ecommerce:     model.EcommerceYes,
		BusinessType:  model.BusinessManufacturer,
		TechStack:     "Shopify",
	}
	assert.Equal(t, 100, CompletenessScore(full))
}
