package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// scoreModel is the cheap model used for per-lead ICP fit scoring.
const scoreModel = "claude-haiku-4-5-20251001"

// ScoreStage scores leads 0-100 for outreach priority. The LLM judges ICP
// fit; when it is unavailable the deterministic completeness score stands
// in. Output is sorted by score descending.
type ScoreStage struct {
	Anthropic anthropic.Client
	DataPath  string
	Industry  string
	LeadDelay time.Duration
	Sleep     func(ctx context.Context, d time.Duration) error
}

// llmScore is the parsed LLM scoring verdict.
type llmScore struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
	Priority  string `json:"priority"`
}

func (s *ScoreStage) Run(ctx context.Context) error {
	leads, err := model.ReadDataset(s.DataPath)
	if err != nil {
		return eris.Wrap(err, "score: read dataset")
	}

	log := zap.L()
	log.Info("score: starting", zap.Int("leads", len(leads)))

	var hot, warm, cold int
	for i := range leads {
		lead := &leads[i]
		if i > 0 {
			if err := s.sleep(ctx, s.LeadDelay); err != nil {
				return err
			}
		}

		s.scoreLead(ctx, lead)
		switch lead.Priority {
		case model.PriorityHot:
			hot++
		case model.PriorityWarm:
			warm++
		default:
			cold++
		}
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].LeadScore > leads[j].LeadScore
	})

	log.Info("score: complete",
		zap.Int("hot", hot),
		zap.Int("warm", warm),
		zap.Int("cold", cold),
	)
	return model.WriteDataset(s.DataPath, leads)
}

// scoreLead fills the scoring fields in place, falling back to the
// deterministic score when the LLM call or its output fails.
func (s *ScoreStage) scoreLead(ctx context.Context, lead *model.Lead) {
	verdict, err := s.scoreWithLLM(ctx, lead)
	if err != nil {
		score := CompletenessScore(*lead)
		lead.LeadScore = score
		lead.ScoreReasoning = "deterministic fallback: " + err.Error()
		lead.Priority = model.PriorityForScore(score)
		return
	}

	lead.LeadScore = verdict.Score
	lead.ScoreReasoning = verdict.Reasoning
	// The LLM's own priority string is advisory; the bucket is always
	// derived from the score so the two cannot disagree.
	lead.Priority = model.PriorityForScore(verdict.Score)
}

const scorePrompt = `Score this B2B lead from 0 to 100 and answer ONLY with valid JSON.

Target industry: %s

Company: %s
Website: %s
Industry: %s
City: %s
Type: %s
E-commerce: %s
Tech stack: %s
Decision-maker email: %t
Email status: %s
Decision-maker name: %s
Role: %s
LinkedIn: %t
Phone: %t
Qualification confidence: %d%%

Scoring criteria:
- ICP fit (40%%): does the company match the ideal customer profile? Product seller, with e-commerce, in the right industry?
- Data completeness (30%%): do we have everything needed to contact the decision maker? (verified email, name, role, LinkedIn, phone)
- Website quality (20%%): professional site with active e-commerce, identified tech stack?
- Positive signals (10%%): qualification confidence, data consistency

Answer with this exact JSON:
{
  "score": 0-100,
  "reasoning": "2-3 explanatory sentences",
  "priority": "hot" or "warm" or "cold"
}

Rules:
- hot = score >= 70 (contact first)
- warm = score 40-69 (good potential, partial data)
- cold = score < 40 (insufficient data or poor fit)`

func (s *ScoreStage) scoreWithLLM(ctx context.Context, lead *model.Lead) (llmScore, error) {
	prompt := fmt.Sprintf(scorePrompt,
		s.Industry,
		lead.Company,
		lead.Website,
		lead.Industry,
		lead.City,
		lead.BusinessType,
		lead.Ecommerce,
		lead.TechStack,
		lead.Email != "",
		lead.EmailStatus,
		lead.ContactName,
		lead.ContactTitle,
		lead.LinkedInURL != "",
		lead.Phone != "",
		lead.QualifyConf,
	)

	resp, err := s.Anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     scoreModel,
		MaxTokens: 250,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return llmScore{}, err
	}
	resp.Usage.LogCost(scoreModel, StageScore)

	var verdict llmScore
	if err := json.Unmarshal([]byte(stripFences(resp.Text())), &verdict); err != nil {
		return llmScore{}, eris.Wrap(err, "score: parse verdict")
	}
	if verdict.Score < 0 || verdict.Score > 100 {
		return llmScore{}, eris.New(fmt.Sprintf("score: out of range: %d", verdict.Score))
	}
	return verdict, nil
}

// CompletenessScore is the deterministic 0-100 data completeness score.
// Pure field checking, no LLM.
func CompletenessScore(lead model.Lead) int {
	score := 0

	// Email (40 points).
	switch {
	case lead.Email != "" && lead.EmailSource != model.EmailSourceHunterGeneric:
		score += 30
		switch {
		case lead.EmailVerified:
			score += 10
		case lead.EmailStatus == model.VerifySkipped:
			score += 5
		}
	case lead.Email != "" || lead.GenericEmail != "":
		score += 15
	}

	// Contact identity (25 points).
	if lead.ContactName != "" {
		score += 10
	}
	if lead.ContactTitle != "" {
		score += 5
	}
	if lead.LinkedInURL != "" {
		score += 10
	}

	// Company info (20 points).
	if lead.Phone != "" {
		score += 5
	}
	if lead.Website != "" {
		score += 5
	}
	if lead.Address != "" && lead.City != "" {
		score += 5
	}
	if lead.Industry != "" {
		score += 5
	}

	// Business qualification (15 points).
	if lead.Ecommerce == model.EcommerceYes {
		score += 5
	}
	if lead.BusinessType == model.BusinessManufacturer {
		score += 5
	}
	if lead.TechStack != "" && lead.TechStack != "unknown" {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

func (s *ScoreStage) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return stageSleep(ctx, d)
}
