package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// SyncStage pushes scored leads into Salesforce. Existing leads (matched on
// company name or website domain) are updated in place; the rest are inserted.
// Already-synced leads and leads without a deliverable email are skipped.
type SyncStage struct {
	SF       salesforce.Client
	DataPath string
	MinScore int
}

// crmLead mirrors the Salesforce Lead fields we query back for matching.
type crmLead struct {
	Id      string `json:"Id"`
	Company string `json:"Company"`
	Website string `json:"Website"`
}

func (s *SyncStage) Run(ctx context.Context) error {
	leads, err := model.ReadDataset(s.DataPath)
	if err != nil {
		return eris.Wrap(err, "sync: read dataset")
	}

	existing, err := s.fetchExisting(ctx)
	if err != nil {
		return eris.Wrap(err, "sync: fetch existing leads")
	}

	var inserted, updated, skipped int
	for i := range leads {
		lead := &leads[i]
		if !s.eligible(*lead) {
			skipped++
			continue
		}
		if id, ok := existing[matchKey(lead.Company, lead.Website)]; ok {
			if err := s.SF.UpdateOne(ctx, "Lead", id, leadFields(*lead)); err != nil {
				zap.L().Warn("sync: update failed",
					zap.String("company", lead.Company),
					zap.Error(err),
				)
				continue
			}
			lead.CRMSynced = true
			lead.CRMID = id
			updated++
			continue
		}
		id, err := s.SF.InsertOne(ctx, "Lead", leadFields(*lead))
		if err != nil {
			zap.L().Warn("sync: insert failed",
				zap.String("company", lead.Company),
				zap.Error(err),
			)
			continue
		}
		lead.CRMSynced = true
		lead.CRMID = id
		inserted++
	}

	if err := model.WriteDataset(s.DataPath, leads); err != nil {
		return eris.Wrap(err, "sync: write dataset")
	}

	zap.L().Info("sync: complete",
		zap.Int("inserted", inserted),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
	)
	return nil
}

// eligible reports whether a lead is worth pushing to the CRM.
func (s *SyncStage) eligible(l model.Lead) bool {
	if l.CRMSynced {
		return false
	}
	if l.Email == "" || !l.EmailStatus.Deliverable() {
		return false
	}
	return l.LeadScore >= s.MinScore
}

// fetchExisting loads current CRM leads into a match-key index so reruns
// update rather than duplicate.
func (s *SyncStage) fetchExisting(ctx context.Context) (map[string]string, error) {
	var records []crmLead
	soql := "SELECT Id, Company, Website FROM Lead WHERE IsConverted = false"
	if err := s.SF.Query(ctx, soql, &records); err != nil {
		return nil, err
	}
	index := make(map[string]string, len(records))
	for _, r := range records {
		index[matchKey(r.Company, r.Website)] = r.Id
	}
	return index, nil
}

// matchKey folds company name and website domain into a dedupe key. Domain
// wins when present so renamed companies still match.
func matchKey(company, website string) string {
	if d := model.ExtractDomain(website); d != "" {
		return d
	}
	return strings.ToLower(strings.TrimSpace(company))
}

// leadFields maps a lead onto Salesforce Lead sObject fields. Contact name
// falls back to the company name since LastName is required on Lead.
func leadFields(l model.Lead) map[string]any {
	first, last := splitContactName(l.ContactName)
	if last == "" {
		last = l.Company
	}
	fields := map[string]any{
		"Company":     l.Company,
		"LastName":    last,
		"Email":       l.Email,
		"Website":     l.Website,
		"Phone":       l.Phone,
		"City":        l.City,
		"PostalCode":  l.PostalCode,
		"Country":     l.Country,
		"Industry":    l.Industry,
		"Title":       l.ContactTitle,
		"LeadSource":  "Prospecting Pipeline",
		"Rating":      crmRating(l.Priority),
		"Description": fmt.Sprintf("Score: %d/100. %s", l.LeadScore, l.ScoreReasoning),
	}
	if first != "" {
		fields["FirstName"] = first
	}
	return fields
}

// crmRating maps pipeline priority onto the standard SF Rating picklist.
func crmRating(p model.LeadPriority) string {
	switch p {
	case model.PriorityHot:
		return "Hot"
	case model.PriorityWarm:
		return "Warm"
	default:
		return "Cold"
	}
}

func splitContactName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
