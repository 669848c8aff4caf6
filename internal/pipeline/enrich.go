package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/waterfall"
)

// EnrichStage runs the email waterfall for every lead in the dataset.
type EnrichStage struct {
	Enricher  *waterfall.Enricher
	DataPath  string
	LeadDelay time.Duration
	Sleep     func(ctx context.Context, d time.Duration) error
}

func (s *EnrichStage) Run(ctx context.Context) error {
	leads, err := model.ReadDataset(s.DataPath)
	if err != nil {
		return eris.Wrap(err, "enrich: read dataset")
	}

	log := zap.L()
	log.Info("enrich: starting", zap.Int("leads", len(leads)))

	var found, notFound int
	for i := range leads {
		lead := &leads[i]
		if i > 0 {
			if err := s.sleep(ctx, s.LeadDelay); err != nil {
				return err
			}
		}

		res, err := s.Enricher.Enrich(ctx, lead)
		if err != nil {
			return eris.Wrapf(err, "enrich: %s", lead.Company)
		}
		waterfall.Apply(lead, res)

		if res.Found() {
			found++
		} else {
			notFound++
			log.Debug("enrich: no email found", zap.String("company", lead.Company))
		}
	}

	log.Info("enrich: complete",
		zap.Int("found", found),
		zap.Int("not_found", notFound),
	)
	return model.WriteDataset(s.DataPath, leads)
}

func (s *EnrichStage) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return stageSleep(ctx, d)
}
