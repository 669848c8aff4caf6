package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/millionverifier"
)

// VerifyStage checks each found email's deliverability. An invalid address
// is cleared (the original kept for audit) and the lead falls back to its
// generic address when one exists. With no Verifier configured the stage
// still runs, marking every address skipped so scoring can tell the
// difference between unverified and unverifiable.
type VerifyStage struct {
	Verifier  millionverifier.Client
	DataPath  string
	LeadDelay time.Duration
	Sleep     func(ctx context.Context, d time.Duration) error
}

func (s *VerifyStage) Run(ctx context.Context) error {
	leads, err := model.ReadDataset(s.DataPath)
	if err != nil {
		return eris.Wrap(err, "verify: read dataset")
	}

	log := zap.L()
	log.Info("verify: starting", zap.Int("leads", len(leads)))

	if s.Verifier == nil {
		skipped := 0
		for i := range leads {
			if leads[i].Email != "" {
				leads[i].EmailStatus = model.VerifySkipped
				skipped++
			}
		}
		log.Warn("verify: no verifier configured, marking addresses skipped",
			zap.Int("skipped", skipped))
		return model.WriteDataset(s.DataPath, leads)
	}

	var checked, invalid int
	first := true
	for i := range leads {
		lead := &leads[i]
		if lead.Email == "" {
			continue
		}
		if !first {
			if err := s.sleep(ctx, s.LeadDelay); err != nil {
				return err
			}
		}
		first = false

		resp, err := s.Verifier.Verify(ctx, lead.Email)
		if err != nil {
			// A verification failure never blocks the pipeline; the
			// address just stays unverified.
			log.Warn("verify: check failed, keeping address unverified",
				zap.String("company", lead.Company),
				zap.Error(err),
			)
			lead.EmailStatus = model.VerifyUnknown
			continue
		}
		checked++

		status := parseVerifyResult(resp.Result)
		lead.EmailStatus = status
		lead.EmailVerified = status == model.VerifyOK

		if !status.Deliverable() {
			invalid++
			lead.EmailOriginal = lead.Email
			if lead.GenericEmail != "" && lead.GenericEmail != lead.Email {
				lead.Email = lead.GenericEmail
				lead.EmailSource = model.EmailSourceHunterGeneric
				log.Debug("verify: falling back to generic address",
					zap.String("company", lead.Company))
			} else {
				lead.Email = ""
				lead.EmailSource = model.EmailSourceNotFound
			}
		}
	}

	log.Info("verify: complete",
		zap.Int("checked", checked),
		zap.Int("invalid", invalid),
	)
	return model.WriteDataset(s.DataPath, leads)
}

// parseVerifyResult maps the provider's result string onto the closed
// status set.
func parseVerifyResult(result string) model.VerifyStatus {
	switch model.VerifyStatus(result) {
	case model.VerifyOK:
		return model.VerifyOK
	case model.VerifyCatchAll:
		return model.VerifyCatchAll
	case model.VerifyInvalid:
		return model.VerifyInvalid
	case model.VerifyDisposable:
		return model.VerifyDisposable
	}
	return model.VerifyUnknown
}

func (s *VerifyStage) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return stageSleep(ctx, d)
}
