package main

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/tracker"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/firecrawl"
	"github.com/sells-group/leadgen-cli/pkg/millionverifier"
)

var (
	stageIndustry string
	stageLocation string
	stageMaxLeads int
	stageWorkDir  string
)

// stageCmd runs a single pipeline stage in its own process. The run command
// spawns one of these per stage; the usage snapshot written on exit is how
// per-stage API consumption survives process boundaries.
var stageCmd = &cobra.Command{
	Use:    "stage <name>",
	Short:  "Run a single pipeline stage",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !pipeline.KnownStage(name) {
			return eris.Errorf("unknown stage: %s", name)
		}

		tr := tracker.New()
		caller := newCaller(tr)

		stage, err := buildStageRunner(name, caller)
		if err != nil {
			return err
		}

		runErr := stage.Run(cmd.Context())

		if err := tr.Snapshot(stageWorkDir, name); err != nil {
			zap.L().Warn("stage: failed to write usage snapshot",
				zap.String("stage", name),
				zap.Error(err),
			)
		}
		return runErr
	},
}

func init() {
	stageCmd.Flags().StringVar(&stageIndustry, "industry", "", "target industry search phrase")
	stageCmd.Flags().StringVar(&stageLocation, "location", "", "target location")
	stageCmd.Flags().IntVar(&stageMaxLeads, "max-leads", 0, "maximum leads to process")
	stageCmd.Flags().StringVar(&stageWorkDir, "work-dir", ".", "run working directory")
	rootCmd.AddCommand(stageCmd)
}

type stageRunner interface {
	Run(ctx context.Context) error
}

func buildStageRunner(name string, caller *resilience.Caller) (stageRunner, error) {
	dataPath := filepath.Join(stageWorkDir, cfg.Pipeline.DataFile)
	leadDelay := secs(cfg.Pipeline.LeadDelaySecs)

	switch name {
	case pipeline.StageDiscover:
		if cfg.Serper.Key == "" {
			return nil, eris.New("discover: serper API key is required")
		}
		return &pipeline.DiscoverStage{
			Serper:   newSerper(caller),
			DataPath: dataPath,
			Industry: stageIndustry,
			Location: stageLocation,
			MaxLeads: stageMaxLeads,
		}, nil

	case pipeline.StageQualify:
		if cfg.Firecrawl.Key == "" || cfg.Anthropic.Key == "" {
			return nil, eris.New("qualify: firecrawl and anthropic API keys are required")
		}
		return &pipeline.QualifyStage{
			Firecrawl: firecrawl.NewClient(cfg.Firecrawl.Key, caller, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL)),
			Anthropic: anthropic.NewClient(cfg.Anthropic.Key, caller, "anthropic-classify"),
			DataPath:  dataPath,
			Industry:  stageIndustry,
			LeadDelay: leadDelay,
		}, nil

	case pipeline.StageEnrich:
		enricher, err := buildEnricher(caller)
		if err != nil {
			return nil, err
		}
		return &pipeline.EnrichStage{
			Enricher:  enricher,
			DataPath:  dataPath,
			LeadDelay: leadDelay,
		}, nil

	case pipeline.StageVerify:
		var verifier millionverifier.Client
		if cfg.MillionVerifier.Key != "" {
			verifier = millionverifier.NewClient(cfg.MillionVerifier.Key, caller,
				millionverifier.WithBaseURL(cfg.MillionVerifier.BaseURL))
		}
		return &pipeline.VerifyStage{
			Verifier:  verifier,
			DataPath:  dataPath,
			LeadDelay: leadDelay,
		}, nil

	case pipeline.StageScore:
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("score: anthropic API key is required")
		}
		return &pipeline.ScoreStage{
			Anthropic: anthropic.NewClient(cfg.Anthropic.Key, caller, "anthropic-score"),
			DataPath:  dataPath,
			Industry:  stageIndustry,
			LeadDelay: leadDelay,
		}, nil

	case pipeline.StageExport:
		return &pipeline.ExportStage{
			DataPath: dataPath,
			Prefix:   cfg.Pipeline.ExportPrefix,
		}, nil

	case pipeline.StageSync:
		sf, err := initSalesforce(caller)
		if err != nil {
			return nil, err
		}
		return &pipeline.SyncStage{
			SF:       sf,
			DataPath: dataPath,
			MinScore: cfg.Pipeline.MinSyncScore,
		}, nil
	}
	return nil, eris.Errorf("unknown stage: %s", name)
}
