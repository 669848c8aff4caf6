package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var (
	runIndustry   string
	runLocation   string
	runMaxLeads   int
	runWorkDir    string
	runResume     bool
	runSkipVerify bool
	runNoCRM      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full lead generation pipeline",
	Long:  "Runs every pipeline stage in order, each in its own process, checkpointing after each one. Re-run with --resume to pick up an interrupted run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runMaxLeads <= 0 {
			runMaxLeads = cfg.Pipeline.MaxLeads
		}
		if runWorkDir == "" {
			runWorkDir = cfg.Pipeline.WorkDir
		}
		if err := os.MkdirAll(runWorkDir, 0o755); err != nil {
			return eris.Wrap(err, "create work dir")
		}

		stageNames := selectedStages()
		identity := pipeline.RunIdentity{
			Industry: runIndustry,
			Location: runLocation,
			MaxLeads: runMaxLeads,
			Stages:   stageNames,
		}

		self, err := os.Executable()
		if err != nil {
			return eris.Wrap(err, "resolve executable")
		}

		stages := make([]pipeline.Stage, 0, len(stageNames))
		for _, name := range stageNames {
			stages = append(stages, pipeline.ExecStage{
				StageName:  name,
				IsCritical: pipeline.IsCritical(name),
				Binary:     self,
				Args: []string{
					"stage", name,
					"--industry", runIndustry,
					"--location", runLocation,
					"--max-leads", strconv.Itoa(runMaxLeads),
					"--work-dir", runWorkDir,
				},
			})
		}

		opts := []pipeline.OrchestratorOption{pipeline.WithResume(runResume)}
		if cfg.Pipeline.HistoryEnabled {
			db, err := store.NewSQLite(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			opts = append(opts, pipeline.WithRecorder(db))
		}

		dataPath := filepath.Join(runWorkDir, cfg.Pipeline.DataFile)
		orch := pipeline.NewOrchestrator(identity, stages, runWorkDir, dataPath, opts...)

		summary, err := orch.Run(ctx)
		if err != nil {
			var halt *pipeline.HaltError
			if errors.As(err, &halt) {
				if halt.Report != "" {
					fmt.Println(halt.Report)
				}
				fmt.Fprintf(os.Stderr,
					"Run halted at stage %s. The checkpoint was kept; re-run with --resume and the same parameters to continue.\n",
					halt.Stage)
			}
			return err
		}

		for _, f := range summary.Failures {
			zap.L().Warn("run: non-critical stage failed",
				zap.String("stage", f.Stage),
				zap.Error(f.Err),
			)
		}
		fmt.Println(summary.Report)
		fmt.Printf("Done: %d leads.\n", summary.LeadCount)
		return nil
	},
}

// selectedStages returns the stage order with skip flags applied.
func selectedStages() []string {
	var names []string
	for _, name := range pipeline.StageOrder {
		if runSkipVerify && name == pipeline.StageVerify {
			continue
		}
		if (runNoCRM || cfg.Pipeline.SkipCRM) && name == pipeline.StageSync {
			continue
		}
		if cfg.Pipeline.SkipVerify && name == pipeline.StageVerify {
			continue
		}
		names = append(names, name)
	}
	return names
}

func init() {
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "target industry search phrase (required)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "target location (required)")
	runCmd.Flags().IntVar(&runMaxLeads, "max-leads", 0, "maximum leads to discover")
	runCmd.Flags().StringVar(&runWorkDir, "work-dir", "", "run working directory")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "resume an interrupted run with the same parameters")
	runCmd.Flags().BoolVar(&runSkipVerify, "skip-verify", false, "skip the email verification stage")
	runCmd.Flags().BoolVar(&runNoCRM, "no-crm", false, "skip the Salesforce sync stage")
	_ = runCmd.MarkFlagRequired("industry")
	_ = runCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(runCmd)
}
