package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/store"
)

var (
	runsStatus string
	runsLimit  int
	runsOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}

		runs, err := db.ListRuns(cmd.Context(), store.RunFilter{
			Status: runsStatus,
			Limit:  runsLimit,
		})
		if err != nil {
			return err
		}

		switch runsOutput {
		case "yaml":
			out, err := yaml.Marshal(runs)
			if err != nil {
				return eris.Wrap(err, "runs: marshal yaml")
			}
			fmt.Print(string(out))
		case "table":
			printRunsTable(runs)
		default:
			return eris.Errorf("unknown output format: %s", runsOutput)
		}
		return nil
	},
}

func printRunsTable(runs []store.Run) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tINDUSTRY\tLOCATION\tSTATUS\tLEADS\tSTAGES")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Identity.Industry,
			r.Identity.Location,
			r.Status,
			r.LeadCount,
			strings.Join(r.Completed, ","),
		)
	}
	w.Flush()
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (completed, halted)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().StringVar(&runsOutput, "output", "table", "output format (table, yaml)")
	rootCmd.AddCommand(runsCmd)
}
