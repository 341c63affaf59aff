package main

import (
	"github.com/spf13/cobra"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/storage"
)

var (
	runsRun   string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded batch runs",
	Long: `List batch runs recorded in the history database, newest first, or show
the pairs and patterns of one run.

Examples:
  mbsearch runs
  mbsearch runs --limit 5
  mbsearch runs --run 6f0c2a9e-... --format=json`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsRun, "run", "", "Show the details of one run")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list, 0 for all")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	db, err := a.openStore()
	if err != nil {
		return err
	}
	if db == nil {
		return mberrors.New(mberrors.InvalidInput, "run history is disabled (storage.enabled = false)")
	}
	defer db.Close()

	ctx := cmd.Context()
	if runsRun == "" {
		runs, err := db.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		if runs == nil {
			runs = []storage.Run{}
		}
		return printResponse(cmd, &RunsResponseCLI{Runs: runs})
	}

	run, err := db.GetRun(ctx, runsRun)
	if err != nil {
		return err
	}
	pairs, err := db.ListPairs(ctx, run.ID)
	if err != nil {
		return err
	}
	patterns, err := db.ListPatterns(ctx, run.ID)
	if err != nil {
		return err
	}
	return printResponse(cmd, &RunDetailResponseCLI{Run: *run, Pairs: pairs, Patterns: patterns})
}

// RunsResponseCLI lists recorded runs.
type RunsResponseCLI struct {
	Runs []storage.Run `json:"runs"`
}

// RunDetailResponseCLI is one run with its pairs and patterns.
type RunDetailResponseCLI struct {
	Run      storage.Run             `json:"run"`
	Pairs    []storage.PairRecord    `json:"pairs"`
	Patterns []storage.StoredPattern `json:"patterns,omitempty"`
}
