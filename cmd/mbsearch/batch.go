package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"mbsearch/internal/corpus"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/output"
	"mbsearch/internal/pipeline"
	"mbsearch/internal/storage"
)

var (
	batchJobs         int
	batchLimit        int
	batchPatternsFile string
	batchQueriesDir   string
	batchNoStore      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <corpus>",
	Short: "Mine every pair of a corpus",
	Long: `Mine a corpus of slow/fast pairs, write the patterns file and one query per
mined pattern, and record the run in the history database.

Corpus formats are chosen by extension:
  .json          array of {"id", "slow", "fast"}
  .yaml, .yml    list of {id, slow, fast}
  .toml          [[pair]] tables
  .diff, .patch  unified diff, one pair per hunk

Examples:
  mbsearch batch benchmarks.json
  mbsearch batch changes.patch --jobs 8 --limit 100
  mbsearch batch pairs.yaml --patterns-file out/patterns.json --queries-dir out/ql`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", 0, "Pairs mined in parallel (default pipeline.jobs)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", -1, "Mine only the first N pairs, 0 for all (default pipeline.limit)")
	batchCmd.Flags().StringVar(&batchPatternsFile, "patterns-file", "", "Patterns output file (default output.patternsFile)")
	batchCmd.Flags().StringVar(&batchQueriesDir, "queries-dir", "", "Query output directory (default output.queriesDir)")
	batchCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "Do not record the run in the history database")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	source := args[0]

	pairs, err := corpus.Load(a.path(source))
	if err != nil {
		return err
	}
	limit := a.cfg.Pipeline.Limit
	if batchLimit >= 0 {
		limit = batchLimit
	}
	pairs = corpus.Limit(pairs, limit)

	p, err := a.newParser()
	if err != nil {
		return err
	}
	miner := a.newMiner(p, batchJobs)

	var db *storage.DB
	if !batchNoStore {
		if db, err = a.openStore(); err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}
	}

	run := RunInfoCLI{Source: source, StartedAt: start.UTC()}
	if db != nil {
		stored, err := db.CreateRun(ctx, source)
		if err != nil {
			return err
		}
		run.ID = stored.ID
	}

	a.logger.Info("Mining corpus", "source", source, "pairs", len(pairs), "parser", p.Name())
	results, err := miner.MineAll(ctx, pairs)
	if err != nil {
		return err
	}

	resp := &BatchResponseCLI{Run: run, Results: results}
	if db != nil {
		resp.StorageErrors = recordResults(ctx, a, db, run.ID, pairs, results)
		if err := db.FinishRun(ctx, run.ID); err != nil {
			return err
		}
	}

	resp.PatternsFile = a.path(patternsFileFor(a))
	if err := output.WritePatterns(resp.PatternsFile, pipeline.Patterns(results)); err != nil {
		return err
	}

	resp.QueriesDir = a.path(queriesDirFor(a))
	for _, res := range results {
		if res.Status != pipeline.StatusMined {
			continue
		}
		path, err := output.WriteQuery(resp.QueriesDir, res.Pattern.Name, res.Query)
		if err != nil {
			a.logger.Warn("Query file not written", "pair", res.PairID, "pattern", res.Pattern.Name, "error", err.Error())
			resp.QueryWriteErrors = append(resp.QueryWriteErrors, GenerateFailureCLI{
				Name:  res.Pattern.Name,
				Code:  string(mberrors.CodeOf(err)),
				Error: err.Error(),
			})
			continue
		}
		resp.QueryFiles = append(resp.QueryFiles, path)
	}

	finished := time.Now().UTC()
	resp.Run.FinishedAt = &finished
	summary := pipeline.Summarize(results)
	resp.Summary = SummaryCLI{
		Summary:    summary,
		DurationMs: output.RoundFloat(float64(time.Since(start).Microseconds()) / 1000),
	}

	a.logger.Info("Batch written",
		"patternsFile", resp.PatternsFile,
		"queries", len(resp.QueryFiles),
		"run", run.ID,
	)
	return printResponse(cmd, resp)
}

// recordResults stores every outcome; failures are logged and counted so a
// broken history database never loses the mined output.
func recordResults(ctx context.Context, a *app, db *storage.DB, runID string, pairs []corpus.Pair, results []pipeline.Result) int {
	failed := 0
	for i, res := range results {
		if err := db.RecordResult(ctx, runID, pairs[i], res); err != nil {
			failed++
			a.logger.Warn("Failed to record pair", "run", runID, "pair", pairs[i].ID, "error", err.Error())
		}
	}
	return failed
}

func patternsFileFor(a *app) string {
	if batchPatternsFile != "" {
		return batchPatternsFile
	}
	return a.cfg.Output.PatternsFile
}

func queriesDirFor(a *app) string {
	if batchQueriesDir != "" {
		return batchQueriesDir
	}
	return a.cfg.Output.QueriesDir
}

// RunInfoCLI identifies a batch run.
type RunInfoCLI struct {
	ID         string     `json:"id,omitempty"`
	Source     string     `json:"source"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// SummaryCLI extends the pipeline summary with wall time.
type SummaryCLI struct {
	pipeline.Summary
	DurationMs float64 `json:"durationMs"`
}

// BatchResponseCLI is the outcome of a batch run.
type BatchResponseCLI struct {
	Run           RunInfoCLI `json:"run"`
	Summary       SummaryCLI `json:"summary"`
	PatternsFile  string     `json:"patternsFile"`
	QueriesDir    string     `json:"queriesDir"`
	QueryFiles    []string   `json:"queryFiles,omitempty"`
	StorageErrors int        `json:"storageErrors,omitempty"`
	// QueryWriteErrors lists mined patterns whose .ql file could not be
	// written.
	QueryWriteErrors []GenerateFailureCLI `json:"queryWriteErrors,omitempty"`
	Results          []pipeline.Result    `json:"results"`
}
