package main

import (
	"os"

	"github.com/spf13/cobra"

	"mbsearch/internal/classify"
	"mbsearch/internal/corpus"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/output"
	"mbsearch/internal/pattern"
	"mbsearch/internal/pipeline"
)

var (
	mineSlow  string
	mineFast  string
	mineID    string
	mineRun   string
	minePair  string
	mineWrite bool
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine a pattern from one slow/fast pair",
	Long: `Mine a single slow/fast pair and print the resulting pattern and query.

The pair comes either from two files or from a pair recorded by an earlier
batch run.

Examples:
  mbsearch mine --slow slow.js --fast fast.js
  mbsearch mine --slow slow.js --fast fast.js --id 42 --write
  mbsearch mine --run 6f0c... --pair 17`,
	Args: cobra.NoArgs,
	RunE: runMine,
}

func init() {
	mineCmd.Flags().StringVar(&mineSlow, "slow", "", "File with the slow fragment")
	mineCmd.Flags().StringVar(&mineFast, "fast", "", "File with the fast fragment")
	mineCmd.Flags().StringVar(&mineID, "id", "1", "Pair id used in the pattern name")
	mineCmd.Flags().StringVar(&mineRun, "run", "", "Replay a pair from this recorded run")
	mineCmd.Flags().StringVar(&minePair, "pair", "", "Pair id to replay (with --run)")
	mineCmd.Flags().BoolVar(&mineWrite, "write", false, "Write the query into output.queriesDir")
	rootCmd.AddCommand(mineCmd)
}

func runMine(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	pair, err := loadMinePair(cmd, a)
	if err != nil {
		return err
	}

	p, err := a.newParser()
	if err != nil {
		return err
	}
	res := a.newMiner(p, 1).MinePair(cmd.Context(), pair)

	resp := convertMineResult(res)
	if mineWrite && res.Status == pipeline.StatusMined {
		path, err := output.WriteQuery(a.path(a.cfg.Output.QueriesDir), res.Pattern.Name, res.Query)
		if err != nil {
			return err
		}
		resp.QueryFile = path
	}
	if err := printResponse(cmd, resp); err != nil {
		return err
	}

	if res.Status == pipeline.StatusParseFailed || res.Status == pipeline.StatusFailed {
		return res.Err
	}
	return nil
}

func loadMinePair(cmd *cobra.Command, a *app) (corpus.Pair, error) {
	if mineRun != "" {
		if minePair == "" {
			return corpus.Pair{}, mberrors.New(mberrors.InvalidInput, "--run requires --pair")
		}
		db, err := a.openStore()
		if err != nil {
			return corpus.Pair{}, err
		}
		if db == nil {
			return corpus.Pair{}, mberrors.New(mberrors.InvalidInput, "--run needs storage.enabled")
		}
		defer db.Close()
		return db.LoadPairSources(cmd.Context(), mineRun, minePair)
	}

	if mineSlow == "" || mineFast == "" {
		return corpus.Pair{}, mberrors.New(mberrors.InvalidInput, "both --slow and --fast are required")
	}
	slow, err := os.ReadFile(a.path(mineSlow))
	if err != nil {
		return corpus.Pair{}, mberrors.Wrap(mberrors.InvalidInput, "read slow fragment", err)
	}
	fast, err := os.ReadFile(a.path(mineFast))
	if err != nil {
		return corpus.Pair{}, mberrors.Wrap(mberrors.InvalidInput, "read fast fragment", err)
	}
	return corpus.Pair{ID: mineID, Slow: string(slow), Fast: string(fast)}, nil
}

// MineResponseCLI is the outcome of mining one pair.
type MineResponseCLI struct {
	PairID     string           `json:"pairId"`
	Status     pipeline.Status  `json:"status"`
	Kind       string           `json:"kind,omitempty"`
	Path       string           `json:"path,omitempty"`
	Flags      classify.Flags   `json:"flags"`
	Pattern    *pattern.Pattern `json:"pattern,omitempty"`
	Query      string           `json:"query,omitempty"`
	QueryFile  string           `json:"queryFile,omitempty"`
	ErrorCode  string           `json:"errorCode,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMs float64          `json:"durationMs"`
}

func convertMineResult(res pipeline.Result) *MineResponseCLI {
	resp := &MineResponseCLI{
		PairID:     res.PairID,
		Status:     res.Status,
		Kind:       res.Kind,
		Flags:      res.Flags,
		Pattern:    res.Pattern,
		Query:      res.Query,
		Error:      res.Error,
		DurationMs: output.RoundFloat(float64(res.Duration.Microseconds()) / 1000),
	}
	if len(res.Path) > 0 {
		resp.Path = res.Path.String()
	}
	if res.Err != nil {
		resp.ErrorCode = string(mberrors.CodeOf(res.Err))
	}
	return resp
}
