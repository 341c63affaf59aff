// Package pipeline runs the mining steps for slow/fast pairs: parse both
// sides, find the first divergence, classify its context, synthesize a
// pattern and render its query.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"mbsearch/internal/corpus"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/parser"
	"mbsearch/internal/query"
)

// Config tunes a Miner.
type Config struct {
	// AllowContextOnly keeps patterns that carry only context conditions.
	AllowContextOnly bool
	// Jobs bounds how many pairs MineAll processes at once.
	Jobs int
}

// DefaultConfig returns the default miner configuration.
func DefaultConfig() Config {
	return Config{Jobs: 4}
}

// Miner mines pairs with one parser and one query generator.
type Miner struct {
	parser    parser.Parser
	generator *query.Generator
	config    Config
	logger    *slog.Logger
}

// NewMiner creates a Miner. A nil logger discards output.
func NewMiner(p parser.Parser, g *query.Generator, config Config, logger *slog.Logger) *Miner {
	if g == nil {
		g = query.NewGenerator(query.DefaultConfig())
	}
	if config.Jobs <= 0 {
		config.Jobs = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Miner{parser: p, generator: g, config: config, logger: logger}
}

// MinePair runs the full pipeline for one pair. Every failure, including a
// panic, is captured in the returned Result.
func (m *Miner) MinePair(ctx context.Context, pair corpus.Pair) (res Result) {
	start := time.Now()
	res.PairID = pair.ID

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Pair mining panicked",
				"pair", pair.ID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			res.Status = StatusFailed
			res.Err = mberrors.Newf(mberrors.InternalError, "panic while mining pair %s: %v", pair.ID, r)
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		res.Duration = time.Since(start)
	}()

	slow, err := m.parser.Parse(ctx, []byte(pair.Slow))
	if err != nil {
		return m.failParse(res, "slow", err)
	}
	fast, err := m.parser.Parse(ctx, []byte(pair.Fast))
	if err != nil {
		return m.failParse(res, "fast", err)
	}

	return m.mineTrees(res, pair.ID, slow, fast)
}

func (m *Miner) failParse(res Result, side string, err error) Result {
	res.Err = fmt.Errorf("parse %s source: %w", side, err)
	if mberrors.HasCode(err, mberrors.ParseFailure) {
		res.Status = StatusParseFailed
	} else {
		res.Status = StatusFailed
	}
	m.logger.Warn("Pair not parsed", "pair", res.PairID, "side", side, "error", err.Error())
	return res
}

// MineAll mines pairs with at most Config.Jobs in flight. Results come back
// in input order. Only context cancellation stops the batch early.
func (m *Miner) MineAll(ctx context.Context, pairs []corpus.Pair) ([]Result, error) {
	results := make([]Result, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Jobs)

	for i := range pairs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = m.MinePair(gctx, pairs[i])
			m.logger.Debug("Pair mined",
				"pair", results[i].PairID,
				"status", string(results[i].Status),
				"duration", results[i].Duration.String(),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	summary := Summarize(results)
	m.logger.Info("Batch finished",
		"pairs", summary.Total,
		"patterns", summary.Patterns,
		"queries", summary.Queries,
	)
	return results, nil
}

// Generator returns the miner's query generator.
func (m *Miner) Generator() *query.Generator {
	return m.generator
}
