package pipeline

import (
	"mbsearch/internal/classify"
	"mbsearch/internal/diff"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/pattern"
	"mbsearch/internal/tree"
)

// MineTrees runs the tree stages for an already parsed pair.
func (m *Miner) MineTrees(pairID string, slow, fast *tree.Node) Result {
	return m.mineTrees(Result{PairID: pairID}, pairID, slow, fast)
}

func (m *Miner) mineTrees(res Result, pairID string, slow, fast *tree.Node) Result {
	d := diff.Diff(slow, fast)
	if d == nil {
		res.Status = StatusNoDivergence
		res.Err = mberrors.Newf(mberrors.NoDivergence, "pair %s: trees are structurally equal", pairID)
		m.logger.Debug("No divergence", "pair", pairID)
		return res
	}
	res.Kind = d.Kind()
	res.Path = d.Path

	// Classification walks the slow tree; the divergence belongs to it.
	res.Flags = classify.Classify(slow, d.Path)

	p := pattern.Synthesize(pairID, d, res.Flags, pattern.WithContextOnly(m.config.AllowContextOnly))
	if p == nil {
		res.Status = StatusEmptyPattern
		res.Err = mberrors.Newf(mberrors.EmptyPattern, "pair %s: no condition for %s at %s", pairID, d.Kind(), d.Path)
		m.logger.Debug("Empty pattern", "pair", pairID, "kind", d.Kind(), "path", d.Path.String())
		return res
	}
	res.Pattern = p

	q, err := m.generator.Generate(p)
	if err != nil {
		res.Status = StatusQueryFailed
		res.Err = err
		m.logger.Info("Query not generated",
			"pair", pairID,
			"pattern", p.Name,
			"code", string(mberrors.CodeOf(err)),
		)
		return res
	}
	res.Query = q
	res.Status = StatusMined
	return res
}
