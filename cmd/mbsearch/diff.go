package main

import (
	"os"

	"github.com/spf13/cobra"

	"mbsearch/internal/classify"
	"mbsearch/internal/diff"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/tree"
)

var diffRaw bool

var diffCmd = &cobra.Command{
	Use:   "diff <slow-file> <fast-file>",
	Short: "Show where a slow fragment diverges from its fast rewrite",
	Long: `Parse both fragments and report the first divergent node in the slow tree,
its kind and the contexts that enclose it.

Examples:
  mbsearch diff slow.js fast.js
  mbsearch diff slow.js fast.js --raw --format=json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffRaw, "raw", false, "Also report the divergence before refinement")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.newParser()
	if err != nil {
		return err
	}

	var roots [2]*tree.Node
	for i, name := range args {
		src, err := os.ReadFile(a.path(name))
		if err != nil {
			return mberrors.Wrap(mberrors.InvalidInput, "read "+name, err)
		}
		if roots[i], err = p.Parse(cmd.Context(), src); err != nil {
			return err
		}
	}

	return printResponse(cmd, buildDiffResponse(roots[0], roots[1], diffRaw))
}

// DiffResponseCLI describes the first divergence of a pair.
type DiffResponseCLI struct {
	Diverged bool            `json:"diverged"`
	Path     string          `json:"path,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Flags    *classify.Flags `json:"flags,omitempty"`
	RawPath  string          `json:"rawPath,omitempty"`
	RawKind  string          `json:"rawKind,omitempty"`
}

func buildDiffResponse(slow, fast *tree.Node, raw bool) *DiffResponseCLI {
	found := diff.Find(slow, fast)
	if found == nil {
		return &DiffResponseCLI{}
	}
	refined := diff.Refine(found)
	flags := classify.Classify(slow, refined.Path)

	resp := &DiffResponseCLI{
		Diverged: true,
		Path:     refined.Path.String(),
		Kind:     refined.Kind(),
		Flags:    &flags,
	}
	if raw {
		resp.RawPath = found.Path.String()
		resp.RawKind = found.Kind()
	}
	return resp
}
