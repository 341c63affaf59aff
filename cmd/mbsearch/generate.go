package main

import (
	"github.com/spf13/cobra"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/output"
	"mbsearch/internal/pattern"
	"mbsearch/internal/query"
)

var generateQueriesDir string

var generateCmd = &cobra.Command{
	Use:   "generate [patterns-file]",
	Short: "Regenerate queries from a patterns file",
	Long: `Render one query file per pattern in a patterns file written by batch.
Useful after changing query settings such as query.namespace.

Examples:
  mbsearch generate
  mbsearch generate out/patterns.json --queries-dir out/ql`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateQueriesDir, "queries-dir", "", "Query output directory (default output.queriesDir)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	file := a.cfg.Output.PatternsFile
	if len(args) == 1 {
		file = args[0]
	}
	dir := a.cfg.Output.QueriesDir
	if generateQueriesDir != "" {
		dir = generateQueriesDir
	}

	patterns, err := output.ReadPatterns(a.path(file))
	if err != nil {
		return err
	}
	resp, err := generateQueries(query.NewGenerator(a.queryConfig()), patterns, a.path(dir))
	if err != nil {
		return err
	}
	resp.PatternsFile = a.path(file)

	for _, f := range resp.Failed {
		a.logger.Warn("No query for pattern", "pattern", f.Name, "code", f.Code)
	}
	return printResponse(cmd, resp)
}

// generateQueries writes a query for every translatable pattern. Patterns
// without a query are reported, not fatal.
func generateQueries(gen *query.Generator, patterns []*pattern.Pattern, dir string) (*GenerateResponseCLI, error) {
	resp := &GenerateResponseCLI{QueriesDir: dir, Written: []string{}}
	for _, p := range patterns {
		text, err := gen.Generate(p)
		if err != nil {
			resp.Failed = append(resp.Failed, GenerateFailureCLI{
				Name:  p.Name,
				Code:  string(mberrors.CodeOf(err)),
				Error: err.Error(),
			})
			continue
		}
		path, err := output.WriteQuery(dir, p.Name, text)
		if err != nil {
			resp.Failed = append(resp.Failed, GenerateFailureCLI{
				Name:  p.Name,
				Code:  string(mberrors.CodeOf(err)),
				Error: err.Error(),
			})
			continue
		}
		resp.Written = append(resp.Written, path)
	}
	return resp, nil
}

// GenerateResponseCLI lists the query files written.
type GenerateResponseCLI struct {
	PatternsFile string               `json:"patternsFile"`
	QueriesDir   string               `json:"queriesDir"`
	Written      []string             `json:"written"`
	Failed       []GenerateFailureCLI `json:"failed,omitempty"`
}

// GenerateFailureCLI is a pattern that produced no query.
type GenerateFailureCLI struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Error string `json:"error"`
}
