package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"mbsearch/internal/classify"
	"mbsearch/internal/output"
	"mbsearch/internal/pattern"
	"mbsearch/internal/pipeline"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON renders resp with sorted keys and two-space indent.
func formatJSON(resp interface{}) (string, error) {
	data, err := output.DeterministicEncodeIndented(resp, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *MineResponseCLI:
		return formatMineHuman(v), nil
	case *DiffResponseCLI:
		return formatDiffHuman(v), nil
	case *BatchResponseCLI:
		return formatBatchHuman(v), nil
	case *GenerateResponseCLI:
		return formatGenerateHuman(v), nil
	case *RunsResponseCLI:
		return formatRunsHuman(v), nil
	case *RunDetailResponseCLI:
		return formatRunDetailHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

var (
	headerColor = color.New(color.Bold)
	statusColor = map[pipeline.Status]*color.Color{
		pipeline.StatusMined:        color.New(color.FgGreen),
		pipeline.StatusQueryFailed:  color.New(color.FgYellow),
		pipeline.StatusEmptyPattern: color.New(color.FgHiBlack),
		pipeline.StatusNoDivergence: color.New(color.FgHiBlack),
		pipeline.StatusParseFailed:  color.New(color.FgRed),
		pipeline.StatusFailed:       color.New(color.FgRed, color.Bold),
	}
)

func colorStatus(s pipeline.Status) string {
	if c, ok := statusColor[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func header(b *strings.Builder, title string) {
	b.WriteString(headerColor.Sprint(title) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
}

func formatFlags(f classify.Flags) string {
	var parts []string
	if f.InLoop {
		parts = append(parts, "loop")
	}
	if f.InFunction {
		parts = append(parts, "function")
	}
	if f.InConditional {
		parts = append(parts, "conditional")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func displayPath(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}

func formatMineHuman(resp *MineResponseCLI) string {
	var b strings.Builder
	header(&b, "Pair "+resp.PairID)

	b.WriteString(fmt.Sprintf("Status: %s\n", colorStatus(resp.Status)))
	if resp.Kind != "" {
		b.WriteString(fmt.Sprintf("Divergence: %s at %s\n", resp.Kind, displayPath(resp.Path)))
		b.WriteString(fmt.Sprintf("Contexts: %s\n", formatFlags(resp.Flags)))
	}
	if resp.Error != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", resp.Error))
	}
	b.WriteString(fmt.Sprintf("Duration: %sms\n", output.FormatFloat(resp.DurationMs)))

	if resp.Pattern != nil {
		b.WriteString("\n")
		writePattern(&b, resp.Pattern)
	}
	if resp.Query != "" {
		b.WriteString("\nQuery:\n")
		b.WriteString(resp.Query)
		if !strings.HasSuffix(resp.Query, "\n") {
			b.WriteString("\n")
		}
	}
	if resp.QueryFile != "" {
		b.WriteString(fmt.Sprintf("\nWritten to: %s\n", resp.QueryFile))
	}
	return b.String()
}

func writePattern(b *strings.Builder, p *pattern.Pattern) {
	b.WriteString(fmt.Sprintf("Pattern: %s\n", p.Name))
	b.WriteString(fmt.Sprintf("  Target: %s\n", p.TargetNodeKind))
	b.WriteString(fmt.Sprintf("  Description: %s\n", p.Description))
	b.WriteString("  Conditions:\n")
	for _, c := range p.Conditions {
		params := make([]string, 0, len(c.Parameters))
		for _, k := range sortedKeys(c.Parameters) {
			params = append(params, k+"="+c.Param(k))
		}
		if len(params) == 0 {
			b.WriteString(fmt.Sprintf("    - %s\n", c.Kind))
		} else {
			b.WriteString(fmt.Sprintf("    - %s (%s)\n", c.Kind, strings.Join(params, ", ")))
		}
	}
}

func formatDiffHuman(resp *DiffResponseCLI) string {
	var b strings.Builder
	header(&b, "Divergence")

	if !resp.Diverged {
		b.WriteString("No divergence: the trees are structurally equal.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Kind: %s\n", resp.Kind))
	b.WriteString(fmt.Sprintf("Path: %s\n", displayPath(resp.Path)))
	if resp.Flags != nil {
		b.WriteString(fmt.Sprintf("Contexts: %s\n", formatFlags(*resp.Flags)))
	}
	if resp.RawKind != "" {
		b.WriteString(fmt.Sprintf("Before refinement: %s at %s\n", resp.RawKind, displayPath(resp.RawPath)))
	}
	return b.String()
}

func formatBatchHuman(resp *BatchResponseCLI) string {
	var b strings.Builder
	header(&b, "Batch "+resp.Run.Source)

	if resp.Run.ID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", resp.Run.ID))
	}
	b.WriteString(fmt.Sprintf("Pairs: %d in %sms\n\n", resp.Summary.Total, output.FormatFloat(resp.Summary.DurationMs)))

	b.WriteString("By status:\n")
	for _, s := range resp.Summary.SortedStatuses() {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", colorStatus(s)+":", resp.Summary.ByStatus[s]))
	}
	b.WriteString("\n")

	failures := 0
	for _, r := range resp.Results {
		if r.Status == pipeline.StatusParseFailed || r.Status == pipeline.StatusFailed {
			failures++
		}
	}
	if failures > 0 {
		b.WriteString("Failures:\n")
		for _, r := range resp.Results {
			if r.Status == pipeline.StatusParseFailed || r.Status == pipeline.StatusFailed {
				b.WriteString(fmt.Sprintf("  %s %s: %s\n", colorStatus(r.Status), r.PairID, r.Error))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Patterns: %d written to %s\n", resp.Summary.Patterns, resp.PatternsFile))
	b.WriteString(fmt.Sprintf("Queries: %d written to %s\n", len(resp.QueryFiles), resp.QueriesDir))
	for _, f := range resp.QueryWriteErrors {
		b.WriteString(color.YellowString("! query for %s not written: %s\n", f.Name, f.Error))
	}
	if resp.StorageErrors > 0 {
		b.WriteString(color.YellowString("! %d results could not be recorded\n", resp.StorageErrors))
	}
	return b.String()
}

func formatGenerateHuman(resp *GenerateResponseCLI) string {
	var b strings.Builder
	header(&b, "Generate "+resp.PatternsFile)

	b.WriteString(fmt.Sprintf("Queries written: %d to %s\n", len(resp.Written), resp.QueriesDir))
	if len(resp.Failed) > 0 {
		b.WriteString("\nNo query:\n")
		for _, f := range resp.Failed {
			b.WriteString(fmt.Sprintf("  %s [%s]\n", f.Name, f.Code))
		}
	}
	return b.String()
}

func formatRunsHuman(resp *RunsResponseCLI) string {
	var b strings.Builder
	header(&b, "Runs")

	if len(resp.Runs) == 0 {
		b.WriteString("No runs recorded.\n")
		return b.String()
	}
	for _, r := range resp.Runs {
		state := "running"
		if r.FinishedAt != nil {
			state = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		b.WriteString(fmt.Sprintf("%s  %s  %d pairs  %s  %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.PairCount, state, r.Source))
	}
	return b.String()
}

func formatRunDetailHuman(resp *RunDetailResponseCLI) string {
	var b strings.Builder
	header(&b, "Run "+resp.Run.ID)

	b.WriteString(fmt.Sprintf("Source: %s\n", resp.Run.Source))
	b.WriteString(fmt.Sprintf("Started: %s\n", resp.Run.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Pairs: %d\n\n", len(resp.Pairs)))

	for _, p := range resp.Pairs {
		line := fmt.Sprintf("  %-12s %s", p.PairID, colorStatus(p.Status))
		if p.Error != "" {
			line += "  " + p.Error
		}
		b.WriteString(line + "\n")
	}
	if len(resp.Patterns) > 0 {
		b.WriteString("\nPatterns:\n")
		for _, sp := range resp.Patterns {
			b.WriteString(fmt.Sprintf("  %s (pair %s, %s)\n", sp.Pattern.Name, sp.PairID, sp.Pattern.TargetNodeKind))
		}
	}
	return b.String()
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
