package main

import (
	"github.com/spf13/cobra"

	"mbsearch/internal/version"
)

var (
	formatFlag  string
	configFlag  string
	rootDirFlag string
	verbosity   int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "mbsearch",
	Short: "mbsearch - mine performance anti-patterns from slow/fast code pairs",
	Long: `mbsearch compares the syntax trees of a slow JavaScript fragment and its
faster rewrite, finds the first place they diverge, and turns that divergence
into a structural pattern and a CodeQL query that finds the same slow shape
elsewhere.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("mbsearch version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, human)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default <root>/.mbsearch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&rootDirFlag, "root", "", "Project root (default current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress log output")
}
