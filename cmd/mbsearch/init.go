package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mbsearch/internal/config"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default mbsearch configuration",
	Long:  "Creates .mbsearch/config.toml with default settings in the project root",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	path := paths.ConfigPath(root)
	if _, statErr := os.Stat(path); statErr == nil && !initForce {
		// Already initialized is success.
		fmt.Fprintln(out, "mbsearch already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", path)
		fmt.Fprintln(out, "\nRun 'mbsearch init --force' to overwrite it.")
		return nil
	}

	written, err := config.DefaultConfig().Save(root)
	if err != nil {
		return mberrors.Wrap(mberrors.InternalError, "write config file", err)
	}

	fmt.Fprintf(out, "Initialized mbsearch in %s\n", paths.DataDir(root))
	fmt.Fprintf(out, "Configuration written to: %s\n", written)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  mbsearch mine --slow slow.js --fast fast.js")
	fmt.Fprintln(out, "  mbsearch batch benchmarks.json")
	return nil
}
