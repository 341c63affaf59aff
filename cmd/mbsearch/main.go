package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	mberrors "mbsearch/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err and, for coded errors, the suggested fixes.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var mb *mberrors.MbError
	if !errors.As(err, &mb) {
		return
	}
	fixes := mberrors.GetSuggestedFixes(mb.Code)
	if len(fixes) == 0 {
		return
	}
	fmt.Fprintln(w, "Suggested fixes:")
	for _, fix := range fixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(w, "  - %s\n    $ %s\n", fix.Description, fix.Command)
		case fix.Key != "":
			fmt.Fprintf(w, "  - %s (config key %s)\n", fix.Description, fix.Key)
		default:
			fmt.Fprintf(w, "  - %s\n", fix.Description)
		}
	}
}
