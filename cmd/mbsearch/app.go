package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mbsearch/internal/config"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/parser"
	"mbsearch/internal/paths"
	"mbsearch/internal/pipeline"
	"mbsearch/internal/query"
	"mbsearch/internal/slogutil"
	"mbsearch/internal/storage"
)

// app bundles what a command needs: resolved root, config and logger.
type app struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// newApp loads the configuration and sets up logging. Callers must Close it.
func newApp(cmd *cobra.Command) (*app, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if configFlag != "" {
		cfg, err = config.LoadFile(configFlag)
	} else {
		cfg, err = config.LoadConfig(root)
	}
	if err != nil {
		return nil, mberrors.Wrap(mberrors.InvalidInput, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, mberrors.Wrap(mberrors.InvalidInput, "invalid config", err)
	}

	logger, closer, err := slogutil.Setup(slogutil.Options{
		Stderr:     cmd.ErrOrStderr(),
		Level:      slogutil.LevelFromVerbosity(verbosity, quietFlag),
		File:       paths.Resolve(root, cfg.Logging.File),
		FileLevel:  slogutil.LevelFromString(cfg.Logging.Level),
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &app{root: root, cfg: cfg, logger: logger, closer: closer}, nil
}

// Close releases the log file, if any.
func (a *app) Close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// path resolves a configured or user-supplied path against the root.
func (a *app) path(p string) string {
	return paths.Resolve(a.root, p)
}

func (a *app) parserOptions() parser.Options {
	return parser.Options{
		Backend:        a.cfg.Parser.Backend,
		Command:        a.cfg.Parser.Command,
		Timeout:        time.Duration(a.cfg.Parser.TimeoutMs) * time.Millisecond,
		MaxSourceBytes: a.cfg.Parser.MaxSourceBytes,
		CacheDir:       a.path(a.cfg.Parser.CacheDir),
	}
}

func (a *app) newParser() (parser.Parser, error) {
	return parser.New(a.parserOptions(), a.logger)
}

func (a *app) queryConfig() query.Config {
	return query.Config{
		Namespace:                 a.cfg.Query.Namespace,
		LanguageModule:            a.cfg.Query.LanguageModule,
		VariablePlaceholderPrefix: a.cfg.Query.VariablePlaceholderPrefix,
		FunctionPlaceholderPrefix: a.cfg.Query.FunctionPlaceholderPrefix,
	}
}

func (a *app) newMiner(p parser.Parser, jobs int) *pipeline.Miner {
	if jobs <= 0 {
		jobs = a.cfg.Pipeline.Jobs
	}
	return pipeline.NewMiner(p, query.NewGenerator(a.queryConfig()), pipeline.Config{
		AllowContextOnly: a.cfg.Pattern.AllowContextOnly,
		Jobs:             jobs,
	}, a.logger)
}

// openStore opens the run history database. It returns nil, nil when
// storage is disabled.
func (a *app) openStore() (*storage.DB, error) {
	if !a.cfg.Storage.Enabled {
		return nil, nil
	}
	db, err := storage.Open(a.path(a.cfg.Storage.Path), a.logger)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "open run history", err)
	}
	return db, nil
}

// projectRoot returns --root or the working directory.
func projectRoot() (string, error) {
	if rootDirFlag != "" {
		return rootDirFlag, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", mberrors.Wrap(mberrors.InternalError, "get working directory", err)
	}
	return wd, nil
}

// printResponse renders resp in the selected --format to stdout.
func printResponse(cmd *cobra.Command, resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return mberrors.Wrap(mberrors.InvalidInput, "format output", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
