// Package config loads and validates mbsearch settings from
// .mbsearch/config.toml, with MBSEARCH_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"mbsearch/internal/paths"
)

// SchemaVersion is the config layout this build understands.
const SchemaVersion = 1

// EnvPrefix prefixes environment overrides, e.g. MBSEARCH_QUERY_NAMESPACE.
const EnvPrefix = "MBSEARCH"

// Config is the complete mbsearch configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version"`

	Query    QueryConfig    `json:"query" mapstructure:"query" toml:"query"`
	Pattern  PatternConfig  `json:"pattern" mapstructure:"pattern" toml:"pattern"`
	Parser   ParserConfig   `json:"parser" mapstructure:"parser" toml:"parser"`
	Pipeline PipelineConfig `json:"pipeline" mapstructure:"pipeline" toml:"pipeline"`
	Output   OutputConfig   `json:"output" mapstructure:"output" toml:"output"`
	Storage  StorageConfig  `json:"storage" mapstructure:"storage" toml:"storage"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging" toml:"logging"`
}

// QueryConfig controls generated query text.
type QueryConfig struct {
	Namespace                 string `json:"namespace" mapstructure:"namespace" toml:"namespace"`
	LanguageModule            string `json:"languageModule" mapstructure:"languageModule" toml:"languageModule"`
	VariablePlaceholderPrefix string `json:"variablePlaceholderPrefix" mapstructure:"variablePlaceholderPrefix" toml:"variablePlaceholderPrefix"`
	FunctionPlaceholderPrefix string `json:"functionPlaceholderPrefix" mapstructure:"functionPlaceholderPrefix" toml:"functionPlaceholderPrefix"`
}

// PatternConfig controls pattern synthesis.
type PatternConfig struct {
	AllowContextOnly bool `json:"allowContextOnly" mapstructure:"allowContextOnly" toml:"allowContextOnly"`
}

// ParserConfig selects the parse backend.
type ParserConfig struct {
	Backend        string   `json:"backend" mapstructure:"backend" toml:"backend"`
	Command        []string `json:"command" mapstructure:"command" toml:"command"`
	TimeoutMs      int      `json:"timeoutMs" mapstructure:"timeoutMs" toml:"timeoutMs"`
	MaxSourceBytes int      `json:"maxSourceBytes" mapstructure:"maxSourceBytes" toml:"maxSourceBytes"`
	// CacheDir enables the parse cache when non-empty.
	CacheDir string `json:"cacheDir" mapstructure:"cacheDir" toml:"cacheDir"`
}

// PipelineConfig bounds batch runs.
type PipelineConfig struct {
	Jobs  int `json:"jobs" mapstructure:"jobs" toml:"jobs"`
	Limit int `json:"limit" mapstructure:"limit" toml:"limit"`
}

// OutputConfig names batch output locations.
type OutputConfig struct {
	PatternsFile string `json:"patternsFile" mapstructure:"patternsFile" toml:"patternsFile"`
	QueriesDir   string `json:"queriesDir" mapstructure:"queriesDir" toml:"queriesDir"`
}

// StorageConfig controls the run history database.
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" toml:"enabled"`
	Path    string `json:"path" mapstructure:"path" toml:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level" toml:"level"`
	File       string `json:"file" mapstructure:"file" toml:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize" toml:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups" toml:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: SchemaVersion,
		Query: QueryConfig{
			Namespace:                 "js/performance",
			LanguageModule:            "javascript",
			VariablePlaceholderPrefix: "VAR_",
			FunctionPlaceholderPrefix: "FUNCTION_",
		},
		Parser: ParserConfig{
			Backend:        "treesitter",
			Command:        []string{"node", "scripts/esprima_parse.js"},
			TimeoutMs:      10000,
			MaxSourceBytes: 1 << 20,
			CacheDir:       filepath.Join(paths.DataDirName, paths.CacheDirName, "parse"),
		},
		Pipeline: PipelineConfig{
			Jobs: 4,
		},
		Output: OutputConfig{
			PatternsFile: "patterns.json",
			QueriesDir:   "queries",
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    filepath.Join(paths.DataDirName, paths.DatabaseFileName),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads <root>/.mbsearch/config.toml. A missing file yields the
// defaults; environment overrides apply either way.
func LoadConfig(root string) (*Config, error) {
	return load(paths.ConfigPath(root), false)
}

// LoadFile loads an explicit config file, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(path)
	v.SetConfigType(configType(path))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || required {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// setDefaults registers every key so that Unmarshal sees env overrides
// even when the file omits the key.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("query.namespace", d.Query.Namespace)
	v.SetDefault("query.languageModule", d.Query.LanguageModule)
	v.SetDefault("query.variablePlaceholderPrefix", d.Query.VariablePlaceholderPrefix)
	v.SetDefault("query.functionPlaceholderPrefix", d.Query.FunctionPlaceholderPrefix)

	v.SetDefault("pattern.allowContextOnly", d.Pattern.AllowContextOnly)

	v.SetDefault("parser.backend", d.Parser.Backend)
	v.SetDefault("parser.command", d.Parser.Command)
	v.SetDefault("parser.timeoutMs", d.Parser.TimeoutMs)
	v.SetDefault("parser.maxSourceBytes", d.Parser.MaxSourceBytes)
	v.SetDefault("parser.cacheDir", d.Parser.CacheDir)

	v.SetDefault("pipeline.jobs", d.Pipeline.Jobs)
	v.SetDefault("pipeline.limit", d.Pipeline.Limit)

	v.SetDefault("output.patternsFile", d.Output.PatternsFile)
	v.SetDefault("output.queriesDir", d.Output.QueriesDir)

	v.SetDefault("storage.enabled", d.Storage.Enabled)
	v.SetDefault("storage.path", d.Storage.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// Save writes the configuration to <root>/.mbsearch/config.toml.
func (c *Config) Save(root string) (string, error) {
	if _, err := paths.EnsureDataDir(root); err != nil {
		return "", err
	}
	path := paths.ConfigPath(root)
	return path, c.SaveFile(path)
}

// SaveFile writes the configuration as TOML to path.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var validBackends = map[string]bool{"treesitter": true, "external": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != SchemaVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if strings.TrimSpace(c.Query.Namespace) == "" {
		return &ConfigError{Field: "query.namespace", Message: "must not be empty"}
	}
	if strings.TrimSpace(c.Query.LanguageModule) == "" {
		return &ConfigError{Field: "query.languageModule", Message: "must not be empty"}
	}
	if !validBackends[c.Parser.Backend] {
		return &ConfigError{Field: "parser.backend", Message: fmt.Sprintf("unknown backend %q", c.Parser.Backend)}
	}
	if c.Parser.Backend == "external" && (len(c.Parser.Command) == 0 || strings.TrimSpace(c.Parser.Command[0]) == "") {
		return &ConfigError{Field: "parser.command", Message: "required for the external backend"}
	}
	if c.Parser.TimeoutMs <= 0 {
		return &ConfigError{Field: "parser.timeoutMs", Message: "must be positive"}
	}
	if c.Parser.MaxSourceBytes <= 0 {
		return &ConfigError{Field: "parser.maxSourceBytes", Message: "must be positive"}
	}
	if c.Pipeline.Jobs < 1 {
		return &ConfigError{Field: "pipeline.jobs", Message: "must be at least 1"}
	}
	if c.Pipeline.Limit < 0 {
		return &ConfigError{Field: "pipeline.limit", Message: "must not be negative"}
	}
	if c.Output.PatternsFile == "" {
		return &ConfigError{Field: "output.patternsFile", Message: "must not be empty"}
	}
	if c.Output.QueriesDir == "" {
		return &ConfigError{Field: "output.queriesDir", Message: "must not be empty"}
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return &ConfigError{Field: "storage.path", Message: "required when storage is enabled"}
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
