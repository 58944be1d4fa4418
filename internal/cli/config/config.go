// --- START OF FINAL REVISED FILE internal/cli/config/config.go ---
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/cache"
	"github.com/stackvity/stack-formatter/pkg/formatter/encoding"
	libgit "github.com/stackvity/stack-formatter/pkg/formatter/git"
)

const (
	EnvPrefix         = "STACKFORMATTER"
	DefaultConfigName = "stack-formatter"
)

// EngineConfig selects and parameterizes the formatting engine.
type EngineConfig struct {
	Name     formatter.EngineName     `mapstructure:"name"`
	Command  []string                 `mapstructure:"command"`
	Protocol formatter.EngineProtocol `mapstructure:"protocol"`
	Timeout  time.Duration            `mapstructure:"timeout"`
	Config   map[string]any           `mapstructure:"config"`
}

// WatchConfig holds format-on-save settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// GitConfig holds the changed-file filter settings.
type GitConfig struct {
	DiffOnly bool   `mapstructure:"diff-only"`
	Since    string `mapstructure:"since"`
}

// Config is the fully merged CLI configuration.
type Config struct {
	Format   formatter.FormatOptionsConfig `mapstructure:",squash"`
	Pipeline formatter.Options             `mapstructure:",squash"`

	SyntaxList       []string               `mapstructure:"syntax-list"`
	SearchDepth      int                    `mapstructure:"file-menu-search-depth"`
	FormatOnSave     bool                   `mapstructure:"format-on-save"`
	Debug            bool                   `mapstructure:"debug"`
	LogFile          string                 `mapstructure:"logfile"`
	Encoding         string                 `mapstructure:"encoding"`
	Engine           EngineConfig           `mapstructure:"engine"`
	CacheEnabled     bool                   `mapstructure:"cache"`
	CacheFormat      string                 `mapstructure:"cache-format"`
	OutputFormat     formatter.OutputFormat `mapstructure:"output-format"`
	TemplatePath     string                 `mapstructure:"template"`
	TuiEnabled       bool                   `mapstructure:"tui"`
	Watch            WatchConfig            `mapstructure:"watch"`
	MetricsAddr      string                 `mapstructure:"metrics-addr"`
	Git              GitConfig              `mapstructure:"git"`
	LanguageMappings map[string]string      `mapstructure:"language-mappings"`

	// --- Derived ---
	ConfigFilePath  string                   `mapstructure:"-"`
	ProfileName     string                   `mapstructure:"-"`
	AppVersion      string                   `mapstructure:"-"`
	Verbose         bool                     `mapstructure:"-"`
	IgnoreCacheRead bool                     `mapstructure:"-"`
	ClearCache      bool                     `mapstructure:"-"`
	GitDiffMode     formatter.GitDiffMode    `mapstructure:"-"`
	FormatOptions   *formatter.FormatOptions `mapstructure:"-"`
	Logger          slog.Handler             `mapstructure:"-"`
	// LogCloser is non-nil when logfile is set; the caller closes it.
	LogCloser io.Closer `mapstructure:"-"`
}

// flagKeys maps flag names to config keys. Flags missing from the set are skipped.
var flagKeys = map[string]string{
	"ignore":              "ignore",
	"select":              "select",
	"max-line-length":     "max-line-length",
	"indent-size":         "indent-size",
	"aggressive":          "aggressive",
	"hang-closing":        "hang-closing",
	"exclude":             "exclude",
	"global-config":       "global-config",
	"ignore-local-config": "ignore-local-config",
	"max-threads":         "max-threads",
	"preview":             "preview",
	"diff-min-lines":      "diff-min-lines",
	"show-output-panel":   "show-output-panel",
	"avoid-new-line":      "avoid-new-line-in-select-mode",
	"syntax-list":         "syntax-list",
	"encoding":            "encoding",
	"debug":               "debug",
	"logfile":             "logfile",
	"engine":              "engine.name",
	"engine-command":      "engine.command",
	"engine-protocol":     "engine.protocol",
	"engine-timeout":      "engine.timeout",
	"cache-format":        "cache-format",
	"output-format":       "output-format",
	"template":            "template",
	"watch-debounce":      "watch.debounce",
	"metrics-addr":        "metrics-addr",
	"git-diff-only":       "git.diff-only",
	"git-since":           "git.since",
}

// LoadAndValidate merges defaults, config file, profile, environment and flags
// (in increasing priority), validates the result and sets up the logger.
func LoadAndValidate(cfgFile, profileName, appVersion string, verbose bool, flags *pflag.FlagSet) (*Config, *slog.Logger, error) {
	cfg := &Config{AppVersion: appVersion, ProfileName: profileName, Verbose: verbose}
	v := viper.New()

	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	// --- Load Config File ---
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
			v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
		} else {
			tempLogger.Debug("Failed to get user home directory", slog.Any("error", err))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", used), slog.Any("error", err))
			return cfg, tempLogger, fmt.Errorf("error reading config file '%s': %w", used, err)
		}
	} else {
		cfg.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", cfg.ConfigFilePath))
	}

	// --- Apply Profile ---
	if profileName != "" {
		profileKey := "profiles." + profileName
		profile := v.Sub(profileKey)
		if profile == nil {
			path := v.ConfigFileUsed()
			if path == "" {
				path = "(no config file found)"
			}
			err := fmt.Errorf("profile '%s' not found in config file '%s'", profileName, path)
			tempLogger.Error(err.Error())
			return cfg, tempLogger, err
		}
		if err := v.MergeConfigMap(profile.AllSettings()); err != nil {
			tempLogger.Error("Error merging profile", slog.String("profile", profileName), slog.Any("error", err))
			return cfg, tempLogger, fmt.Errorf("error merging profile '%s': %w", profileName, err)
		}
		tempLogger.Debug("Applied configuration profile", slog.String("profile", profileName))
	}

	// --- Bind Environment Variables ---
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Bind Flags ---
	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				tempLogger.Error("Error binding flag", slog.String("flag", name), slog.Any("error", err))
				return cfg, tempLogger, fmt.Errorf("error binding flag '--%s': %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.Any("error", err))
		return cfg, tempLogger, fmt.Errorf("%w: error unmarshalling configuration: %w", formatter.ErrConfigValidation, err)
	}

	// --- Explicitly Handle Flag Overrides for Booleans ---
	if flags != nil {
		if flags.Changed("verbose") {
			cfg.Verbose, _ = flags.GetBool("verbose")
		}
		if flags.Changed("no-tui") {
			if noTui, _ := flags.GetBool("no-tui"); noTui {
				cfg.TuiEnabled = false
			}
		}
		if flags.Changed("no-cache") {
			cfg.IgnoreCacheRead, _ = flags.GetBool("no-cache")
		}
		if flags.Changed("clear-cache") {
			cfg.ClearCache, _ = flags.GetBool("clear-cache")
		}
		if flags.Changed("format-on-save") {
			cfg.FormatOnSave, _ = flags.GetBool("format-on-save")
		}
	}

	// --- Setup Final Logger ---
	logLevel := slog.LevelInfo
	if cfg.Verbose || cfg.Debug {
		logLevel = slog.LevelDebug
	}
	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			err = fmt.Errorf("%w: cannot open logfile '%s': %w", formatter.ErrConfigValidation, cfg.LogFile, err)
			tempLogger.Error(err.Error(), slog.String("key", "logfile"))
			return cfg, tempLogger, err
		}
		logOut = f
		cfg.LogCloser = f
	}
	cfg.Logger = slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel})
	cfg.Pipeline.Logger = cfg.Logger
	logger := slog.New(cfg.Logger)

	if err := validateAndDerive(cfg, logger, flags); err != nil {
		cfg.Close()
		return cfg, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", cfg.ConfigFilePath),
		slog.String("profile", cfg.ProfileName),
		slog.Bool("verbose", cfg.Verbose),
		slog.String("logLevel", logLevel.String()),
	)
	return cfg, logger, nil
}

// Close releases the logfile, if any.
func (c *Config) Close() {
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
		c.LogCloser = nil
	}
}

// setDefaults establishes the default values for configuration options in Viper.
func setDefaults(v *viper.Viper) {
	// --- Format Options ---
	v.SetDefault("ignore", []string{})
	v.SetDefault("select", []string{})
	v.SetDefault("max-line-length", formatter.DefaultMaxLineLength)
	v.SetDefault("indent-size", formatter.DefaultIndentSize)
	v.SetDefault("aggressive", formatter.DefaultAggressive)
	v.SetDefault("hang-closing", false)
	v.SetDefault("exclude", []string{})
	v.SetDefault("global-config", "")
	v.SetDefault("ignore-local-config", false)
	v.SetDefault("preview", false)

	// --- Pipeline ---
	v.SetDefault("max-threads", formatter.DefaultMaxWorkers)
	v.SetDefault("diff-min-lines", formatter.DefaultMinDiffLines)
	v.SetDefault("poll-interval", formatter.DefaultPollInterval)
	v.SetDefault("status-clear-delay", formatter.DefaultStatusClearDelay)
	v.SetDefault("show-output-panel", formatter.DefaultShowOutputPanel)
	v.SetDefault("avoid-new-line-in-select-mode", false)

	// --- Files & Languages ---
	v.SetDefault("syntax-list", formatter.DefaultSyntaxList)
	v.SetDefault("file-menu-search-depth", formatter.DefaultSearchDepth)
	v.SetDefault("encoding", formatter.DefaultEncoding)
	v.SetDefault("language-mappings", map[string]string{})

	// --- Engine ---
	v.SetDefault("engine.name", string(formatter.DefaultEngineName))
	v.SetDefault("engine.command", []string{})
	v.SetDefault("engine.protocol", string(formatter.DefaultEngineProtocol))
	v.SetDefault("engine.timeout", 30*time.Second)

	// --- Output & Caching ---
	v.SetDefault("cache", formatter.DefaultCacheEnabled)
	v.SetDefault("cache-format", cache.CacheFormatGob)
	v.SetDefault("output-format", string(formatter.DefaultOutputFormat))
	v.SetDefault("template", "")
	v.SetDefault("tui", formatter.DefaultTuiEnabled)
	v.SetDefault("debug", formatter.DefaultVerbose)
	v.SetDefault("logfile", "")

	// --- Workflow Features ---
	v.SetDefault("format-on-save", false)
	v.SetDefault("watch.debounce", formatter.DefaultWatchDebounceString)
	v.SetDefault("metrics-addr", "")
	v.SetDefault("git.diff-only", false)
	v.SetDefault("git.since", "")
}

// isValidEnumValue checks if a given string value is present in a slice of allowed enum values.
func isValidEnumValue[T ~string](value T, allowedValues []T) bool {
	return slices.Contains(allowedValues, value)
}

// configError wraps msg with ErrConfigValidation and logs it with the offending key.
func configError(logger *slog.Logger, key string, value any, format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{formatter.ErrConfigValidation}, args...)...)
	logger.Error(err.Error(), slog.String("key", key), slog.Any("value", value))
	return err
}

// validateAndDerive performs semantic validation on cfg and computes derived fields.
// It wraps errors with formatter.ErrConfigValidation.
func validateAndDerive(cfg *Config, logger *slog.Logger, flags *pflag.FlagSet) error {
	// === Enum Validations ===
	allowedEngines := []formatter.EngineName{formatter.EngineBuiltin, formatter.EngineExec}
	if !isValidEnumValue(cfg.Engine.Name, allowedEngines) {
		return configError(logger, "engine.name", cfg.Engine.Name, "invalid value '%s' for key 'engine.name'. Allowed: %v", cfg.Engine.Name, allowedEngines)
	}
	allowedProtocols := []formatter.EngineProtocol{formatter.EngineProtocolArgs, formatter.EngineProtocolJSON}
	if !isValidEnumValue(cfg.Engine.Protocol, allowedProtocols) {
		return configError(logger, "engine.protocol", cfg.Engine.Protocol, "invalid value '%s' for key 'engine.protocol'. Allowed: %v", cfg.Engine.Protocol, allowedProtocols)
	}
	allowedOutput := []formatter.OutputFormat{formatter.OutputFormatText, formatter.OutputFormatJSON, formatter.OutputFormatYAML, formatter.OutputFormatTOML}
	if !isValidEnumValue(cfg.OutputFormat, allowedOutput) {
		return configError(logger, "output-format", cfg.OutputFormat, "invalid value '%s' for key 'output-format'. Allowed: %v", cfg.OutputFormat, allowedOutput)
	}
	if !cache.ValidFormat(cfg.CacheFormat) {
		return configError(logger, "cache-format", cfg.CacheFormat, "invalid value '%s' for key 'cache-format'", cfg.CacheFormat)
	}
	if err := encoding.Validate(cfg.Encoding); err != nil {
		return configError(logger, "encoding", cfg.Encoding, "invalid value '%s' for key 'encoding': %w", cfg.Encoding, err)
	}

	// === Engine ===
	if cfg.Engine.Name == formatter.EngineExec && len(cfg.Engine.Command) == 0 {
		return configError(logger, "engine.command", cfg.Engine.Command, "engine 'exec' requires a non-empty 'engine.command'")
	}
	if cfg.Engine.Timeout < 0 {
		return configError(logger, "engine.timeout", cfg.Engine.Timeout, "invalid negative duration '%s' for key 'engine.timeout'", cfg.Engine.Timeout)
	}

	// === Numeric Range Validations ===
	if cfg.Pipeline.MaxWorkers < 1 {
		return configError(logger, "max-threads", cfg.Pipeline.MaxWorkers, "invalid value '%d' for key 'max-threads'. Must be >= 1", cfg.Pipeline.MaxWorkers)
	}
	if cfg.Pipeline.MinDiffLines < 0 {
		return configError(logger, "diff-min-lines", cfg.Pipeline.MinDiffLines, "invalid value '%d' for key 'diff-min-lines'. Must be >= 0", cfg.Pipeline.MinDiffLines)
	}
	if cfg.Pipeline.PollInterval <= 0 {
		return configError(logger, "poll-interval", cfg.Pipeline.PollInterval, "invalid value '%s' for key 'poll-interval'. Must be > 0", cfg.Pipeline.PollInterval)
	}
	if cfg.SearchDepth < 1 {
		return configError(logger, "file-menu-search-depth", cfg.SearchDepth, "invalid value '%d' for key 'file-menu-search-depth'. Must be >= 1", cfg.SearchDepth)
	}
	if cfg.Watch.Debounce < 0 {
		return configError(logger, "watch.debounce", cfg.Watch.Debounce, "invalid negative watch debounce duration '%s' for key 'watch.debounce'", cfg.Watch.Debounce)
	}

	// === Template ===
	if cfg.TemplatePath != "" {
		abs, err := filepath.Abs(cfg.TemplatePath)
		if err != nil {
			return configError(logger, "template", cfg.TemplatePath, "cannot resolve template path '%s': %w", cfg.TemplatePath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return configError(logger, "template", abs, "template file '%s' cannot be accessed: %w", abs, err)
		}
		if info.IsDir() {
			return configError(logger, "template", abs, "template path '%s' is a directory, not a file", abs)
		}
		cfg.TemplatePath = abs
	}

	// === Format Options ===
	opts, err := formatter.NewFormatOptions(cfg.Format)
	if err != nil {
		logger.Error("Invalid format options", slog.Any("error", err))
		return err
	}
	cfg.FormatOptions = opts

	// === Git Diff Mode ===
	sinceSet := cfg.Git.Since != ""
	if flags != nil && flags.Changed("git-since") && !sinceSet {
		return configError(logger, "git.since", cfg.Git.Since, "flag --git-since requires a non-empty reference (commit/tag/branch)")
	}
	switch {
	case cfg.Git.DiffOnly && sinceSet:
		return configError(logger, "git", cfg.Git, "cannot use git diff-only and git since simultaneously")
	case cfg.Git.DiffOnly:
		cfg.GitDiffMode = formatter.GitDiffModeDiffOnly
	case sinceSet:
		cfg.GitDiffMode = formatter.GitDiffModeSince
	default:
		cfg.GitDiffMode = formatter.GitDiffModeNone
	}

	// Verbose output and the TUI share the terminal.
	if cfg.Verbose && cfg.TuiEnabled {
		logger.Debug("Verbose mode enabled, TUI disabled")
		cfg.TuiEnabled = false
	}

	logger.Debug("Final derived settings validated",
		slog.Int("maxThreads", cfg.Pipeline.MaxWorkers),
		slog.String("engine", string(cfg.Engine.Name)),
		slog.String("fingerprint", cfg.FormatOptions.Fingerprint()),
		slog.Duration("watchDebounce", cfg.Watch.Debounce),
		slog.String("gitDiffMode", string(cfg.GitDiffMode)),
		slog.Bool("tuiEnabledEffective", cfg.TuiEnabled),
	)
	return nil
}

// GitChangedFiles resolves the changed-file set for the configured diff mode.
// It returns nil when no git filter is active.
func GitChangedFiles(cfg *Config, client libgit.GitClient, repoPath string, logger *slog.Logger) (map[string]struct{}, error) {
	var mode string
	switch cfg.GitDiffMode {
	case formatter.GitDiffModeDiffOnly:
		mode = libgit.ModeDiffOnly
	case formatter.GitDiffModeSince:
		mode = libgit.ModeSince
	default:
		return nil, nil
	}
	if client == nil {
		return nil, fmt.Errorf("%w: git diff mode '%s' requested but no git client provided", formatter.ErrConfigValidation, cfg.GitDiffMode)
	}
	files, err := client.GetChangedFiles(repoPath, mode, cfg.Git.Since)
	if err != nil {
		logger.Error("Git operation failed", slog.Any("error", err))
		return nil, err
	}
	changed := make(map[string]struct{}, len(files))
	for _, f := range files {
		changed[filepath.Clean(f)] = struct{}{}
	}
	if cfg.GitDiffMode == formatter.GitDiffModeSince && len(changed) == 0 {
		logger.Warn("No file changes detected since the given reference", slog.String("ref", cfg.Git.Since))
	}
	logger.Debug("Fetched Git changed files", slog.Int("count", len(changed)))
	return changed, nil
}

// --- END OF FINAL REVISED FILE internal/cli/config/config.go ---
