// --- START OF FINAL REVISED FILE pkg/formatter/format_options.go ---
package formatter

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ruleIDPattern matches pep8 style rule ids and rule prefixes ("E", "E5", "W291").
var ruleIDPattern = regexp.MustCompile(`^[A-Z][0-9]*$`)

// FormatOptionsConfig is the mutable input used to build a FormatOptions value.
// It carries mapstructure tags so the CLI can decode it straight from viper.
type FormatOptionsConfig struct {
	Ignore            []string `mapstructure:"ignore"`
	Select            []string `mapstructure:"select"`
	MaxLineLength     int      `mapstructure:"max-line-length"`
	IndentSize        int      `mapstructure:"indent-size"`
	Aggressive        int      `mapstructure:"aggressive"`
	HangClosing       bool     `mapstructure:"hang-closing"`
	Exclude           []string `mapstructure:"exclude"`
	GlobalConfig      string   `mapstructure:"global-config"`
	IgnoreLocalConfig bool     `mapstructure:"ignore-local-config"`
	Preview           bool     `mapstructure:"preview"`
}

// FormatOptions is the immutable option set shared by every job of one invocation.
// Build it with NewFormatOptions; the zero value is not valid.
type FormatOptions struct {
	ignore            []string
	selected          []string
	maxLineLength     int
	indentSize        int
	aggressive        int
	hangClosing       bool
	exclude           []string
	globalConfig      string
	ignoreLocalConfig bool
	preview           bool
	fingerprint       string
}

// NewFormatOptions validates cfg and returns the resolved option set.
// Rule lists are whitespace-trimmed and empty entries are dropped.
func NewFormatOptions(cfg FormatOptionsConfig) (*FormatOptions, error) {
	ignore, err := normalizeRules("ignore", cfg.Ignore)
	if err != nil {
		return nil, err
	}
	selected, err := normalizeRules("select", cfg.Select)
	if err != nil {
		return nil, err
	}
	if cfg.MaxLineLength <= 0 {
		return nil, fmt.Errorf("%w: max-line-length must be > 0, got %d", ErrConfigValidation, cfg.MaxLineLength)
	}
	if cfg.IndentSize <= 0 {
		return nil, fmt.Errorf("%w: indent-size must be > 0, got %d", ErrConfigValidation, cfg.IndentSize)
	}
	if cfg.Aggressive < 0 {
		return nil, fmt.Errorf("%w: aggressive must be >= 0, got %d", ErrConfigValidation, cfg.Aggressive)
	}

	exclude := make([]string, 0, len(cfg.Exclude))
	for _, pattern := range cfg.Exclude {
		if p := strings.TrimSpace(pattern); p != "" {
			exclude = append(exclude, p)
		}
	}

	opts := &FormatOptions{
		ignore:            ignore,
		selected:          selected,
		maxLineLength:     cfg.MaxLineLength,
		indentSize:        cfg.IndentSize,
		aggressive:        cfg.Aggressive,
		hangClosing:       cfg.HangClosing,
		exclude:           exclude,
		globalConfig:      strings.TrimSpace(cfg.GlobalConfig),
		ignoreLocalConfig: cfg.IgnoreLocalConfig,
		preview:           cfg.Preview,
	}
	opts.fingerprint = opts.computeFingerprint()
	return opts, nil
}

// DefaultFormatOptionsConfig returns the pep8 defaults.
func DefaultFormatOptionsConfig() FormatOptionsConfig {
	return FormatOptionsConfig{
		MaxLineLength: DefaultMaxLineLength,
		IndentSize:    DefaultIndentSize,
		Aggressive:    DefaultAggressive,
	}
}

func normalizeRules(key string, rules []string) ([]string, error) {
	out := make([]string, 0, len(rules))
	for _, raw := range rules {
		// "E501, W291" arrives as one entry from env vars and single flags
		for _, part := range strings.Split(raw, ",") {
			rule := strings.TrimSpace(part)
			if rule == "" {
				continue
			}
			if !ruleIDPattern.MatchString(rule) {
				return nil, fmt.Errorf("%w: invalid rule id %q in %s", ErrConfigValidation, rule, key)
			}
			out = append(out, rule)
		}
	}
	return out, nil
}

// Ignore returns the rule ids (or prefixes) to skip.
func (o *FormatOptions) Ignore() []string { return slices.Clone(o.ignore) }

// Select returns the rule ids (or prefixes) to restrict fixing to. Empty means all.
func (o *FormatOptions) Select() []string { return slices.Clone(o.selected) }

// MaxLineLength returns the E501 limit.
func (o *FormatOptions) MaxLineLength() int { return o.maxLineLength }

// IndentSize returns the number of spaces per indentation level.
func (o *FormatOptions) IndentSize() int { return o.indentSize }

// Aggressive returns the aggressiveness level.
func (o *FormatOptions) Aggressive() int { return o.aggressive }

// HangClosing reports whether closing brackets hang.
func (o *FormatOptions) HangClosing() bool { return o.hangClosing }

// Exclude returns the file exclusion patterns used during discovery.
func (o *FormatOptions) Exclude() []string { return slices.Clone(o.exclude) }

// GlobalConfig returns the engine's global config path, if any.
func (o *FormatOptions) GlobalConfig() string { return o.globalConfig }

// IgnoreLocalConfig reports whether the engine should ignore project config files.
func (o *FormatOptions) IgnoreLocalConfig() bool { return o.ignoreLocalConfig }

// Preview reports whether jobs produce diffs instead of applying changes.
func (o *FormatOptions) Preview() bool { return o.preview }

// Fingerprint returns a stable hash of every option that affects engine output.
// Preview and exclude do not change formatted text and are left out.
func (o *FormatOptions) Fingerprint() string { return o.fingerprint }

// RuleEnabled reports whether code passes the ignore/select filters.
// Matching is by prefix, so "E5" covers "E501".
func (o *FormatOptions) RuleEnabled(code string) bool {
	for _, ignored := range o.ignore {
		if strings.HasPrefix(code, ignored) {
			return false
		}
	}
	if len(o.selected) == 0 {
		return true
	}
	for _, sel := range o.selected {
		if strings.HasPrefix(code, sel) {
			return true
		}
	}
	return false
}

func (o *FormatOptions) computeFingerprint() string {
	var b strings.Builder
	b.WriteString("ignore=")
	b.WriteString(strings.Join(o.ignore, ","))
	b.WriteString(";select=")
	b.WriteString(strings.Join(o.selected, ","))
	b.WriteString(";max=")
	b.WriteString(strconv.Itoa(o.maxLineLength))
	b.WriteString(";indent=")
	b.WriteString(strconv.Itoa(o.indentSize))
	b.WriteString(";aggressive=")
	b.WriteString(strconv.Itoa(o.aggressive))
	b.WriteString(";hang=")
	b.WriteString(strconv.FormatBool(o.hangClosing))
	b.WriteString(";global=")
	b.WriteString(o.globalConfig)
	b.WriteString(";nolocal=")
	b.WriteString(strconv.FormatBool(o.ignoreLocalConfig))
	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

// --- END OF FINAL REVISED FILE pkg/formatter/format_options.go ---
