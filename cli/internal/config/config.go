// Package config provides commitkit configuration with a defined load order:
// CLI flags > environment variables > repo config > global config > defaults.
//
// Paths:
//   - Repo: .commitkit.toml (relative to repo root)
//   - Global: XDG config dir, e.g. ~/.config/commitkit/config.toml (see os.UserConfigDir)
//
// Environment variables (override config files when set):
//   - COMMITKIT_USE_EMOJI, COMMITKIT_SIGN_OFF, COMMITKIT_UPDATE_CHANGELOG,
//     COMMITKIT_REQUIRE_SCOPE (1/true/yes/on or 0/false/no/off),
//   - COMMITKIT_MIN_SUBJECT_LEN, COMMITKIT_MAX_SUBJECT_LEN (positive integers),
//   - COMMITKIT_TEMPLATES_DIR, COMMITKIT_CHANGELOG_PATH, COMMITKIT_PROJECT_NAME,
//     COMMITKIT_VERSION (paths and strings).
package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"commitkit/cli/internal/erruser"
	"commitkit/cli/internal/validate"
)

// Prefix is one selectable commit type with its menu description.
type Prefix struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// Config holds all commitkit configuration. Empty strings for TemplatesDir
// and ChangelogPath mean "use default locations inside the repo".
type Config struct {
	SignOffCommits  bool `toml:"sign_off_commits"`
	UseEmoji        bool `toml:"use_emoji"`
	UpdateChangelog bool `toml:"update_changelog"`
	RequireScope    bool `toml:"require_scope"`
	// MinSubjectLen and MaxSubjectLen bound the subject line, in bytes.
	MinSubjectLen int      `toml:"min_subject_len"`
	MaxSubjectLen int      `toml:"max_subject_len"`
	Prefixes      []Prefix `toml:"prefixes"`
	Scopes        []string `toml:"scopes"`
	TemplatesDir  string   `toml:"templates_dir"`
	ChangelogPath string   `toml:"changelog_path"`
	ProjectName   string   `toml:"project_name"`
	// Version, when set, names new changelog sections instead of "Unreleased".
	Version string `toml:"version"`
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value".
type Overrides struct {
	SignOffCommits  *bool
	UseEmoji        *bool
	UpdateChangelog *bool
	RequireScope    *bool
	MinSubjectLen   *int
	MaxSubjectLen   *int
	TemplatesDir    *string
	ChangelogPath   *string
	ProjectName     *string
	Version         *string
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/.commitkit.toml.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, the XDG path is used.
	GlobalConfigPath string
	// ExplicitPath, when set (--config flag), is the only file read; it must exist.
	ExplicitPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	_defaultMinSubjectLen = 10
	_defaultMaxSubjectLen = 72
)

// DefaultConfig returns the default configuration (no I/O): the eleven
// conventional commit types, a small starter scope list, and 10–72 byte
// subject bounds.
func DefaultConfig() Config {
	return Config{
		SignOffCommits:  false,
		UseEmoji:        false,
		UpdateChangelog: false,
		RequireScope:    false,
		MinSubjectLen:   _defaultMinSubjectLen,
		MaxSubjectLen:   _defaultMaxSubjectLen,
		Prefixes: []Prefix{
			{Title: "feat", Description: "A new feature"},
			{Title: "fix", Description: "A bug fix"},
			{Title: "docs", Description: "Documentation changes"},
			{Title: "style", Description: "Changes that do not affect code meaning"},
			{Title: "refactor", Description: "Code change that neither fixes a bug nor adds a feature"},
			{Title: "perf", Description: "Code change that improves performance"},
			{Title: "test", Description: "Adding missing tests or correcting existing tests"},
			{Title: "build", Description: "Changes that affect the build system or external dependencies"},
			{Title: "ci", Description: "Changes to CI configuration files and scripts"},
			{Title: "chore", Description: "Other changes that don't modify src or test files"},
			{Title: "revert", Description: "Reverts a previous commit"},
		},
		Scopes: []string{"core", "ui", "docs", "tests", "deps"},
	}
}

// AllowedTypes returns the prefix titles, in configured order.
func (c Config) AllowedTypes() []string {
	out := make([]string, 0, len(c.Prefixes))
	for _, p := range c.Prefixes {
		out = append(out, p.Title)
	}
	return out
}

// Rules converts the configuration into validation rules.
func (c Config) Rules() validate.Rules {
	return validate.Rules{
		MinSubjectLen: c.MinSubjectLen,
		MaxSubjectLen: c.MaxSubjectLen,
		AllowedTypes:  c.AllowedTypes(),
		RequireScope:  c.RequireScope,
	}
}

// EffectiveTemplatesDir returns the templates directory: TemplatesDir if
// set, otherwise repoRoot/.commitkit/templates.
func (c Config) EffectiveTemplatesDir(repoRoot string) string {
	if c.TemplatesDir != "" {
		return c.TemplatesDir
	}
	return filepath.Join(repoRoot, ".commitkit", "templates")
}

// EffectiveChangelogPath returns the changelog path: ChangelogPath if set,
// otherwise repoRoot/CHANGELOG.md.
func (c Config) EffectiveChangelogPath(repoRoot string) string {
	if c.ChangelogPath != "" {
		return c.ChangelogPath
	}
	return filepath.Join(repoRoot, "CHANGELOG.md")
}

// EffectiveProjectName returns ProjectName if set, otherwise the base name
// of the repository root.
func (c Config) EffectiveProjectName(repoRoot string) string {
	if c.ProjectName != "" {
		return c.ProjectName
	}
	return filepath.Base(repoRoot)
}

// Load loads configuration with precedence: defaults < global file < repo
// file < env < overrides. Missing config files are ignored; an ExplicitPath
// that does not exist is an error. Invalid TOML or invalid env values return
// an error.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	if opts.ExplicitPath != "" {
		if _, err := os.Stat(opts.ExplicitPath); err != nil {
			return nil, erruser.New("Config file not found: "+opts.ExplicitPath+".", err)
		}
		if err := mergeFile(&cfg, opts.ExplicitPath); err != nil {
			return nil, err
		}
	} else {
		globalPath := opts.GlobalConfigPath
		if globalPath == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, erruser.New("Could not determine config directory.", err)
			}
			globalPath = filepath.Join(dir, "commitkit", "config.toml")
		}
		if err := mergeFile(&cfg, globalPath); err != nil {
			return nil, err
		}
		if opts.RepoRoot != "" {
			if err := mergeFile(&cfg, filepath.Join(opts.RepoRoot, ".commitkit.toml")); err != nil {
				return nil, err
			}
		}
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}
	applyOverrides(&cfg, opts.Overrides)
	return &cfg, nil
}

// mergeFile reads path and merges into cfg. Only fields present in the file
// overwrite previous values. A missing file is skipped (no error).
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		SignOffCommits  *bool     `toml:"sign_off_commits"`
		UseEmoji        *bool     `toml:"use_emoji"`
		UpdateChangelog *bool     `toml:"update_changelog"`
		RequireScope    *bool     `toml:"require_scope"`
		MinSubjectLen   *int64    `toml:"min_subject_len"`
		MaxSubjectLen   *int64    `toml:"max_subject_len"`
		Prefixes        []Prefix  `toml:"prefixes"`
		Scopes          *[]string `toml:"scopes"`
		TemplatesDir    *string   `toml:"templates_dir"`
		ChangelogPath   *string   `toml:"changelog_path"`
		ProjectName     *string   `toml:"project_name"`
		Version         *string   `toml:"version"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.New("Invalid configuration in "+filepath.Base(path)+".", err)
	}
	if file.SignOffCommits != nil {
		cfg.SignOffCommits = *file.SignOffCommits
	}
	if file.UseEmoji != nil {
		cfg.UseEmoji = *file.UseEmoji
	}
	if file.UpdateChangelog != nil {
		cfg.UpdateChangelog = *file.UpdateChangelog
	}
	if file.RequireScope != nil {
		cfg.RequireScope = *file.RequireScope
	}
	if file.MinSubjectLen != nil && *file.MinSubjectLen > 0 {
		v, err := int64ToInt(*file.MinSubjectLen)
		if err != nil {
			return erruser.New("Configuration min_subject_len value out of range.", err)
		}
		cfg.MinSubjectLen = v
	}
	if file.MaxSubjectLen != nil && *file.MaxSubjectLen > 0 {
		v, err := int64ToInt(*file.MaxSubjectLen)
		if err != nil {
			return erruser.New("Configuration max_subject_len value out of range.", err)
		}
		cfg.MaxSubjectLen = v
	}
	if len(file.Prefixes) > 0 {
		cfg.Prefixes = file.Prefixes
	}
	if file.Scopes != nil {
		cfg.Scopes = *file.Scopes
	}
	if file.TemplatesDir != nil {
		cfg.TemplatesDir = *file.TemplatesDir
	}
	if file.ChangelogPath != nil {
		cfg.ChangelogPath = *file.ChangelogPath
	}
	if file.ProjectName != nil {
		cfg.ProjectName = *file.ProjectName
	}
	if file.Version != nil {
		cfg.Version = *file.Version
	}
	return nil
}

// env key names for config
const (
	envUseEmoji        = "COMMITKIT_USE_EMOJI"
	envSignOff         = "COMMITKIT_SIGN_OFF"
	envUpdateChangelog = "COMMITKIT_UPDATE_CHANGELOG"
	envRequireScope    = "COMMITKIT_REQUIRE_SCOPE"
	envMinSubjectLen   = "COMMITKIT_MIN_SUBJECT_LEN"
	envMaxSubjectLen   = "COMMITKIT_MAX_SUBJECT_LEN"
	envTemplatesDir    = "COMMITKIT_TEMPLATES_DIR"
	envChangelogPath   = "COMMITKIT_CHANGELOG_PATH"
	envProjectName     = "COMMITKIT_PROJECT_NAME"
	envVersion         = "COMMITKIT_VERSION"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		vals[strings.TrimSpace(e[:idx])] = strings.TrimSpace(e[idx+1:])
	}
	boolEnv := []struct {
		key string
		dst *bool
	}{
		{envUseEmoji, &cfg.UseEmoji},
		{envSignOff, &cfg.SignOffCommits},
		{envUpdateChangelog, &cfg.UpdateChangelog},
		{envRequireScope, &cfg.RequireScope},
	}
	for _, b := range boolEnv {
		if v, ok := vals[b.key]; ok && v != "" {
			parsed, err := parseBool(v)
			if err != nil {
				return erruser.New(b.key+" must be 1/true/yes/on or 0/false/no/off.", err)
			}
			*b.dst = parsed
		}
	}
	intEnv := []struct {
		key string
		dst *int
	}{
		{envMinSubjectLen, &cfg.MinSubjectLen},
		{envMaxSubjectLen, &cfg.MaxSubjectLen},
	}
	for _, n := range intEnv {
		if v, ok := vals[n.key]; ok && v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return erruser.New(n.key+" must be a valid number.", err)
			}
			if parsed <= 0 {
				return erruser.New(n.key+" must be positive.", nil)
			}
			*n.dst, err = int64ToInt(parsed)
			if err != nil {
				return erruser.New(n.key+" value out of range.", err)
			}
		}
	}
	if v, ok := vals[envTemplatesDir]; ok {
		cfg.TemplatesDir = v
	}
	if v, ok := vals[envChangelogPath]; ok {
		cfg.ChangelogPath = v
	}
	if v, ok := vals[envProjectName]; ok {
		cfg.ProjectName = v
	}
	if v, ok := vals[envVersion]; ok {
		cfg.Version = v
	}
	return nil
}

// parseBool parses common boolean env values: 1/true/yes/on = true,
// 0/false/no/off = false (case-insensitive).
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, erruser.New("invalid boolean "+strconv.Quote(s)+".", nil)
	}
}

// int64ToInt converts n to int. It returns an error if n is outside the
// range of int (e.g. overflow on 32-bit).
func int64ToInt(n int64) (int, error) {
	if n < int64(math.MinInt) || n > int64(math.MaxInt) {
		return 0, erruser.New("value out of range for int.", nil)
	}
	return int(n), nil
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	if o.SignOffCommits != nil {
		cfg.SignOffCommits = *o.SignOffCommits
	}
	if o.UseEmoji != nil {
		cfg.UseEmoji = *o.UseEmoji
	}
	if o.UpdateChangelog != nil {
		cfg.UpdateChangelog = *o.UpdateChangelog
	}
	if o.RequireScope != nil {
		cfg.RequireScope = *o.RequireScope
	}
	if o.MinSubjectLen != nil && *o.MinSubjectLen > 0 {
		cfg.MinSubjectLen = *o.MinSubjectLen
	}
	if o.MaxSubjectLen != nil && *o.MaxSubjectLen > 0 {
		cfg.MaxSubjectLen = *o.MaxSubjectLen
	}
	if o.TemplatesDir != nil {
		cfg.TemplatesDir = *o.TemplatesDir
	}
	if o.ChangelogPath != nil {
		cfg.ChangelogPath = *o.ChangelogPath
	}
	if o.ProjectName != nil {
		cfg.ProjectName = *o.ProjectName
	}
	if o.Version != nil {
		cfg.Version = *o.Version
	}
}
