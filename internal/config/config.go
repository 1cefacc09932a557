// Package config loads lazydiff settings from YAML, git config and CLI overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/theme"
)

// Patterns are the regular expressions used to parse git output.
// Each one must expose the named groups listed next to it.
type Patterns struct {
	Branch          string // name, revision
	CommitDelimiter string // literal token preceding each commit header
	CommitHeader    string // hash, message, author, date, files
	Date            string // day, month, year, hour, minute
	ChangedFile     string // status, path
}

// Default parser patterns.
const (
	DefaultBranchPattern       = `(?m)^[*+ ] \(?(?P<name>.+?)\s+(?:detached (?:at|from) \S+\)\s+)?(?P<revision>[0-9a-f]{4,})\b`
	DefaultCommitDelimiter     = "<Hash:"
	DefaultCommitHeaderPattern = `^<Hash:(?P<hash>[^>\n]+)> <Message:(?P<message>.*?)> <Author:(?P<author>.*?)> <Date:(?P<date>[^>]*)>\r?\n?(?P<files>(?s:.*))`
	DefaultDatePattern         = `(?P<day>\d+)/(?P<month>\d+)/(?P<year>\d+) (?P<hour>\d+):(?P<minute>\d+)`
	DefaultChangedFilePattern  = `(?m)^(?P<status>[A-Z])\d*[\t ]+(?:[^\t\n]+\t)?(?P<path>[^\t\n]+?)\r?$`
)

// DefaultExternalDiffCommand opens both revisions in VS Code.
// {0} and {1} are file paths, {2} and {3} their revisions.
const DefaultExternalDiffCommand = "code --diff {0} {1}"

// AppConfig defines the lazydiff configuration options.
type AppConfig struct {
	GitBinary           string
	RepoDir             string
	DiffDir             string // where historical file versions are extracted
	StateDir            string // where the branch cache lives
	EnableCaching       bool
	ReuseDiffTab        bool
	EnableExternalDiff  bool
	ExternalDiffCommand string
	StatusBlacklist     []models.FileStatus
	AssetExtensions     []string // empty means every file is handled by the built-in viewer
	AutoRefresh         bool
	DebugLog            string
	Theme               string
	ShowIcons           bool
	SortDescending      bool
	TreeView            bool
	Patterns            Patterns
}

// DefaultPatterns returns the production parser patterns.
func DefaultPatterns() Patterns {
	return Patterns{
		Branch:          DefaultBranchPattern,
		CommitDelimiter: DefaultCommitDelimiter,
		CommitHeader:    DefaultCommitHeaderPattern,
		Date:            DefaultDatePattern,
		ChangedFile:     DefaultChangedFilePattern,
	}
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		GitBinary:           "git",
		DiffDir:             filepath.Join(os.TempDir(), "lazydiff"),
		StateDir:            defaultStateDir(),
		EnableCaching:       true,
		ReuseDiffTab:        true,
		EnableExternalDiff:  false,
		ExternalDiffCommand: DefaultExternalDiffCommand,
		StatusBlacklist:     []models.FileStatus{models.StatusNone, models.StatusDeleted, models.StatusUnmerged},
		AssetExtensions:     []string{},
		AutoRefresh:         true,
		ShowIcons:           true,
		TreeView:            true,
		Patterns:            DefaultPatterns(),
	}
}

// IsAsset reports whether the built-in viewer handles path.
func (c *AppConfig) IsAsset(path string) bool {
	if len(c.AssetExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.AssetExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IsBlacklisted reports whether a commit with this status can't take part in a diff.
func (c *AppConfig) IsBlacklisted(status models.FileStatus) bool {
	for _, s := range c.StatusBlacklist {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidForDiff reports whether any diff tool can show path.
func (c *AppConfig) IsValidForDiff(path string) bool {
	return c.IsAsset(path) || c.EnableExternalDiff
}

func defaultStateDir() string {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "lazydiff")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lazydiff-state")
	}
	return filepath.Join(home, ".local", "state", "lazydiff")
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case int, bool, float64:
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}

// normalizeList accepts a YAML list or a comma separated string.
func normalizeList(value any) ([]string, bool) {
	var raw []string
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			raw = append(raw, fmt.Sprintf("%v", item))
		}
	default:
		return nil, false
	}

	out := []string{}
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, true
}

func parseStatusList(value any) ([]models.FileStatus, bool) {
	names, ok := normalizeList(value)
	if !ok {
		return nil, false
	}
	statuses := []models.FileStatus{}
	for _, name := range names {
		if status, ok := models.ParseFileStatusName(name); ok {
			statuses = append(statuses, status)
		}
	}
	return statuses, true
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// normalizeKey maps git-config friendly spellings ("reuse-diff-tab") to config keys.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

// flatten turns nested YAML maps into dotted keys ("patterns.branch").
func flatten(prefix string, data map[string]any, out map[string]any) {
	for key, value := range data {
		full := normalizeKey(key)
		if prefix != "" {
			full = prefix + "." + full
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(full, nested, out)
			continue
		}
		out[full] = value
	}
}

// applyConfig overlays data on cfg. Unknown keys and malformed values are ignored.
func applyConfig(cfg *AppConfig, data map[string]any) {
	for key, value := range data {
		switch normalizeKey(key) {
		case "git_binary":
			if s, ok := coerceString(value); ok {
				cfg.GitBinary = s
			}
		case "repo_dir":
			if s, ok := coerceString(value); ok {
				cfg.RepoDir = s
			}
		case "diff_dir":
			if s, ok := coerceString(value); ok {
				cfg.DiffDir = s
			}
		case "state_dir":
			if s, ok := coerceString(value); ok {
				cfg.StateDir = s
			}
		case "debug_log":
			if s, ok := coerceString(value); ok {
				cfg.DebugLog = s
			}
		case "external_diff_command":
			if s, ok := coerceString(value); ok {
				cfg.ExternalDiffCommand = s
			}
		case "theme":
			if s, ok := coerceString(value); ok {
				cfg.Theme = theme.Normalize(strings.ToLower(s))
			}
		case "enable_caching":
			cfg.EnableCaching = coerceBool(value, cfg.EnableCaching)
		case "reuse_diff_tab":
			cfg.ReuseDiffTab = coerceBool(value, cfg.ReuseDiffTab)
		case "enable_external_diff":
			cfg.EnableExternalDiff = coerceBool(value, cfg.EnableExternalDiff)
		case "auto_refresh":
			cfg.AutoRefresh = coerceBool(value, cfg.AutoRefresh)
		case "show_icons":
			cfg.ShowIcons = coerceBool(value, cfg.ShowIcons)
		case "sort_descending":
			cfg.SortDescending = coerceBool(value, cfg.SortDescending)
		case "tree_view":
			cfg.TreeView = coerceBool(value, cfg.TreeView)
		case "status_blacklist":
			if statuses, ok := parseStatusList(value); ok {
				cfg.StatusBlacklist = statuses
			}
		case "asset_extensions":
			if exts, ok := normalizeList(value); ok {
				cfg.AssetExtensions = normalizeExtensions(exts)
			}
		case "patterns.branch":
			if s, ok := value.(string); ok && s != "" {
				cfg.Patterns.Branch = s
			}
		case "patterns.commit_delimiter":
			if s, ok := value.(string); ok && s != "" {
				cfg.Patterns.CommitDelimiter = s
			}
		case "patterns.commit_header":
			if s, ok := value.(string); ok && s != "" {
				cfg.Patterns.CommitHeader = s
			}
		case "patterns.date":
			if s, ok := value.(string); ok && s != "" {
				cfg.Patterns.Date = s
			}
		case "patterns.changed_file":
			if s, ok := value.(string); ok && s != "" {
				cfg.Patterns.ChangedFile = s
			}
		}
	}
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()
	flat := map[string]any{}
	flatten("", data, flat)
	applyConfig(cfg, flat)
	return cfg
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func readYAML(configPath string) (map[string]any, error) {
	configBase := filepath.Clean(filepath.Join(getConfigDir(), "lazydiff"))

	var paths []string
	if configPath != "" {
		expanded, err := ExpandPath(configPath)
		if err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
		if !isPathWithin(configBase, absPath) {
			return nil, fmt.Errorf("config path must reside inside %s", configBase)
		}
		paths = []string{absPath}
	} else {
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	for _, path := range paths {
		// #nosec G304 -- path is constrained to the config directory
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return yamlData, nil
	}
	return map[string]any{}, nil
}

// LoadConfig reads the YAML file, then the ld.* keys of the global and local
// git config, then the CLI overrides, each layer overriding the previous one.
func LoadConfig(configPath string, overrides []string) (*AppConfig, error) {
	yamlData, err := readYAML(configPath)
	if err != nil {
		return DefaultConfig(), err
	}

	cliData, err := parseCLIConfigOverrides(overrides)
	if err != nil {
		return DefaultConfig(), err
	}

	cfg := parseConfig(yamlData)

	if globalData, err := loadGitConfig(true, ""); err == nil {
		applyConfig(cfg, globalData)
	}
	repoDir := cfg.RepoDir
	if s, ok := cliData["repo_dir"].(string); ok {
		repoDir = s
	}
	if repoPath := determineRepoPath(repoDir); repoPath != "" {
		if localData, err := loadGitConfig(false, repoPath); err == nil {
			applyConfig(cfg, localData)
		}
	}
	applyConfig(cfg, cliData)

	if cfg.Theme == "" {
		cfg.Theme = theme.Detect()
	}
	return cfg, nil
}

// Describe returns the effective settings as sorted "key = value" lines.
func (c *AppConfig) Describe() []string {
	blacklist := make([]string, 0, len(c.StatusBlacklist))
	for _, s := range c.StatusBlacklist {
		blacklist = append(blacklist, s.String())
	}
	values := map[string]string{
		"git_binary":            c.GitBinary,
		"repo_dir":              c.RepoDir,
		"diff_dir":              c.DiffDir,
		"state_dir":             c.StateDir,
		"enable_caching":        strconv.FormatBool(c.EnableCaching),
		"reuse_diff_tab":        strconv.FormatBool(c.ReuseDiffTab),
		"enable_external_diff":  strconv.FormatBool(c.EnableExternalDiff),
		"external_diff_command": c.ExternalDiffCommand,
		"status_blacklist":      strings.Join(blacklist, ","),
		"asset_extensions":      strings.Join(c.AssetExtensions, ","),
		"auto_refresh":          strconv.FormatBool(c.AutoRefresh),
		"debug_log":             c.DebugLog,
		"theme":                 c.Theme,
		"show_icons":            strconv.FormatBool(c.ShowIcons),
		"sort_descending":       strconv.FormatBool(c.SortDescending),
		"tree_view":             strconv.FormatBool(c.TreeView),
	}
	lines := make([]string, 0, len(values))
	for k, v := range values {
		lines = append(lines, k+" = "+v)
	}
	sort.Strings(lines)
	return lines
}

// ExpandPath resolves a leading ~ and environment variables.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}

func isPathWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}
