// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/stockdesk-tui/internal/templates"
	"github.com/jeranaias/stockdesk-tui/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the main stockdesk configuration.
type Config struct {
	// Version is the config schema version.
	Version string `toml:"version" json:"version"`

	Server    ServerConfig     `toml:"server" json:"server"`
	Reconnect ReconnectConfig  `toml:"reconnect" json:"reconnect"`
	Report    ReportConfig     `toml:"report" json:"report"`
	UI        UIConfig         `toml:"ui" json:"ui"`
	Logging   LoggingConfig    `toml:"logging" json:"logging"`
	Templates []TemplateConfig `toml:"templates" json:"templates"`
}

// ServerConfig holds the backend endpoint.
type ServerConfig struct {
	// URL is the WebSocket endpoint of the orchestration server.
	// Default: "ws://localhost:8000/ws/multi"
	URL string `toml:"url" json:"url"`

	// HandshakeTimeoutSecs bounds the WebSocket opening handshake.
	// Default: 10
	HandshakeTimeoutSecs int `toml:"handshake_timeout_secs" json:"handshake_timeout_secs"`
}

// HandshakeTimeout returns the handshake timeout as a duration.
func (s ServerConfig) HandshakeTimeout() time.Duration {
	return time.Duration(s.HandshakeTimeoutSecs) * time.Second
}

// ReconnectConfig controls automatic reconnects after an unclean close.
type ReconnectConfig struct {
	// MaxAttempts caps consecutive automatic reconnects. 0 disables them.
	// Default: 3
	MaxAttempts int `toml:"max_attempts" json:"max_attempts"`

	// DelayMs is the fixed wait before each reconnect.
	// Default: 3000
	DelayMs int `toml:"delay_ms" json:"delay_ms"`
}

// Delay returns the reconnect delay as a duration.
func (r ReconnectConfig) Delay() time.Duration {
	return time.Duration(r.DelayMs) * time.Millisecond
}

// ReportConfig controls report capture and export.
type ReportConfig struct {
	// Marker tags the message carrying the final report.
	// Default: "【最终报告】"
	Marker string `toml:"marker" json:"marker"`

	// OutputDir receives downloaded reports and log exports.
	// Default: "." (working directory)
	OutputDir string `toml:"output_dir" json:"output_dir"`

	// HTML also writes an HTML rendering of the report.
	HTML bool `toml:"html" json:"html"`
}

// UIConfig holds TUI preferences.
type UIConfig struct {
	// AutoScroll follows new console entries. Default: true
	AutoScroll bool `toml:"auto_scroll" json:"auto_scroll"`

	// WordWrap is the Markdown wrap width; 0 follows the terminal width.
	WordWrap int `toml:"word_wrap" json:"word_wrap"`

	// Theme is the glamour style: "auto", "dark", "light", "notty".
	// Default: "auto"
	Theme string `toml:"theme" json:"theme"`
}

// LoggingConfig controls the diagnostic log file.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info"
	Level string `toml:"level" json:"level"`

	// Path is the log file. Empty means ~/.stockdesk/stockdesk.log.
	Path string `toml:"path" json:"path"`
}

// TemplateConfig declares an extra quick-fill template.
type TemplateConfig struct {
	Key     string `toml:"key" json:"key"`
	Company string `toml:"company" json:"company"`
	Code    string `toml:"code" json:"code"`
}

// ExtraTemplates converts the configured templates for a templates.Loader.
func (c *Config) ExtraTemplates() []templates.Template {
	out := make([]templates.Template, 0, len(c.Templates))
	for _, t := range c.Templates {
		out = append(out, templates.Template{Key: t.Key, Company: t.Company, Code: t.Code})
	}
	return out
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			URL:                  "ws://localhost:8000/ws/multi",
			HandshakeTimeoutSecs: 10,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: 3,
			DelayMs:     3000,
		},
		Report: ReportConfig{
			Marker:    "【最终报告】",
			OutputDir: ".",
		},
		UI: UIConfig{
			AutoScroll: true,
			Theme:      "auto",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the stockdesk configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".stockdesk"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// LogPath returns the diagnostic log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stockdesk.log"), nil
}

// ensureSecurePermissions tightens config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// A file that exists but cannot be parsed is reported alongside the default
// configuration so callers can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg := Default()
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg := Default()
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finish applies env overrides, migration, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return fillDefaults(cfg)
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// fillDefaults restores defaults for values a file blanked out explicitly.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = defaults.Server.URL
	}
	if cfg.Report.Marker == "" {
		cfg.Report.Marker = defaults.Report.Marker
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = defaults.Report.OutputDir
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# stockdesk configuration file\n")
	sb.WriteString("# Generated by stockdesk - edit with care\n")
	sb.WriteString("#\n")
	sb.WriteString("# Environment variables STOCKDESK_* override these values.\n")
	sb.WriteString("\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, []byte(sb.String()), 0600, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every validation failure.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes    = []string{"auto", "dark", "light", "notty", "ascii"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Server
	if u, err := url.Parse(c.Server.URL); err != nil {
		add("server.url", "invalid URL: %v", err)
	} else {
		if u.Scheme != "ws" && u.Scheme != "wss" {
			add("server.url", "scheme must be ws or wss, got %q", u.Scheme)
		}
		if u.Host == "" {
			add("server.url", "missing host")
		}
	}
	if c.Server.HandshakeTimeoutSecs < 0 || c.Server.HandshakeTimeoutSecs > 300 {
		add("server.handshake_timeout_secs", "must be between 0 and 300, got %d", c.Server.HandshakeTimeoutSecs)
	}

	// Reconnect
	if c.Reconnect.MaxAttempts < 0 || c.Reconnect.MaxAttempts > 100 {
		add("reconnect.max_attempts", "must be between 0 and 100, got %d", c.Reconnect.MaxAttempts)
	}
	if c.Reconnect.DelayMs <= 0 {
		add("reconnect.delay_ms", "must be positive, got %d", c.Reconnect.DelayMs)
	}

	// Report
	if strings.TrimSpace(c.Report.Marker) == "" {
		add("report.marker", "must not be blank")
	}

	// UI
	if c.UI.WordWrap < 0 {
		add("ui.word_wrap", "must not be negative, got %d", c.UI.WordWrap)
	}
	if !contains(validThemes, c.UI.Theme) {
		add("ui.theme", "must be one of %s, got %q", strings.Join(validThemes, ", "), c.UI.Theme)
	}

	// Logging
	if !contains(validLogLevels, c.Logging.Level) {
		add("logging.level", "must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.Logging.Level)
	}

	// Templates
	seen := make(map[string]bool, len(c.Templates))
	for i, t := range c.Templates {
		field := fmt.Sprintf("templates[%d]", i)
		if strings.TrimSpace(t.Key) == "" {
			add(field+".key", "must not be blank")
		} else if seen[t.Key] {
			add(field+".key", "duplicate template %q", t.Key)
		}
		seen[t.Key] = true
		if strings.TrimSpace(t.Company) == "" {
			add(field+".company", "must not be blank")
		}
		if strings.TrimSpace(t.Code) == "" {
			add(field+".code", "must not be blank")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have a default.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	if c.Server.HandshakeTimeoutSecs == 0 {
		c.Server.HandshakeTimeoutSecs = d.Server.HandshakeTimeoutSecs
	}
	if c.Reconnect.DelayMs == 0 {
		c.Reconnect.DelayMs = d.Reconnect.DelayMs
	}
	if c.Report.Marker == "" {
		c.Report.Marker = d.Report.Marker
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = d.Report.OutputDir
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// Migrate rewrites values written by older versions or typed loosely by hand.
func (c *Config) Migrate() error {
	// http(s) endpoints pasted from a browser address bar.
	switch {
	case strings.HasPrefix(c.Server.URL, "http://"):
		c.Server.URL = "ws://" + strings.TrimPrefix(c.Server.URL, "http://")
	case strings.HasPrefix(c.Server.URL, "https://"):
		c.Server.URL = "wss://" + strings.TrimPrefix(c.Server.URL, "https://")
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))

	if c.Version != "" && c.Version != CurrentVersion {
		if n, err := strconv.Atoi(c.Version); err == nil && n > 1 {
			return fmt.Errorf("config version %s is newer than this build supports (%s)", c.Version, CurrentVersion)
		}
		c.Version = CurrentVersion
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - STOCKDESK_URL: overrides server.url
//   - STOCKDESK_OUTPUT_DIR: overrides report.output_dir
//   - STOCKDESK_LOG_LEVEL: overrides logging.level
//   - STOCKDESK_REPORT_MARKER: overrides report.marker
//   - STOCKDESK_MAX_RECONNECTS: overrides reconnect.max_attempts (ignored unless an integer)
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("STOCKDESK_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("STOCKDESK_OUTPUT_DIR"); v != "" {
		c.Report.OutputDir = v
	}
	if v := os.Getenv("STOCKDESK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STOCKDESK_REPORT_MARKER"); v != "" {
		c.Report.Marker = v
	}
	if v := os.Getenv("STOCKDESK_MAX_RECONNECTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Reconnect.MaxAttempts = n
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "reconnect.delay_ms").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "reconnect.delay_ms").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
// Matching is case-insensitive, so "delay_ms" finds DelayMs and "url" finds URL.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes")
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// AllKeys returns every scalar configuration key in dot notation, sorted.
func AllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.Split(f.Tag.Get("toml"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			switch f.Type.Kind() {
			case reflect.Struct:
				walk(f.Type, prefix+name+".")
			case reflect.Slice:
				// Templates are edited as a table array, not by key.
			default:
				keys = append(keys, prefix+name)
			}
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	sort.Strings(keys)
	return keys
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Templates != nil {
		clone.Templates = make([]TemplateConfig, len(c.Templates))
		copy(clone.Templates, c.Templates)
	}
	return &clone
}

// String returns an indented JSON view of the config with URL credentials redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if u, err := url.Parse(safe.Server.URL); err == nil && u.User != nil {
		safe.Server.URL = u.Redacted()
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
