// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/casefile-tui/internal/audio"
	"github.com/jeranaias/casefile-tui/internal/gate"
	"github.com/jeranaias/casefile-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete casefile configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Gate  GateConfig  `toml:"gate" json:"gate"`
	Audit AuditConfig `toml:"audit" json:"audit"`
	Audio AudioConfig `toml:"audio" json:"audio"`
	UI    UIConfig    `toml:"ui" json:"ui"`
}

// GateConfig holds the credential pair and lockout behaviour.
type GateConfig struct {
	Phone string `toml:"phone" json:"phone"`
	Code  string `toml:"code" json:"code"`

	MaxAttempts int `toml:"max_attempts" json:"max_attempts"`
	// LockoutPolicy is "escalating" or "fixed_cutoff"
	LockoutPolicy string `toml:"lockout_policy" json:"lockout_policy"`
	// CodeComparison is "exact" or "case_insensitive"
	CodeComparison string `toml:"code_comparison" json:"code_comparison"`

	// CodeSource is "static" (Code) or "totp" (TOTPSecret)
	CodeSource string `toml:"code_source" json:"code_source"`
	TOTPSecret string `toml:"totp_secret" json:"totp_secret"`

	LockStepSecs    int  `toml:"lock_step_secs" json:"lock_step_secs"`
	MaxLockSecs     int  `toml:"max_lock_secs" json:"max_lock_secs"` // 0 = uncapped
	NormalizeDigits bool `toml:"normalize_digits" json:"normalize_digits"`

	// SubmitRate limits submissions per second; 0 disables the throttle.
	SubmitRate  float64 `toml:"submit_rate" json:"submit_rate"`
	SubmitBurst int     `toml:"submit_burst" json:"submit_burst"`
}

// AuditConfig controls the attempt log and its sinks.
type AuditConfig struct {
	MaxEntries int `toml:"max_entries" json:"max_entries"`

	LogEnabled bool   `toml:"log_enabled" json:"log_enabled"`
	LogPath    string `toml:"log_path" json:"log_path"`

	ArchiveEnabled bool   `toml:"archive_enabled" json:"archive_enabled"`
	ArchivePath    string `toml:"archive_path" json:"archive_path"`
}

// AudioConfig controls the case-music player.
type AudioConfig struct {
	Enabled  bool     `toml:"enabled" json:"enabled"`
	Tracks   []string `toml:"tracks" json:"tracks"`
	TrackDir string   `toml:"track_dir" json:"track_dir"`
	// Player is one of auto, mpv, ffplay, bell, none
	Player      string  `toml:"player" json:"player"`
	DefaultRate float64 `toml:"default_rate" json:"default_rate"`
}

// UIConfig contains panel text and theme.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`
	Title string `toml:"title" json:"title"`
	Badge string `toml:"badge" json:"badge"`

	BriefingPath string   `toml:"briefing_path" json:"briefing_path"`
	Link         string   `toml:"link" json:"link"`
	Documents    []string `toml:"documents" json:"documents"`

	// Placeholders shown in the empty form fields.
	ExamplePhone string `toml:"example_phone" json:"example_phone"`
	ExampleCode  string `toml:"example_code" json:"example_code"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the stock panel settings.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Gate: GateConfig{
			Phone:           "09164568890",
			Code:            "SDMKL56YUU",
			MaxAttempts:     gate.DefaultMaxAttempts,
			LockoutPolicy:   string(gate.PolicyEscalating),
			CodeComparison:  string(gate.CompareExact),
			CodeSource:      "static",
			LockStepSecs:    int(gate.DefaultLockStep.Seconds()),
			MaxLockSecs:     0,
			NormalizeDigits: true,
			SubmitRate:      2,
			SubmitBurst:     3,
		},

		Audit: AuditConfig{
			MaxEntries:     200,
			LogEnabled:     true,
			ArchiveEnabled: true,
		},

		Audio: AudioConfig{
			Enabled:     true,
			Tracks:      append([]string(nil), audio.DefaultTracks...),
			Player:      audio.BackendAuto,
			DefaultRate: audio.DefaultRate,
		},

		UI: UIConfig{
			Theme: "dark",
			Title: "Confidential Case File",
			Badge: "CASE FILE",
			Link:  "https://t.me/payamsoty",
			Documents: []string{
				"case_notes.pdf",
				"evidence_map.pdf",
				"witness_statement.pdf",
			},
			ExamplePhone: "0916xxxxxxx",
			ExampleCode:  "XXXXXXXXXX",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the casefile directory: $CASEFILE_HOME or ~/.casefile.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CASEFILE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".casefile"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// resolvePath makes a relative data path relative to the config directory.
func resolvePath(p, fallback string) string {
	dir, err := ConfigDir()
	if err != nil {
		dir = "."
	}
	if p == "" {
		p = fallback
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// AuditLogPath returns the resolved audit log file path.
func (c *Config) AuditLogPath() string {
	return resolvePath(c.Audit.LogPath, "audit.log")
}

// ArchivePath returns the resolved SQLite archive path.
func (c *Config) ArchivePath() string {
	return resolvePath(c.Audit.ArchivePath, "attempts.db")
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.casefile/config.toml, falling back to defaults when the file
// does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
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
	return nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ensureSecurePermissions tightens config files to 0600; they hold the code.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	err := util.WritePrivateFile(path, func(w io.Writer) error {
		io.WriteString(w, "# casefile configuration file\n")
		io.WriteString(w, "# Generated by casefile - edit with care\n\n")
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	})
	if err != nil {
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

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns ValidateErrors when anything
// is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Gate
	if strings.TrimSpace(c.Gate.Phone) == "" {
		add("gate.phone", "must not be empty")
	}
	switch c.Gate.CodeSource {
	case "static":
		if strings.TrimSpace(c.Gate.Code) == "" {
			add("gate.code", "must not be empty when code_source is static")
		}
	case "totp":
		if strings.TrimSpace(c.Gate.TOTPSecret) == "" {
			add("gate.totp_secret", "must be set when code_source is totp")
		}
	default:
		add("gate.code_source", "must be static or totp, got %q", c.Gate.CodeSource)
	}
	if c.Gate.MaxAttempts < 1 || c.Gate.MaxAttempts > 100 {
		add("gate.max_attempts", "must be between 1 and 100, got %d", c.Gate.MaxAttempts)
	}
	if _, err := gate.ParseLockoutPolicy(c.Gate.LockoutPolicy); err != nil {
		add("gate.lockout_policy", "%v", err)
	}
	if _, err := gate.ParseCodeComparison(c.Gate.CodeComparison); err != nil {
		add("gate.code_comparison", "%v", err)
	}
	if c.Gate.LockStepSecs < 1 {
		add("gate.lock_step_secs", "must be at least 1, got %d", c.Gate.LockStepSecs)
	}
	if c.Gate.MaxLockSecs < 0 {
		add("gate.max_lock_secs", "must not be negative")
	}
	if c.Gate.SubmitRate < 0 {
		add("gate.submit_rate", "must not be negative")
	}
	if c.Gate.SubmitBurst < 0 {
		add("gate.submit_burst", "must not be negative")
	}

	// Audit
	if c.Audit.MaxEntries < 1 || c.Audit.MaxEntries > 100000 {
		add("audit.max_entries", "must be between 1 and 100000, got %d", c.Audit.MaxEntries)
	}

	// Audio
	if c.Audio.Enabled && len(c.Audio.Tracks) == 0 {
		add("audio.tracks", "at least one track is required when audio is enabled")
	}
	if !containsFold(audio.BackendKinds, c.Audio.Player) {
		add("audio.player", "must be one of %s, got %q", strings.Join(audio.BackendKinds, ", "), c.Audio.Player)
	}
	if c.Audio.DefaultRate < audio.MinRate || c.Audio.DefaultRate > audio.MaxRate {
		add("audio.default_rate", "must be between %.1f and %.1f, got %v", audio.MinRate, audio.MaxRate, c.Audio.DefaultRate)
	}

	// UI
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "must be dark, light or auto, got %q", c.UI.Theme)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that would otherwise fail validation.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Gate.MaxAttempts == 0 {
		c.Gate.MaxAttempts = d.Gate.MaxAttempts
	}
	if c.Gate.LockoutPolicy == "" {
		c.Gate.LockoutPolicy = d.Gate.LockoutPolicy
	}
	if c.Gate.CodeComparison == "" {
		c.Gate.CodeComparison = d.Gate.CodeComparison
	}
	if c.Gate.CodeSource == "" {
		c.Gate.CodeSource = d.Gate.CodeSource
	}
	if c.Gate.LockStepSecs == 0 {
		c.Gate.LockStepSecs = d.Gate.LockStepSecs
	}
	if c.Audit.MaxEntries == 0 {
		c.Audit.MaxEntries = d.Audit.MaxEntries
	}
	if c.Audio.Player == "" {
		c.Audio.Player = d.Audio.Player
	}
	if c.Audio.DefaultRate == 0 {
		c.Audio.DefaultRate = d.Audio.DefaultRate
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.Title == "" {
		c.UI.Title = d.UI.Title
	}
	if c.UI.Badge == "" {
		c.UI.Badge = d.UI.Badge
	}
}

// ApplyEnvOverrides applies environment variable overrides:
//   - CASEFILE_LOCKOUT_POLICY: overrides gate.lockout_policy
//   - CASEFILE_CODE_COMPARISON: overrides gate.code_comparison
//   - CASEFILE_AUDIO_PLAYER: overrides audio.player
//   - CASEFILE_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if policy := os.Getenv("CASEFILE_LOCKOUT_POLICY"); policy != "" {
		c.Gate.LockoutPolicy = policy
	}
	if mode := os.Getenv("CASEFILE_CODE_COMPARISON"); mode != "" {
		c.Gate.CodeComparison = mode
	}
	if player := os.Getenv("CASEFILE_AUDIO_PLAYER"); player != "" {
		c.Audio.Player = player
	}
	if theme := os.Getenv("CASEFILE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "gate.max_attempts").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field type; list fields take a comma-separated string.
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
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
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
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
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
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strings.TrimSpace(strVal))
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
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
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"gate.phone",
		"gate.code",
		"gate.max_attempts",
		"gate.lockout_policy",
		"gate.code_comparison",
		"gate.code_source",
		"gate.totp_secret",
		"gate.lock_step_secs",
		"gate.max_lock_secs",
		"gate.normalize_digits",
		"gate.submit_rate",
		"gate.submit_burst",
		"audit.max_entries",
		"audit.log_enabled",
		"audit.log_path",
		"audit.archive_enabled",
		"audit.archive_path",
		"audio.enabled",
		"audio.tracks",
		"audio.track_dir",
		"audio.player",
		"audio.default_rate",
		"ui.theme",
		"ui.title",
		"ui.badge",
		"ui.briefing_path",
		"ui.link",
		"ui.documents",
		"ui.example_phone",
		"ui.example_code",
	}
}

// IsValidKey reports whether key is one of GetAllKeys, ignoring case.
func IsValidKey(key string) bool {
	return containsFold(GetAllKeys(), strings.TrimSpace(key))
}

// IsSecretKey reports whether a key holds a credential that must be redacted
// in output.
func IsSecretKey(key string) bool {
	switch strings.ToLower(key) {
	case "gate.code", "gate.totp_secret":
		return true
	}
	return false
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Audio.Tracks = append([]string(nil), c.Audio.Tracks...)
	clone.UI.Documents = append([]string(nil), c.UI.Documents...)
	return &clone
}

// String returns the config as JSON with credentials redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gate.Code != "" {
		safe.Gate.Code = "[REDACTED]"
	}
	if safe.Gate.TOTPSecret != "" {
		safe.Gate.TOTPSecret = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
