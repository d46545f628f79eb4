package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	DefaultTempoAPIURL = "https://api.tempo.io"
	DefaultTempoURL    = "https://app.tempo.io"
)

type Config struct {
	Tempo TempoConfig `json:"tempo" mapstructure:"tempo"`
	Jira  JiraConfig  `json:"jira" mapstructure:"jira"`
	Log   LogConfig   `json:"log" mapstructure:"log"`
}

type TempoConfig struct {
	APIURL      string `json:"api_url" mapstructure:"api_url"`
	URL         string `json:"url" mapstructure:"url"`
	AccessToken string `json:"access_token,omitempty" mapstructure:"access_token"`
	// AccountID scopes worklog/schedule fetches to another user; empty means "me".
	AccountID string `json:"account_id,omitempty" mapstructure:"account_id"`
	// FirstDayOfWeek uses 0 = Monday ... 6 = Sunday.
	FirstDayOfWeek int `json:"first_day_of_week" mapstructure:"first_day_of_week"`
}

type JiraConfig struct {
	URL         string `json:"url,omitempty" mapstructure:"url"`
	AccessToken string `json:"access_token,omitempty" mapstructure:"access_token"`
}

type LogConfig struct {
	Level string `json:"level,omitempty" mapstructure:"level"`
	File  string `json:"file,omitempty" mapstructure:"file"`
}

func defaults() map[string]any {
	return map[string]any{
		"tempo.api_url":           DefaultTempoAPIURL,
		"tempo.url":               DefaultTempoURL,
		"tempo.access_token":      "",
		"tempo.account_id":        "",
		"tempo.first_day_of_week": 0,
		"jira.url":                "",
		"jira.access_token":       "",
		"log.level":               "",
		"log.file":                "",
	}
}

// Keys lists the settable configuration keys in stable order.
func Keys() []string {
	out := make([]string, 0, len(defaults()))
	for k := range defaults() {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching the real home dir).
	if v := strings.TrimSpace(os.Getenv("TEMPO_CONFIG_DIR")); v != "" {
		return homedir.Expand(v)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tempo"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads config.json (if present) and applies TEMPO_* environment overrides,
// e.g. TEMPO_TEMPO_ACCESS_TOKEN or TEMPO_TEMPO_FIRST_DAY_OF_WEEK.
func Load() (*Config, error) {
	return load(true)
}

// LoadFile reads config.json without environment overrides. Use it before Save so that
// secrets supplied through the environment are not written to disk.
func LoadFile() (*Config, error) {
	return load(false)
}

func load(env bool) (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	for k, d := range defaults() {
		v.SetDefault(k, d)
	}
	if env {
		v.SetEnvPrefix("TEMPO")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Log.File != "" {
		if p, err := homedir.Expand(cfg.Log.File); err == nil {
			cfg.Log.File = p
		}
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Tempo.FirstDayOfWeek < 0 || c.Tempo.FirstDayOfWeek > 6 {
		return fmt.Errorf("tempo.first_day_of_week must be 0 (Monday) .. 6 (Sunday), got %d", c.Tempo.FirstDayOfWeek)
	}
	return nil
}

// Get returns the string form of a key listed in Keys.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "tempo.api_url":
		return c.Tempo.APIURL, nil
	case "tempo.url":
		return c.Tempo.URL, nil
	case "tempo.access_token":
		return c.Tempo.AccessToken, nil
	case "tempo.account_id":
		return c.Tempo.AccountID, nil
	case "tempo.first_day_of_week":
		return strconv.Itoa(c.Tempo.FirstDayOfWeek), nil
	case "jira.url":
		return c.Jira.URL, nil
	case "jira.access_token":
		return c.Jira.AccessToken, nil
	case "log.level":
		return c.Log.Level, nil
	case "log.file":
		return c.Log.File, nil
	}
	return "", fmt.Errorf("unknown key %s", key)
}

// Set assigns a key listed in Keys. Unknown keys are rejected.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "tempo.api_url":
		c.Tempo.APIURL = value
	case "tempo.url":
		c.Tempo.URL = value
	case "tempo.access_token":
		c.Tempo.AccessToken = value
	case "tempo.account_id":
		c.Tempo.AccountID = value
	case "tempo.first_day_of_week":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("tempo.first_day_of_week: %w", err)
		}
		c.Tempo.FirstDayOfWeek = n
		return c.Validate()
	case "jira.url":
		c.Jira.URL = value
	case "jira.access_token":
		c.Jira.AccessToken = value
	case "log.level":
		c.Log.Level = value
	case "log.file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown key %s", key)
	}
	return nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Tokens live in this file; keep it private.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
