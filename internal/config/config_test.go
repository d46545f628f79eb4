package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("TEMPO_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tempo.APIURL != DefaultTempoAPIURL || cfg.Tempo.URL != DefaultTempoURL {
		t.Fatalf("defaults: got %+v", cfg.Tempo)
	}
	if cfg.Tempo.FirstDayOfWeek != 0 {
		t.Fatalf("first day: got %d", cfg.Tempo.FirstDayOfWeek)
	}
}

func TestSaveThenLoad_RoundTripsAndKeepsFilePrivate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEMPO_CONFIG_DIR", dir)

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Set("tempo.first_day_of_week", "6"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("jira.url", " https://acme.atlassian.net "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, err := os.Stat(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("perm: got %v", st.Mode().Perm())
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Tempo.FirstDayOfWeek != 6 || got.Jira.URL != "https://acme.atlassian.net" {
		t.Fatalf("round trip: got %+v", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("TEMPO_CONFIG_DIR", t.TempDir())
	cfg, _ := LoadFile()
	cfg.Tempo.AccessToken = "from-file"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("TEMPO_TEMPO_ACCESS_TOKEN", "from-env")
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Tempo.AccessToken != "from-env" {
		t.Fatalf("env override: got %q", got.Tempo.AccessToken)
	}

	file, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if file.Tempo.AccessToken != "from-file" {
		t.Fatalf("file value: got %q", file.Tempo.AccessToken)
	}
}

func TestSet_RejectsUnknownKeyAndBadWeekday(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Set("tempo.nope", "x"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if err := cfg.Set("tempo.first_day_of_week", "7"); err == nil {
		t.Fatalf("expected range error")
	}
	if err := cfg.Set("tempo.first_day_of_week", "monday"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestKeys_AllGettable(t *testing.T) {
	cfg := &Config{}
	for _, k := range Keys() {
		if _, err := cfg.Get(k); err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
	}
}
