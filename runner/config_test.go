package runner

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestNormalizeFamilies(t *testing.T) {
	got := NormalizeFamilies("md5, SHA256", "md5", " ", "aes-ctr")
	want := []string{"md5", "sha256", "aes-ctr"}
	if !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestValidateConfigOK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Families = []string{"md5", "hmac"}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfigRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":          func(c *Config) { c.Backend = "hsm" },
		"policy":           func(c *Config) { c.Policy = "retry" },
		"zero rounds":      func(c *Config) { c.Rounds = 0 },
		"too many rounds":  func(c *Config) { c.Rounds = maxRounds + 1 },
		"family":           func(c *Config) { c.Families = []string{"sha3"} },
		"log level":        func(c *Config) { c.LogLevel = "trace" },
		"negative history": func(c *Config) { c.History = -1 },
		"history no path":  func(c *Config) { c.History = 3 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcapi.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
backend = "soft"
policy = "collect-all"
rounds = 3
families = ["MD5", "hmac", "md5"]
log_level = "debug"
ledger_path = "/tmp/ledger.db"
history = 5
`)
	cfg, err := LoadConfigFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Policy != "collect-all" || cfg.Rounds != 3 || cfg.LogLevel != "debug" || cfg.History != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !slices.Equal(cfg.Families, []string{"md5", "hmac"}) {
		t.Fatalf("families=%v", cfg.Families)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("loaded config invalid: %v", err)
	}
}

func TestLoadConfigFileKeepsBaseForMissingKeys(t *testing.T) {
	path := writeConfig(t, `rounds = 2`)
	base := DefaultConfig()
	base.LedgerPath = "runs.db"
	cfg, err := LoadConfigFile(path, base)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Rounds != 2 || cfg.Backend != BackendSoft || cfg.LedgerPath != "runs.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "rounds = 1\nmax_peers = 8\n")
	_, err := LoadConfigFile(path, DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "max_peers") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), DefaultConfig()); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := writeConfig(t, "rounds = [")
	if _, err := LoadConfigFile(path, DefaultConfig()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestReadConfigFileRejectsDirectories(t *testing.T) {
	for _, path := range []string{"", ".", "..", "/"} {
		if _, err := readConfigFile(path); err == nil {
			t.Fatalf("path %q: expected error", path)
		}
	}
}
