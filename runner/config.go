package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ikudriavtsev/cyassl/harness"
)

const (
	BackendSoft  = "soft"
	BackendDylib = "dylib"

	maxRounds  = 100
	maxHistory = 1000
)

type Config struct {
	Backend    string   `json:"backend" toml:"backend"`
	Policy     string   `json:"policy" toml:"policy"`
	Rounds     int      `json:"rounds" toml:"rounds"`
	Families   []string `json:"families" toml:"families"`
	LogLevel   string   `json:"log_level" toml:"log_level"`
	LedgerPath string   `json:"ledger_path" toml:"ledger_path"`
	History    int      `json:"history" toml:"history"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultConfig() Config {
	return Config{
		Backend:  BackendSoft,
		Policy:   string(harness.FailFast),
		Rounds:   1,
		Families: nil,
		LogLevel: "info",
	}
}

// NormalizeFamilies splits comma-separated tokens, lowercases them and drops
// blanks and duplicates.
func NormalizeFamilies(raw ...string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		for _, f := range strings.Split(token, ",") {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" {
				continue
			}
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

func ValidateConfig(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendSoft, BackendDylib:
	default:
		return fmt.Errorf("invalid backend %q", cfg.Backend)
	}
	if _, err := harness.ParsePolicy(cfg.Policy); err != nil {
		return err
	}
	if cfg.Rounds <= 0 {
		return errors.New("rounds must be > 0")
	}
	if cfg.Rounds > maxRounds {
		return fmt.Errorf("rounds must be <= %d", maxRounds)
	}
	for _, f := range cfg.Families {
		if _, err := harness.ParseFamily(f); err != nil {
			return err
		}
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.History < 0 || cfg.History > maxHistory {
		return fmt.Errorf("history must be in [0,%d]", maxHistory)
	}
	if cfg.History > 0 && strings.TrimSpace(cfg.LedgerPath) == "" {
		return errors.New("history requires ledger_path")
	}
	return nil
}

// LoadConfigFile decodes the TOML file at path over base. Unknown keys are
// an error.
func LoadConfigFile(path string, base Config) (Config, error) {
	raw, err := readConfigFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	md, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Families = NormalizeFamilies(cfg.Families...)
	return cfg, nil
}

func (cfg Config) families() []harness.Family {
	out := make([]harness.Family, 0, len(cfg.Families))
	for _, f := range cfg.Families {
		out = append(out, harness.Family(f))
	}
	return out
}

// readConfigFile reads one named file through an fs.FS rooted at its
// directory, so the name itself cannot walk out of it.
func readConfigFile(path string) ([]byte, error) {
	name := filepath.Base(path)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid config file name: %q", path)
	}
	return fs.ReadFile(os.DirFS(filepath.Dir(path)), name)
}
