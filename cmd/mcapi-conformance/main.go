package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ikudriavtsev/cyassl/runner"
)

type multiStringFlag []string

func (m *multiStringFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiStringFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := runner.DefaultConfig()
	fs := flag.NewFlagSet("mcapi-conformance", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var flagCfg runner.Config
	var families multiStringFlag
	configPath := fs.String("config", "", "TOML config file (flags override it)")
	fs.StringVar(&flagCfg.Backend, "backend", defaults.Backend, "provider backend: soft|dylib")
	fs.StringVar(&flagCfg.Policy, "policy", defaults.Policy, "failure policy: fail-fast|collect-all")
	fs.IntVar(&flagCfg.Rounds, "rounds", defaults.Rounds, "number of full rounds to run")
	fs.Var(&families, "families", "families to check, comma-separated (repeatable; default all)")
	fs.StringVar(&flagCfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&flagCfg.LedgerPath, "ledger", defaults.LedgerPath, "bbolt run ledger path (empty disables)")
	fs.IntVar(&flagCfg.History, "history", defaults.History, "print the last N ledger records after the run")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	showRun := fs.String("show-run", "", "print the ledger record with this run ID and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := runner.LoadConfigFile(*configPath, defaults)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "config load failed: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = flagCfg.Backend
		case "policy":
			cfg.Policy = flagCfg.Policy
		case "rounds":
			cfg.Rounds = flagCfg.Rounds
		case "families":
			cfg.Families = []string(families)
		case "log-level":
			cfg.LogLevel = flagCfg.LogLevel
		case "ledger":
			cfg.LedgerPath = flagCfg.LedgerPath
		case "history":
			cfg.History = flagCfg.History
		}
	})

	cfg = runner.Normalize(cfg)
	if err := runner.ValidateConfig(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if *showRun != "" {
		if cfg.LedgerPath == "" {
			_, _ = fmt.Fprintln(stderr, "invalid config: --show-run requires ledger_path")
			return 2
		}
		return runner.ShowRun(cfg.LedgerPath, *showRun, stdout, stderr)
	}
	if *dryRun {
		if err := printConfig(stdout, cfg); err != nil {
			_, _ = fmt.Fprintf(stderr, "config encode failed: %v\n", err)
			return 1
		}
		return 0
	}
	return runner.Run(cfg, runner.Options{Stdout: stdout, Stderr: stderr})
}

func printConfig(w io.Writer, cfg runner.Config) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
