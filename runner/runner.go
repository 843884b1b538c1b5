// Package runner wires configuration, provider selection, logging and the
// run ledger around the conformance harness.
package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ikudriavtsev/cyassl/harness"
	"github.com/ikudriavtsev/cyassl/ledger"
	"github.com/ikudriavtsev/cyassl/mcapi"
)

// Process exit codes.
const (
	ExitPassed = 0
	ExitFailed = 1
	ExitSetup  = 2
)

var loadProviderFn = loadProvider

type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Reference defaults to the backend's reference (see newReference).
	Reference harness.Reference
	// Provider, when set, replaces the configured backend.
	Provider mcapi.Provider
	// Alloc is handed to every orchestrator. Nil uses the default.
	Alloc harness.Allocator
	Now   func() time.Time
}

// NewLogger returns a text logger on w at level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log_level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})), nil
}

// Normalize lowercases and trims the enumerated fields of cfg.
func Normalize(cfg Config) Config {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Policy = strings.ToLower(strings.TrimSpace(cfg.Policy))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LedgerPath = strings.TrimSpace(cfg.LedgerPath)
	cfg.Families = NormalizeFamilies(cfg.Families...)
	return cfg
}

// Run executes cfg.Rounds conformance rounds and returns the process exit
// code. Report lines go to Stdout, logs and setup errors to Stderr.
func Run(cfg Config, opts Options) int {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cfg = Normalize(cfg)
	if err := ValidateConfig(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return ExitSetup
	}
	logger, err := NewLogger(stderr, cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return ExitSetup
	}
	policy, _ := harness.ParsePolicy(cfg.Policy)

	provider := opts.Provider
	if provider == nil {
		p, cleanup, err := loadProviderFn(cfg.Backend)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "provider load failed: %v\n", err)
			return ExitSetup
		}
		defer cleanup()
		provider = p
	}
	ref := opts.Reference
	if ref == nil {
		ref = newReference(cfg.Backend)
	}

	var db *ledger.DB
	if cfg.LedgerPath != "" {
		db, err = ledger.Open(cfg.LedgerPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "ledger open failed: %v\n", err)
			return ExitSetup
		}
		defer func() { _ = db.Close() }()
		logger.Debug("ledger opened", "path", db.Path())
	}

	logger.Info("conformance run",
		"provider", provider.Name(),
		"reference", ref.Name(),
		"policy", string(policy),
		"rounds", cfg.Rounds,
	)

	code := ExitPassed
	for round := 1; round <= cfg.Rounds; round++ {
		checks, err := harness.NewChecks(provider, ref, cfg.families())
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
			return ExitSetup
		}
		started := now()
		o := harness.NewOrchestrator(checks, harness.Options{
			Policy: policy,
			Alloc:  opts.Alloc,
			Out:    stdout,
			Logger: logger.With("round", round),
		})
		rep, err := o.Run()
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "round %d: %v\n", round, err)
			return ExitSetup
		}
		if db != nil {
			rec := newRecord(rep, provider.Name(), ref.Name(), policy, round, started, now())
			stored, err := db.Record(rec)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "ledger record failed: %v\n", err)
				return ExitSetup
			}
			logger.Debug("run recorded", "id", stored.ID, "seq", stored.Seq)
		}
		if rep.State == harness.StateFailed {
			code = ExitFailed
			if policy == harness.FailFast {
				break
			}
		}
	}

	if db != nil && cfg.History > 0 {
		if err := printHistory(stdout, db, cfg.History); err != nil {
			_, _ = fmt.Fprintf(stderr, "ledger history failed: %v\n", err)
			return ExitSetup
		}
	}
	return code
}

func newRecord(rep harness.Report, provider, ref string, policy harness.Policy, round int, started, finished time.Time) ledger.Record {
	rec := ledger.Record{
		Started:     started.UTC(),
		Finished:    finished.UTC(),
		Provider:    provider,
		Reference:   ref,
		Policy:      string(policy),
		Round:       round,
		State:       rep.State.String(),
		Fingerprint: ledger.Fingerprint(rep.Lines),
	}
	for _, res := range rep.Results {
		fo := ledger.FamilyOutcome{Family: string(res.Family), OK: res.OK()}
		if !res.OK() {
			fo.Case = res.Case
			fo.Stage = string(res.Stage)
			if res.Err != nil {
				fo.Error = res.Err.Error()
			}
		}
		rec.Families = append(rec.Families, fo)
	}
	return rec
}

func printHistory(w io.Writer, db *ledger.DB, n int) error {
	recs, err := db.List(n)
	if err != nil {
		return err
	}
	for _, r := range recs {
		failed := 0
		for _, f := range r.Families {
			if !f.OK {
				failed++
			}
		}
		_, _ = fmt.Fprintf(w, "run %s seq=%d round=%d state=%s provider=%s families=%d failed=%d fingerprint=%.16s\n",
			r.ID, r.Seq, r.Round, r.State, r.Provider, len(r.Families), failed, r.Fingerprint)
	}
	return nil
}

// ShowRun prints the ledger record with the given run ID as indented JSON.
// An unknown ID exits with ExitFailed; a missing or unreadable ledger with
// ExitSetup.
func ShowRun(ledgerPath, id string, stdout, stderr io.Writer) int {
	if _, err := os.Stat(ledgerPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			_, _ = fmt.Fprintf(stderr, "ledger %s does not exist\n", ledgerPath)
		} else {
			_, _ = fmt.Fprintf(stderr, "ledger open failed: %v\n", err)
		}
		return ExitSetup
	}
	db, err := ledger.Open(ledgerPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "ledger open failed: %v\n", err)
		return ExitSetup
	}
	defer func() { _ = db.Close() }()

	rec, ok, err := db.Get(id)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "ledger read failed: %v\n", err)
		return ExitSetup
	}
	if !ok {
		_, _ = fmt.Fprintf(stderr, "run %s not found in %s\n", id, db.Path())
		return ExitFailed
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		_, _ = fmt.Fprintf(stderr, "record encode failed: %v\n", err)
		return ExitFailed
	}
	return ExitPassed
}
