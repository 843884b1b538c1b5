package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// State is the orchestrator lifecycle. Passed and Failed are terminal.
type State int32

const (
	StateNotStarted State = 0
	StateRunning    State = 1
	StatePassed     State = 2
	StateFailed     State = 3
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateRunning:
		return "RUNNING"
	case StatePassed:
		return "PASSED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Policy decides whether a failed check stops the run.
type Policy string

const (
	FailFast   Policy = "fail-fast"
	CollectAll Policy = "collect-all"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", FailFast:
		return FailFast, nil
	case CollectAll:
		return CollectAll, nil
	default:
		return "", fmt.Errorf("unknown policy %q", s)
	}
}

type Options struct {
	Policy Policy
	// Alloc allocates the fixture buffers. Nil uses DefaultAllocator.
	Alloc Allocator
	// Out receives the console lines. Nil records them in the report only.
	Out    io.Writer
	Logger *slog.Logger
}

// Report is the outcome of one Run.
type Report struct {
	State   State
	Results []Result
	Lines   []string
}

// Failures returns the results that did not pass.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Orchestrator runs a fixed list of checks once against one fixture.
type Orchestrator struct {
	checks []Check
	opts   Options
	state  State
	logger *slog.Logger
}

func NewOrchestrator(checks []Check, opts Options) *Orchestrator {
	if opts.Policy == "" {
		opts.Policy = FailFast
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{checks: checks, opts: opts, logger: logger}
}

func (o *Orchestrator) State() State { return o.state }

// Run sets up the fixture and runs the checks in order. The error is non-nil
// only for a repeated Run (ErrAlreadyRun) or a fixture that could not be
// set up (wrapping ErrSetup); check failures are reported in the Report.
func (o *Orchestrator) Run() (Report, error) {
	if o.state != StateNotStarted {
		return Report{State: o.state}, ErrAlreadyRun
	}
	rep := NewReporter(o.opts.Out)

	fx, err := NewFixture(o.opts.Alloc)
	if err != nil {
		o.state = StateFailed
		o.logger.Error("fixture setup failed", "error", err)
		rep.SetupFailed(err)
		return Report{State: o.state, Lines: rep.Lines()}, err
	}
	defer fx.Teardown()

	o.state = StateRunning
	o.logger.Debug("run started", "checks", len(o.checks), "policy", string(o.opts.Policy))

	var results []Result
	failed := false
	for _, c := range o.checks {
		res := c.Run(fx)
		if res.Family == "" {
			res.Family = c.Family()
		}
		results = append(results, res)
		for _, label := range res.Passed {
			o.logger.Debug("case passed", "family", string(res.Family), "case", label)
		}
		if res.OK() {
			rep.Pass(res.Family)
			continue
		}
		failed = true
		o.logger.Warn("check failed",
			"family", string(res.Family),
			"case", res.Case,
			"stage", string(res.Stage),
			"error", res.Err,
		)
		rep.Fail(res)
		if o.opts.Policy == FailFast {
			break
		}
	}

	if failed {
		o.state = StateFailed
	} else {
		o.state = StatePassed
	}
	o.logger.Info("run finished", "state", o.state.String(), "checks_run", len(results))
	return Report{State: o.state, Results: results, Lines: rep.Lines()}, nil
}
