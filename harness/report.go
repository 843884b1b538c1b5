package harness

import (
	"fmt"
	"io"
)

// Reporter writes the console lines of a run and keeps a copy of each.
type Reporter struct {
	w     io.Writer
	lines []string
}

// NewReporter writes to w; a nil w only records.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) emit(line string) {
	r.lines = append(r.lines, line)
	if r.w != nil {
		fmt.Fprintln(r.w, line)
	}
}

// Pass prints "<family padded to 11> mcapi test passed".
func (r *Reporter) Pass(f Family) {
	r.emit(PassLine(f))
}

// Fail prints the diagnostic line for res followed by the family summary.
func (r *Reporter) Fail(res Result) {
	r.emit(DiagnosticLine(res))
	r.emit(fmt.Sprintf("mcapi %s failed", res.Family.CheckName()))
}

func (r *Reporter) SetupFailed(err error) {
	r.emit(fmt.Sprintf("mcapi setup failed: %v", err))
}

// Lines returns every line emitted so far.
func (r *Reporter) Lines() []string {
	return append([]string(nil), r.lines...)
}

func PassLine(f Family) string {
	return fmt.Sprintf("%-11s mcapi test passed", f)
}

// DiagnosticLine names the failing case, operation and stage.
func DiagnosticLine(res Result) string {
	detail := "unknown error"
	if res.Err != nil {
		detail = res.Err.Error()
	}
	return fmt.Sprintf("mcapi %s %s %s failed: %s", res.Case, res.Op, res.Stage, detail)
}
