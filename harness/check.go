// Package harness compares an mcapi.Provider with a Reference, family by
// family, over a shared deterministic fixture.
package harness

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Family is a primitive family, checked as one unit.
type Family string

const (
	FamilyMD5     Family = "md5"
	FamilySHA     Family = "sha"
	FamilySHA256  Family = "sha256"
	FamilySHA384  Family = "sha384"
	FamilySHA512  Family = "sha512"
	FamilyHMAC    Family = "hmac"
	FamilyHuffman Family = "huffman"
	FamilyRNG     Family = "rng"
	FamilyTDES    Family = "tdes"
	FamilyAESCBC  Family = "aes-cbc"
	FamilyAESCTR  Family = "aes-ctr"
)

// Families returns every family in run order.
func Families() []Family {
	return []Family{
		FamilyMD5, FamilySHA, FamilySHA256, FamilySHA384, FamilySHA512,
		FamilyHMAC, FamilyHuffman, FamilyRNG, FamilyTDES, FamilyAESCBC, FamilyAESCTR,
	}
}

func ParseFamily(s string) (Family, error) {
	want := Family(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range Families() {
		if f == want {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown family %q", s)
}

// CheckName is the name the failure summary line uses for f.
func (f Family) CheckName() string {
	switch f {
	case FamilyHuffman:
		return "check_compress"
	case FamilyTDES:
		return "check_des3"
	case FamilyAESCBC:
		return "check_aes cbc"
	case FamilyAESCTR:
		return "check_aes ctr"
	default:
		return "check_" + string(f)
	}
}

type Op string

const (
	OpHash       Op = "hash"
	OpMAC        Op = "mac"
	OpEncrypt    Op = "encrypt"
	OpDecrypt    Op = "decrypt"
	OpCompress   Op = "compress"
	OpDecompress Op = "decompress"
	OpGenerate   Op = "generate"
)

// VariableLen as a Case OutLen compares the whole provider output, and
// requires the reference to produce the same length.
const VariableLen = -1

// Fn runs one side of a case. Errors built with setupErr are reported at
// StageSetup, anything else at the side's own stage.
type Fn func(Params) ([]byte, error)

// Case is one provider/reference comparison.
type Case struct {
	Family    Family
	Name      string
	Op        Op
	OutLen    int
	Provider  Fn
	Reference Fn
	// Expect, when set, is what both outputs must equal after comparing
	// with each other (decrypt and decompress round trips).
	Expect []byte
}

// Result is the outcome of a whole family, or of its first failing case.
type Result struct {
	Family Family
	Case   string
	Op     Op
	Stage  Stage
	Err    error
	// Passed lists the cases that passed, in order.
	Passed []string
}

func (r Result) OK() bool { return r.Stage == StagePass }

// Check runs every case of one family against a fixture.
type Check interface {
	Family() Family
	Run(f *Fixture) Result
}

// runCase feeds each side its own copy of p and compares the outputs.
func runCase(c Case, p Params) ([]byte, *CheckError) {
	pp, rp := p.Clone(), p.Clone()

	got, err := c.Provider(pp)
	if err != nil {
		return nil, wrapStage(StageProvider, err)
	}
	want, err := c.Reference(rp)
	if err != nil {
		return nil, wrapStage(StageReference, err)
	}

	if !pp.Equal(p) {
		return nil, stageErr(StageInput, "provider modified its input")
	}
	if !rp.Equal(p) {
		return nil, stageErr(StageInput, "reference modified its input")
	}

	n := c.OutLen
	if n == VariableLen {
		n = len(got)
	}
	if err := Equal(got, want, n); err != nil {
		return nil, err.(*CheckError)
	}
	if c.Expect != nil && !bytes.Equal(got[:n], c.Expect) {
		return nil, stageErr(StageRoundTrip, "output does not round-trip to the %d input bytes", len(c.Expect))
	}
	return got[:n], nil
}

// wrapStage keeps the stage of a *CheckError in err's chain and reports
// anything else at fallback.
func wrapStage(fallback Stage, err error) *CheckError {
	var ce *CheckError
	if errors.As(err, &ce) && ce.Stage != StagePass {
		return ce
	}
	return &CheckError{Stage: fallback, Err: err}
}

// sequence runs the cases of one family in order and stops at the first
// failure.
type sequence struct {
	res Result
}

func newSequence(f Family) *sequence {
	return &sequence{res: Result{Family: f}}
}

func (s *sequence) failed() bool { return !s.res.OK() }

// run executes c if nothing has failed yet and returns the provider output.
func (s *sequence) run(c Case, p Params) []byte {
	if s.failed() {
		return nil
	}
	out, cerr := runCase(c, p)
	if cerr != nil {
		s.fail(c.Name, c.Op, cerr)
		return nil
	}
	s.res.Passed = append(s.res.Passed, caseLabel(c.Name, c.Op))
	return out
}

func (s *sequence) fail(name string, op Op, err *CheckError) {
	if s.failed() {
		return
	}
	s.res.Case = name
	s.res.Op = op
	s.res.Stage = err.Stage
	s.res.Err = err
}

// load is Fixture.Load reported at StageSetup.
func (s *sequence) load(f *Fixture, name string, op Op, m Material) (Params, bool) {
	if s.failed() {
		return Params{}, false
	}
	p, err := f.Load(m)
	if err != nil {
		s.fail(name, op, &CheckError{Stage: StageSetup, Msg: "fixture load", Err: err})
		return Params{}, false
	}
	return p, true
}

func (s *sequence) result() Result { return s.res }

func caseLabel(name string, op Op) string {
	return name + " " + string(op)
}
