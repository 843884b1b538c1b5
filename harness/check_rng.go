package harness

import (
	"bytes"

	"github.com/ikudriavtsev/cyassl/mcapi"
)

// RandomBlockSize is the length of the generated block.
const RandomBlockSize = 32

type rngCheck struct {
	p   mcapi.Provider
	ref Reference
}

func NewRNGCheck(p mcapi.Provider, r Reference) Check {
	return &rngCheck{p: p, ref: r}
}

func (c *rngCheck) Family() Family { return FamilyRNG }

func counterBlock() []byte {
	b := make([]byte, RandomBlockSize)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// Run has no cross comparison: output is random. Each side must succeed and
// overwrite a block pre-filled with 0..31.
func (c *rngCheck) Run(_ *Fixture) Result {
	s := newSequence(FamilyRNG)

	ctx := c.p.NewRNG()
	if err := ctx.Initialize().Err("rng init"); err != nil {
		s.fail("rng", OpGenerate, &CheckError{Stage: StageSetup, Msg: "initialize", Err: err})
		return s.result()
	}
	out := counterBlock()
	if err := ctx.Get(&out[0]).Err("rng get"); err != nil {
		s.fail("rng", OpGenerate, &CheckError{Stage: StageProvider, Msg: "get", Err: err})
		return s.result()
	}
	out = counterBlock()
	if err := ctx.BlockGenerate(out).Err("rng block gen"); err != nil {
		s.fail("rng", OpGenerate, &CheckError{Stage: StageProvider, Msg: "block generate", Err: err})
		return s.result()
	}
	if bytes.Equal(out, counterBlock()) {
		s.fail("rng", OpGenerate, stageErr(StageDegenerate, "provider block unchanged"))
		return s.result()
	}
	s.res.Passed = append(s.res.Passed, caseLabel("rng provider", OpGenerate))

	out = counterBlock()
	if err := c.ref.Random(out); err != nil {
		s.fail("rng", OpGenerate, &CheckError{Stage: StageReference, Err: err})
		return s.result()
	}
	if bytes.Equal(out, counterBlock()) {
		s.fail("rng", OpGenerate, stageErr(StageDegenerate, "reference block unchanged"))
		return s.result()
	}
	s.res.Passed = append(s.res.Passed, caseLabel("rng reference", OpGenerate))
	return s.result()
}
