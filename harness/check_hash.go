package harness

import (
	"crypto"
	"fmt"

	"github.com/ikudriavtsev/cyassl/mcapi"
)

// HMACKey is the key every HMAC case uses.
var HMACKey = []byte("Jefe")

type hashCheck struct {
	family Family
	alg    mcapi.HashAlg
	hash   crypto.Hash
	newCtx func() mcapi.HashCtx
	ref    Reference
}

// NewHashCheck returns the check for a plain digest family (md5, sha,
// sha256, sha384, sha512).
func NewHashCheck(f Family, p mcapi.Provider, r Reference) (Check, error) {
	c := &hashCheck{family: f, ref: r}
	switch f {
	case FamilyMD5:
		c.alg, c.hash, c.newCtx = mcapi.HashMD5, crypto.MD5, p.NewMD5
	case FamilySHA:
		c.alg, c.hash, c.newCtx = mcapi.HashSHA, crypto.SHA1, p.NewSHA
	case FamilySHA256:
		c.alg, c.hash, c.newCtx = mcapi.HashSHA256, crypto.SHA256, p.NewSHA256
	case FamilySHA384:
		c.alg, c.hash, c.newCtx = mcapi.HashSHA384, crypto.SHA384, p.NewSHA384
	case FamilySHA512:
		c.alg, c.hash, c.newCtx = mcapi.HashSHA512, crypto.SHA512, p.NewSHA512
	default:
		return nil, fmt.Errorf("%s is not a hash family", f)
	}
	return c, nil
}

func (c *hashCheck) Family() Family { return c.family }

func (c *hashCheck) Run(f *Fixture) Result {
	s := newSequence(c.family)
	name := string(c.family)
	p, ok := s.load(f, name, OpHash, Material{InputLen: DataSize})
	if !ok {
		return s.result()
	}
	size := c.alg.DigestSize()
	s.run(Case{
		Family: c.family,
		Name:   name,
		Op:     OpHash,
		OutLen: size,
		Provider: func(p Params) ([]byte, error) {
			ctx := c.newCtx()
			if err := ctx.Initialize().Err(name + " initialize"); err != nil {
				return nil, setupErr("initialize", err)
			}
			if err := ctx.DataAdd(p.Input).Err(name + " data add"); err != nil {
				return nil, err
			}
			digest := make([]byte, size)
			if err := ctx.Finalize(digest).Err(name + " finalize"); err != nil {
				return nil, err
			}
			return digest, nil
		},
		Reference: func(p Params) ([]byte, error) {
			h, err := c.ref.NewHash(c.hash)
			if err != nil {
				return nil, setupErr("new hash", err)
			}
			h.Write(p.Input)
			return h.Sum(nil), nil
		},
	}, p)
	return s.result()
}

type hmacCase struct {
	name string
	alg  mcapi.HashAlg
	hash crypto.Hash
}

var hmacCases = []hmacCase{
	{"hmac sha", mcapi.HashSHA, crypto.SHA1},
	{"hmac sha256", mcapi.HashSHA256, crypto.SHA256},
	{"hmac sha384", mcapi.HashSHA384, crypto.SHA384},
	{"hmac sha512", mcapi.HashSHA512, crypto.SHA512},
}

type hmacCheck struct {
	p   mcapi.Provider
	ref Reference
}

func NewHMACCheck(p mcapi.Provider, r Reference) Check {
	return &hmacCheck{p: p, ref: r}
}

func (c *hmacCheck) Family() Family { return FamilyHMAC }

func (c *hmacCheck) Run(f *Fixture) Result {
	s := newSequence(FamilyHMAC)
	for _, hc := range hmacCases {
		p, ok := s.load(f, hc.name, OpMAC, Material{Key: HMACKey, InputLen: DataSize})
		if !ok {
			break
		}
		s.run(Case{
			Family: FamilyHMAC,
			Name:   hc.name,
			Op:     OpMAC,
			OutLen: hc.alg.DigestSize(),
			Provider: func(p Params) ([]byte, error) {
				ctx := c.p.NewHMAC()
				if err := ctx.SetKey(hc.alg, p.Key).Err(hc.name + " set key"); err != nil {
					return nil, setupErr("set key", err)
				}
				if err := ctx.DataAdd(p.Input).Err(hc.name + " data add"); err != nil {
					return nil, err
				}
				digest := make([]byte, hc.alg.DigestSize())
				if err := ctx.Finalize(digest).Err(hc.name + " finalize"); err != nil {
					return nil, err
				}
				return digest, nil
			},
			Reference: func(p Params) ([]byte, error) {
				mac, err := c.ref.NewHMAC(hc.hash, p.Key)
				if err != nil {
					return nil, setupErr("new hmac", err)
				}
				mac.Write(p.Input)
				return mac.Sum(nil), nil
			},
		}, p)
		if s.failed() {
			break
		}
	}
	return s.result()
}
