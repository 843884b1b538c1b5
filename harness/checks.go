package harness

import (
	"fmt"

	"github.com/ikudriavtsev/cyassl/mcapi"
)

// NewCheck returns the check for family f.
func NewCheck(f Family, p mcapi.Provider, r Reference) (Check, error) {
	switch f {
	case FamilyMD5, FamilySHA, FamilySHA256, FamilySHA384, FamilySHA512:
		return NewHashCheck(f, p, r)
	case FamilyHMAC:
		return NewHMACCheck(p, r), nil
	case FamilyHuffman:
		return NewHuffmanCheck(p, r), nil
	case FamilyRNG:
		return NewRNGCheck(p, r), nil
	case FamilyTDES:
		return NewTDESCheck(p, r), nil
	case FamilyAESCBC:
		return NewAESCBCCheck(p, r), nil
	case FamilyAESCTR:
		return NewAESCTRCheck(p, r), nil
	default:
		return nil, fmt.Errorf("unknown family %q", f)
	}
}

// NewChecks builds checks for families in run order. An empty list selects
// every family; duplicates are dropped.
func NewChecks(p mcapi.Provider, r Reference, families []Family) ([]Check, error) {
	want := make(map[Family]bool, len(families))
	for _, f := range families {
		pf, err := ParseFamily(string(f))
		if err != nil {
			return nil, err
		}
		want[pf] = true
	}
	var checks []Check
	for _, f := range Families() {
		if len(want) > 0 && !want[f] {
			continue
		}
		c, err := NewCheck(f, p, r)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, nil
}
