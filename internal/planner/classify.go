package planner

import "github.com/ppiankov/reporter/internal/model"

// Classify returns the discourse relation of fact b following fact a.
//
//	CONTRAST     same value type, different place or time
//	ELABORATION  same place and time, same measure, b adds modifiers to a
//	SEQUENCE     anything else
//
// EXEMPLIFICATION is never produced.
func Classify(a, b model.Fact) model.Relation {
	switch {
	case isContrast(a, b):
		return model.Contrast
	case isElaboration(a, b):
		return model.Elaboration
	}
	return model.Sequence
}

func isContrast(a, b model.Fact) bool {
	return a.WhatType == b.WhatType && (a.Where != b.Where || !sameTime(a, b))
}

func isElaboration(a, b model.Fact) bool {
	if a.Where != b.Where || !sameTime(a, b) {
		return false
	}
	va, vb := ParseValueType(a.WhatType), ParseValueType(b.WhatType)
	return va.Base == vb.Base && va.strictSubsetOf(vb)
}

// sameStatType reports whether both facts measure the same thing in the
// same direction
func sameStatType(a, b model.Fact) bool {
	return a.WhatType == b.WhatType && sign(a.What) == sign(b.What)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// redundant reports whether candidate says nothing new given the facts
// already in the document. A rank and the value it ranks, in the same
// place and time, count as the same thing.
func redundant(candidate model.Fact, said []model.Fact) bool {
	if model.ContainsFact(said, candidate) {
		return true
	}
	vc := ParseValueType(candidate.WhatType)
	for _, f := range said {
		if f.Where != candidate.Where || !sameTime(f, candidate) {
			continue
		}
		vf := ParseValueType(f.WhatType)
		if vf.IsRank() != vc.IsRank() && vf.sameExceptRank(vc) {
			return true
		}
	}
	return false
}
