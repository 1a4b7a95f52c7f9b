package planner

import (
	"strconv"
	"strings"

	"github.com/ppiankov/reporter/internal/model"
)

// modifierTokens transform a base value type without changing what is
// measured: crime_normalized_rank is the rank of the normalized crime count.
var modifierTokens = map[string]bool{
	"change":     true,
	"normalized": true,
	"percentage": true,
	"rank":       true,
	"reverse":    true,
}

// "crime_total" and "crime" name the same measure
var neutralTokens = map[string]bool{
	"total": true,
}

// ValueType is a parsed value type tag such as "crime_normalized_rank"
type ValueType struct {
	Base      string
	Category  string
	Modifiers map[string]bool
}

// ParseValueType splits a what_type into its base measure and modifiers.
// Anything after the first ':' is a sub-type and is ignored.
func ParseValueType(whatType string) ValueType {
	head, _, _ := strings.Cut(whatType, ":")
	tokens := strings.Split(head, "_")

	vt := ValueType{Modifiers: make(map[string]bool)}
	var base []string
	for _, tok := range tokens {
		if modifierTokens[tok] {
			vt.Modifiers[tok] = true
			continue
		}
		if neutralTokens[tok] {
			continue
		}
		base = append(base, tok)
	}
	vt.Base = strings.Join(base, "_")
	if len(base) > 0 {
		vt.Category = base[0]
	} else {
		vt.Category = tokens[0]
	}
	return vt
}

// IsRank reports whether the value is a rank
func (v ValueType) IsRank() bool {
	return v.Modifiers["rank"]
}

// sameExceptRank reports whether v and o differ at most by the rank modifier
func (v ValueType) sameExceptRank(o ValueType) bool {
	if v.Base != o.Base {
		return false
	}
	for m := range v.Modifiers {
		if m != "rank" && !o.Modifiers[m] {
			return false
		}
	}
	for m := range o.Modifiers {
		if m != "rank" && !v.Modifiers[m] {
			return false
		}
	}
	return true
}

// strictSubsetOf reports whether v's modifiers are a proper subset of o's
func (v ValueType) strictSubsetOf(o ValueType) bool {
	if len(v.Modifiers) >= len(o.Modifiers) {
		return false
	}
	for m := range v.Modifiers {
		if !o.Modifiers[m] {
			return false
		}
	}
	return true
}

func category(m *model.Message) string {
	return ParseValueType(m.MainFact().WhatType).Category
}

func sameTime(a, b model.Fact) bool {
	return a.WhenType == b.WhenType && a.When1 == b.When1 && a.When2 == b.When2
}

// temporallyAdjacent reports whether b starts at most one time unit away
// from a. Monthly tags such as 2020M01 count in months, across year
// boundaries. Other non-numeric timestamps must be equal.
func temporallyAdjacent(a, b model.Fact) bool {
	if a.WhenType != b.WhenType {
		return false
	}
	if x, okA := monthIndex(a.When1); okA {
		y, okB := monthIndex(b.When1)
		if !okB {
			return false
		}
		diff := x - y
		return diff >= -1 && diff <= 1
	}
	x, errA := strconv.ParseFloat(a.When1, 64)
	y, errB := strconv.ParseFloat(b.When1, 64)
	if errA != nil || errB != nil {
		return a.When1 == b.When1
	}
	diff := x - y
	return diff >= -1 && diff <= 1
}

// monthIndex converts a YYYYMmm tag to months since year zero
func monthIndex(when string) (int, bool) {
	year, month, ok := strings.Cut(when, "M")
	if !ok || len(year) != 4 || len(month) != 2 {
		return 0, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return y*12 + m - 1, true
}
