package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	fact := Fact{Where: "Helsinki", WhereType: "M", What: 12, WhatType: "crime_rank", When1: "2020"}
	bound := []Fact{{Where: "Espoo", What: 7, When1: "2020"}}

	tests := []struct {
		name    string
		matcher Matcher
		want    bool
	}{
		{"regex full match", MustMatcher(FactField{FieldWhatType}, OpEq, "crime_.*"), true},
		{"regex is anchored", MustMatcher(FactField{FieldWhatType}, OpEq, "crime"), false},
		{"numeric equality", MustMatcher(FactField{FieldWhat}, OpEq, 12.0), true},
		{"not equal", MustMatcher(FactField{FieldWhere}, OpNe, "Espoo"), true},
		{"greater", MustMatcher(FactField{FieldWhat}, OpGt, 10.0), true},
		{"less", MustMatcher(FactField{FieldWhat}, OpLt, 10.0), false},
		{"greater or equal", MustMatcher(FactField{FieldWhat}, OpGe, 12.0), true},
		{"less or equal", MustMatcher(FactField{FieldWhat}, OpLe, 11.0), false},
		{"string ordering", MustMatcher(FactField{FieldWhen1}, OpGe, "2019"), true},
		{"in set", MustMatcher(FactField{FieldWhereType}, OpIn, ValueSet{"C", "M"}), true},
		{"not in set", MustMatcher(FactField{FieldWhereType}, OpIn, ValueSet{"C", "D"}), false},
		{"mixed types do not order", MustMatcher(FactField{FieldWhere}, OpGt, 3.0), false},
		{"unknown field", MustMatcher(FactField{"nope"}, OpEq, ".*"), false},
		{"referential equality", mustExpr(FactField{FieldWhen1}, OpEq, RefField{0, FieldWhen1}), true},
		{"referential ordering", mustExpr(FactField{FieldWhat}, OpGt, RefField{0, FieldWhat}), true},
		{"reference out of range", mustExpr(FactField{FieldWhat}, OpGt, RefField{3, FieldWhat}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.matcher.Match(fact, bound))
		})
	}
}

func TestMatcher_ExpressionValuesCompareExactly(t *testing.T) {
	fact := Fact{Where: "a.b"}
	bound := []Fact{{Where: "a.*"}}

	m := mustExpr(FactField{FieldWhere}, OpEq, RefField{0, FieldWhere})
	assert.False(t, m.Match(fact, bound))
}

func TestNewMatcher_Errors(t *testing.T) {
	_, err := NewMatcher(FactField{FieldWhat}, Op("~"), 1.0)
	require.Error(t, err)

	_, err = NewMatcher(FactField{FieldWhatType}, OpEq, "crime_(")
	require.Error(t, err)

	_, err = NewExprMatcher(FactField{FieldWhat}, OpIn, RefField{0, FieldWhat})
	require.Error(t, err)
}

func TestFact_Field(t *testing.T) {
	fact := Fact{Where: "x", What: 1.5, Key: "k", ID: "id"}

	for _, name := range FactFields {
		_, ok := fact.Field(name)
		assert.True(t, ok, name)
	}
	v, _ := fact.Field(FieldWhat)
	assert.Equal(t, 1.5, v)
	_, ok := fact.Field("who")
	assert.False(t, ok)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "3", FormatValue(3.0))
	assert.Equal(t, "0.25", FormatValue(0.25))
	assert.Equal(t, "True", FormatValue(true))
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "x", FormatValue("x"))
}
