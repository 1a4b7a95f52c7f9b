package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crimeFact(where string, what float64) Fact {
	return Fact{Where: where, WhereType: "C", What: what, WhatType: "crime_rank", When1: "2020", When2: "2020", WhenType: "year"}
}

// "{where} had rank {what}, while {2.where} had {2.what}"
func comparisonTemplate() *Template {
	components := []Component{
		NewSlot(EntitySource{}, nil),
		Literal{Value: "had"},
		Literal{Value: "rank"},
		NewSlot(FieldSource{Field: FieldWhat}, nil),
		Literal{Value: ","},
		Literal{Value: "while"},
		NewSlot(EntitySource{}, nil),
		Literal{Value: "had"},
		NewSlot(FieldSource{Field: FieldWhat}, nil),
	}
	rules := []Rule{
		{
			Matchers:    []Matcher{MustMatcher(FactField{Field: FieldWhatType}, OpEq, "crime_rank")},
			SlotIndices: []int{0, 3},
		},
		{
			Matchers: []Matcher{
				MustMatcher(FactField{Field: FieldWhatType}, OpEq, "crime_rank"),
				mustExpr(FactField{Field: FieldWhen1}, OpEq, RefField{Index: 0, Field: FieldWhen1}),
			},
			SlotIndices: []int{6, 8},
		},
	}
	return NewTemplate(components, rules)
}

func mustExpr(lhs Expr, op Op, rhs Expr) Matcher {
	m, err := NewExprMatcher(lhs, op, rhs)
	if err != nil {
		panic(err)
	}
	return m
}

func TestTemplate_CheckPrimaryRule(t *testing.T) {
	tmpl := comparisonTemplate()
	other := NewMessage(Fact{Where: "X", WhatType: "population", What: 3})

	facts := tmpl.Check(other, nil)
	assert.Nil(t, facts)
	for _, s := range tmpl.Slots() {
		assert.Nil(t, s.Fact, "check must not bind slots")
	}
}

func TestTemplate_CheckAndFillAgree(t *testing.T) {
	primary := NewMessage(crimeFact("fi", 3))
	second := NewMessage(crimeFact("se", 5))
	unrelated := NewMessage(Fact{Where: "no", WhatType: "population", What: 1})
	pool := []*Message{primary, unrelated, second}

	tmpl := comparisonTemplate()
	checked := tmpl.Check(primary, pool)
	require.Len(t, checked, 2)
	assert.Equal(t, primary.MainFact(), checked[0])
	assert.Equal(t, second.MainFact(), checked[1])

	again := tmpl.Check(primary, pool)
	assert.Equal(t, checked, again, "check is idempotent")

	filled := tmpl.Fill(primary, pool)
	assert.Equal(t, checked, filled)
	assert.Equal(t, filled, tmpl.Facts())

	slots := tmpl.Slots()
	require.Len(t, slots, 4)
	assert.Equal(t, "fi", slots[0].Fact.Where)
	assert.Equal(t, "fi", slots[1].Fact.Where)
	assert.Equal(t, "se", slots[2].Fact.Where)
	assert.Equal(t, "5", slots[3].Text())
}

func TestTemplate_SecondaryRuleDoesNotReusePrimary(t *testing.T) {
	primary := NewMessage(crimeFact("fi", 3))
	tmpl := comparisonTemplate()

	assert.Nil(t, tmpl.Check(primary, []*Message{primary}))
}

func TestTemplate_ReferentialMatcher(t *testing.T) {
	primary := NewMessage(crimeFact("fi", 3))
	otherYear := crimeFact("se", 5)
	otherYear.When1 = "2019"

	tmpl := comparisonTemplate()
	assert.Nil(t, tmpl.Check(primary, []*Message{NewMessage(otherYear)}))
}

func TestTemplate_CopyDoesNotShareSlots(t *testing.T) {
	primary := NewMessage(crimeFact("fi", 3))
	second := NewMessage(crimeFact("se", 5))
	pool := []*Message{primary, second}

	original := comparisonTemplate()
	copied := original.Copy()
	require.NotEmpty(t, copied.Fill(primary, pool))

	for _, s := range original.Slots() {
		assert.Nil(t, s.Fact)
	}
	assert.Empty(t, original.Facts())
}

func TestTemplate_ExpressesLocation(t *testing.T) {
	assert.True(t, comparisonTemplate().ExpressesLocation())

	noLocation := NewTemplate([]Component{
		Literal{Value: "rank"},
		NewSlot(FieldSource{Field: FieldWhat}, nil),
	}, nil)
	assert.False(t, noLocation.ExpressesLocation())
	assert.False(t, DefaultTemplate("").ExpressesLocation())
}

func TestDefaultTemplate(t *testing.T) {
	tmpl := DefaultTemplate("canned")
	require.Len(t, tmpl.Components, 1)
	assert.Equal(t, "canned", tmpl.Components[0].Text())
	assert.Nil(t, tmpl.Check(NewMessage(crimeFact("fi", 1)), nil))
}

func TestSlot_ResolveOnce(t *testing.T) {
	fact := crimeFact("fi", 2.5)
	slot := NewSlot(FieldSource{Field: FieldWhat}, nil)
	slot.Fact = &fact

	assert.False(t, slot.Resolved())
	assert.Equal(t, "2.5", slot.Text())

	slot.Resolve("2.50")
	assert.True(t, slot.Resolved())
	assert.Equal(t, "2.50", slot.Text())
	assert.Panics(t, func() { slot.Resolve("again") })
}

func TestSlotSources(t *testing.T) {
	fact := crimeFact("fi", 2)

	assert.Equal(t, "[TIME:year:2020:2020]", TimeSource{}.Value(&fact))
	assert.Equal(t, "[ENTITY:C:fi]", EntitySource{}.Value(&fact))
	assert.Equal(t, "hello", LiteralSource{Text: "hello"}.Value(nil))
	assert.Nil(t, FieldSource{Field: FieldWhere}.Value(nil))
}

func TestMessages_DocumentOrder(t *testing.T) {
	a := NewMessage(crimeFact("a", 1))
	b := NewMessage(crimeFact("b", 1))
	c := NewMessage(crimeFact("c", 1))
	root := NewDocumentPlanNode(Sequence,
		NewDocumentPlanNode(Sequence, a, NewDocumentPlanNode(List, b)),
		NewDocumentPlanNode(Sequence, c),
	)

	assert.Equal(t, []*Message{a, b, c}, Messages(root))
}

func TestRelation_String(t *testing.T) {
	tests := map[Relation]string{
		Sequence:        "SEQUENCE",
		List:            "LIST",
		Elaboration:     "ELABORATION",
		Exemplification: "EXEMPLIFICATION",
		Contrast:        "CONTRAST",
	}
	for rel, want := range tests {
		assert.Equal(t, want, rel.String())
	}
}
