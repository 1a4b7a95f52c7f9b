package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/templates"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

const testTemplates = `
en: {where} had {what} crimes {time}
| what_type = crime_total

en: {where} had {what} murders {time}
| what_type = murder_total

en: {where} reported that crimes rose by {what}
| what_type = crime_change

en: {where} reported that thefts fell by {what}
| what_type = theft_change

en: {what} burglaries
| what_type = burglary_total

en: {what} robberies
| what_type = robbery_total

en: {where, case=gen} {what} frauds
| what_type = fraud_total
`

func filled(t *testing.T, where, whatType string, what float64) *model.Message {
	t.Helper()
	set, err := templates.Read(testTemplates, "")
	require.NoError(t, err)

	msg := model.NewMessage(model.Fact{Where: where, WhereType: "M", What: what, WhatType: whatType, When1: "2020", When2: "2020", WhenType: "year"})
	for _, tmpl := range set["en"] {
		c := tmpl.Copy()
		if facts := c.Fill(msg, nil); len(facts) > 0 {
			msg.Template = c
			return msg
		}
	}
	t.Fatalf("no template for %s", whatType)
	return nil
}

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	v, err := vocabulary.Default()
	require.NoError(t, err)
	return New(v, nil)
}

func texts(m *model.Message) []string {
	out := make([]string, len(m.Template.Components))
	for i, c := range m.Template.Components {
		out[i] = c.Text()
	}
	return out
}

func TestAggregate_RoundTrip(t *testing.T) {
	a := filled(t, "X", "crime_total", 10)
	b := filled(t, "X", "murder_total", 3)
	a.Score, b.Score = 2, 5
	paragraph := model.NewDocumentPlanNode(model.Sequence, a, b)
	plan := model.NewDocumentPlanNode(model.Sequence, paragraph)

	newAggregator(t).Aggregate("en", plan)

	require.Len(t, paragraph.Children, 1)
	combined := paragraph.Children[0].(*model.Message)
	assert.True(t, combined.PreventAggregation)
	assert.Equal(t, 5.0, combined.Score)
	assert.Equal(t, append(append([]model.Fact{}, a.Facts...), b.Facts...), combined.Facts)
	assert.Equal(t, []string{
		"[ENTITY:M:X]", "had", "10", "crimes", "[TIME:year:2020:2020]",
		"and", "3", "murders", "[TIME:year:2020:2020]",
	}, texts(combined))
}

func TestAggregate_OnlyOneCombinationPerPair(t *testing.T) {
	a := filled(t, "X", "crime_total", 10)
	b := filled(t, "X", "murder_total", 3)
	c := filled(t, "X", "crime_total", 7)
	paragraph := model.NewDocumentPlanNode(model.Sequence, a, b, c)

	newAggregator(t).Aggregate("en", model.NewDocumentPlanNode(model.Sequence, paragraph))

	require.Len(t, paragraph.Children, 2, "combined message is not combined again")
	assert.Same(t, c, paragraph.Children[1])
}

func TestAggregate_PrefixEndsAtSlot(t *testing.T) {
	a := filled(t, "X", "crime_change", 5)
	b := filled(t, "X", "theft_change", 3)

	prefix, ok := CombinablePrefix(a, b)
	require.True(t, ok)
	require.Len(t, prefix, 1)
	assert.Equal(t, "[ENTITY:M:X]", prefix[0].Text())

	paragraph := model.NewDocumentPlanNode(model.Sequence, a, b)
	newAggregator(t).Aggregate("en", paragraph)
	require.Len(t, paragraph.Children, 1)
	assert.Equal(t, []string{
		"[ENTITY:M:X]", "reported", "that", "crimes", "rose", "by", "5",
		"and", "reported", "that", "thefts", "fell", "by", "3",
	}, texts(paragraph.Children[0].(*model.Message)))
}

func TestAggregate_EmptyPrefixBeforeValues(t *testing.T) {
	a := filled(t, "X", "burglary_total", 4)
	b := filled(t, "X", "robbery_total", 2)

	prefix, ok := CombinablePrefix(a, b)
	require.True(t, ok)
	assert.Empty(t, prefix)

	paragraph := model.NewDocumentPlanNode(model.Sequence, a, b)
	newAggregator(t).Aggregate("en", paragraph)
	require.Len(t, paragraph.Children, 1)
	assert.Equal(t, []string{"4", "burglaries", "and", "2", "robberies"}, texts(paragraph.Children[0].(*model.Message)))
}

func TestAggregate_NotCombined(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*model.Message, *model.Message)
	}{
		{"different subject", func() (*model.Message, *model.Message) {
			return filled(t, "X", "crime_total", 10), filled(t, "Y", "murder_total", 3)
		}},
		{"prevent aggregation", func() (*model.Message, *model.Message) {
			a := filled(t, "X", "crime_total", 10)
			a.PreventAggregation = true
			return a, filled(t, "X", "murder_total", 3)
		}},
		{"different case", func() (*model.Message, *model.Message) {
			return filled(t, "X", "crime_total", 10), filled(t, "X", "fraud_total", 3)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.build()
			paragraph := model.NewDocumentPlanNode(model.Sequence, a, b)
			newAggregator(t).Aggregate("en", paragraph)
			assert.Equal(t, []model.Node{a, b}, paragraph.Children)
		})
	}
}

func TestAggregate_Relations(t *testing.T) {
	list := model.NewDocumentPlanNode(model.List, filled(t, "X", "crime_total", 10), filled(t, "X", "murder_total", 3))
	contrast := model.NewDocumentPlanNode(model.Contrast, filled(t, "X", "crime_total", 10), filled(t, "X", "murder_total", 3))
	plan := model.NewDocumentPlanNode(model.Sequence, model.NewDocumentPlanNode(model.Sequence, list, contrast))

	newAggregator(t).Aggregate("en", plan)

	assert.Len(t, list.Children, 1)
	assert.Len(t, contrast.Children, 2)
}

func TestAggregate_PolarityPicksInverseConjunction(t *testing.T) {
	a := filled(t, "X", "crime_total", 10)
	b := filled(t, "X", "murder_total", 3)
	b.Polarity = -1
	paragraph := model.NewDocumentPlanNode(model.Sequence, a, b)

	newAggregator(t).Aggregate("fi-head", paragraph)

	combined := paragraph.Children[0].(*model.Message)
	assert.Contains(t, texts(combined), "mutta")
}

func TestAggregate_MissingConjunctions(t *testing.T) {
	a := filled(t, "X", "crime_total", 10)
	b := filled(t, "X", "murder_total", 3)
	paragraph := model.NewDocumentPlanNode(model.Sequence, a, b)

	New(vocabulary.Vocabulary{}, nil).Aggregate("xx", paragraph)

	require.Len(t, paragraph.Children, 1)
	assert.Contains(t, texts(paragraph.Children[0].(*model.Message)), "MISSING-CONJUNCTION")
}

func TestCombinablePrefix_Bounded(t *testing.T) {
	pairs := [][2]*model.Message{
		{filled(t, "X", "crime_total", 10), filled(t, "X", "crime_total", 10)},
		{filled(t, "X", "burglary_total", 4), filled(t, "X", "robbery_total", 2)},
		{filled(t, "X", "crime_change", 5), filled(t, "X", "theft_change", 3)},
	}
	for _, p := range pairs {
		prefix, _ := CombinablePrefix(p[0], p[1])
		assert.LessOrEqual(t, len(prefix), len(p[0].Template.Components))
		assert.LessOrEqual(t, len(prefix), len(p[1].Template.Components))
	}

	_, ok := CombinablePrefix(model.NewMessage(model.Fact{}), filled(t, "X", "crime_total", 1))
	assert.False(t, ok)
}
