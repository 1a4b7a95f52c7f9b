package realize

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 1))
}

func lit(s string) model.Component { return model.Literal{Value: s} }

func slot(src model.SlotSource, attrs map[string]string) *model.Slot {
	return model.NewSlot(src, attrs)
}

// sentenceOf builds a message whose template slots are bound to fact
func sentenceOf(fact model.Fact, parts ...model.Component) *model.Message {
	msg := model.NewMessage(fact)
	for _, p := range parts {
		if s, ok := p.(*model.Slot); ok {
			f := fact
			s.Fact = &f
		}
	}
	msg.Template = model.NewTemplate(parts, nil)
	return msg
}

func crimes(where, when string) model.Fact {
	return model.Fact{Where: where, WhereType: "M", What: 10, WhatType: "crime_total", When1: when, When2: when, WhenType: "year"}
}

func defaultVocabulary(t *testing.T) vocabulary.Vocabulary {
	t.Helper()
	v, err := vocabulary.Default()
	require.NoError(t, err)
	return v
}

func componentTexts(m *model.Message) []string {
	out := make([]string, len(m.Template.Components))
	for i, c := range m.Template.Components {
		out[i] = c.Text()
	}
	return out
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10"},
		{-4, "-4"},
		{12.3456, "12.35"},
		{0.0123, "0.0123"},
		{-3.5, "-3.5"},
		{0.5, "0.5"},
		{1e-7, "0.0000001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}

func TestSlotRealizer_Numbers(t *testing.T) {
	fact := crimes("091", "2020")
	fact.What = 12.3456
	msg := sentenceOf(fact, lit("had"), slot(model.FieldSource{Field: model.FieldWhat}, nil), lit("crimes"))
	plan := model.NewDocumentPlanNode(model.Sequence, model.NewDocumentPlanNode(model.Sequence, msg))

	NewSlotRealizer(nil, nil).Realize(newRand(), "en", plan)

	assert.Equal(t, []string{"had", "12.35", "crimes"}, componentTexts(msg))
	assert.True(t, msg.Template.Slots()[0].Resolved())
}

func TestSlotRealizer_RegexFromVocabulary(t *testing.T) {
	components, err := RegexRealizers(defaultVocabulary(t))
	require.NoError(t, err)
	require.NotEmpty(t, components)

	fact := crimes("091", "2020")
	fact.Key = "[TOPIC:war]"
	msg := sentenceOf(fact, lit("people discussed"), slot(model.FieldSource{Field: model.FieldKey}, nil))
	plan := model.NewDocumentPlanNode(model.Sequence, msg)

	NewSlotRealizer(components, nil).Realize(newRand(), "en-head", plan)

	assert.Equal(t, []string{"people discussed", "the", "topic", `"war"`}, componentTexts(msg))
	for _, s := range msg.Template.Slots() {
		assert.True(t, s.Resolved())
	}
}

func TestSlotRealizer_LanguageFilter(t *testing.T) {
	r, err := NewRegexRealizer([]string{"fi"}, `\[TOPIC:([^\]]+)\]`, []string{"aihe {1}"}, nil)
	require.NoError(t, err)

	fact := crimes("091", "2020")
	fact.Key = "[TOPIC:war]"
	msg := sentenceOf(fact, slot(model.FieldSource{Field: model.FieldKey}, nil))

	NewSlotRealizer([]SlotRealizerComponent{r}, nil).Realize(newRand(), "en", model.NewDocumentPlanNode(model.Sequence, msg))

	assert.False(t, msg.Template.Slots()[0].Resolved())
	assert.Equal(t, []string{"[TOPIC:war]"}, componentTexts(msg))
}

func TestRegexRealizer_Attributes(t *testing.T) {
	r, err := NewRegexRealizer([]string{"en"}, `\[TOPIC:([^\]]+)\]`, []string{"{1} topic"}, []int{0})
	require.NoError(t, err)

	fact := crimes("091", "2020")
	fact.Key = "[TOPIC:war]"
	s := slot(model.FieldSource{Field: model.FieldKey}, map[string]string{"case": "gen"})
	s.Fact = &fact

	out, ok := r.Realize(newRand(), s)
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, "war", out[0].Text())
	assert.Equal(t, "gen", out[0].(*model.Slot).Attributes["case"])
	assert.Empty(t, out[1].(*model.Slot).Attributes)
	assert.Same(t, s.Fact, out[1].(*model.Slot).Fact)
}

func TestRegexRealizer_EmptyRealizationRemovesSlot(t *testing.T) {
	r, err := NewRegexRealizer([]string{"en"}, `\[EMPTY\]`, []string{""}, nil)
	require.NoError(t, err)

	fact := crimes("091", "2020")
	fact.Key = "[EMPTY]"
	msg := sentenceOf(fact, lit("a"), slot(model.FieldSource{Field: model.FieldKey}, nil), lit("b"))

	NewSlotRealizer([]SlotRealizerComponent{r}, nil).Realize(newRand(), "en", model.NewDocumentPlanNode(model.Sequence, msg))

	assert.Equal(t, []string{"a", "b"}, componentTexts(msg))
}

func TestRegexRealizer_FullMatchOnly(t *testing.T) {
	r, err := NewRegexRealizer([]string{"en"}, `war`, []string{"conflict"}, nil)
	require.NoError(t, err)

	fact := crimes("091", "2020")
	fact.Key = "warfare"
	s := slot(model.FieldSource{Field: model.FieldKey}, nil)
	s.Fact = &fact

	_, ok := r.Realize(newRand(), s)
	assert.False(t, ok)
}

func TestNewRegexRealizer_Errors(t *testing.T) {
	_, err := NewRegexRealizer([]string{"en"}, `(`, []string{"x"}, nil)
	assert.Error(t, err)

	_, err = NewRegexRealizer([]string{"en"}, `x`, nil, nil)
	assert.Error(t, err)

	_, err = RegexRealizers(vocabulary.Vocabulary{"en": {Realizers: []vocabulary.RegexRule{{Pattern: "("}}}})
	assert.Error(t, err)
}
