package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/reporter/internal/model"
)

func texts(tmpl *model.Template) []string {
	out := make([]string, len(tmpl.Components))
	for i, c := range tmpl.Components {
		switch v := c.(type) {
		case model.Literal:
			out[i] = v.Value
		case *model.Slot:
			out[i] = "{" + v.Type() + "}"
		}
	}
	return out
}

func TestRead_Basic(t *testing.T) {
	data := `
en: {where} had {what} crimes {time}
fi: {where} kirjasi {what} rikosta {time}
| what_type = crime_total
`
	set, err := Read(data, "")
	require.NoError(t, err)
	require.Len(t, set["en"], 1)
	require.Len(t, set["fi"], 1)

	tmpl := set["en"][0]
	assert.Equal(t, []string{"{where}", "had", "{what}", "crimes", "{time}"}, texts(tmpl))
	require.Len(t, tmpl.Rules, 1)
	assert.Equal(t, []int{0, 2, 4}, tmpl.Rules[0].SlotIndices)
	assert.True(t, tmpl.ExpressesLocation())

	fact := model.Fact{Where: "fi", WhatType: "crime_total", What: 10}
	assert.NotEmpty(t, tmpl.Check(model.NewMessage(fact), nil))
	fact.WhatType = "crime_total_rank"
	assert.Empty(t, tmpl.Check(model.NewMessage(fact), nil))
}

func TestRead_LanguageCarriesOver(t *testing.T) {
	data := `fi:

{what} rikosta
| what_type = crime_total

en: {what} crimes
| what_type = crime_total

{what} offences
| what_type = crime_total
`
	set, err := Read(data, "")
	require.NoError(t, err)
	assert.Len(t, set["fi"], 1)
	assert.Len(t, set["en"], 2)
}

func TestRead_MissingLanguage(t *testing.T) {
	_, err := Read("{what} crimes\n| what_type = x\n", "")
	var re *ReadError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, re.RawText, "{what} crimes")
}

func TestRead_OptionalParts(t *testing.T) {
	data := "en: [in {time},] the rank was [clearly] {what}\n| what_type = crime_rank\n"
	set, err := Read(data, "")
	require.NoError(t, err)
	require.Len(t, set["en"], 4)

	var got [][]string
	for _, tmpl := range set["en"] {
		got = append(got, texts(tmpl))
	}
	assert.Contains(t, got, []string{"in", "{time}", ",", "the", "rank", "was", "clearly", "{what}"})
	assert.Contains(t, got, []string{"the", "rank", "was", "{what}"})
}

func TestRead_ShorthandConstraint(t *testing.T) {
	set, err := Read("en: {what} crimes\n| crime_total >= 10\n", "")
	require.NoError(t, err)
	tmpl := set["en"][0]
	require.Len(t, tmpl.Rules[0].Matchers, 2)

	low := model.Fact{WhatType: "crime_total", What: 5}
	high := model.Fact{WhatType: "crime_total", What: 50}
	other := model.Fact{WhatType: "population", What: 50}
	assert.Empty(t, tmpl.Check(model.NewMessage(low), nil))
	assert.NotEmpty(t, tmpl.Check(model.NewMessage(high), nil))
	assert.Empty(t, tmpl.Check(model.NewMessage(other), nil))
}

func TestRead_MultipleRules(t *testing.T) {
	data := `en: {where} ranked {what}, while {2.where} ranked {2.what}
| what_type = crime_rank
| what_type = crime_rank, when_1 = 1.when_1, where != 1.where
`
	set, err := Read(data, "")
	require.NoError(t, err)
	tmpl := set["en"][0]
	require.Len(t, tmpl.Rules, 2)
	assert.Equal(t, []int{0, 2}, tmpl.Rules[0].SlotIndices)
	assert.Equal(t, []int{5, 7}, tmpl.Rules[1].SlotIndices)

	a := model.NewMessage(model.Fact{Where: "a", WhatType: "crime_rank", When1: "2020"})
	b := model.NewMessage(model.Fact{Where: "b", WhatType: "crime_rank", When1: "2020"})
	c := model.NewMessage(model.Fact{Where: "c", WhatType: "crime_rank", When1: "2019"})

	facts := tmpl.Copy().Fill(a, []*model.Message{a, c, b})
	require.Len(t, facts, 2)
	assert.Equal(t, "b", facts[1].Where)
}

func TestRead_GroupsAndLocationTypes(t *testing.T) {
	data := `$ {nordic}: fi, se, no

en: {where} ranked {what}
| what_type = crime_rank, where in {nordic}, where_type = country
`
	set, err := Read(data, "")
	require.NoError(t, err)
	tmpl := set["en"][0]

	fi := model.Fact{Where: "fi", WhereType: "C", WhatType: "crime_rank"}
	de := model.Fact{Where: "de", WhereType: "C", WhatType: "crime_rank"}
	mun := model.Fact{Where: "fi", WhereType: "M", WhatType: "crime_rank"}
	assert.NotEmpty(t, tmpl.Check(model.NewMessage(fi), nil))
	assert.Empty(t, tmpl.Check(model.NewMessage(de), nil))
	assert.Empty(t, tmpl.Check(model.NewMessage(mun), nil))
}

func TestRead_SlotAttributesAndLiterals(t *testing.T) {
	data := `en: {where, case=gen} {"total", number=pl} {result_value}
  crimes
| what_type = crime_total
`
	set, err := Read(data, "")
	require.NoError(t, err)
	tmpl := set["en"][0]
	slots := tmpl.Slots()
	require.Len(t, slots, 3)

	assert.Equal(t, "genitive", slots[0].Attributes["case"])
	assert.Equal(t, model.SlotTypeLiteral, slots[1].Type())
	assert.Equal(t, "total", slots[1].Text())
	assert.Equal(t, "pl", slots[1].Attributes["number"])
	assert.Equal(t, model.FieldWhat, slots[2].Type())
	assert.Equal(t, "crimes", tmpl.Components[3].Text())
	// literal slots belong to no rule
	assert.Equal(t, []int{0, 2}, tmpl.Rules[0].SlotIndices)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "en: {bogus}\n| what_type = x\n"},
		{"missing brace", "en: {where\n| what_type = x\n"},
		{"rule zero", "en: {0.where}\n| what_type = x\n"},
		{"rule out of range", "en: {2.where}\n| what_type = x\n"},
		{"attribute without value", "en: {where, gen}\n| what_type = x\n"},
		{"bad operator", "en: {where}\n| what_type ~ x\n"},
		{"missing value", "en: {where}\n| what_type = \n"},
		{"unmatched bracket", "en: [{where}\n| what_type = x\n"},
		{"bad group", "$ nordic: fi\n"},
		{"bad regex", "en: {where}\n| what_type = crime_(\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.data, "")
			require.Error(t, err)
			var re *ReadError
			assert.True(t, errors.As(err, &re))
		})
	}
}

func TestRead_IgnoresBlocksWithoutConstraints(t *testing.T) {
	set, err := Read("en: just some prose\n\nmore prose\n", "")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.txt")
	require.NoError(t, os.WriteFile(path, []byte("en: {what} crimes\n| what_type = crime_total\n"), 0644))

	set, err := ReadFile(path, "")
	require.NoError(t, err)
	assert.Len(t, set["en"], 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.txt"), "")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	for _, lang := range []string{"en", "fi", "de", "en-head", "fi-head", "de-head"} {
		assert.NotEmpty(t, set[lang], lang)
	}
	assert.Equal(t, len(set["en"]), len(set["fi"]))
}
