package realize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/reporter/internal/model"
)

func mention(whereType, where string) *model.Message {
	fact := model.Fact{Where: where, WhereType: whereType, What: 1, WhatType: "crime_total"}
	return sentenceOf(fact, slot(model.EntitySource{}, nil), lit("had crimes"))
}

func name(m *model.Message) string {
	return m.Template.Components[0].Text()
}

func TestEntityNameResolver_Forms(t *testing.T) {
	helsinki1 := mention("M", "091")
	helsinki2 := mention("M", "091")
	espoo := mention("M", "049")
	helsinki3 := mention("M", "091")
	nextParagraph := mention("M", "091")

	plan := model.NewDocumentPlanNode(model.Sequence,
		model.NewDocumentPlanNode(model.Sequence, helsinki1, helsinki2, espoo, helsinki3),
		model.NewDocumentPlanNode(model.Sequence, nextParagraph),
	)

	NewEntityNameResolver(defaultVocabulary(t), nil).Resolve("en", plan)

	assert.Equal(t, "the municipality of Helsinki", name(helsinki1))
	assert.Equal(t, "the city", name(helsinki2))
	assert.Equal(t, "the municipality of Espoo", name(espoo))
	assert.Equal(t, "Helsinki", name(helsinki3))
	assert.Equal(t, "the municipality of Helsinki", name(nextParagraph), "paragraphs start over")

	s := helsinki3.Template.Slots()[0]
	assert.Equal(t, FormShort, s.Attributes["name_type"])
	assert.Equal(t, "M", s.Attributes["entity_type"])
}

func TestEntityNameResolver_TypesTrackedSeparately(t *testing.T) {
	country := mention("C", "fi")
	municipality := mention("M", "091")
	countryAgain := mention("C", "fi")
	plan := model.NewDocumentPlanNode(model.Sequence, model.NewDocumentPlanNode(model.List, country, municipality, countryAgain))

	NewEntityNameResolver(defaultVocabulary(t), nil).Resolve("fi", plan)

	assert.Equal(t, "Suomi", name(country))
	assert.Equal(t, "Helsingin kunta", name(municipality))
	assert.Equal(t, "maa", name(countryAgain))
}

func TestEntityNameResolver_Fallbacks(t *testing.T) {
	unknown := mention("dataset", "news_corpus")
	noPronoun := mention("LANGUAGE", "fi")
	noPronounAgain := mention("LANGUAGE", "fi")
	plan := model.NewDocumentPlanNode(model.Sequence, unknown, noPronoun, noPronounAgain)

	NewEntityNameResolver(defaultVocabulary(t), nil).Resolve("de-head", plan)

	assert.Equal(t, "news corpus", name(unknown))
	assert.Equal(t, "Finnisch", name(noPronoun))
	assert.Equal(t, "Finnisch", name(noPronounAgain))
}
