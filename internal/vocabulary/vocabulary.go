// Package vocabulary loads the per-language word lists and phrase patterns
// consumed by the realizers and by the service error responses.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/vocabulary.yaml
var defaultData []byte

// Error message identifiers
const (
	ErrNoInterestingMessages = "no-interesting-messages-for-selection"
	ErrNoMessages            = "no-messages-for-selection"
	ErrGeneral               = "general-error"
	ErrNoTemplate            = "no-template"
)

// FallbackLanguage is used when a language has no resource of a kind
const FallbackLanguage = "en"

// Vocabulary maps a language id to its resources
type Vocabulary map[string]*Language

// Language holds the resources of one language
type Language struct {
	Conjunctions Conjunctions           `yaml:"conjunctions"`
	Errors       map[string]string      `yaml:"errors"`
	Dates        Dates                  `yaml:"dates"`
	Realizers    []RegexRule            `yaml:"realizers"`
	Entities     map[string]EntityNames `yaml:"entities"`
}

// Conjunctions used when two sentences are aggregated
type Conjunctions struct {
	Default string `yaml:"default_combiner"`
	Inverse string `yaml:"inverse_combiner"`
}

// Dates holds temporal expression patterns. Patterns use {month}, {year},
// {start} and {end} placeholders.
type Dates struct {
	Months              map[string]string `yaml:"months"`
	MonthReference      []string          `yaml:"month_reference"`
	YearReference       []string          `yaml:"year_reference"`
	MonthExpression     string            `yaml:"month_expression"`
	MonthYearExpression string            `yaml:"month_year_expression"`
	YearExpression      string            `yaml:"year_expression"`
	BetweenExpression   string            `yaml:"between_expression"`
	AllTime             []string          `yaml:"all_time"`
}

// RegexRule rewrites slot values fully matching Pattern. Templates refer
// to capture groups as {1}, {2}...; AttachAttributesTo lists the output
// token indices that keep the slot attributes.
type RegexRule struct {
	Pattern            string   `yaml:"pattern"`
	Templates          []string `yaml:"templates"`
	AttachAttributesTo []int    `yaml:"attach_attributes_to"`
}

// EntityNames are the surface forms of a named entity
type EntityNames struct {
	Full    string `yaml:"full"`
	Short   string `yaml:"short"`
	Pronoun string `yaml:"pronoun"`
}

// Default returns the embedded vocabulary
func Default() (Vocabulary, error) {
	return Parse(defaultData)
}

// Parse decodes a YAML vocabulary document
func Parse(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	for lang, l := range v {
		if l == nil {
			v[lang] = &Language{}
		}
	}
	return v, nil
}

// Load reads the embedded vocabulary and overlays the file at path, if
// any. Languages present in the file replace the embedded ones.
func Load(path string) (Vocabulary, error) {
	v, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return v, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	overlay, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for lang, l := range overlay {
		v[lang] = l
	}
	return v, nil
}

// BaseLanguage strips variant suffixes such as "-head"
func BaseLanguage(lang string) string {
	base, _, _ := strings.Cut(lang, "-")
	return base
}

// Language returns the resources of lang, or nil
func (v Vocabulary) Language(lang string) *Language {
	return v[BaseLanguage(lang)]
}

// Conjunctions returns the conjunctions of lang. The second result is false
// when the language defines none.
func (v Vocabulary) Conjunctions(lang string) (Conjunctions, bool) {
	l := v.Language(lang)
	if l == nil || l.Conjunctions.Default == "" {
		return Conjunctions{}, false
	}
	return l.Conjunctions, true
}

// ErrorMessage returns the canned error text for id, falling back to the
// English text and finally to "ERROR".
func (v Vocabulary) ErrorMessage(lang, id string) string {
	for _, candidate := range []string{BaseLanguage(lang), FallbackLanguage} {
		if l := v[candidate]; l != nil {
			if msg, ok := l.Errors[id]; ok {
				return msg
			}
		}
	}
	return "ERROR"
}

// Languages returns the language ids with resources
func (v Vocabulary) Languages() []string {
	out := make([]string, 0, len(v))
	for lang := range v {
		out = append(out, lang)
	}
	return out
}

// Entity returns the names of the entity "type:id" in lang
func (l *Language) Entity(entityType, id string) (EntityNames, bool) {
	if l == nil {
		return EntityNames{}, false
	}
	names, ok := l.Entities[entityType+":"+id]
	return names, ok
}

// Form returns the requested name form ("full", "short" or "pronoun"),
// falling back to the longer forms when a form is missing.
func (n EntityNames) Form(form string) string {
	var order []string
	switch form {
	case "pronoun":
		order = []string{n.Pronoun, n.Short, n.Full}
	case "short":
		order = []string{n.Short, n.Full}
	default:
		order = []string{n.Full, n.Short}
	}
	for _, name := range order {
		if name != "" {
			return name
		}
	}
	return ""
}
