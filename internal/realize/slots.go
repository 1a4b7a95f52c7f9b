// Package realize turns filled document plans into text: slot values become
// words, entity tags become names and the plan is rendered as HTML.
package realize

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

// AnyLanguage marks a component usable with every language
const AnyLanguage = "ANY"

// SlotRealizerComponent rewrites a single unresolved slot. On success it
// returns the components replacing the slot, all of them resolved.
type SlotRealizerComponent interface {
	Languages() []string
	Realize(rng *rand.Rand, slot *model.Slot) ([]model.Component, bool)
}

// SlotRealizer applies components to every unresolved slot until nothing
// changes. The number realizer always runs last.
type SlotRealizer struct {
	components []SlotRealizerComponent
	log        *logger.Logger
}

// NewSlotRealizer creates a slot realizer
func NewSlotRealizer(components []SlotRealizerComponent, log *logger.Logger) *SlotRealizer {
	if log == nil {
		log = logger.Nop()
	}
	all := append(slices.Clone(components), NumberRealizer{})
	return &SlotRealizer{components: all, log: log}
}

// Realize resolves the slots of every message under plan
func (r *SlotRealizer) Realize(rng *rand.Rand, lang string, plan *model.DocumentPlanNode) {
	lang = vocabulary.BaseLanguage(lang)
	for {
		changed := false
		for _, msg := range model.Messages(plan) {
			if r.realizeMessage(rng, lang, msg) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func (r *SlotRealizer) realizeMessage(rng *rand.Rand, lang string, msg *model.Message) bool {
	if msg.Template == nil {
		return false
	}

	changed := false
	out := make([]model.Component, 0, len(msg.Template.Components))
	for _, c := range msg.Template.Components {
		slot, ok := c.(*model.Slot)
		if !ok || slot.Resolved() {
			out = append(out, c)
			continue
		}
		if replacement, ok := r.realizeSlot(rng, lang, slot); ok {
			out = append(out, replacement...)
			changed = true
			continue
		}
		out = append(out, c)
	}
	msg.Template.Components = out
	return changed
}

func (r *SlotRealizer) realizeSlot(rng *rand.Rand, lang string, slot *model.Slot) ([]model.Component, bool) {
	for _, c := range r.components {
		langs := c.Languages()
		if !slices.Contains(langs, lang) && !slices.Contains(langs, AnyLanguage) {
			continue
		}
		if out, ok := c.Realize(rng, slot); ok {
			return out, true
		}
	}
	return nil, false
}

// NumberRealizer prints numeric values. Whole numbers lose their decimals;
// other values keep two digits past the first significant one.
type NumberRealizer struct{}

func (NumberRealizer) Languages() []string { return []string{AnyLanguage} }

func (NumberRealizer) Realize(_ *rand.Rand, slot *model.Slot) ([]model.Component, bool) {
	v, ok := slot.Raw().(float64)
	if !ok {
		return nil, false
	}
	slot.Resolve(FormatNumber(v))
	return []model.Component{slot}, true
}

// FormatNumber renders v the way NumberRealizer does
func FormatNumber(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	for digits := 0; digits < 5; digits++ {
		if roundTo(v, digits) != 0 {
			return strconv.FormatFloat(roundTo(v, digits+2), 'f', -1, 64)
		}
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundTo(v float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}

var groupRefRe = regexp.MustCompile(`\{(\d+)\}`)

// RegexRealizer rewrites string values that fully match a pattern. The
// chosen template is split into one resolved slot per word; an empty
// realization removes the slot.
type RegexRealizer struct {
	languages []string
	pattern   *regexp.Regexp
	templates []string
	attach    map[int]bool
}

// NewRegexRealizer compiles a regex realizer. Templates refer to capture
// groups as {1}, {2}...; attachTo lists the output words that keep the
// slot attributes.
func NewRegexRealizer(languages []string, pattern string, templates []string, attachTo []int) (*RegexRealizer, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("regex realizer %q: no templates", pattern)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("regex realizer: %w", err)
	}
	attach := make(map[int]bool, len(attachTo))
	for _, idx := range attachTo {
		attach[idx] = true
	}
	return &RegexRealizer{languages: languages, pattern: re, templates: templates, attach: attach}, nil
}

func (r *RegexRealizer) Languages() []string { return r.languages }

func (r *RegexRealizer) Realize(rng *rand.Rand, slot *model.Slot) ([]model.Component, bool) {
	value, ok := slot.Raw().(string)
	if !ok {
		return nil, false
	}
	groups := r.pattern.FindStringSubmatch(value)
	if groups == nil {
		return nil, false
	}

	template := r.templates[rng.IntN(len(r.templates))]
	text := groupRefRe.ReplaceAllStringFunc(template, func(ref string) string {
		n, _ := strconv.Atoi(ref[1 : len(ref)-1])
		if n < len(groups) {
			return groups[n]
		}
		return ref
	})

	words := strings.Fields(text)
	out := make([]model.Component, 0, len(words))
	for idx, word := range words {
		s := slot.Copy(true)
		if !r.attach[idx] {
			s.Attributes = map[string]string{}
		}
		s.Resolve(word)
		out = append(out, s)
	}
	return out, true
}

// RegexRealizers builds the regex realizers defined in the vocabulary
func RegexRealizers(v vocabulary.Vocabulary) ([]SlotRealizerComponent, error) {
	langs := v.Languages()
	sort.Strings(langs)

	var out []SlotRealizerComponent
	for _, lang := range langs {
		for _, rule := range v[lang].Realizers {
			r, err := NewRegexRealizer([]string{lang}, rule.Pattern, rule.Templates, rule.AttachAttributesTo)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", lang, err)
			}
			out = append(out, r)
		}
	}
	return out, nil
}
