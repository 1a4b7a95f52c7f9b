// Package aggregator merges neighbouring sentences that start the same way,
// "X had 10 crimes in 2020" + "X had 3 murders in 2020" becoming
// "X had 10 crimes in 2020 and 3 murders in 2020".
package aggregator

import (
	"fmt"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

// Conjunctions looks up the combiners of a language
type Conjunctions interface {
	Conjunctions(lang string) (vocabulary.Conjunctions, bool)
}

// Aggregator combines sibling messages in place
type Aggregator struct {
	conjunctions Conjunctions
	log          *logger.Logger
}

// New creates an aggregator
func New(conjunctions Conjunctions, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{conjunctions: conjunctions, log: log}
}

// Aggregate walks the plan bottom-up, combining adjacent messages of
// SEQUENCE and LIST nodes. Other relations are left as they are.
//
// LIST and ELABORATION nodes could use dedicated combinations ("X, Y and
// Z had ..."); they currently share the sequence behaviour or none.
func (a *Aggregator) Aggregate(lang string, plan *model.DocumentPlanNode) {
	a.aggregate(lang, plan)
}

func (a *Aggregator) aggregate(lang string, node *model.DocumentPlanNode) {
	for _, child := range node.Children {
		switch c := child.(type) {
		case *model.DocumentPlanNode:
			a.aggregate(lang, c)
		case *model.Message:
		default:
			panic(fmt.Sprintf("aggregator: unexpected plan node %T", child))
		}
	}

	if node.Relation != model.Sequence && node.Relation != model.List {
		return
	}

	combined := make([]model.Node, 0, len(node.Children))
	for _, child := range node.Children {
		if len(combined) > 0 {
			prev, ok1 := combined[len(combined)-1].(*model.Message)
			cur, ok2 := child.(*model.Message)
			if ok1 && ok2 && !prev.PreventAggregation && !cur.PreventAggregation && combinable(prev, cur) {
				combined[len(combined)-1] = a.combine(lang, prev, cur)
				continue
			}
		}
		combined = append(combined, child)
	}
	node.Children = combined
}

func combinable(first, second *model.Message) bool {
	_, ok := CombinablePrefix(first, second)
	return ok
}

// CombinablePrefix returns the shared leading components of two filled
// messages. The prefix ends at a slot, except for the empty prefix which
// is returned as combinable when both sentences continue with a value
// slot. The second result is false when the messages cannot be combined.
func CombinablePrefix(first, second *model.Message) ([]model.Component, bool) {
	if first.Template == nil || second.Template == nil {
		return nil, false
	}
	c1, c2 := first.Template.Components, second.Template.Components

	n := 0
	for n < len(c1) && n < len(c2) && same(c1[n], c2[n]) {
		n++
	}

	if nextAreValues(first, second, n) {
		return c1[:n], true
	}

	for n > 0 {
		if _, isSlot := c1[n-1].(*model.Slot); isSlot {
			break
		}
		n--
	}
	return c1[:n], n > 0
}

func nextAreValues(first, second *model.Message, idx int) bool {
	c1, c2 := first.Template.Components, second.Template.Components
	if idx >= len(c1) || idx >= len(c2) {
		return false
	}
	s1, ok1 := c1[idx].(*model.Slot)
	s2, ok2 := c2[idx].(*model.Slot)
	return ok1 && ok2 && s1.Type() == model.FieldWhat && s2.Type() == model.FieldWhat
}

// same compares two template components for aggregation purposes
func same(c1, c2 model.Component) bool {
	if c1.Text() != c2.Text() {
		return false
	}

	s1, ok1 := c1.(*model.Slot)
	s2, ok2 := c2.(*model.Slot)
	if ok1 && ok2 {
		t1, t2 := s1.Type() == model.SlotTypeTime, s2.Type() == model.SlotTypeTime
		switch {
		case t1 != t2:
			return false
		case t1:
			if s1.Fact == nil || s2.Fact == nil {
				return false
			}
			f1, f2 := s1.Fact, s2.Fact
			if f1.WhenType != f2.WhenType || f1.When1 != f2.When1 || f1.When2 != f2.When2 {
				return false
			}
		default:
			if s1.Raw() != s2.Raw() {
				return false
			}
		}

		// The same number in two sentences does not describe the same set
		if s1.Type() == model.FieldWhat {
			return false
		}
	}

	return caseOf(c1) == caseOf(c2)
}

func caseOf(c model.Component) string {
	switch v := c.(type) {
	case *model.Slot:
		return v.Attributes["case"]
	case model.Literal:
		return "no-case"
	default:
		panic(fmt.Sprintf("aggregator: unexpected template component %T", c))
	}
}

func (a *Aggregator) combine(lang string, first, second *model.Message) *model.Message {
	prefix, _ := CombinablePrefix(first, second)

	conjunction := "MISSING-CONJUNCTION"
	if conj, ok := a.conjunctions.Conjunctions(lang); ok {
		conjunction = conj.Default
		if first.Polarity != second.Polarity && conj.Inverse != "" {
			conjunction = conj.Inverse
		}
	} else {
		a.log.Warn("no conjunctions for language", "language", lang)
	}

	tail := second.Template.Components[len(prefix):]
	components := make([]model.Component, 0, len(first.Template.Components)+1+len(tail))
	components = append(components, first.Template.Components...)
	components = append(components, model.Literal{Value: conjunction})
	components = append(components, tail...)

	facts := append([]model.Fact(nil), first.Facts...)
	for _, f := range second.Facts {
		if !model.ContainsFact(facts, f) {
			facts = append(facts, f)
		}
	}

	score := first.Score
	if second.Score > score {
		score = second.Score
	}

	a.log.Debug("combined messages", "first", first.String(), "second", second.String())

	return &model.Message{
		Facts:                 facts,
		Score:                 score,
		ImportanceCoefficient: first.ImportanceCoefficient,
		Polarity:              first.Polarity,
		PreventAggregation:    true,
		Template:              model.NewTemplate(components, nil),
	}
}
