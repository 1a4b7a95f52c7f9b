package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Slot types with special handling downstream
const (
	SlotTypeTime    = "time"
	SlotTypeLiteral = "literal"
)

// Component is a template part: Literal or *Slot
type Component interface {
	// Text is the current surface form of the component
	Text() string
	templateComponent()
}

// Literal is constant template text
type Literal struct {
	Value string
}

func (l Literal) Text() string { return l.Value }
func (Literal) templateComponent() {}
func (l Literal) String() string { return l.Value }

// SlotSource computes the unresolved value of a slot from its bound fact
type SlotSource interface {
	// Type names the kind of value (a fact field, "time" or "literal")
	Type() string
	Value(f *Fact) any
	String() string
}

// FieldSource reads a fact field
type FieldSource struct {
	Field string
}

func (s FieldSource) Type() string { return s.Field }

func (s FieldSource) Value(f *Fact) any {
	if f == nil {
		return nil
	}
	v, _ := f.Field(s.Field)
	return v
}

func (s FieldSource) String() string { return "fact." + s.Field }

// TimeSource renders the temporal range of a fact as [TIME:type:from:to]
type TimeSource struct{}

func (TimeSource) Type() string { return SlotTypeTime }

func (TimeSource) Value(f *Fact) any {
	if f == nil {
		return nil
	}
	return fmt.Sprintf("[TIME:%s:%s:%s]", f.WhenType, f.When1, f.When2)
}

func (TimeSource) String() string { return "fact.time" }

// EntitySource renders a subject as [ENTITY:type:id] for the name resolver
type EntitySource struct{}

func (EntitySource) Type() string { return FieldWhere }

func (EntitySource) Value(f *Fact) any {
	if f == nil {
		return nil
	}
	return fmt.Sprintf("[ENTITY:%s:%s]", f.WhereType, f.Where)
}

func (EntitySource) String() string { return "fact.entity" }

// LiteralSource ignores the fact
type LiteralSource struct {
	Text string
}

func (LiteralSource) Type() string { return SlotTypeLiteral }
func (s LiteralSource) Value(*Fact) any { return s.Text }
func (s LiteralSource) String() string { return fmt.Sprintf("%q", s.Text) }

// SlotValue is the realized state of a slot: unresolved until a realizer
// sets its final text.
type SlotValue struct {
	resolved bool
	text     string
}

// Resolved returns a resolved slot value
func Resolved(text string) SlotValue {
	return SlotValue{resolved: true, text: text}
}

// IsResolved reports whether a realizer has set the text
func (v SlotValue) IsResolved() bool { return v.resolved }

// Slot is a template placeholder bound to a fact at fill time
type Slot struct {
	Source     SlotSource
	Attributes map[string]string
	Fact       *Fact

	value SlotValue
}

// NewSlot creates an unresolved slot
func NewSlot(source SlotSource, attributes map[string]string) *Slot {
	if attributes == nil {
		attributes = map[string]string{}
	}
	return &Slot{Source: source, Attributes: attributes}
}

func (*Slot) templateComponent() {}

// Type returns the slot type of the source
func (s *Slot) Type() string { return s.Source.Type() }

// Raw returns the unresolved source value against the bound fact
func (s *Slot) Raw() any { return s.Source.Value(s.Fact) }

// Resolved reports whether the slot text is final
func (s *Slot) Resolved() bool { return s.value.resolved }

// Resolve sets the final text. A slot is resolved at most once.
func (s *Slot) Resolve(text string) {
	if s.value.resolved {
		panic(fmt.Sprintf("model: slot %s resolved twice", s.Source))
	}
	s.value = Resolved(text)
}

// Text returns the resolved text or the formatted raw value
func (s *Slot) Text() string {
	if s.value.resolved {
		return s.value.text
	}
	return FormatValue(s.Raw())
}

// Copy duplicates the slot. The bound fact is kept only when withFact is set.
func (s *Slot) Copy(withFact bool) *Slot {
	c := &Slot{
		Source:     s.Source,
		Attributes: maps.Clone(s.Attributes),
		value:      s.value,
	}
	if c.Attributes == nil {
		c.Attributes = map[string]string{}
	}
	if withFact {
		c.Fact = s.Fact
	}
	return c
}

func (s *Slot) String() string {
	var b strings.Builder
	b.WriteString("Slot(")
	b.WriteString(s.Source.String())
	for _, k := range slices.Sorted(maps.Keys(s.Attributes)) {
		fmt.Fprintf(&b, ", %s=%s", k, s.Attributes[k])
	}
	b.WriteString(")")
	return b.String()
}

// Rule binds the fact matching all matchers to the listed slot indices
type Rule struct {
	Matchers    []Matcher
	SlotIndices []int
}

func (r Rule) matches(f Fact, bound []Fact) bool {
	for _, m := range r.Matchers {
		if !m.Match(f, bound) {
			return false
		}
	}
	return true
}

// Template is a sentence pattern plus the rules selecting the facts it
// can express. Registry templates are shared; use Copy before Fill.
type Template struct {
	Components []Component
	Rules      []Rule

	facts []Fact

	locOnce           sync.Once
	expressesLocation bool
}

// NewTemplate creates a template
func NewTemplate(components []Component, rules []Rule) *Template {
	return &Template{Components: components, Rules: rules}
}

// DefaultTemplate is a rule-less template with canned text
func DefaultTemplate(text string) *Template {
	return NewTemplate([]Component{Literal{Value: text}}, nil)
}

// Facts returns the facts bound by the last successful Fill
func (t *Template) Facts() []Fact {
	return t.facts
}

// Slots returns the slot components in order
func (t *Template) Slots() []*Slot {
	var slots []*Slot
	for _, c := range t.Components {
		if s, ok := c.(*Slot); ok {
			slots = append(slots, s)
		}
	}
	return slots
}

// ExpressesLocation reports whether any slot renders the subject
func (t *Template) ExpressesLocation() bool {
	t.locOnce.Do(func() {
		for _, s := range t.Slots() {
			if s.Type() == FieldWhere {
				t.expressesLocation = true
				return
			}
		}
	})
	return t.expressesLocation
}

// Check reports the facts the template would express for primary, using
// pool to satisfy the secondary rules. It returns nil when the template
// does not apply. Check never modifies the template.
//
// Matching is greedy: each secondary rule takes the first eligible pool
// message in order and earlier choices are never revisited, so a rule set
// that needs a different assignment can fail even though one exists.
func (t *Template) Check(primary *Message, pool []*Message) []Fact {
	return t.match(primary, pool, false)
}

// Fill is Check that also binds every matched fact to its slots
func (t *Template) Fill(primary *Message, pool []*Message) []Fact {
	return t.match(primary, pool, true)
}

func (t *Template) match(primary *Message, pool []*Message, bind bool) []Fact {
	if len(t.Rules) == 0 {
		return nil
	}

	main := primary.MainFact()
	if !t.Rules[0].matches(main, nil) {
		return nil
	}

	used := []Fact{main}
	bindings := [][]int{t.Rules[0].SlotIndices}

	for _, rule := range t.Rules[1:] {
		found := false
		for _, msg := range pool {
			candidate := msg.MainFact()
			if ContainsFact(used, candidate) {
				continue
			}
			if rule.matches(candidate, used) {
				used = append(used, candidate)
				bindings = append(bindings, rule.SlotIndices)
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	if bind {
		for i, indices := range bindings {
			fact := used[i]
			for _, idx := range indices {
				if idx < 0 || idx >= len(t.Components) {
					continue
				}
				if s, ok := t.Components[idx].(*Slot); ok {
					s.Fact = &fact
				}
			}
		}
		t.facts = used
	}
	return used
}

// Copy returns an unbound copy sharing the immutable rules
func (t *Template) Copy() *Template {
	components := make([]Component, len(t.Components))
	for i, c := range t.Components {
		switch v := c.(type) {
		case Literal:
			components[i] = v
		case *Slot:
			components[i] = v.Copy(false)
		default:
			panic(fmt.Sprintf("model: unexpected template component %T", c))
		}
	}
	return NewTemplate(components, t.Rules)
}

func (t *Template) String() string {
	parts := make([]string, len(t.Components))
	for i, c := range t.Components {
		switch v := c.(type) {
		case Literal:
			parts[i] = v.Value
		case *Slot:
			if v.Fact != nil || v.Resolved() {
				parts[i] = v.Text()
			} else {
				parts[i] = v.String()
			}
		default:
			panic(fmt.Sprintf("model: unexpected template component %T", c))
		}
	}
	return "<Template: " + strings.Join(parts, " ") + ">"
}
