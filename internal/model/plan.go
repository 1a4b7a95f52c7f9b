package model

import (
	"fmt"
	"strings"
)

// Relation describes how the children of a DocumentPlanNode relate
type Relation int

const (
	Sequence Relation = iota
	List
	Elaboration
	Exemplification
	Contrast
)

func (r Relation) String() string {
	switch r {
	case Sequence:
		return "SEQUENCE"
	case List:
		return "LIST"
	case Elaboration:
		return "ELABORATION"
	case Exemplification:
		return "EXEMPLIFICATION"
	case Contrast:
		return "CONTRAST"
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// Node is a document plan tree node: either *Message or *DocumentPlanNode
type Node interface {
	planNode()
}

// Message is a leaf of the document plan. It wraps one or more facts, the
// first of which is the main fact used for scoring and matching.
type Message struct {
	Facts                 []Fact    `json:"facts"`
	Score                 float64   `json:"score"`
	ImportanceCoefficient float64   `json:"importance_coefficient"`
	Polarity              float64   `json:"polarity"`
	PreventAggregation    bool      `json:"prevent_aggregation,omitempty"`
	Template              *Template `json:"-"`
}

// NewMessage creates a core message (importance coefficient 1.0)
func NewMessage(main Fact, supporting ...Fact) *Message {
	facts := make([]Fact, 0, 1+len(supporting))
	facts = append(facts, main)
	facts = append(facts, supporting...)
	return &Message{
		Facts:                 facts,
		ImportanceCoefficient: 1.0,
	}
}

// MainFact returns the first fact of the message
func (m *Message) MainFact() Fact {
	return m.Facts[0]
}

// IsExpanded reports whether the message came from an expansion pass
func (m *Message) IsExpanded() bool {
	return m.ImportanceCoefficient < 1.0
}

func (m *Message) String() string {
	if m.Template != nil {
		return "<Message: " + m.Template.String() + ">"
	}
	f := m.MainFact()
	return fmt.Sprintf("<Message: %s %s=%s @%s>", f.Where, f.WhatType, FormatValue(f.What), f.When1)
}

func (*Message) planNode() {}

// DocumentPlanNode is an inner node of the document plan
type DocumentPlanNode struct {
	Children []Node
	Relation Relation
}

// NewDocumentPlanNode creates a node with the given relation and children
func NewDocumentPlanNode(relation Relation, children ...Node) *DocumentPlanNode {
	if children == nil {
		children = []Node{}
	}
	return &DocumentPlanNode{
		Children: children,
		Relation: relation,
	}
}

func (*DocumentPlanNode) planNode() {}

func (n *DocumentPlanNode) String() string {
	return n.Relation.String()
}

// Messages returns every message under node in document order
func Messages(node Node) []*Message {
	var out []*Message
	var walk func(Node)
	walk = func(n Node) {
		switch t := n.(type) {
		case *Message:
			out = append(out, t)
		case *DocumentPlanNode:
			for _, child := range t.Children {
				walk(child)
			}
		default:
			panic(fmt.Sprintf("model: unexpected plan node %T", n))
		}
	}
	walk(node)
	return out
}

// Dump renders the plan as an indented tree, one node per line
func Dump(node Node) string {
	var b strings.Builder
	var walk func(Node, int)
	walk = func(n Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		switch t := n.(type) {
		case *Message:
			b.WriteString(t.String())
			b.WriteByte('\n')
		case *DocumentPlanNode:
			b.WriteString(t.String())
			b.WriteByte('\n')
			for _, child := range t.Children {
				walk(child, depth+1)
			}
		default:
			panic(fmt.Sprintf("model: unexpected plan node %T", n))
		}
	}
	walk(node, 0)
	return b.String()
}
