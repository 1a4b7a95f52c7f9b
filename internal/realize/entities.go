package realize

import (
	"regexp"
	"strings"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

var entityTagRe = regexp.MustCompile(`^\[ENTITY:([^:\]]*):([^\]]*)\]$`)

// Name forms
const (
	FormFull    = "full"
	FormShort   = "short"
	FormPronoun = "pronoun"
)

// EntityNameResolver replaces [ENTITY:type:id] slots with names. The first
// mention in a paragraph uses the full name, an immediate repetition of
// the same entity uses the pronoun and later mentions the short name.
type EntityNameResolver struct {
	vocab vocabulary.Vocabulary
	log   *logger.Logger
}

type mentionState struct {
	previous    map[string]string // entity type -> last entity id
	encountered map[string]bool   // "type:id"
}

func newMentionState() *mentionState {
	return &mentionState{previous: map[string]string{}, encountered: map[string]bool{}}
}

// NewEntityNameResolver creates a name resolver
func NewEntityNameResolver(vocab vocabulary.Vocabulary, log *logger.Logger) *EntityNameResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &EntityNameResolver{vocab: vocab, log: log}
}

// Resolve names every entity slot under plan
func (e *EntityNameResolver) Resolve(lang string, plan *model.DocumentPlanNode) {
	e.walk(e.vocab.Language(lang), plan, newMentionState())
}

// walk returns the state to continue with. A sequence resets it, so every
// paragraph starts with full names.
func (e *EntityNameResolver) walk(l *vocabulary.Language, node model.Node, state *mentionState) *mentionState {
	switch n := node.(type) {
	case *model.Message:
		e.resolveMessage(l, n, state)
		return state
	case *model.DocumentPlanNode:
		for _, child := range n.Children {
			state = e.walk(l, child, state)
		}
		if n.Relation == model.Sequence {
			return newMentionState()
		}
		return state
	}
	return state
}

func (e *EntityNameResolver) resolveMessage(l *vocabulary.Language, msg *model.Message, state *mentionState) {
	if msg.Template == nil {
		return
	}
	for _, slot := range msg.Template.Slots() {
		if slot.Resolved() || slot.Type() != model.FieldWhere {
			continue
		}
		raw, _ := slot.Raw().(string)
		m := entityTagRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		entityType, id := m[1], m[2]
		key := entityType + ":" + id

		form := FormFull
		switch {
		case state.previous[entityType] == id:
			form = FormPronoun
		case state.encountered[key]:
			form = FormShort
		}
		state.previous[entityType] = id
		state.encountered[key] = true

		slot.Attributes["name_type"] = form
		slot.Attributes["entity_type"] = entityType
		slot.Resolve(e.name(l, entityType, id, form))
	}
}

func (e *EntityNameResolver) name(l *vocabulary.Language, entityType, id, form string) string {
	if names, ok := l.Entity(entityType, id); ok {
		if name := names.Form(form); name != "" {
			return name
		}
	}
	if id != "" {
		e.log.Debug("entity has no name", "type", entityType, "id", id)
	}
	return strings.ReplaceAll(id, "_", " ")
}
