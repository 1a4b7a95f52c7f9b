// Package selector assigns a filled template to every message of a
// document plan.
package selector

import (
	"fmt"
	"math/rand/v2"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
)

// Selector picks templates while tracking which location the reader
// currently assumes
type Selector struct {
	templates     []*model.Template
	locIfNotSince int
	fallback      string
	log           *logger.Logger
}

// New creates a selector. A paragraph opening sentence repeats the
// location when it has not been expressed for more than locIfNotSince
// sentences.
func New(templates []*model.Template, locIfNotSince int, log *logger.Logger) *Selector {
	if log == nil {
		log = logger.Nop()
	}
	return &Selector{templates: templates, locIfNotSince: locIfNotSince, log: log}
}

// WithFallback sets the text of the template used for messages no
// template can express
func (s *Selector) WithFallback(text string) *Selector {
	s.fallback = text
	return s
}

type discourse struct {
	location      *string
	sinceLocation int
}

// Select fills a template for every message under plan. Secondary template
// rules draw on all.
func (s *Selector) Select(rng *rand.Rand, plan *model.DocumentPlanNode, all []*model.Message) {
	checker := NewChecker(s.templates, all)
	s.log.Debug("selecting templates", "templates", len(s.templates), "messages", len(all))
	s.walk(rng, plan, all, checker, &discourse{})
}

func (s *Selector) walk(rng *rand.Rand, node *model.DocumentPlanNode, all []*model.Message, checker *Checker, d *discourse) {
	for idx, child := range node.Children {
		switch c := child.(type) {
		case *model.DocumentPlanNode:
			s.walk(rng, c, all, checker, d)
		case *model.Message:
			s.selectFor(rng, idx, c, all, checker, d)
		default:
			panic(fmt.Sprintf("selector: unexpected plan node %T", child))
		}
	}
}

func (s *Selector) selectFor(rng *rand.Rand, idx int, msg *model.Message, all []*model.Message, checker *Checker, d *discourse) {
	where := msg.MainFact().Where
	locationChanged := d.location == nil || *d.location != where
	expressLocation := locationChanged || (idx == 0 && d.sinceLocation > s.locIfNotSince)

	var preferred, other []*model.Template
	for _, t := range checker.Templates(msg) {
		if t.ExpressesLocation() == expressLocation {
			preferred = append(preferred, t)
		} else {
			other = append(other, t)
		}
	}

	bucket := preferred
	if len(bucket) == 0 {
		bucket = other
	}
	if len(bucket) == 0 {
		s.log.Error("no template to express message", "message", msg.String(), "location_required", locationChanged)
		msg.Template = model.DefaultTemplate(s.fallback)
		return
	}

	chosen := bucket[rng.IntN(len(bucket))].Copy()
	facts := chosen.Fill(msg, all)
	if len(facts) == 0 {
		s.log.Error("chosen template could not be filled, using default", "template", chosen.String(), "message", msg.String())
		msg.Template = model.DefaultTemplate(s.fallback)
		return
	}

	msg.Template = chosen
	msg.Facts = facts

	d.location = &where
	if chosen.ExpressesLocation() {
		d.sinceLocation = 0
	} else {
		d.sinceLocation++
	}
}
