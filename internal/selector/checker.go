package selector

import "github.com/ppiankov/reporter/internal/model"

type checkKey struct {
	msg              *model.Message
	locationRequired bool
}

// Checker tells whether a message can be expressed with some template.
// Results are memoized, so a Checker belongs to a single generation run.
type Checker struct {
	templates []*model.Template
	pool      []*model.Message
	memo      map[checkKey]bool
}

// NewChecker creates a checker over templates, satisfying secondary
// template rules from pool
func NewChecker(templates []*model.Template, pool []*model.Message) *Checker {
	return &Checker{
		templates: templates,
		pool:      pool,
		memo:      make(map[checkKey]bool),
	}
}

// Exists reports whether a template applies to msg. With locationRequired
// only templates expressing the location count.
func (c *Checker) Exists(msg *model.Message, locationRequired bool) bool {
	key := checkKey{msg, locationRequired}
	if found, ok := c.memo[key]; ok {
		return found
	}

	found := false
	for _, t := range c.templates {
		if locationRequired && !t.ExpressesLocation() {
			continue
		}
		if len(t.Check(msg, c.pool)) > 0 {
			found = true
			break
		}
	}
	c.memo[key] = found
	return found
}

// Templates returns every template that applies to msg, in registry order
func (c *Checker) Templates(msg *model.Message) []*model.Template {
	var out []*model.Template
	for _, t := range c.templates {
		if len(t.Check(msg, c.pool)) > 0 {
			out = append(out, t)
		}
	}
	return out
}
