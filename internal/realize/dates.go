package realize

import (
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

var (
	timeTagRe = regexp.MustCompile(`^\[TIME:([^:\]]*):([^:\]]*):([^:\]]*)\]$`)
	monthRe   = regexp.MustCompile(`^(\d+)M(\d+)$`)
)

// DateRealizer turns [TIME:type:from:to] slots into temporal expressions.
// A time equal to the previous one is referred back to ("in the same
// year") and a month in the previously mentioned year omits the year.
type DateRealizer struct {
	vocab vocabulary.Vocabulary
	log   *logger.Logger
}

// NewDateRealizer creates a date realizer
func NewDateRealizer(vocab vocabulary.Vocabulary, log *logger.Logger) *DateRealizer {
	if log == nil {
		log = logger.Nop()
	}
	return &DateRealizer{vocab: vocab, log: log}
}

// Realize resolves the time slots under plan in document order
func (d *DateRealizer) Realize(rng *rand.Rand, lang string, plan *model.DocumentPlanNode) {
	dates := d.dates(lang)
	previous := ""

	for _, msg := range model.Messages(plan) {
		if msg.Template == nil {
			continue
		}
		out := make([]model.Component, 0, len(msg.Template.Components))
		for _, c := range msg.Template.Components {
			slot, ok := c.(*model.Slot)
			if !ok || slot.Resolved() || slot.Type() != model.SlotTypeTime {
				out = append(out, c)
				continue
			}
			raw, _ := slot.Raw().(string)
			m := timeTagRe.FindStringSubmatch(raw)
			if m == nil {
				out = append(out, c)
				continue
			}

			text, ok := d.expression(rng, dates, m[1], m[2], m[3], previous)
			if !ok {
				d.log.Warn("cannot realize time", "value", raw, "language", lang)
				out = append(out, c)
				continue
			}
			for _, word := range strings.Fields(text) {
				s := slot.Copy(true)
				s.Resolve(word)
				out = append(out, s)
			}
			previous = raw
		}
		msg.Template.Components = out
	}
}

func (d *DateRealizer) dates(lang string) vocabulary.Dates {
	if l := d.vocab.Language(lang); l != nil && l.Dates.YearExpression != "" {
		return l.Dates
	}
	if l := d.vocab.Language(vocabulary.FallbackLanguage); l != nil {
		return l.Dates
	}
	return vocabulary.Dates{}
}

func (d *DateRealizer) expression(rng *rand.Rand, dates vocabulary.Dates, kind, from, to, previous string) (string, bool) {
	current := "[TIME:" + kind + ":" + from + ":" + to + "]"

	switch kind {
	case "":
		// No time information: the slot disappears
		return "", true
	case "year":
		if current == previous && len(dates.YearReference) > 0 {
			return choice(rng, dates.YearReference), true
		}
		return fill(dates.YearExpression, "year", from), dates.YearExpression != ""
	case "month":
		m := monthRe.FindStringSubmatch(from)
		if m == nil {
			return "", false
		}
		year, month := m[1], dates.Months[m[2]]
		if month == "" {
			return "", false
		}
		if current == previous && len(dates.MonthReference) > 0 {
			return choice(rng, dates.MonthReference), true
		}
		if previousYear(previous) == year {
			return fill(dates.MonthExpression, "month", month), true
		}
		return fill(fill(dates.MonthYearExpression, "month", month), "year", year), true
	case "between_years":
		expr := fill(fill(dates.BetweenExpression, "start", from), "end", to)
		return expr, dates.BetweenExpression != ""
	case "all_time":
		if len(dates.AllTime) == 0 {
			return "", true
		}
		return choice(rng, dates.AllTime), true
	}
	return "", false
}

// previousYear extracts the year of a previous year or month tag
func previousYear(previous string) string {
	m := timeTagRe.FindStringSubmatch(previous)
	if m == nil {
		return ""
	}
	switch m[1] {
	case "year":
		return m[2]
	case "month":
		if mm := monthRe.FindStringSubmatch(m[2]); mm != nil {
			return mm[1]
		}
	}
	return ""
}

func fill(pattern, name, value string) string {
	return strings.ReplaceAll(pattern, "{"+name+"}", value)
}

func choice(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}
