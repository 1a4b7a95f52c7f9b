// Package templates reads multilingual template files.
//
// A file is a sequence of blocks separated by blank lines. Each block holds
// one or more template lines, optionally prefixed with a language id
// ("en: ..."), and constraint lines starting with "|" that select the facts
// the templates can express. A block consisting only of "lang:" changes the
// default language for the blocks that follow. Lines starting with "#" are
// comments and lines starting with "$" define value groups:
//
//	$ {nordic}: fi, se, no
//
//	en: {where} was ranked {what} in crimes {time}
//	fi: {where, case=nom} oli rikostilastossa sijalla {what} {time}
//	| what_type = crime_rank, where in {nordic}
//
// Square brackets mark optional template parts; every combination is
// generated. Indented lines continue the previous line.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/reporter/internal/model"
)

//go:embed data/*.txt
var embedded embed.FS

const rulePrefix = "|"

// ReadError reports a malformed template definition
type ReadError struct {
	Msg     string
	RawText string
}

func (e *ReadError) Error() string {
	if e.RawText == "" {
		return "template: " + e.Msg
	}
	return fmt.Sprintf("template: %s\n%s", e.Msg, e.RawText)
}

func readErr(format string, args ...any) *ReadError {
	return &ReadError{Msg: fmt.Sprintf(format, args...)}
}

func withRawText(err error, raw string) error {
	var re *ReadError
	if errors.As(err, &re) && re.RawText == "" {
		re.RawText = raw
	}
	return err
}

// fieldAliases maps every accepted field spelling to its canonical name
var fieldAliases = canonicalMap(map[string][]string{
	model.FieldWhere:       {"corpus", "location", "subject"},
	model.FieldWhereType:   {"corpus_type", "location_type", "subject_type"},
	model.FieldWhat:        {"result_value", "value"},
	model.FieldWhatType:    {"analysis_type", "value_type"},
	model.FieldKey:         {"result_key"},
	model.FieldWhen1:       {"timestamp_from", "when"},
	model.FieldWhen2:       {"timestamp_to"},
	model.FieldWhenType:    {"timestamp_type"},
	model.FieldOutlierness: {},
	model.FieldID:          {"analysis_id"},
})

var locationTypes = canonicalMap(map[string][]string{
	"C": {"country"},
	"D": {"district"},
	"M": {"municipality", "mun"},
})

// caseNames maps grammatical case aliases to the canonical case name
var caseNames = canonicalMap(map[string][]string{
	"nominative":  {"nominatiivi", "nom"},
	"genitive":    {"genitiivi", "gen"},
	"partitive":   {"partitiivi", "par"},
	"accusative":  {"akkusatiivi", "acc"},
	"inessive":    {"inessiivi", "ine", "ssa"},
	"elative":     {"elatiivi", "ela", "sta"},
	"illative":    {"illatiivi", "ill"},
	"adessive":    {"adessiivi", "ade", "lla"},
	"ablative":    {"ablatiivi", "abl", "lta"},
	"allative":    {"allatiivi", "all", "lle"},
	"essive":      {"essiivi", "ess"},
	"translative": {"translatiivi", "tra"},
})

var (
	fieldNameRe   = regexp.MustCompile(`^[^\s|=<>!,]+`)
	referentialRe = regexp.MustCompile(`^(\d+)\.([a-z_0-9]+)$`)
	langSpecRe    = regexp.MustCompile(`^([A-Za-z]{0,3}(?:-[A-Za-z]+)?):\s(.*)$`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
)

func canonicalMap(m map[string][]string) map[string]string {
	out := make(map[string]string)
	for canonical, alts := range m {
		out[canonical] = canonical
		for _, alt := range alts {
			out[alt] = canonical
		}
	}
	return out
}

// Set maps a language id to its templates
type Set map[string][]*model.Template

// Merge appends the templates of other to s
func (s Set) Merge(other Set) {
	for lang, ts := range other {
		s[lang] = append(s[lang], ts...)
	}
}

// Languages returns the language ids with at least one template
func (s Set) Languages() []string {
	langs := make([]string, 0, len(s))
	for lang, ts := range s {
		if len(ts) > 0 {
			langs = append(langs, lang)
		}
	}
	return langs
}

// Reader parses template definitions
type Reader struct {
	language string
	groups   map[string]model.ValueSet
	// WhatTypes collects every what_type constraint value seen
	WhatTypes map[string]bool
}

// NewReader creates a reader whose default language is initialLanguage
func NewReader(initialLanguage string) *Reader {
	return &Reader{
		language:  initialLanguage,
		groups:    make(map[string]model.ValueSet),
		WhatTypes: make(map[string]bool),
	}
}

// Read parses a complete template text
func Read(data, initialLanguage string) (Set, error) {
	return NewReader(initialLanguage).Read(data)
}

// ReadFile parses a template file
func ReadFile(path, initialLanguage string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	set, err := Read(string(data), initialLanguage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Default returns the embedded template set
func Default() (Set, error) {
	entries, err := embedded.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("list embedded templates: %w", err)
	}
	set := Set{}
	for _, entry := range entries {
		data, err := embedded.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded templates: %w", err)
		}
		parsed, err := Read(string(data), "en")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		set.Merge(parsed)
	}
	return set, nil
}

// Read parses data, continuing from the reader's current language
func (r *Reader) Read(data string) (Set, error) {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	for _, line := range lines {
		if strings.HasPrefix(line, "$") {
			if err := r.defineGroup(line[1:]); err != nil {
				return nil, err
			}
		}
	}

	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "$") {
			continue
		}
		kept = append(kept, line)
	}

	set := Set{}
	for _, block := range blankLineSplit(kept) {
		templates, err := r.readBlock(block)
		if err != nil {
			return nil, err
		}
		set.Merge(templates)
	}
	return set, nil
}

func (r *Reader) defineGroup(def string) error {
	name, rest, _ := strings.Cut(def, ":")
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "{") || !strings.HasSuffix(name, "}") {
		return readErr("invalid group name %q: group names need to be within curly brackets", name)
	}
	var values model.ValueSet
	for _, v := range strings.Split(rest, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			values = append(values, detectType(v))
		}
	}
	r.groups[name] = values
	return nil
}

func (r *Reader) readBlock(block []string) (Set, error) {
	lines := joinIndented(block)
	raw := strings.Join(block, "\n")

	// A lone "lang:" switches the default language
	joined := strings.TrimSpace(strings.Join(lines, ""))
	if lang, rest, found := strings.Cut(joined, ":"); found && rest == "" {
		r.language = strings.ToLower(lang)
		return Set{}, nil
	}

	var templateLines, constraintLines []string
	for _, line := range lines {
		if strings.HasPrefix(line, rulePrefix) {
			constraintLines = append(constraintLines, strings.TrimSpace(line[len(rulePrefix):]))
		} else {
			templateLines = append(templateLines, line)
		}
	}
	// Blocks without constraint lines are not templates
	if len(constraintLines) == 0 {
		return Set{}, nil
	}

	rules := make([]model.Rule, 0, len(constraintLines))
	for _, cl := range constraintLines {
		matchers, err := r.parseConstraints(cl)
		if err != nil {
			return nil, withRawText(err, raw)
		}
		rules = append(rules, model.Rule{Matchers: matchers})
	}

	set := Set{}
	for _, line := range templateLines {
		if m := langSpecRe.FindStringSubmatch(line); m != nil {
			if lang := strings.ToLower(m[1]); lang != "" {
				r.language = lang
			}
			line = m[2]
		}
		if r.language == "" {
			return nil, &ReadError{Msg: "no language given for template", RawText: raw}
		}

		alternatives, err := expandAlternatives(line)
		if err != nil {
			return nil, withRawText(err, raw)
		}
		for _, alt := range alternatives {
			tmpl, err := parseTemplate(alt, rules)
			if err != nil {
				return nil, withRawText(err, raw)
			}
			set[r.language] = append(set[r.language], tmpl)
		}
	}
	return set, nil
}

// parseTemplate turns one expanded template line into a template. Rules are
// copied so every template owns its slot index lists.
func parseTemplate(line string, rules []model.Rule) (*model.Template, error) {
	var components []model.Component
	ruleSlots := make([][]int, len(rules))

	rest := strings.TrimSpace(line)
	for strings.TrimSpace(rest) != "" {
		literal, after, found := strings.Cut(rest, "{")
		for _, word := range strings.Fields(literal) {
			components = append(components, model.Literal{Value: word})
		}
		if !found {
			break
		}
		subst, remainder, closed := strings.Cut(after, "}")
		if !closed {
			return nil, readErr("closing brace missing in %q", line)
		}
		rest = remainder

		slot, ruleRef, err := parseSlot(subst, len(rules))
		if err != nil {
			return nil, err
		}
		if ruleRef >= 0 {
			ruleSlots[ruleRef] = append(ruleSlots[ruleRef], len(components))
		}
		components = append(components, slot)
	}

	bound := make([]model.Rule, len(rules))
	for i, rule := range rules {
		bound[i] = model.Rule{Matchers: rule.Matchers, SlotIndices: ruleSlots[i]}
	}
	return model.NewTemplate(components, bound), nil
}

// parseSlot reads a "{...}" substitution. The returned rule reference is
// -1 for literal slots.
func parseSlot(subst string, ruleCount int) (*model.Slot, int, error) {
	parts := strings.Split(subst, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	head := parts[0]
	if head == "" {
		return nil, 0, readErr("empty substitution {%s}", subst)
	}

	attributes := make(map[string]string)
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, 0, readErr("attribute with no value in {%s}: %q", subst, part)
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if key == "case" {
			if canonical, known := caseNames[val]; known {
				val = canonical
			}
		}
		attributes[key] = val
	}

	if head[0] == '"' || head[0] == '\'' {
		if len(head) < 2 || head[len(head)-1] != head[0] {
			return nil, 0, readErr("closing quote missing in {%s}", subst)
		}
		return model.NewSlot(model.LiteralSource{Text: head[1 : len(head)-1]}, attributes), -1, nil
	}

	ruleRef := 0
	field := head
	if ref, name, ok := strings.Cut(head, "."); ok {
		n, err := strconv.Atoi(ref)
		if err != nil {
			return nil, 0, readErr("invalid rule reference %q", head)
		}
		if n < 1 {
			return nil, 0, readErr("rule references use 1-index numbering, found %d in {%s}", n, subst)
		}
		ruleRef = n - 1
		field = name
	}
	if ruleRef >= ruleCount {
		return nil, 0, readErr("substitution {%s} refers to rule %d, but template only has %d rules", subst, ruleRef+1, ruleCount)
	}

	var source model.SlotSource
	switch {
	case field == model.SlotTypeTime:
		source = model.TimeSource{}
	case fieldAliases[field] == model.FieldWhere:
		source = model.EntitySource{}
	case fieldAliases[field] != "":
		source = model.FieldSource{Field: fieldAliases[field]}
	default:
		return nil, 0, readErr("unknown fact field %q used in substitution {%s}", field, subst)
	}
	return model.NewSlot(source, attributes), ruleRef, nil
}

func (r *Reader) parseConstraints(line string) ([]model.Matcher, error) {
	var matchers []model.Matcher
	rest := strings.TrimSpace(line)
	for rest != "" {
		loc := fieldNameRe.FindStringIndex(rest)
		if loc == nil {
			return nil, readErr("matcher must begin with a field name: %q", rest)
		}
		name := rest[:loc[1]]
		rest = strings.TrimSpace(rest[loc[1]:])

		var op model.Op
		for _, candidate := range model.Operators {
			if strings.HasPrefix(rest, string(candidate)) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, readErr("unrecognised operator at start of %q", rest)
		}
		rest = strings.TrimSpace(rest[len(op):])

		value, remainder, _ := strings.Cut(rest, ",")
		value = strings.TrimSpace(value)
		rest = strings.TrimSpace(remainder)
		if value == "" {
			return nil, readErr("missing value in constraint %q", line)
		}

		field, known := fieldAliases[name]
		if !known {
			// Shorthand: "name = value" means what_type = name, what = value
			m, err := model.NewMatcher(model.FactField{Field: model.FieldWhatType}, model.OpEq, name)
			if err != nil {
				return nil, readErr("%v", err)
			}
			matchers = append(matchers, m)
			r.WhatTypes[name] = true
			field = model.FieldWhat
		}

		m, err := r.buildMatcher(field, op, value)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

func (r *Reader) buildMatcher(field string, op model.Op, raw string) (model.Matcher, error) {
	lhs := model.FactField{Field: field}

	// what_type values are always patterns; elsewhere a value may read
	// another fact
	if field != model.FieldWhatType {
		var rhs model.Expr
		if m := referentialRe.FindStringSubmatch(raw); m != nil {
			idx, _ := strconv.Atoi(m[1])
			target, ok := fieldAliases[m[2]]
			if !ok || idx < 1 {
				return model.Matcher{}, readErr("invalid reference %q", raw)
			}
			rhs = model.RefField{Index: idx - 1, Field: target}
		} else if target, ok := fieldAliases[raw]; ok {
			rhs = model.FactField{Field: target}
		}
		if rhs != nil {
			matcher, err := model.NewExprMatcher(lhs, op, rhs)
			if err != nil {
				return model.Matcher{}, readErr("%v", err)
			}
			return matcher, nil
		}
	}

	var value any = raw
	switch field {
	case model.FieldWhereType:
		if canonical, ok := locationTypes[raw]; ok {
			value = canonical
		}
	case model.FieldWhatType:
		r.WhatTypes[raw] = true
	default:
		value = unquote(detectType(raw))
	}

	if s, ok := value.(string); ok {
		if group, isGroup := r.groups[s]; isGroup {
			value = group
		}
	}

	matcher, err := model.NewMatcher(lhs, op, value)
	if err != nil {
		return model.Matcher{}, readErr("%v", err)
	}
	return matcher, nil
}

// detectType turns booleans and numbers into typed values
func detectType(v string) any {
	switch v {
	case "True", "true":
		return true
	case "False", "false":
		return false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func unquote(v any) any {
	s, ok := v.(string)
	if !ok || len(s) < 2 {
		return v
	}
	if (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return v
}

func blankLineSplit(lines []string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// joinIndented merges indented continuation lines into the previous line
func joinIndented(lines []string) []string {
	var out []string
	for _, line := range lines {
		if len(out) > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			out[len(out)-1] += " " + strings.TrimSpace(line)
			continue
		}
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

// expandAlternatives expands "[optional]" parts into every combination
func expandAlternatives(line string) ([]string, error) {
	alts := []string{""}
	rest := line
	for rest != "" {
		before, after, found := strings.Cut(rest, "[")
		for i := range alts {
			alts[i] += before
		}
		if !found {
			break
		}
		inside, remainder, closed := strings.Cut(after, "]")
		if !closed {
			return nil, readErr("unmatched square bracket in template line %q", line)
		}
		expanded := make([]string, 0, 2*len(alts))
		for _, alt := range alts {
			expanded = append(expanded, alt+inside, alt)
		}
		alts = expanded
		rest = remainder
	}
	for i, alt := range alts {
		alts[i] = multiSpaceRe.ReplaceAllString(strings.TrimSpace(alt), " ")
	}
	return alts, nil
}
