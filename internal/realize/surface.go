package realize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/reporter/internal/model"
)

// ErrEmptySentence is returned when a headline realizes to nothing
var ErrEmptySentence = errors.New("empty sentence")

// Output formats
const (
	FormatParagraphs  = "p"
	FormatList        = "ul"
	FormatOrderedList = "ol"
)

// SurfaceRealizer renders a document plan. Each child of the root is a
// paragraph and each message under it one sentence.
type SurfaceRealizer struct {
	ParagraphStart string
	ParagraphEnd   string
	SentenceStart  string
	SentenceEnd    string
	// FailOnEmpty turns an empty sentence into ErrEmptySentence
	FailOnEmpty bool
}

var (
	BodyParagraphs = SurfaceRealizer{ParagraphStart: "<p>", ParagraphEnd: "</p>", SentenceEnd: ". "}
	BodyList       = SurfaceRealizer{ParagraphStart: "<ul>", ParagraphEnd: "</ul>", SentenceStart: "<li>", SentenceEnd: ".</li>"}
	BodyOrdered    = SurfaceRealizer{ParagraphStart: "<ol>", ParagraphEnd: "</ol>", SentenceStart: "<li>", SentenceEnd: ".</li>"}
	Headline       = SurfaceRealizer{ParagraphStart: "<h4>", ParagraphEnd: "</h4>", FailOnEmpty: true}
)

// Formats lists the body output formats
func Formats() []string {
	return []string{FormatParagraphs, FormatList, FormatOrderedList}
}

// BodyRealizer returns the body realizer for an output format
func BodyRealizer(format string) (SurfaceRealizer, error) {
	switch format {
	case "", FormatParagraphs:
		return BodyParagraphs, nil
	case FormatList:
		return BodyList, nil
	case FormatOrderedList:
		return BodyOrdered, nil
	}
	return SurfaceRealizer{}, fmt.Errorf("unknown output format %q", format)
}

var (
	spacesRe      = regexp.MustCompile(`\s+`)
	spaceBeforeRe = regexp.MustCompile(` ([),.:])`)
	spaceAfterRe  = regexp.MustCompile(`\( `)
	doubleStopRe  = regexp.MustCompile(`\.(\s*\.)+`)
)

// Realize renders plan and returns the text with the highest message score
func (s SurfaceRealizer) Realize(plan *model.DocumentPlanNode) (string, float64, error) {
	var b strings.Builder
	var maxScore float64
	first := true

	for _, paragraph := range plan.Children {
		b.WriteString(s.ParagraphStart)
		for _, msg := range model.Messages(paragraph) {
			sentence := Sentence(msg)
			if sentence == "" {
				if s.FailOnEmpty {
					return "", 0, ErrEmptySentence
				}
				continue
			}
			b.WriteString(s.SentenceStart)
			b.WriteString(sentence)
			b.WriteString(s.SentenceEnd)

			if first || msg.Score > maxScore {
				maxScore = msg.Score
				first = false
			}
		}
		b.WriteString(s.ParagraphEnd)
	}
	return b.String(), maxScore, nil
}

// Sentence joins the component texts of msg with the spacing tidied and
// the first letter capitalized
func Sentence(msg *model.Message) string {
	if msg.Template == nil {
		return ""
	}
	parts := make([]string, 0, len(msg.Template.Components))
	for _, c := range msg.Template.Components {
		if text := strings.TrimSpace(c.Text()); text != "" {
			parts = append(parts, text)
		}
	}

	sentence := spacesRe.ReplaceAllString(strings.Join(parts, " "), " ")
	sentence = spaceBeforeRe.ReplaceAllString(sentence, "$1")
	sentence = spaceAfterRe.ReplaceAllString(sentence, "(")
	sentence = doubleStopRe.ReplaceAllString(sentence, ".")
	sentence = strings.Trim(sentence, " ,:")
	return capitalize(sentence)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
