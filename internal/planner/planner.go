// Package planner selects the messages of a document and arranges them
// into paragraphs of related sentences.
package planner

import (
	"errors"
	"sort"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
)

// ErrNoInterestingMessages is returned when no core message exists
var ErrNoInterestingMessages = errors.New("no interesting messages for selection")

// Checker reports whether some template can express a message
type Checker interface {
	Exists(msg *model.Message, locationRequired bool) bool
}

// BodyPlanner builds the multi-paragraph body of a document
type BodyPlanner struct {
	config  model.PlannerConfig
	checker Checker
	log     *logger.Logger
}

// NewBodyPlanner creates a body planner
func NewBodyPlanner(config model.PlannerConfig, checker Checker, log *logger.Logger) *BodyPlanner {
	if log == nil {
		log = logger.Nop()
	}
	return &BodyPlanner{config: config, checker: checker, log: log}
}

// Plan builds the document plan from messages sorted by descending score.
// The root is a SEQUENCE of paragraphs; each paragraph starts with its
// nucleus. It also returns every input message, for template selection.
func (p *BodyPlanner) Plan(messages []*model.Message) (*model.DocumentPlanNode, []*model.Message, error) {
	all := messages

	var core []*model.Message
	for _, m := range messages {
		if m.ImportanceCoefficient >= 1.0 {
			core = append(core, m)
		}
	}
	if len(core) == 0 {
		return nil, nil, ErrNoInterestingMessages
	}

	root := model.NewDocumentPlanNode(model.Sequence)
	remaining := append([]*model.Message(nil), messages...)

	var (
		nuclei          []*model.Message
		said            []model.Fact
		maxScore        float64
		expandedNuclei  int
		currentLocation *string
	)

	for par := 0; par < p.config.MaxParagraphs; par++ {
		pool := remaining
		if par == 0 || expandedNuclei >= p.config.MaxExpandedNuclei {
			pool = core
		}

		candidates, ok := penalizeSimilarity(pool, nuclei)
		candidates = unsaid(candidates, said)
		if !ok || len(candidates) == 0 {
			p.log.Debug("no nucleus candidates left", "paragraph", par)
			break
		}

		nucleus := candidates[0]
		for _, c := range candidates {
			where := c.MainFact().Where
			changed := currentLocation == nil || *currentLocation != where
			if p.checker.Exists(c, changed) {
				nucleus = c
				break
			}
		}

		if nucleus.Score == 0 && par > 0 {
			break
		}
		if par >= p.config.MinParagraphs {
			if nucleus.Score < maxScore*p.config.EndStoryRelative {
				p.log.Debug("nucleus score below relative threshold, ending document", "score", nucleus.Score, "max", maxScore)
				break
			}
			if nucleus.Score < p.config.EndStoryAbsolute {
				p.log.Debug("nucleus score below absolute threshold, ending document", "score", nucleus.Score)
				break
			}
		}

		if nucleus.IsExpanded() {
			expandedNuclei++
		}
		nucleus.PreventAggregation = true
		nuclei = append(nuclei, nucleus)
		said = append(said, nucleus.Facts...)
		remaining = without(remaining, nucleus)
		core = without(core, nucleus)
		where := nucleus.MainFact().Where
		currentLocation = &where

		paragraph := []model.Node{nucleus}
		length := 1
		for _, sat := range encourageSimilarity(remaining, nucleus) {
			if sat.Score == 0 ||
				sat.Score < p.config.EndParagraphAbsolute ||
				sat.Score < nucleus.Score*p.config.EndParagraphRelative {
				p.log.Debug("no more interesting satellites, ending paragraph", "paragraph", par)
				break
			}
			if redundant(sat.MainFact(), said) {
				continue
			}
			satWhere := sat.MainFact().Where
			if !p.checker.Exists(sat, *currentLocation != satWhere) {
				p.log.Warn("no template for satellite", "fact", sat.MainFact())
				continue
			}

			paragraph = addSatellite(sat, paragraph)
			said = append(said, sat.Facts...)
			remaining = without(remaining, sat)
			core = without(core, sat)
			currentLocation = &satWhere

			length++
			if length >= p.config.SentencesPerParagraph {
				p.log.Debug("paragraph reached max length", "paragraph", par)
				break
			}
		}

		root.Children = append(root.Children, model.NewDocumentPlanNode(model.Sequence, paragraph...))
		if nucleus.Score > maxScore {
			maxScore = nucleus.Score
		}
	}

	return root, all, nil
}

// penalizeSimilarity drops candidates whose category already anchors a
// paragraph. When every candidate is covered, an in-depth document (one
// category so far) keeps going with the full list while an overview
// document (several categories) ends, reported by ok == false.
func penalizeSimilarity(candidates, nuclei []*model.Message) ([]*model.Message, bool) {
	covered := make(map[string]bool)
	for _, n := range nuclei {
		covered[category(n)] = true
	}

	var fresh []*model.Message
	for _, c := range candidates {
		if !covered[category(c)] {
			fresh = append(fresh, c)
		}
	}

	if len(fresh) == 0 {
		switch {
		case len(covered) > 1:
			return nil, false
		case len(covered) == 1:
			fresh = append(fresh, candidates...)
		}
	}
	return byScore(fresh), true
}

// encourageSimilarity keeps the candidates of the nucleus category that
// are close to it in time
func encourageSimilarity(candidates []*model.Message, nucleus *model.Message) []*model.Message {
	cat := category(nucleus)
	main := nucleus.MainFact()

	var similar []*model.Message
	for _, c := range candidates {
		if category(c) == cat && temporallyAdjacent(main, c.MainFact()) {
			similar = append(similar, c)
		}
	}
	return byScore(similar)
}

// addSatellite places sat next to the first sibling it relates to
func addSatellite(sat *model.Message, paragraph []model.Node) []model.Node {
	satFact := sat.MainFact()

	for idx, node := range paragraph {
		switch n := node.(type) {
		case *model.DocumentPlanNode:
			if n.Relation != model.List || len(n.Children) == 0 {
				continue
			}
			last, ok := n.Children[len(n.Children)-1].(*model.Message)
			if ok && last.MainFact().WhatType == satFact.WhatType {
				n.Children = append(n.Children, sat)
				return paragraph
			}
		case *model.Message:
			for _, pair := range [][2]*model.Message{{n, sat}, {sat, n}} {
				if rel := Classify(pair[0].MainFact(), pair[1].MainFact()); rel != model.Sequence {
					paragraph[idx] = model.NewDocumentPlanNode(rel, pair[0], pair[1])
					return paragraph
				}
			}
			if sameStatType(n.MainFact(), satFact) {
				paragraph[idx] = model.NewDocumentPlanNode(model.List, n, sat)
				return paragraph
			}
		default:
			panic("planner: unexpected plan node")
		}
	}
	return append(paragraph, sat)
}

// unsaid drops the messages whose main fact is already covered by said
func unsaid(messages []*model.Message, said []model.Fact) []*model.Message {
	out := make([]*model.Message, 0, len(messages))
	for _, m := range messages {
		if !redundant(m.MainFact(), said) {
			out = append(out, m)
		}
	}
	return out
}

func byScore(messages []*model.Message) []*model.Message {
	sorted := append([]*model.Message(nil), messages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

func without(messages []*model.Message, drop *model.Message) []*model.Message {
	out := make([]*model.Message, 0, len(messages))
	for _, m := range messages {
		if m != drop {
			out = append(out, m)
		}
	}
	return out
}
