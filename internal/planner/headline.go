package planner

import "github.com/ppiankov/reporter/internal/model"

// HeadlinePlanner plans a one-sentence headline
type HeadlinePlanner struct{}

// Plan wraps the highest scored message in a single paragraph
func (HeadlinePlanner) Plan(messages []*model.Message) (*model.DocumentPlanNode, []*model.Message, error) {
	if len(messages) == 0 {
		return nil, nil, ErrNoInterestingMessages
	}

	top := messages[0]
	for _, m := range messages[1:] {
		if m.Score > top.Score {
			top = m
		}
	}

	root := model.NewDocumentPlanNode(model.Sequence,
		model.NewDocumentPlanNode(model.Sequence, top),
	)
	return root, messages, nil
}
