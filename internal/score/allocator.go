// Package score assigns importance scores to messages before planning.
package score

import (
	"sort"

	"github.com/ppiankov/reporter/internal/model"
)

// ImportanceAllocator scores messages and orders them by importance
type ImportanceAllocator struct{}

// NewImportanceAllocator creates a new allocator
func NewImportanceAllocator() *ImportanceAllocator {
	return &ImportanceAllocator{}
}

// Allocate scores every message that has no score yet and returns the
// messages sorted by score, highest first. Equal scores keep input order.
// A Score of 0 marks a message as unscored.
func (a *ImportanceAllocator) Allocate(messages []*model.Message) []*model.Message {
	for _, msg := range messages {
		// 0 means unscored: an explicit score of 0 is recomputed too
		if msg.Score == 0 {
			msg.Score = a.Score(msg)
		}
	}

	sorted := make([]*model.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// Score is the outlierness of the main fact weighted by the importance
// coefficient
func (a *ImportanceAllocator) Score(msg *model.Message) float64 {
	return msg.MainFact().Outlierness * msg.ImportanceCoefficient
}
