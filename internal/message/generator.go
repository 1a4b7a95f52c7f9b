// Package message parses analysis results into plan messages.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
)

// ErrNoMessagesForSelection is returned when the input yields no messages
var ErrNoMessagesForSelection = errors.New("no messages for selection")

// record is one input element: either a message with a facts list or a
// bare fact
type record struct {
	model.Fact
	Facts                 []model.Fact `json:"facts"`
	Score                 *float64     `json:"score"`
	ImportanceCoefficient *float64     `json:"importance_coefficient"`
	Polarity              float64      `json:"polarity"`
	Split                 string       `json:"split"`
}

// Generator builds messages from JSON input
type Generator struct {
	log *logger.Logger
}

// NewGenerator creates a generator
func NewGenerator(log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{log: log}
}

// Generate parses data, a JSON array of records or a single record.
// Records without a value type are skipped and messages repeating an
// earlier main fact are dropped.
func (g *Generator) Generate(data []byte) ([]*model.Message, error) {
	raw, err := records(data)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoMessagesForSelection
	}

	var messages []*model.Message
	var seen []model.Fact
	for i, r := range raw {
		var rec record
		if err := json.Unmarshal(r, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		msg := rec.message()
		if msg == nil {
			g.log.Warn("skipping record without facts", "index", i)
			continue
		}
		if model.ContainsFact(seen, msg.MainFact()) {
			g.log.Debug("dropping duplicate message", "message", msg.String())
			continue
		}
		seen = append(seen, msg.MainFact())
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil, ErrNoMessagesForSelection
	}
	g.log.Debug("generated messages", "count", len(messages))
	return messages, nil
}

func (r record) message() *model.Message {
	facts := make([]model.Fact, 0, len(r.Facts)+1)
	for _, f := range r.Facts {
		if f.WhatType != "" {
			facts = append(facts, f)
		}
	}
	if len(r.Facts) == 0 && r.WhatType != "" {
		facts = append(facts, r.Fact)
	}
	if len(facts) == 0 {
		return nil
	}

	msg := model.NewMessage(facts[0], facts[1:]...)
	if r.Score != nil {
		msg.Score = *r.Score
	}
	if r.ImportanceCoefficient != nil {
		msg.ImportanceCoefficient = *r.ImportanceCoefficient
	}
	msg.Polarity = r.Polarity
	return msg
}

// records returns the raw elements of a JSON array, or the whole input
// when it is a single object. Blank input yields no records.
func records(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '{' {
		return []json.RawMessage{trimmed}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return raw, nil
}

// Part is the input of one independent generation run
type Part struct {
	Key  string
	Data []byte
}

// Split groups the records of data by their "split" key, in order of
// first appearance. Input that is not a record array is returned whole.
func Split(data []byte) ([]Part, error) {
	raw, err := records(data)
	if err != nil {
		return nil, err
	}
	if len(raw) <= 1 {
		return []Part{{Data: data}}, nil
	}

	var order []string
	groups := map[string][]json.RawMessage{}
	for i, r := range raw {
		var key struct {
			Split string `json:"split"`
		}
		if err := json.Unmarshal(r, &key); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, ok := groups[key.Split]; !ok {
			order = append(order, key.Split)
		}
		groups[key.Split] = append(groups[key.Split], r)
	}

	parts := make([]Part, 0, len(order))
	for _, key := range order {
		encoded, err := json.Marshal(groups[key])
		if err != nil {
			return nil, err
		}
		parts = append(parts, Part{Key: key, Data: encoded})
	}
	return parts, nil
}
