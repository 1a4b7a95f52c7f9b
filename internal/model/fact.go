package model

import (
	"fmt"
	"strconv"
)

// Fact represents one analytical observation. Facts are compared with ==
// and never modified once created.
type Fact struct {
	Where       string  `json:"where"`               // Subject or corpus identifier
	WhereType   string  `json:"where_type"`          // Subject type (C, D, M, dataset, query...)
	What        float64 `json:"what"`                // Measured value
	WhatType    string  `json:"what_type"`           // Value type tag (e.g., "crime_rank")
	Key         string  `json:"key,omitempty"`       // Result key the value describes (e.g., a word)
	When1       string  `json:"when_1,omitempty"`    // Start of the temporal range
	When2       string  `json:"when_2,omitempty"`    // End of the temporal range
	WhenType    string  `json:"when_type,omitempty"` // Temporal type (year, month, all_time...)
	Outlierness float64 `json:"outlierness"`         // Salience of the observation
	ID          string  `json:"id,omitempty"`        // Analysis identifier
}

// Field names addressable from templates
const (
	FieldWhere       = "where"
	FieldWhereType   = "where_type"
	FieldWhat        = "what"
	FieldWhatType    = "what_type"
	FieldKey         = "key"
	FieldWhen1       = "when_1"
	FieldWhen2       = "when_2"
	FieldWhenType    = "when_type"
	FieldOutlierness = "outlierness"
	FieldID          = "id"
)

// FactFields lists every field readable through Fact.Field
var FactFields = []string{
	FieldWhere, FieldWhereType, FieldWhat, FieldWhatType, FieldKey,
	FieldWhen1, FieldWhen2, FieldWhenType, FieldOutlierness, FieldID,
}

// IsFactField reports whether name is a known fact field
func IsFactField(name string) bool {
	for _, f := range FactFields {
		if f == name {
			return true
		}
	}
	return false
}

// Field returns the named field. Numeric fields are float64, the rest are
// strings. The second result is false for unknown names.
func (f Fact) Field(name string) (any, bool) {
	switch name {
	case FieldWhere:
		return f.Where, true
	case FieldWhereType:
		return f.WhereType, true
	case FieldWhat:
		return f.What, true
	case FieldWhatType:
		return f.WhatType, true
	case FieldKey:
		return f.Key, true
	case FieldWhen1:
		return f.When1, true
	case FieldWhen2:
		return f.When2, true
	case FieldWhenType:
		return f.WhenType, true
	case FieldOutlierness:
		return f.Outlierness, true
	case FieldID:
		return f.ID, true
	}
	return nil, false
}

// FormatValue renders a field or literal value as text
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}

// ContainsFact reports whether facts holds f
func ContainsFact(facts []Fact, f Fact) bool {
	for _, existing := range facts {
		if existing == f {
			return true
		}
	}
	return false
}
