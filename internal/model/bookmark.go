package model

import (
	"encoding/json"
	"time"
)

// BookmarkedInsight is a saved analytics result. Persisted by the bookmark
// store and round-trippable through a JSON document for import/export.
type BookmarkedInsight struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Title       string          `json:"title"`
	Query       string          `json:"query"`
	Summary     string          `json:"summary,omitempty"`
	ChartConfig json.RawMessage `json:"chartConfig,omitempty"`
	Tags        []string        `json:"tags"`
	Notes       string          `json:"notes,omitempty"`
}

// HasTag reports whether the bookmark carries the given tag.
func (b BookmarkedInsight) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
