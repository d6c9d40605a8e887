// Package model defines data structures for the analytics console.
package model

import (
	"encoding/json"
)

// BlockKind identifies the type of a content block.
type BlockKind string

const (
	BlockText          BlockKind = "text"
	BlockThinking      BlockKind = "thinking"
	BlockSQL           BlockKind = "sql"
	BlockData          BlockKind = "data"
	BlockAnalysis      BlockKind = "analysis"
	BlockChart         BlockKind = "chart"
	BlockMetrics       BlockKind = "metrics"
	BlockError         BlockKind = "error"
	BlockSuggestions   BlockKind = "suggestions"
	BlockClarification BlockKind = "clarification"
	BlockExplanatory   BlockKind = "explanatory"
	BlockNarrative     BlockKind = "narrative"
)

// ContentBlock is a single typed unit of transcript content. The payload
// shape is defined by the backend; blocks carry it opaquely and decode
// it on demand.
type ContentBlock struct {
	Kind    BlockKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewBlock creates a content block from an already-encoded payload.
func NewBlock(kind BlockKind, payload json.RawMessage) ContentBlock {
	return ContentBlock{Kind: kind, Payload: payload}
}

// TextBlock creates a text block from a plain string.
func TextBlock(text string) ContentBlock {
	data, _ := json.Marshal(text)
	return ContentBlock{Kind: BlockText, Payload: data}
}

// ErrorBlock creates an error block with a message and a details string.
func ErrorBlock(message, details string) ContentBlock {
	data, _ := json.Marshal(ErrorPayload{Message: message, Details: details})
	return ContentBlock{Kind: BlockError, Payload: data}
}

// Text decodes the payload of a text block. Returns "" for other kinds.
func (b ContentBlock) Text() string {
	if b.Kind != BlockText {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Payload, &s); err != nil {
		return ""
	}
	return s
}

// Decode unmarshals the payload into v.
func (b ContentBlock) Decode(v any) error {
	return json.Unmarshal(b.Payload, v)
}

// ErrorPayload is the payload of an error block.
type ErrorPayload struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SQLPayload is the recognized subset of a sql block payload. The retry
// variant carries the corrected statement and diagnostic fields.
type SQLPayload struct {
	SQL           string   `json:"sql,omitempty"`
	CorrectedSQL  string   `json:"corrected_sql,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Confidence    string   `json:"confidence,omitempty"`
	TablesUsed    []string `json:"tables_used,omitempty"`
	Attempt       int      `json:"attempt,omitempty"`
	ErrorAnalysis string   `json:"error_analysis,omitempty"`
	FixApplied    string   `json:"fix_applied,omitempty"`
}

// Statement returns the effective SQL text, preferring a correction.
func (p SQLPayload) Statement() string {
	if p.CorrectedSQL != "" {
		return p.CorrectedSQL
	}
	return p.SQL
}

// IsRetry reports whether this payload came from a self-healing retry.
func (p SQLPayload) IsRetry() bool {
	return p.CorrectedSQL != ""
}

// DataPayload is the recognized subset of a data block payload.
type DataPayload struct {
	Preview  []map[string]any `json:"preview,omitempty"`
	Data     []map[string]any `json:"data,omitempty"`
	RowCount int              `json:"row_count,omitempty"`
	Columns  []string         `json:"columns,omitempty"`
	Limited  bool             `json:"limited,omitempty"`
}

// Rows returns the row array carried by the payload, whichever field holds it.
func (p DataPayload) Rows() []map[string]any {
	if len(p.Data) > 0 {
		return p.Data
	}
	return p.Preview
}

// VisualizationPayload is the recognized subset of a visualization event.
type VisualizationPayload struct {
	ChartConfig json.RawMessage `json:"chartConfig,omitempty"`
	Metrics     []MetricStat    `json:"metrics,omitempty"`
	Reasoning   string          `json:"reasoning,omitempty"`
}

// MetricStat is one headline statistic from a metrics block.
type MetricStat struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Trend string `json:"trend,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// ChartConfig is the recognized subset of a chart configuration.
type ChartConfig struct {
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}
