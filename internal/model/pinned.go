package model

import (
	"encoding/json"
	"time"
)

// ChartCard is the chart portion of a pinned data section.
type ChartCard struct {
	Config json.RawMessage `json:"config"`
	Title  string          `json:"title"`
}

// TablePreview is the tabular portion of a pinned data section. Data holds at
// most the first 100 rows; RowCount is the true count.
type TablePreview struct {
	Data     []map[string]any `json:"data"`
	Columns  []string         `json:"columns"`
	RowCount int              `json:"rowCount"`
}

// DataSection is one entry in the pinned view: the visual artifacts extracted
// from a single finalized assistant turn. Sections are immutable once created.
type DataSection struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Chart     *ChartCard    `json:"chart,omitempty"`
	Table     *TablePreview `json:"table,omitempty"`
	Stats     []MetricStat  `json:"stats,omitempty"`
}

// Empty reports whether the section carries no visual content at all.
func (s DataSection) Empty() bool {
	return s.Chart == nil && s.Table == nil && len(s.Stats) == 0
}
