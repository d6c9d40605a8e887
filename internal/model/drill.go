package model

import (
	"encoding/json"
)

// Point is a viewport coordinate pair captured at click time.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClickedElement describes the chart data point a drill-down started from.
// It lives only between a chart click and the drill popover closing.
type ClickedElement struct {
	Dimension  string         `json:"dimension"`
	Value      any            `json:"value"`
	Label      string         `json:"label"`
	SeriesName string         `json:"seriesName,omitempty"`
	RawData    map[string]any `json:"rawData,omitempty"`

	// Pointer anchors the drill popover; display-only, never sent to the
	// backend.
	Pointer *Point `json:"-"`
}

// DrillContext carries the query context of the turn whose chart was clicked.
// It is derived fresh on every click and never cached across turns.
type DrillContext struct {
	SQLQuery   string   `json:"sql_query"`
	Columns    []string `json:"columns"`
	TablesUsed []string `json:"tables_used"`
}

// BreadcrumbItem is one step of the drill path taken so far.
type BreadcrumbItem struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
	DrillType string `json:"drill_type"`
}

// DrillOption is one backend-supplied refinement for a clicked data point.
type DrillOption struct {
	ID              string `json:"id"`
	Icon            string `json:"icon"`
	Label           string `json:"label"`
	Description     string `json:"description"`
	DrillType       string `json:"drill_type"`
	TargetDimension string `json:"target_dimension,omitempty"`
}

// DrillOptionsRequest is the body of POST /api/analytics/drill-options.
type DrillOptionsRequest struct {
	ClickedElement ClickedElement   `json:"clicked_element"`
	CurrentContext DrillContext     `json:"current_context"`
	Breadcrumb     []BreadcrumbItem `json:"breadcrumb"`
}

// DrillOptionsResponse is the body of the drill-options reply.
type DrillOptionsResponse struct {
	Options []DrillOption `json:"options"`
}

// DrillDownRequest is the body of POST /api/analytics/drill-down.
type DrillDownRequest struct {
	ClickedElement ClickedElement   `json:"clicked_element"`
	DrillOption    DrillOption      `json:"drill_option"`
	CurrentContext DrillContext     `json:"current_context"`
	Breadcrumb     []BreadcrumbItem `json:"breadcrumb"`
}

// DrillResult is what an executed drill-down produced.
type DrillResult struct {
	ChartConfig json.RawMessage  `json:"chartConfig,omitempty"`
	Breadcrumb  []BreadcrumbItem `json:"breadcrumb,omitempty"`
}

// ChatRequest is the body of POST /api/analytics/chat.
type ChatRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
}
