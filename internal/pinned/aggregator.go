// Package pinned maintains the side list of visual artifacts extracted from
// finalized assistant turns.
package pinned

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/pkg/logger"
	"github.com/datalens-ai/analytics-console/pkg/metrics"
)

const (
	// maxPreviewRows bounds the table preview kept per section.
	maxPreviewRows = 100

	// dedupWindow guards against the backend emitting the same visualization
	// twice within one turn (once from analysis, once from visualization).
	dedupWindow = 2 * time.Second

	defaultChartTitle = "Chart"
)

// Aggregator extracts chart/table/metric artifacts from finalized turns into
// an ordered, deduplicated list of sections, most recent first.
type Aggregator struct {
	logger *logger.Logger

	mu        sync.Mutex
	sections  []model.DataSection
	collapsed bool

	now func() time.Time
}

// NewAggregator creates an empty aggregator.
func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{logger: log, now: time.Now}
}

// Sections returns a snapshot of the pinned sections, newest first.
func (a *Aggregator) Sections() []model.DataSection {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.DataSection, len(a.sections))
	copy(out, a.sections)
	return out
}

// UpdateFromTurn extracts visual content from a finalized assistant turn and
// admits a new section if anything was found.
func (a *Aggregator) UpdateFromTurn(turn model.Turn) {
	section := extract(turn)
	if section.Empty() {
		return
	}
	a.Add(section)
}

// Add inserts a section at the head of the list unless an identical chart
// title was admitted within the dedup window.
func (a *Aggregator) Add(section model.DataSection) {
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	title := ""
	if section.Chart != nil {
		title = section.Chart.Title
	}
	for _, existing := range a.sections {
		// Only a charted section can mark a duplicate; chart-less sections
		// never dedup against each other.
		if existing.Chart == nil {
			continue
		}
		if existing.Chart.Title == title && now.Sub(existing.Timestamp) < dedupWindow {
			metrics.PinnedDedupDiscardsTotal.Inc()
			return
		}
	}

	section.ID = uuid.Must(uuid.NewV7()).String()
	section.Timestamp = now
	a.sections = append([]model.DataSection{section}, a.sections...)
	metrics.PinnedSectionsTotal.Inc()
	a.logger.Debug("pinned section added", zap.String("section_id", section.ID), zap.String("chart_title", title))
}

// Remove deletes the section with the given identifier.
func (a *Aggregator) Remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.sections[:0]
	for _, s := range a.sections {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	a.sections = kept
}

// ClearAll empties the list.
func (a *Aggregator) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sections = nil
}

// ToggleCollapse flips the display-only collapsed flag and returns the new
// value. It carries no data implications.
func (a *Aggregator) ToggleCollapse() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collapsed = !a.collapsed
	return a.collapsed
}

// Collapsed reports the display-only collapsed flag.
func (a *Aggregator) Collapsed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collapsed
}

// extract pulls the chart, table, and stats artifacts out of a turn's blocks.
func extract(turn model.Turn) model.DataSection {
	var section model.DataSection

	for _, block := range turn.Blocks {
		switch block.Kind {
		case model.BlockChart:
			var payload model.VisualizationPayload
			if err := block.Decode(&payload); err != nil || len(payload.ChartConfig) == 0 {
				continue
			}
			var config model.ChartConfig
			title := defaultChartTitle
			if err := json.Unmarshal(payload.ChartConfig, &config); err == nil && config.Title != "" {
				title = config.Title
			}
			section.Chart = &model.ChartCard{Config: payload.ChartConfig, Title: title}

		case model.BlockData:
			var payload model.DataPayload
			if err := block.Decode(&payload); err != nil {
				continue
			}
			rows := payload.Rows()
			if len(rows) == 0 {
				continue
			}
			preview := rows
			if len(preview) > maxPreviewRows {
				preview = preview[:maxPreviewRows]
			}
			columns := payload.Columns
			if len(columns) == 0 {
				for col := range rows[0] {
					columns = append(columns, col)
				}
				sort.Strings(columns)
			}
			rowCount := payload.RowCount
			if rowCount == 0 {
				rowCount = len(rows)
			}
			section.Table = &model.TablePreview{Data: preview, Columns: columns, RowCount: rowCount}

		case model.BlockMetrics:
			var stats []model.MetricStat
			if err := block.Decode(&stats); err == nil && len(stats) > 0 {
				section.Stats = stats
			}
		}
	}
	return section
}
