// Package dispatch maps decoded stream events to transcript content blocks.
package dispatch

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/internal/sse"
	"github.com/datalens-ai/analytics-console/pkg/logger"
)

// FoldMode tells the turn builder how to merge a block into the turn.
type FoldMode int

const (
	// Append adds the block to the end of the turn.
	Append FoldMode = iota
	// ReplaceKind removes any existing block of the same kind first. Used by
	// thinking updates so only the latest status is visible.
	ReplaceKind
)

// Instruction is one block plus its fold mode.
type Instruction struct {
	Block model.ContentBlock
	Fold  FoldMode
}

// EventComplete marks end-of-turn. It yields no instruction; callers watch for
// it to know the stream finished cleanly.
const EventComplete = "complete"

// Dispatcher classifies decoded events. Unrecognized event names are logged
// and ignored, never an error.
type Dispatcher struct {
	logger *logger.Logger
}

// New creates a dispatcher.
func New(log *logger.Logger) *Dispatcher {
	return &Dispatcher{logger: log}
}

// Dispatch returns the instructions an event folds into: zero, one, or (for
// visualization events) up to two.
func (d *Dispatcher) Dispatch(ev sse.Event) []Instruction {
	switch ev.Name {
	case "thinking":
		return []Instruction{{Block: model.NewBlock(model.BlockThinking, ev.Data), Fold: ReplaceKind}}
	case "sql_generated", "sql_retry":
		// Retry SQL is a new step, not a correction of the displayed one;
		// the payload marks itself as a correction for rendering.
		return []Instruction{{Block: model.NewBlock(model.BlockSQL, ev.Data)}}
	case "data_retrieved":
		return []Instruction{{Block: model.NewBlock(model.BlockData, ev.Data)}}
	case "analysis":
		return []Instruction{{Block: model.NewBlock(model.BlockAnalysis, ev.Data)}}
	case "visualization":
		return d.dispatchVisualization(ev.Data)
	case "suggestions":
		return []Instruction{{Block: model.NewBlock(model.BlockSuggestions, ev.Data)}}
	case "clarification_needed":
		return []Instruction{{Block: model.NewBlock(model.BlockClarification, ev.Data)}}
	case "advisory", "explanatory":
		return []Instruction{{Block: model.NewBlock(model.BlockExplanatory, ev.Data)}}
	case "narrative":
		return []Instruction{{Block: model.NewBlock(model.BlockNarrative, ev.Data)}}
	case "error":
		return []Instruction{{Block: model.NewBlock(model.BlockError, ev.Data)}}
	case EventComplete:
		return nil
	default:
		d.logger.Debug("ignoring unknown stream event", zap.String("event", ev.Name))
		return nil
	}
}

// dispatchVisualization yields a chart block iff the payload carries a chart
// configuration and a metrics block iff it carries a non-empty metrics list.
func (d *Dispatcher) dispatchVisualization(data json.RawMessage) []Instruction {
	var payload model.VisualizationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		d.logger.Debug("ignoring malformed visualization payload", zap.Error(err))
		return nil
	}

	var out []Instruction
	if len(payload.ChartConfig) > 0 && string(payload.ChartConfig) != "null" {
		out = append(out, Instruction{Block: model.NewBlock(model.BlockChart, data)})
	}
	if len(payload.Metrics) > 0 {
		metricsData, err := json.Marshal(payload.Metrics)
		if err == nil {
			out = append(out, Instruction{Block: model.NewBlock(model.BlockMetrics, metricsData)})
		}
	}
	return out
}
