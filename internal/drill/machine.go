// Package drill runs the options-then-execute drill-down protocol scoped to
// a clicked chart data point.
package drill

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/api"
	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/internal/sse"
	"github.com/datalens-ai/analytics-console/pkg/logger"
	"github.com/datalens-ai/analytics-console/pkg/metrics"
)

// State is the drill-down machine state.
type State int

const (
	Idle State = iota
	OptionsLoading
	OptionsReady
	Executing
)

// String implements fmt.Stringer for log fields.
func (s State) String() string {
	switch s {
	case OptionsLoading:
		return "options_loading"
	case OptionsReady:
		return "options_ready"
	case Executing:
		return "executing"
	default:
		return "idle"
	}
}

// Machine manages one drill-down cycle at a time: a chart click loads
// options, selecting an option executes a streamed refinement. The machine
// accumulates a breadcrumb trail across executed drills; the backend is
// authoritative for breadcrumb contents and may rewrite it wholesale.
type Machine struct {
	client *api.Client
	logger *logger.Logger

	mu         sync.Mutex
	state      State
	clicked    *model.ClickedElement
	current    model.DrillContext
	options    []model.DrillOption
	breadcrumb []model.BreadcrumbItem
}

// NewMachine creates an idle drill-down machine.
func NewMachine(client *api.Client, log *logger.Logger) *Machine {
	return &Machine{client: client, logger: log}
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Clicked returns the data point the current cycle started from, or nil.
func (m *Machine) Clicked() *model.ClickedElement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clicked
}

// Options returns the currently loaded drill options.
func (m *Machine) Options() []model.DrillOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.DrillOption, len(m.options))
	copy(out, m.options)
	return out
}

// Breadcrumb returns the drill path taken so far.
func (m *Machine) Breadcrumb() []model.BreadcrumbItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.BreadcrumbItem, len(m.breadcrumb))
	copy(out, m.breadcrumb)
	return out
}

// FetchOptions starts a drill cycle for a clicked data point. A failed or
// empty response resolves to an empty options list; it is a displayable
// "no options" state, never an error.
func (m *Machine) FetchOptions(ctx context.Context, clicked model.ClickedElement, current model.DrillContext) []model.DrillOption {
	m.mu.Lock()
	m.clicked = &clicked
	m.current = current
	m.state = OptionsLoading
	breadcrumb := append([]model.BreadcrumbItem(nil), m.breadcrumb...)
	m.mu.Unlock()

	options, err := m.client.DrillOptions(ctx, model.DrillOptionsRequest{
		ClickedElement: clicked,
		CurrentContext: current,
		Breadcrumb:     breadcrumb,
	})
	if err != nil {
		m.logger.Warn("drill options fetch failed", zap.Error(err))
		metrics.DrillRequestsTotal.WithLabelValues("options", "error").Inc()
		options = nil
	} else {
		metrics.DrillRequestsTotal.WithLabelValues("options", "success").Inc()
	}

	m.mu.Lock()
	m.options = options
	m.state = OptionsReady
	m.mu.Unlock()
	return options
}

// drillPayload is the recognized subset of a drill-down stream payload. The
// breadcrumb pointer distinguishes an absent key from an empty trail.
type drillPayload struct {
	ChartConfig json.RawMessage         `json:"chartConfig"`
	Breadcrumb  *[]model.BreadcrumbItem `json:"breadcrumb"`
}

// Execute runs the selected drill option through the streaming endpoint and
// returns the captured result, or nil when the execution produced no chart or
// failed. Failures are logged and swallowed; the machine always returns to
// Idle with the clicked element and options cleared.
func (m *Machine) Execute(ctx context.Context, option model.DrillOption) *model.DrillResult {
	m.mu.Lock()
	if m.clicked == nil {
		m.mu.Unlock()
		return nil
	}
	clicked := *m.clicked
	current := m.current
	breadcrumb := append([]model.BreadcrumbItem(nil), m.breadcrumb...)
	m.state = Executing
	m.mu.Unlock()

	var latestChart json.RawMessage
	var newBreadcrumb *[]model.BreadcrumbItem

	err := m.streamExecute(ctx, model.DrillDownRequest{
		ClickedElement: clicked,
		DrillOption:    option,
		CurrentContext: current,
		Breadcrumb:     breadcrumb,
	}, func(data json.RawMessage) {
		var payload drillPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
		if len(payload.ChartConfig) > 0 && string(payload.ChartConfig) != "null" {
			latestChart = payload.ChartConfig
		}
		if payload.Breadcrumb != nil {
			newBreadcrumb = payload.Breadcrumb
		}
	})

	m.mu.Lock()
	if err == nil && newBreadcrumb != nil {
		m.breadcrumb = *newBreadcrumb
	}
	m.clicked = nil
	m.options = nil
	m.state = Idle
	resultBreadcrumb := append([]model.BreadcrumbItem(nil), m.breadcrumb...)
	m.mu.Unlock()

	if err != nil {
		// Drill failures are silent from the transcript's perspective.
		m.logger.Warn("drill execution failed", zap.String("option", option.ID), zap.Error(err))
		metrics.DrillRequestsTotal.WithLabelValues("execute", "error").Inc()
		return nil
	}
	metrics.DrillRequestsTotal.WithLabelValues("execute", "success").Inc()

	if latestChart == nil {
		return nil
	}
	return &model.DrillResult{ChartConfig: latestChart, Breadcrumb: resultBreadcrumb}
}

func (m *Machine) streamExecute(ctx context.Context, req model.DrillDownRequest, fn func(json.RawMessage)) error {
	body, err := m.client.StreamDrillDown(ctx, req)
	if err != nil {
		return err
	}
	defer body.Close()

	metrics.IncrementStreams()
	defer metrics.DecrementStreams()

	return sse.Stream(ctx, body, func(ev sse.Event) error {
		fn(ev.Data)
		return nil
	})
}

// GoBack truncates the breadcrumb by one step and clears the clicked element
// and options. No network call; it does not undo a prior drill's transcript
// entry.
func (m *Machine) GoBack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.breadcrumb) > 0 {
		m.breadcrumb = m.breadcrumb[:len(m.breadcrumb)-1]
	}
	m.clicked = nil
	m.options = nil
	m.state = Idle
}

// Reset clears the clicked element, options, and breadcrumb unconditionally.
// Used when the popover is dismissed without a selection.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicked = nil
	m.options = nil
	m.breadcrumb = nil
	m.state = Idle
}
