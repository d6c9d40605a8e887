package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/model"
)

// sampleRows is the canned result set every query "retrieves".
var sampleRows = []map[string]any{
	{"category_name": "Technology", "enrollments": 45},
	{"category_name": "Business", "enrollments": 38},
	{"category_name": "Design", "enrollments": 27},
	{"category_name": "Marketing", "enrollments": 19},
}

func sampleChartConfig(title string) map[string]any {
	return map[string]any{
		"type":  "bar",
		"title": title,
		"data":  sampleRows,
		"xAxis": "category_name",
		"yAxis": "enrollments",
	}
}

// handleChat streams a full canned analysis cycle for any query.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}

	setSSEHeaders(w)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	s.logger.Info("serving canned chat stream",
		zap.String("conversation_id", req.ConversationID),
		zap.String("query", req.Query))

	frames := []struct {
		event string
		data  any
	}{
		{"thinking", map[string]any{"status": "Understanding your question...", "step": 1, "total_steps": 3}},
		{"thinking", map[string]any{"status": "Generating SQL...", "step": 2, "total_steps": 3}},
		{"sql_generated", map[string]any{
			"sql":         "SELECT category_name, COUNT(*) AS enrollments FROM courses GROUP BY category_name ORDER BY enrollments DESC",
			"explanation": "Counts course enrollments per category.",
			"confidence":  "HIGH",
			"tables_used": []string{"courses"},
		}},
		{"thinking", map[string]any{"status": "Running query...", "step": 3, "total_steps": 3}},
		{"data_retrieved", map[string]any{
			"preview":   sampleRows,
			"row_count": len(sampleRows),
			"columns":   []string{"category_name", "enrollments"},
		}},
		{"analysis", map[string]any{
			"summary":  "Technology leads enrollments across all categories.",
			"insights": []string{"Technology holds 35% of total enrollments."},
		}},
		{"visualization", map[string]any{
			"chartConfig": sampleChartConfig("Enrollments by Category"),
			"metrics": []map[string]any{
				{"label": "Total Enrollments", "value": 129, "trend": "up"},
			},
		}},
		{"suggestions", map[string]any{
			"suggestions": []string{"Break down Technology by course", "Show enrollment trend over time"},
		}},
		{"complete", map[string]any{"success": true}},
	}

	for _, frame := range frames {
		if s.opts.FrameDelay > 0 {
			time.Sleep(s.opts.FrameDelay)
		}
		select {
		case <-r.Context().Done():
			return
		default:
		}
		sendSSEEvent(w, flusher, frame.event, frame.data)
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// handleDrillOptions returns the fixed refinement menu for any click.
func (s *Server) handleDrillOptions(w http.ResponseWriter, r *http.Request) {
	var req model.DrillOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, model.DrillOptionsResponse{
		Options: []model.DrillOption{
			{ID: "opt-breakdown", Icon: "layers", Label: "Break down by course", Description: "Split this category into individual courses", DrillType: "breakdown", TargetDimension: "course_name"},
			{ID: "opt-trend", Icon: "trending-up", Label: "Show trend", Description: "Plot this value over time", DrillType: "trend"},
			{ID: "opt-compare", Icon: "bar-chart", Label: "Compare", Description: "Compare against other categories", DrillType: "compare"},
			{ID: "opt-details", Icon: "list", Label: "Show records", Description: "List the underlying rows", DrillType: "details"},
		},
	})
}

// handleDrillDown streams a refinement and an extended breadcrumb.
func (s *Server) handleDrillDown(w http.ResponseWriter, r *http.Request) {
	var req model.DrillDownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setSSEHeaders(w)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	value := fmt.Sprintf("%v", req.ClickedElement.Value)
	breadcrumb := append(req.Breadcrumb, model.BreadcrumbItem{
		Dimension: req.ClickedElement.Dimension,
		Value:     value,
		DrillType: req.DrillOption.DrillType,
	})

	title := "Drill: " + req.ClickedElement.Label
	sendSSEEvent(w, flusher, "thinking", map[string]any{"status": "Refining..."})
	sendSSEEvent(w, flusher, "visualization", map[string]any{
		"chartConfig": sampleChartConfig(title),
	})
	sendSSEEvent(w, flusher, "complete", map[string]any{
		"success":    true,
		"breadcrumb": breadcrumb,
	})

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}
