package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalens-ai/analytics-console/internal/api"
	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/internal/sse"
	"github.com/datalens-ai/analytics-console/pkg/logger"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(opts, logger.NewNop()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatStreamsDecodableFrames(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := postJSON(t, srv.URL+api.ChatPath, model.ChatRequest{Query: "show enrollments"})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var names []string
	err := sse.Stream(context.Background(), resp.Body, func(ev sse.Event) error {
		names = append(names, ev.Name)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"thinking", "thinking", "sql_generated", "thinking", "data_retrieved",
		"analysis", "visualization", "suggestions", "complete",
	}, names)
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := postJSON(t, srv.URL+api.ChatPath, model.ChatRequest{})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDrillOptionsShape(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := postJSON(t, srv.URL+api.DrillOptionsPath, model.DrillOptionsRequest{
		ClickedElement: model.ClickedElement{Dimension: "category_name", Label: "Technology"},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.DrillOptionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Options, 4)
	assert.Equal(t, "breakdown", out.Options[0].DrillType)
	assert.NotEmpty(t, out.Options[0].TargetDimension)
}

func TestDrillDownExtendsBreadcrumb(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := postJSON(t, srv.URL+api.DrillDownPath, model.DrillDownRequest{
		ClickedElement: model.ClickedElement{Dimension: "category_name", Value: "Technology", Label: "Technology"},
		DrillOption:    model.DrillOption{ID: "opt-breakdown", DrillType: "breakdown"},
		Breadcrumb:     []model.BreadcrumbItem{{Dimension: "region", Value: "EMEA", DrillType: "breakdown"}},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var breadcrumb []model.BreadcrumbItem
	err := sse.Stream(context.Background(), resp.Body, func(ev sse.Event) error {
		if ev.Name != "complete" {
			return nil
		}
		var payload struct {
			Breadcrumb []model.BreadcrumbItem `json:"breadcrumb"`
		}
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return err
		}
		breadcrumb = payload.Breadcrumb
		return nil
	})
	require.NoError(t, err)

	require.Len(t, breadcrumb, 2)
	assert.Equal(t, "EMEA", breadcrumb[0].Value)
	assert.Equal(t, "Technology", breadcrumb[1].Value)
	assert.Equal(t, "breakdown", breadcrumb[1].DrillType)
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	srv := newTestServer(t, Options{JWTSecret: "devserver-secret"})

	resp := postJSON(t, srv.URL+api.ChatPath, model.ChatRequest{Query: "q"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health stays open.
	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestAuthAcceptsMintedToken(t *testing.T) {
	const secret = "devserver-secret"
	srv := newTestServer(t, Options{JWTSecret: secret})

	client := api.NewClient(api.Config{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		JWTSecret:      secret,
		JWTSubject:     "console-test",
	}, logger.NewNop())

	options, err := client.DrillOptions(context.Background(), model.DrillOptionsRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, options)
}
