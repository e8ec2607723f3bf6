package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}

	// Verify all metric fields are initialized
	if m.TurnsTotal == nil {
		t.Error("TurnsTotal is nil")
	}
	if m.TurnDurationSeconds == nil {
		t.Error("TurnDurationSeconds is nil")
	}
	if m.IntentTotal == nil {
		t.Error("IntentTotal is nil")
	}
	if m.ToolRunsTotal == nil {
		t.Error("ToolRunsTotal is nil")
	}
	if m.ValidationFailuresTotal == nil {
		t.Error("ValidationFailuresTotal is nil")
	}
	if m.GatewayRequestsTotal == nil {
		t.Error("GatewayRequestsTotal is nil")
	}
	if m.SearchesTotal == nil {
		t.Error("SearchesTotal is nil")
	}
	if m.DocumentsTotal == nil {
		t.Error("DocumentsTotal is nil")
	}
	if m.RateLimiterWaitDuration == nil {
		t.Error("RateLimiterWaitDuration is nil")
	}
	if m.IndexBuildDuration == nil {
		t.Error("IndexBuildDuration is nil")
	}
}

func TestRecorders(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordTurn("find_materials", "answer", 2.1)
	m.RecordTurn("blocked", "refusal", 0.8)
	m.RecordIntent("tool_query", "check_marks")
	m.RecordIntent("general_chat", "")
	m.RecordToolRun("find_materials", "answer", 1.5)
	m.RecordToolRun("generate_cover_page", "ask", 0.9)
	m.RecordValidationFailure("find_materials", "written_by")
	m.RecordGatewayRequest("groq", "success", 0.4)
	m.RecordGatewayRequest("huggingface", "error", 3.0)
	m.RecordSearch("material", 3, false)
	m.RecordSearch("notice", 0, false)
	m.RecordSearch("material", 1, true)
	m.RecordEmbeddingRetry()
	m.RecordDocument("cover", "success")
	m.RecordDocument("marksheet", "error")
	m.RecordRateLimiterWait("embedding", 0.02)
	m.RecordHTTPError("timeout", "/api/v1/chat")
	m.RecordIndexBuild(12.0)
}

func TestMetrics_RegisteredNames(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordTurn("general_chat", "general", 0.5)
	m.RecordToolRun("view_notices", "answer", 1.0)
	m.RecordGatewayRequest("groq", "success", 0.3)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metricFamilies) == 0 {
		t.Error("No metrics were gathered")
	}

	expectedMetrics := map[string]bool{
		"assist_turns_total":              false,
		"assist_turn_duration_seconds":    false,
		"assist_tool_runs_total":          false,
		"assist_gateway_requests_total":   false,
		"assist_gateway_duration_seconds": false,
	}

	for _, mf := range metricFamilies {
		if _, ok := expectedMetrics[mf.GetName()]; ok {
			expectedMetrics[mf.GetName()] = true
		}
	}

	for name, found := range expectedMetrics {
		if !found {
			t.Errorf("Expected metric %q not found", name)
		}
	}
}
