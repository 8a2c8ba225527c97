package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandlerExposesContractMetrics(t *testing.T) {
	h := Handler()
	_ = Handler() // registration happens once

	before := testutil.ToFloat64(UploadsCounter)
	UploadsCounter.Inc()
	if got := testutil.ToFloat64(UploadsCounter); got != before+1 {
		t.Fatalf("uploads = %v, want %v", got, before+1)
	}
	LLMLatency.WithLabelValues("parties", "ok").Observe(0.2)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"contracts_uploaded_total", "contracts_llm_request_seconds_bucket", "contracts_processing"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
