package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/piichat/internal/core"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordMessage(OutcomeOK)
	m.RecordMessage(OutcomeOK)
	m.RecordMessage(OutcomeDetectionError)
	m.RecordRedaction(10*time.Millisecond, map[core.EntityKind]int{
		core.EntityUSSSN:       2,
		core.EntityPhoneNumber: 1,
	})
	m.RecordLLMRequest("openai", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues(OutcomeDetectionError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.redactedEntities.WithLabelValues("US_SSN")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.llmRequestDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordMessage(OutcomeOK)
		m.RecordRedaction(time.Millisecond, map[core.EntityKind]int{core.EntityURL: 1})
		m.RecordLLMRequest("x", time.Millisecond)
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordMessage(OutcomeEmpty)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `piichat_messages_total{outcome="empty"} 1`)
}
