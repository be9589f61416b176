package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("uniai", reg, zap.NewNop()), reg
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector, _ := newTestCollector(t)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.requestsTotal)
	assert.NotNil(t, collector.requestDuration)
	assert.NotNil(t, collector.tokensTotal)
	assert.NotNil(t, collector.streamEvents)
	assert.NotNil(t, collector.tokenCacheLookups)
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector("uniai", reg, nil)
	assert.Panics(t, func() { NewCollector("uniai", reg, nil) })
}

func TestCollector_RecordRequest(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordRequest("openai", "chat", nil, 100*time.Millisecond)
	collector.RecordRequest("openai", "chat", nil, 50*time.Millisecond)
	collector.RecordRequest("openai", "chat", llm.NewError(llm.ErrVendor, llm.ProviderOpenAI, "boom"), time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("openai", "chat", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("openai", "chat", "vendor_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.requestDuration))
}

func TestCollector_RecordTokens(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordTokens("anthropic", 12, 8)
	collector.RecordTokens("anthropic", 0, 2)

	assert.Equal(t, 12.0, testutil.ToFloat64(collector.tokensTotal.WithLabelValues("anthropic", "prompt")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.tokensTotal.WithLabelValues("anthropic", "completion")))
}

func TestCollector_RecordTokenCache(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordTokenCache("baidu_access_token", false)
	collector.RecordTokenCache("baidu_access_token", true)
	collector.RecordTokenCache("baidu_access_token", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.tokenCacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.tokenCacheLookups.WithLabelValues("hit")))
}

func TestCollector_Exposition(t *testing.T) {
	collector, reg := newTestCollector(t)
	collector.RecordStreamEvent("google")

	expected := `
# HELP uniai_stream_events_total Total number of snapshots delivered to stream consumers
# TYPE uniai_stream_events_total counter
uniai_stream_events_total{provider="google"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "uniai_stream_events_total"))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector, _ := newTestCollector(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordRequest("glm", "chat_stream", nil, 10*time.Millisecond)
			collector.RecordStreamEvent("glm")
			collector.RecordTokenCache("glm_jwt_id", true)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("glm", "chat_stream", "success")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.streamEvents.WithLabelValues("glm")))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{llm.NewError(llm.ErrMissingCredential, "", "x"), "missing_credential"},
		{llm.NewError(llm.ErrUnsupportedProvider, "", "x"), "unsupported_provider"},
		{llm.NewError(llm.ErrEmptyInput, "", "x"), "empty_input"},
		{llm.NewError(llm.ErrUnsupportedFormat, "", "x"), "unsupported_format"},
		{llm.NewError(llm.ErrContentBlocked, "", "x"), "content_blocked"},
		{llm.TransportError("", errors.New("reset")), "transport_error"},
		{errors.New("plain"), "error"},
		{llm.ErrStreamClosed, "closed"},
		{context.Canceled, "canceled"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.err))
	}
}
