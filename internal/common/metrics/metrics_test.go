package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDownstreamCall(t *testing.T) {
	before := testutil.ToFloat64(DownstreamCallsTotal.WithLabelValues("nlu", OutcomeError))
	ObserveDownstreamCall("nlu", OutcomeError, 20*time.Millisecond)
	after := testutil.ToFloat64(DownstreamCallsTotal.WithLabelValues("nlu", OutcomeError))
	assert.Equal(t, before+1, after)
}

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/message", "503"))
	ObserveHTTPRequest("POST", "/api/message", 503, time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/message", "503"))
	assert.Equal(t, before+1, after)
}

func TestObserveCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(AnalysisCacheLookups.WithLabelValues(CacheHit))
	ObserveCacheLookup(CacheHit)
	assert.Equal(t, before+1, testutil.ToFloat64(AnalysisCacheLookups.WithLabelValues(CacheHit)))
}
