package metrics

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	// Initialize the registry
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordPickEmitted(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPickEmitted("over_under_2.5", "High")
	})
}

func TestRecordMatchSkipped(t *testing.T) {
	InitRegistry()

	reasons := []string{"no_odds", "below_min_edge", "insufficient_data", "model_unavailable", "duplicate"}
	for _, reason := range reasons {
		assert.NotPanics(t, func() {
			RecordMatchSkipped(reason)
		})
	}
}

func TestRecordPipelineRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPipelineRun(12.4)
	})
}

func TestUpdateCacheHitRatio(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name  string
		ratio float64
	}{
		{
			name:  "cold cache",
			ratio: 0,
		},
		{
			name:  "warm cache",
			ratio: 0.85,
		},
		{
			name:  "full hit rate",
			ratio: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateCacheHitRatio(tt.ratio)
			})
		})
	}
}

func TestRecordTrainingRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordTrainingRun("btts", 42.0)
	})
}

func TestRecordBacktestRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBacktestRun(300.0)
	})
}

func TestRecordImportCounters(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordMatchesImported("football-data", 380)
		RecordOddsIngested(380)
	})
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()

	handler := Handler()
	assert.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)
}

func BenchmarkRecordPickEmitted(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordPickEmitted("over_under_2.5", "Medium")
	}
}

func BenchmarkRecordMatchSkipped(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordMatchSkipped("no_odds")
	}
}

func BenchmarkUpdateCacheHitRatio(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		UpdateCacheHitRatio(0.5)
	}
}
