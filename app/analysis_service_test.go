package app

import (
	"testing"

	"karyoscore/internal"
	"karyoscore/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisServiceAnalyze(t *testing.T) {
	m := metrics.New()
	svc := NewAnalysisService(internal.NewNopLogger(), m)

	result, total, err := svc.Analyze("46,XY,der(9)t(9;22)(q34;q11)[20]")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, result.TotalJ())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FormulasAnalyzed.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AnomaliesScored.WithLabelValues("2")))
}

func TestAnalysisServiceWithoutMetrics(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	result, total, err := svc.Analyze("46,XY[20]")
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, total)
}
