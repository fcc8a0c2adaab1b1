package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCounters(t *testing.T) {
	before := counterValue(t, "ok")
	LoadTotal.WithLabelValues("ok").Inc()
	after := counterValue(t, "ok")
	assert.Equal(t, before+1, after)
}

func counterValue(t *testing.T, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, LoadTotal.WithLabelValues(outcome).Write(&m))
	return m.GetCounter().GetValue()
}
