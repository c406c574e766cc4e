// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	Counter("noop_count").Add(1)
	CounterVec("noop_count_vec", []string{"op"}).AddWithLabel(1, map[string]string{"nonsense": "ok"})
	Gauge("noop_gauge").Set(3)
	HistogramVec("noop_hist", []string{"op"}, nil).ObserveWithLabels(5, map[string]string{"nonsense": "ok"})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.NotContains(t, gather(t), "stakeweight_noop_count")
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	count := Counter("count1")
	for range 3 {
		Counter("count1").Add(1)
	}
	count.Add(2)

	vec := CounterVec("count_vec1", []string{"result"})
	vec.AddWithLabel(1, map[string]string{"result": "ok"})
	vec.AddWithLabel(4, map[string]string{"result": "failed"})

	gauge := Gauge("gauge1")
	gauge.Set(10)
	gauge.Add(-3)

	hist := HistogramVec("hist1", []string{"route"}, BucketHTTPReqs)
	hist.ObserveWithLabels(7, map[string]string{"route": "a"})
	hist.ObserveWithLabels(13, map[string]string{"route": "b"})

	families := gather(t)
	assert.Equal(t, float64(5), families["stakeweight_count1"].Metric[0].GetCounter().GetValue())

	var vecSum float64
	for _, m := range families["stakeweight_count_vec1"].Metric {
		vecSum += m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(5), vecSum)
	assert.Equal(t, float64(7), families["stakeweight_gauge1"].Metric[0].GetGauge().GetValue())

	var histSum float64
	for _, m := range families["stakeweight_hist1"].Metric {
		histSum += m.GetHistogram().GetSampleSum()
	}
	assert.Equal(t, float64(20), histSum)

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)
	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics()

	for _, m := range []any{
		Counter("noop_counter"),
		CounterVec("noop_counter_vec", nil),
		Gauge("noop_gauge"),
		HistogramVec("noop_hist", nil, nil),
	} {
		require.IsType(t, noopMeters{}, m)
	}

	lazyCounter := LazyLoadCounter("lazy_counter")
	lazyCounterVec := LazyLoadCounterVec("lazy_counter_vec", nil)
	lazyGauge := LazyLoadGauge("lazy_gauge")
	lazyHistogramVec := LazyLoadHistogramVec("lazy_hist_vec", nil, nil)

	InitializePrometheusMetrics()

	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
	assert.Same(t, lazyGauge(), lazyGauge())
}
