// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/stakeweight/log"
)

const namespace = "stakeweight"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the facade to prometheus. Calling it again is a no-op.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = &prometheusMetrics{}
	}
}

type prometheusMetrics struct {
	meters sync.Map // name => meter
}

// loadOrCreate returns the meter registered under name, creating and registering it on first use.
func loadOrCreate[T any](o *prometheusMetrics, name string, create func() (prometheus.Collector, T)) T {
	if m, ok := o.meters.Load(name); ok {
		return m.(T)
	}
	collector, meter := create()
	actual, loaded := o.meters.LoadOrStore(name, meter)
	if loaded {
		return actual.(T)
	}
	if err := prometheus.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
	return meter
}

func floatBuckets(buckets []int64) []float64 {
	out := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, float64(b))
	}
	return out
}

func (o *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	return loadOrCreate(o, name, func() (prometheus.Collector, CountMeter) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		return c, &promCountMeter{c}
	})
}

func (o *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	return loadOrCreate(o, name, func() (prometheus.Collector, CountVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, &promCountVecMeter{c}
	})
}

func (o *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	return loadOrCreate(o, name, func() (prometheus.Collector, GaugeMeter) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, &promGaugeMeter{g}
	})
}

func (o *prometheusMetrics) GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	return loadOrCreate(o, name, func() (prometheus.Collector, HistogramVecMeter) {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}, labels)
		return h, &promHistogramVecMeter{h}
	})
}

func (o *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

type promCountMeter struct{ counter prometheus.Counter }

func (c *promCountMeter) Add(i int64) { c.counter.Add(float64(i)) }

type promCountVecMeter struct{ counter *prometheus.CounterVec }

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGaugeMeter struct{ gauge prometheus.Gauge }

func (g *promGaugeMeter) Add(i int64) { g.gauge.Add(float64(i)) }
func (g *promGaugeMeter) Set(i int64) { g.gauge.Set(float64(i)) }

type promHistogramVecMeter struct{ histogram *prometheus.HistogramVec }

func (h *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	h.histogram.With(labels).Observe(float64(i))
}
