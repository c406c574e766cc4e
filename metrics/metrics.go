// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics is a facade over the metrics backend. It is a noop until
// InitializePrometheusMetrics is called.
package metrics

import (
	"net/http"
	"sync"
)

var metrics = defaultNoopMetrics()

// Metrics is implemented by the metrics backends.
type Metrics interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter
	GetOrCreateHandler() http.Handler
}

// HTTPHandler returns the handler serving the collected metrics.
func HTTPHandler() http.Handler {
	return metrics.GetOrCreateHandler()
}

// BucketHTTPReqs are the request duration buckets, in milliseconds.
var BucketHTTPReqs = []int64{0, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}

type CountMeter interface {
	Add(int64)
}

func Counter(name string) CountMeter { return metrics.GetOrCreateCountMeter(name) }

type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

func CounterVec(name string, labels []string) CountVecMeter {
	return metrics.GetOrCreateCountVecMeter(name, labels)
}

type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

func Gauge(name string) GaugeMeter { return metrics.GetOrCreateGaugeMeter(name) }

type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return metrics.GetOrCreateHistogramVecMeter(name, labels, buckets)
}

// LazyLoad defers creating a meter until first use, so package level meters
// bind to whichever backend is active at that time.
func LazyLoad[T any](f func() T) func() T {
	var (
		result T
		once   sync.Once
	)
	return func() T {
		once.Do(func() { result = f() })
		return result
	}
}

func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
