// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/metrics"
)

var (
	metricHTTPReqCounter  = metrics.LazyLoadCounterVec("api_request_count", []string{"name", "code", "method"})
	metricHTTPReqDuration = metrics.LazyLoadHistogramVec("api_duration_ms", []string{"name", "code", "method"}, metrics.BucketHTTPReqs)
)

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (m *metricsResponseWriter) WriteHeader(code int) {
	m.statusCode = code
	m.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records the count and duration of requests, labeled by route name.
// Hijack lets websocket upgrades pass through.
func (m *metricsResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := m.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := "unknown"
		if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
			name = route.GetName()
		}

		now := time.Now()
		mrw := &metricsResponseWriter{w, http.StatusOK}
		next.ServeHTTP(mrw, r)

		labels := map[string]string{"name": name, "code": strconv.Itoa(mrw.statusCode), "method": r.Method}
		metricHTTPReqCounter().AddWithLabel(1, labels)
		metricHTTPReqDuration().ObserveWithLabels(time.Since(now).Milliseconds(), labels)
	})
}
