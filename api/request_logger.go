// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vechain/stakeweight/log"
)

// requestLoggerMiddleware logs every request while enabled, and requests slower than
// slowThreshold regardless. A zero threshold disables slow request logging.
func requestLoggerMiddleware(logger log.Logger, enabled *atomic.Bool, slowThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled.Load() && slowThreshold == 0 {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				var err error
				if body, err = io.ReadAll(r.Body); err != nil {
					logger.Warn("unexpected body read error", "err", err)
					http.Error(w, "unable to read body", http.StatusBadRequest)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			start := time.Now()
			next.ServeHTTP(w, r)
			duration := time.Since(start)

			if enabled.Load() || (slowThreshold > 0 && duration > slowThreshold) {
				logger.Info("API Request",
					"DurationMs", duration.Milliseconds(),
					"URI", r.URL.String(),
					"Method", r.Method,
					"Body", string(body),
				)
			}
		})
	}
}
