// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the staker, registry, token and event endpoints over HTTP.
package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeweight/api/events"
	"github.com/vechain/stakeweight/api/registry"
	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/api/staker"
	"github.com/vechain/stakeweight/api/subscriptions"
	"github.com/vechain/stakeweight/api/token"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/node"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins     string
	EventsLimit        uint64
	BacktraceLimit     uint32
	EnableMetrics      bool
	EnableReqLogger    *atomic.Bool
	SlowQueryThreshold time.Duration
}

type nodeInfo struct {
	Head uint32 `json:"head"`
}

// New returns the api handler and a func closing the open subscriptions.
func New(n *node.Node, opts Options) (http.Handler, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = 1000
	}
	if opts.BacktraceLimit == 0 {
		opts.BacktraceLimit = 1000
	}
	if opts.EnableReqLogger == nil {
		opts.EnableReqLogger = &atomic.Bool{}
	}

	router := mux.NewRouter()
	router.Path("/node").
		Methods(http.MethodGet).
		Name("GET /node").
		HandlerFunc(restutil.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return restutil.WriteJSON(w, &nodeInfo{Head: n.Head()})
		}))

	staker.New(n).Mount(router, "/staker")
	registry.New(n).Mount(router, "/registry")
	token.New(n).Mount(router, "/token")
	events.New(n, opts.EventsLimit).Mount(router, "/events")
	subs := subscriptions.New(n, origins, opts.BacktraceLimit)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return requestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueryThreshold)(handler), subs.Close
}
