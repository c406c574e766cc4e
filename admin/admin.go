// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the node's runtime controls and health.
package admin

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/co"
	"github.com/vechain/stakeweight/health"
	"github.com/vechain/stakeweight/log"
)

var logger = log.WithContext("pkg", "admin")

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type apiLogsRequest struct {
	Enabled bool `json:"enabled"`
}

type Admin struct {
	logLevel *slog.LevelVar
	apiLogs  *atomic.Bool
	health   *health.Health
}

func New(logLevel *slog.LevelVar, apiLogs *atomic.Bool, h *health.Health) *Admin {
	return &Admin{logLevel: logLevel, apiLogs: apiLogs, health: h}
}

func (a *Admin) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	status := a.health.Status()
	if !status.Healthy {
		w.Header().Set("Content-Type", restutil.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
		return json.NewEncoder(w).Encode(status)
	}
	return restutil.WriteJSON(w, status)
}

func (a *Admin) handleGetLogLevel(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &logLevelResponse{CurrentLevel: log.LevelString(a.logLevel.Level())})
}

func (a *Admin) handlePostLogLevel(w http.ResponseWriter, r *http.Request) error {
	var req logLevelRequest
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	level, err := log.ParseLevel(req.Level)
	if err != nil {
		return restutil.BadRequest(err)
	}
	a.logLevel.Set(level)
	logger.Info("log level changed", "level", log.LevelString(level))
	return restutil.WriteJSON(w, &logLevelResponse{CurrentLevel: log.LevelString(level)})
}

func (a *Admin) handleGetAPILogs(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &apiLogsRequest{Enabled: a.apiLogs.Load()})
}

func (a *Admin) handlePostAPILogs(w http.ResponseWriter, r *http.Request) error {
	var req apiLogsRequest
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	a.apiLogs.Store(req.Enabled)
	return restutil.WriteJSON(w, &req)
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/loglevel").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(a.handleGetLogLevel))
	sub.Path("/loglevel").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(a.handlePostLogLevel))
	sub.Path("/apilogs").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(a.handleGetAPILogs))
	sub.Path("/apilogs").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(a.handlePostAPILogs))
	sub.Path("/health").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(a.handleGetHealth))
}

// StartServer serves the admin endpoints on addr. The returned func stops the server.
func StartServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool, h *health.Health) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	router := mux.NewRouter()
	New(logLevel, apiLogs, h).Mount(router, "/admin")
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
