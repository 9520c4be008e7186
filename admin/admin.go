// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/focus/api/utils"
	"github.com/vechain/focus/log"
)

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type apiLogsStatus struct {
	Enabled bool `json:"enabled"`
}

func getLogLevel(logLevel *slog.LevelVar) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return utils.WriteJSON(w, &logLevelResponse{CurrentLevel: log.LevelString(logLevel.Level())})
	}
}

func postLogLevel(logLevel *slog.LevelVar) utils.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req logLevelRequest
		if err := utils.ParseJSON(r.Body, &req); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		level, ok := levels[req.Level]
		if !ok {
			return utils.BadRequest(errors.Errorf("invalid verbosity level %q", req.Level))
		}
		logLevel.Set(level)
		log.Info("log level changed", "level", req.Level)
		return utils.WriteJSON(w, &logLevelResponse{CurrentLevel: log.LevelString(logLevel.Level())})
	}
}

func getAPILogs(enabled *atomic.Bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return utils.WriteJSON(w, &apiLogsStatus{Enabled: enabled.Load()})
	}
}

func postAPILogs(enabled *atomic.Bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req apiLogsStatus
		if err := utils.ParseJSON(r.Body, &req); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		enabled.Store(req.Enabled)
		log.Info("api request logs toggled", "enabled", req.Enabled)
		return utils.WriteJSON(w, &apiLogsStatus{Enabled: enabled.Load()})
	}
}

// HTTPHandler serves the runtime switches of the service: the log level and the API request logs.
func HTTPHandler(logLevel *slog.LevelVar, apiLogs *atomic.Bool) http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	sub.Path("/loglevel").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(getLogLevel(logLevel)))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		HandlerFunc(utils.WrapHandlerFunc(postLogLevel(logLevel)))
	sub.Path("/apilogs").
		Methods(http.MethodGet).
		HandlerFunc(utils.WrapHandlerFunc(getAPILogs(apiLogs)))
	sub.Path("/apilogs").
		Methods(http.MethodPost).
		HandlerFunc(utils.WrapHandlerFunc(postAPILogs(apiLogs)))

	return handlers.CompressHandler(router)
}
