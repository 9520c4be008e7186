// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vechain/focus/admin"
)

// StartAdminServer serves the admin endpoints. It returns the url and a func to stop the server.
func StartAdminServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool) (string, func(), error) {
	srv := &http.Server{
		Handler:           admin.HTTPHandler(logLevel, apiLogs),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	url, stop, err := serve(srv, addr, "admin")
	if err != nil {
		return "", nil, err
	}
	return url + "admin", stop, nil
}
