// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelVar(l slog.Level) *slog.LevelVar {
	var v slog.LevelVar
	v.Set(l)
	return &v
}

func TestFromVerbosity(t *testing.T) {
	assert.Equal(t, LevelCrit, FromVerbosity(0))
	assert.Equal(t, LevelError, FromVerbosity(1))
	assert.Equal(t, LevelWarn, FromVerbosity(2))
	assert.Equal(t, LevelInfo, FromVerbosity(3))
	assert.Equal(t, LevelDebug, FromVerbosity(4))
	assert.Equal(t, LevelTrace, FromVerbosity(5))
	assert.Equal(t, levelMaxVerbosity, FromVerbosity(9))
}

func TestJSONHandler(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(JSONHandlerWithLevel(&out, levelVar(LevelInfo)))

	l.Debug("hidden")
	l.Info("settled", "payout", big.NewInt(110), "fee", uint256.NewInt(7), "nil", (*big.Int)(nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "settled", rec["msg"])
	assert.Equal(t, "info", rec["lvl"])
	assert.Equal(t, "110", rec["payout"])
	assert.Equal(t, "7", rec["fee"])
	assert.Equal(t, "<nil>", rec["nil"])
	assert.Contains(t, rec, "t")
}

func TestLogfmtHandler_OddArgs(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(LogfmtHandlerWithLevel(&out, levelVar(LevelTrace)))
	l.Trace("odd", "key")

	assert.Contains(t, out.String(), "lvl=trace")
	assert.Contains(t, out.String(), errorKey)
}

func TestTerminalHandler(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(NewTerminalHandlerWithLevel(&out, levelVar(LevelInfo), false)).With("pkg", "test")
	l.Warn("group finalized", "id", 3)
	l.Debug("hidden")

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "WARN "))
	assert.Contains(t, line, "group finalized")
	assert.Contains(t, line, "pkg=test id=3")
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestSetDefault(t *testing.T) {
	l := WithContext("pkg", "early")

	var out bytes.Buffer
	SetDefault(LogfmtHandlerWithLevel(&out, levelVar(LevelDebug)))
	defer SetDefault(DiscardHandler())

	l.Debug("after")
	assert.Contains(t, out.String(), "pkg=early")
	assert.Contains(t, out.String(), "msg=after")
}
