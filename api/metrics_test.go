// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/focus/api/groups"
	"github.com/vechain/focus/lvldb"
	"github.com/vechain/focus/metrics"
	"github.com/vechain/focus/staking"
	"github.com/vechain/focus/staking/registry"
	"github.com/vechain/focus/staking/settlement"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func newStaking(t *testing.T) *staking.Staking {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg, err := registry.New(db, 16)
	require.NoError(t, err)
	return staking.New(reg, staking.Config{Policy: settlement.DefaultPolicy()})
}

func findMetric(family *dto.MetricFamily, labels map[string]string) *dto.Metric {
	for _, m := range family.GetMetric() {
		matched := 0
		for _, l := range m.GetLabel() {
			if v, ok := labels[l.GetName()]; ok && v == l.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return m
		}
	}
	return nil
}

func TestMetricsMiddleware(t *testing.T) {
	router := mux.NewRouter()
	groups.New(newStaking(t), func() uint64 { return 0 }).Mount(router, "/groups")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	_, code := httpGet(t, ts.URL+"/groups/next-id")
	assert.Equal(t, 200, code)
	_, code = httpGet(t, ts.URL+"/groups/next-id")
	assert.Equal(t, 200, code)
	_, code = httpGet(t, ts.URL+"/groups/7")
	assert.Equal(t, 404, code)
	res, err := http.Post(ts.URL+"/groups/7/start", "application/json", strings.NewReader("{")) //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, 400, res.StatusCode)

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family := families["focus_api_request_count"]
	require.NotNil(t, family)

	m := findMetric(family, map[string]string{"name": "groups_next_id", "code": "200", "method": "GET"})
	require.NotNil(t, m)
	assert.Equal(t, float64(2), m.GetCounter().GetValue())

	m = findMetric(family, map[string]string{"name": "groups", "code": "404", "method": "GET"})
	require.NotNil(t, m)
	assert.Equal(t, float64(1), m.GetCounter().GetValue())

	m = findMetric(family, map[string]string{"name": "groups_start", "code": "400", "method": "POST"})
	require.NotNil(t, m)
	assert.Equal(t, float64(1), m.GetCounter().GetValue())

	duration := families["focus_api_duration_ms"]
	require.NotNil(t, duration)
	m = findMetric(duration, map[string]string{"name": "groups_next_id", "code": "200", "method": "GET"})
	require.NotNil(t, m)
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
}

func TestNew(t *testing.T) {
	handler := New(newStaking(t), func() uint64 { return 0 }, Options{
		AllowedOrigins: "http://Example.com, http://other.org",
		EnableMetrics:  true,
	})

	req := httptest.NewRequest(http.MethodGet, "/groups/next-id", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"nextId":0}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/groups/next-id", nil)
	req.Header.Set("Origin", "http://evil.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	if err != nil {
		t.Fatal(err)
	}
	r, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return r, res.StatusCode
}
