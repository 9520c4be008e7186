// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/focus/staking/settlement"
	"github.com/vechain/focus/thor"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "focusd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadConfigFile(t *testing.T) {
	path := writeConfig(t, `
api-addr: 0.0.0.0:8679
bonus-bps: 500
persist: true
keeper-interval: 30s
community-pool:
`)
	values, err := readConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"api-addr":        "0.0.0.0:8679",
		"bonus-bps":       "500",
		"persist":         "true",
		"keeper-interval": "30s",
	}, values)

	_, err = readConfigFile(writeConfig(t, "api-cors: [a, b]\n"))
	assert.Error(t, err)

	_, err = readConfigFile(writeConfig(t, "- not a mapping\n"))
	assert.Error(t, err)

	_, err = readConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
api-addr: 0.0.0.0:8679
bonus-bps: 500
persist: true
keeper-interval: 30s
`)
	ctx := newContext(t, "--config="+path, "--api-addr=localhost:9000")
	require.NoError(t, loadConfig(ctx))

	assert.Equal(t, "localhost:9000", ctx.String(apiAddrFlag.Name), "command line wins")
	assert.Equal(t, uint64(500), ctx.Uint64(bonusBpsFlag.Name))
	assert.True(t, ctx.Bool(persistFlag.Name))
	assert.Equal(t, 30*time.Second, ctx.Duration(keeperIntervalFlag.Name))
	assert.Equal(t, "localhost:2112", ctx.String(metricsAddrFlag.Name), "defaults are kept")
}

func TestApplyConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"unknown key", map[string]string{"nope": "1"}},
		{"nested config", map[string]string{"config": "other.yaml"}},
		{"bad value", map[string]string{"bonus-bps": "ten"}},
		{"bad duration", map[string]string{"keeper-interval": "often"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, applyConfig(newContext(t), tt.values))
		})
	}
}

func TestStakingConfig(t *testing.T) {
	cfg, err := stakingConfig(newContext(t))
	require.NoError(t, err)
	assert.Equal(t, settlement.DefaultPolicy(), cfg.Policy)
	assert.Nil(t, cfg.DefaultBot)
	assert.Nil(t, cfg.CommunityPool)

	bot := thor.BytesToAddress([]byte("bot"))
	pool := thor.BytesToAddress([]byte("pool"))
	cfg, err = stakingConfig(newContext(t,
		"--bonus-bps=250",
		"--refund-none-completed",
		"--default-bot="+bot.String(),
		"--community-pool="+pool.String(),
	))
	require.NoError(t, err)
	assert.Equal(t, settlement.Policy{BonusBps: 250, RefundWhenNoneCompleted: true}, cfg.Policy)
	require.NotNil(t, cfg.DefaultBot)
	assert.Equal(t, bot, *cfg.DefaultBot)
	require.NotNil(t, cfg.CommunityPool)
	assert.Equal(t, pool, *cfg.CommunityPool)

	_, err = stakingConfig(newContext(t, "--default-bot=0x1234"))
	assert.Error(t, err)
	_, err = stakingConfig(newContext(t, "--bonus-bps=10001"))
	assert.Error(t, err)
}
