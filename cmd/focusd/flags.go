// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/focus/staking/settlement"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML file holding flag values, flags set on the command line take precedence",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the group database",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "group data storage option, if set data will be saved to disk",
	}
	cacheFlag = cli.Uint64Flag{
		Name:  "cache",
		Value: 4096,
		Usage: "number of decoded groups kept in memory",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8679",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.Uint64Flag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "all queries with duration (ms) above the threshold will be logged",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log API requests answered with a 5xx status",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
	bonusBpsFlag = cli.Uint64Flag{
		Name:  "bonus-bps",
		Value: settlement.DefaultBonusBps,
		Usage: "completion bonus in basis points of the collected stakes",
	}
	refundNoneCompletedFlag = cli.BoolFlag{
		Name:  "refund-none-completed",
		Usage: "refund every stake when nobody completes a session, instead of forfeiting them",
	}
	communityPoolFlag = cli.StringFlag{
		Name:  "community-pool",
		Usage: "address allowed to sweep the remainder of finalized groups",
	}
	defaultBotFlag = cli.StringFlag{
		Name:  "default-bot",
		Usage: "delegate address assigned to new groups, the keeper acts as this address",
	}
	keeperIntervalFlag = cli.DurationFlag{
		Name:  "keeper-interval",
		Value: 10 * time.Second,
		Usage: "interval between two keeper rounds, 0 disables the keeper",
	}
	keeperConcurrencyFlag = cli.Uint64Flag{
		Name:  "keeper-concurrency",
		Value: 4,
		Usage: "number of groups the keeper processes in parallel",
	}

	flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		persistFlag,
		cacheFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiTimeoutFlag,
		enableAPILogsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		pprofFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		enableAdminFlag,
		adminAddrFlag,
		bonusBpsFlag,
		refundNoneCompletedFlag,
		communityPoolFlag,
		defaultBotFlag,
		keeperIntervalFlag,
		keeperConcurrencyFlag,
	}
)
