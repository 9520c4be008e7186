// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/focus/api"
	"github.com/vechain/focus/cmd/focusd/httpserver"
	"github.com/vechain/focus/co"
	"github.com/vechain/focus/keeper"
	"github.com/vechain/focus/log"
	"github.com/vechain/focus/metrics"
	"github.com/vechain/focus/staking"
	"github.com/vechain/focus/staking/registry"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "focusd")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Focusd",
		Usage:     "Staking service for focus sessions",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags:     flags,
		Action:    defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func clock() uint64 {
	return uint64(time.Now().Unix())
}

func defaultAction(ctx *cli.Context) error {
	if err := loadConfig(ctx); err != nil {
		return err
	}
	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("exited") }()

	exitSignal := handleExitSignal()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return errors.WithMessage(err, "unable to start metrics server")
		}
		logger.Info("metrics server started", "url", url)
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
	}

	cfg, err := stakingConfig(ctx)
	if err != nil {
		return err
	}
	cacheSize, err := readIntFromUInt64Flag(ctx.Uint64(cacheFlag.Name))
	if err != nil {
		return errors.Wrapf(err, "-%s", cacheFlag.Name)
	}

	db, dbPath, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing group database..."); db.Close() }()

	reg, err := registry.New(db, cacheSize)
	if err != nil {
		return err
	}
	s := staking.New(reg, cfg)

	enableAPILogs := &atomic.Bool{}
	enableAPILogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, enableAPILogs)
		if err != nil {
			return errors.WithMessage(err, "unable to start admin server")
		}
		logger.Info("admin server started", "url", url)
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
	}

	handler := api.New(s, clock, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      enableAPILogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
	})
	apiURL, stopAPI, err := httpserver.StartAPIServer(ctx.String(apiAddrFlag.Name), handler, httpserver.APIOptions{
		Timeout: time.Duration(ctx.Uint64(apiTimeoutFlag.Name)) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	var goes co.Goes
	keeperStatus := "disabled"
	if interval := ctx.Duration(keeperIntervalFlag.Name); interval > 0 && cfg.DefaultBot != nil {
		concurrency, err := readIntFromUInt64Flag(ctx.Uint64(keeperConcurrencyFlag.Name))
		if err != nil {
			return errors.Wrapf(err, "-%s", keeperConcurrencyFlag.Name)
		}
		k := keeper.New(s, *cfg.DefaultBot, keeper.Options{
			Interval:    interval,
			Concurrency: concurrency,
		}, clock)
		goes.Go(func() { k.Run(exitSignal) })
		keeperStatus = fmt.Sprintf("%v every %v", cfg.DefaultBot, interval)
	}
	defer goes.Wait()

	printStartupMessage(dbPath, apiURL, keeperStatus, cfg)

	<-exitSignal.Done()
	return nil
}

func printStartupMessage(dbPath, apiURL, keeperStatus string, cfg staking.Config) {
	pool := "not set, sweeping disabled"
	if cfg.CommunityPool != nil {
		pool = cfg.CommunityPool.String()
	}
	fmt.Printf(`Starting %v
    Database     [ %v ]
    Bonus        [ %v bps, refund when none completed: %v ]
    Pool         [ %v ]
    Keeper       [ %v ]
    API portal   [ %v ]
`,
		"Focusd/"+fullVersion(),
		dbPath,
		cfg.Policy.BonusBps, cfg.Policy.RefundWhenNoneCompleted,
		pool,
		keeperStatus,
		apiURL)
}
