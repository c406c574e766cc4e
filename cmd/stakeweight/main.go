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

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeweight/admin"
	"github.com/vechain/stakeweight/api"
	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/metrics"
	"github.com/vechain/stakeweight/node"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
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
		Name:      "StakeWeight",
		Usage:     "Node of the VeChain validator stake weight contracts",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			persistFlag,
			cacheFlag,
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			apiBacktraceLimitFlag,
			apiSlowQueriesThresholdFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "dev-accounts",
				Usage:  "print the accounts funded by the dev genesis",
				Action: devAccountsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}

	gen, err := loadGenesis(ctx)
	if err != nil {
		return err
	}

	dbs, err := openDatabases(ctx, gen)
	if err != nil {
		return err
	}
	defer dbs.Close()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	n, err := node.New(exitSignal, dbs.main, dbs.events, gen)
	if err != nil {
		return err
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler, closeSubs := api.New(n, api.Options{
		AllowedOrigins:     ctx.String(apiCorsFlag.Name),
		EventsLimit:        ctx.Uint64(apiEventsLimitFlag.Name),
		BacktraceLimit:     uint32(ctx.Uint(apiBacktraceLimitFlag.Name)),
		EnableMetrics:      ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:    apiLogs,
		SlowQueryThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
	})

	var (
		group      errgroup.Group
		apiURL     string
		metricsURL string
		adminURL   string
		stoppers   = make(chan func(), 3)
	)
	group.Go(func() (err error) {
		var stop func()
		apiURL, stop, err = startAPIServer(ctx.String(apiAddrFlag.Name), handler)
		if err == nil {
			stoppers <- stop
		}
		return
	})
	if ctx.Bool(enableMetricsFlag.Name) {
		group.Go(func() (err error) {
			var stop func()
			metricsURL, stop, err = startMetricsServer(ctx.String(metricsAddrFlag.Name))
			if err == nil {
				stoppers <- stop
			}
			return
		})
	}
	if ctx.Bool(enableAdminFlag.Name) {
		group.Go(func() (err error) {
			var stop func()
			adminURL, stop, err = admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, apiLogs, n.Health())
			if err == nil {
				stoppers <- stop
			}
			return
		})
	}
	err = group.Wait()
	close(stoppers)
	defer func() {
		logger.Info("stopping servers...")
		closeSubs()
		for stop := range stoppers {
			stop()
		}
	}()
	if err != nil {
		return err
	}

	printStartupMessage(gen, n, dbs.dir, apiURL, metricsURL, adminURL)

	<-exitSignal.Done()
	return nil
}

func devAccountsAction(_ *cli.Context) error {
	for i, acc := range genesis.DevAccounts() {
		role := ""
		switch i {
		case 0:
			role = "admin"
		case 1:
			role = "stake authority"
		case 2:
			role = "reward notifier"
		}
		fmt.Printf("%d %v %x %s\n", i, acc.Address, crypto.FromECDSA(acc.PrivateKey), role)
	}
	return nil
}
