// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeweight/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the state and event databases",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "save state and events to data-dir instead of memory",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 512,
		Usage: "megabytes of ram allocated to the state database cache",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the genesis YAML file, dev genesis is used if not set",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8670",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	apiBacktraceLimitFlag = cli.UintFlag{
		Name:  "api-backtrace-limit",
		Value: 1000,
		Usage: "limit the distance between the head and the position a subscription starts at",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "all queries with duration (in milliseconds) greater than this threshold will be logged",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
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
)
