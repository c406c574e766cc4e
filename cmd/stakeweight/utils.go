// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeweight/co"
	"github.com/vechain/stakeweight/eventdb"
	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/lvldb"
	"github.com/vechain/stakeweight/metrics"
	"github.com/vechain/stakeweight/node"
	"github.com/vechain/stakeweight/thor"
)

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, fmt.Errorf("value %d exceeds int range", val)
	}
	return int(val), nil
}

func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	verbosity, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return nil, errors.WithMessage(err, "verbosity")
	}
	logLevel := new(slog.LevelVar)
	logLevel.Set(log.FromLegacyLevel(verbosity))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, logLevel)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, logLevel, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return logLevel, nil
}

func loadGenesis(ctx *cli.Context) (*genesis.Config, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return genesis.NewDevConfig(), nil
	}
	gen, err := genesis.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load genesis [%v]", path)
	}
	return gen, nil
}

// genesisID identifies a genesis config, so nodes started with different configs keep separate data.
func genesisID(gen *genesis.Config) (thor.Bytes32, error) {
	data, err := json.Marshal(gen)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.Blake2b(data), nil
}

type databases struct {
	dir    string
	main   *lvldb.LevelDB
	events *eventdb.EventDB
}

func (d *databases) Close() {
	logger.Info("closing event database...")
	if err := d.events.Close(); err != nil {
		logger.Warn("failed to close event database", "err", err)
	}
	logger.Info("closing main database...")
	if err := d.main.Close(); err != nil {
		logger.Warn("failed to close main database", "err", err)
	}
}

func openDatabases(ctx *cli.Context, gen *genesis.Config) (*databases, error) {
	if !ctx.Bool(persistFlag.Name) {
		events, err := eventdb.NewMem()
		if err != nil {
			return nil, errors.Wrap(err, "open event database")
		}
		return &databases{dir: "Memory", main: lvldb.NewMem(), events: events}, nil
	}

	id, err := genesisID(gen)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(ctx.String(dataDirFlag.Name), fmt.Sprintf("instance-%x", id[:4]))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dir)
	}

	fdCache, err := suggestFDCache()
	if err != nil {
		return nil, err
	}
	main, err := lvldb.New(filepath.Join(dir, "main.db"), lvldb.Options{
		CacheSize:              normalizeCacheSize(ctx.Int(cacheFlag.Name)),
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open main database")
	}
	events, err := eventdb.New(filepath.Join(dir, "events.db"))
	if err != nil {
		main.Close()
		return nil, errors.Wrap(err, "open event database")
	}
	return &databases{dir: dir, main: main, events: events}, nil
}

func normalizeCacheSize(sizeMB int) int {
	sizeMB = max(sizeMB, 128)

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem", "err", err)
		return sizeMB
	}
	// half of the physical ram at most
	if limitMB := int(mem.Total / 1024 / 1024 / 2); sizeMB > limitMB {
		log.Warn("cache size(MB) limited", "limit", limitMB)
		return limitMB
	}
	return sizeMB
}

func suggestFDCache() (int, error) {
	limit, err := fdlimit.Current()
	if err != nil {
		return 0, errors.Wrap(err, "get fd limit")
	}
	if limit <= 1024 {
		log.Warn("low fd limit, increase it if possible", "limit", limit)
	}
	return min(limit/2, 5120), nil
}

func serve(addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String(), func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func startAPIServer(addr string, handler http.Handler) (string, func(), error) {
	url, stop, err := serve(addr, handler)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	return url + "/", stop, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())

	url, stop, err := serve(addr, handlers.CompressHandler(router))
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}
	return url + "/metrics", stop, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(gen *genesis.Config, n *node.Node, dataDir, apiURL, metricsURL, adminURL string) {
	fmt.Printf(`Starting %v
    Admin        [ %v ]
    Authority    [ %v ]
    Head         [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin server [ %v ]
`,
		fullVersion(),
		gen.Admin,
		gen.StakeAuthority,
		n.Head(),
		dataDir,
		apiURL,
		orDisabled(metricsURL),
		orDisabled(adminURL),
	)
}

func orDisabled(url string) string {
	if url == "" {
		return "Disabled"
	}
	return url
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakeweight")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakeweight")
		}
		return filepath.Join(home, ".org.vechain.stakeweight")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
