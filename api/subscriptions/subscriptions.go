// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams committed staker events over websocket.
package subscriptions

import (
	"context"
	"math"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/eventdb"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/metrics"
	"github.com/vechain/stakeweight/node"
	"github.com/vechain/stakeweight/thor"
)

const (
	readTimeout  = 60 * time.Second
	pingPeriod   = readTimeout * 7 / 10
	writeTimeout = 10 * time.Second
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricActiveConns = metrics.LazyLoadGauge("api_websocket_active_count")
)

type Subscriptions struct {
	node           *node.Node
	backtraceLimit uint32
	cache          *blockCache
	upgrader       *websocket.Upgrader
	done           chan struct{}
	wg             sync.WaitGroup
}

// New creates the subscription endpoints. A subscriber may start at most backtraceLimit
// blocks behind the head. Origins are compared lowercased, "*" allows any.
func New(n *node.Node, allowedOrigins []string, backtraceLimit uint32) *Subscriptions {
	s := &Subscriptions{
		node:           n,
		backtraceLimit: backtraceLimit,
		done:           make(chan struct{}),
	}
	s.cache = newBlockCache(int(backtraceLimit), func(num uint32) ([]*eventdb.Event, error) {
		return n.EventDB().Filter(context.Background(), &eventdb.Filter{
			Range: &eventdb.Range{From: num, To: num},
		})
	})
	s.upgrader = &websocket.Upgrader{
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, strings.ToLower(origin))
		},
	}
	return s
}

func (s *Subscriptions) parsePosition(r *http.Request) (uint32, error) {
	head := s.node.Head()
	pos, err := restutil.Uint64Query(r, "pos", uint64(head))
	if err != nil {
		return 0, err
	}
	if pos >= math.MaxUint32 {
		return 0, restutil.BadRequest(errors.New("pos: exceeds uint32"))
	}
	if uint64(head) > pos && uint64(head)-pos > uint64(s.backtraceLimit) {
		return 0, restutil.Forbidden(errors.New("pos: backtrace limit exceeded"))
	}
	return uint32(pos), nil
}

func parseEventFilter(r *http.Request) (*eventFilter, error) {
	q := r.URL.Query()
	filter := &eventFilter{}
	if s := q.Get("address"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "address"))
		}
		filter.Address = &addr
	}
	if s := q.Get("topic"); s != "" {
		topic, err := thor.ParseBytes32(s)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "topic"))
		}
		filter.Topic = &topic
	}
	return filter, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, r *http.Request) error {
	filter, err := parseEventFilter(r)
	if err != nil {
		return err
	}
	after, err := s.parsePosition(r)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	defer s.wg.Done()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has responded already
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	metricActiveConns().Add(1)
	defer metricActiveConns().Add(-1)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	reader := newEventReader(s.node.Head, s.cache, filter, after)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.pipe(conn, reader, closed); err != nil {
		logger.Debug("subscription aborted", "err", err)
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "")
	}
	conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeTimeout))
	conn.Close()
	<-closed
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, reader *eventReader, closed <-chan struct{}) error {
	ticker := s.node.NewTicker()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		msgs, hasMore, err := reader.Read()
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}

		if hasMore {
			select {
			case <-s.done:
				return nil
			case <-closed:
				return nil
			default:
			}
			continue
		}
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-ticker.C():
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		}
	}
}

// Close ends every open subscription and waits for them to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvents))
}
