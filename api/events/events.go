// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/eventdb"
	"github.com/vechain/stakeweight/node"
	"github.com/vechain/stakeweight/thor"
)

const maxWait = 30 * time.Second

type Event struct {
	BlockNumber uint32            `json:"blockNumber"`
	Index       uint32            `json:"index"`
	Address     thor.Address      `json:"address"`
	Topic       thor.Bytes32      `json:"topic"`
	Name        string            `json:"name"`
	Args        map[string]string `json:"args"`
}

// Convert returns the api representation of a stored event.
func Convert(ev *eventdb.Event) *Event {
	return &Event{
		BlockNumber: ev.BlockNumber,
		Index:       ev.Index,
		Address:     ev.Address,
		Topic:       ev.Topic,
		Name:        ev.Name,
		Args:        ev.Args,
	}
}

type Events struct {
	node  *node.Node
	limit uint64
}

func New(n *node.Node, limit uint64) *Events {
	return &Events{node: n, limit: limit}
}

func (e *Events) parseFilter(r *http.Request) (*eventdb.Filter, error) {
	q := r.URL.Query()
	filter := &eventdb.Filter{Order: eventdb.ASC}

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
	from, err := restutil.Uint64Query(r, "from", 0)
	if err != nil {
		return nil, err
	}
	to, err := restutil.Uint64Query(r, "to", math.MaxUint32)
	if err != nil {
		return nil, err
	}
	if from > math.MaxUint32 || to > math.MaxUint32 {
		return nil, restutil.BadRequest(errors.New("block range exceeds uint32"))
	}
	if from > to {
		return nil, restutil.BadRequest(errors.New("from must not be greater than to"))
	}
	filter.Range = &eventdb.Range{From: uint32(from), To: uint32(to)}

	switch q.Get("order") {
	case "", "asc":
	case "desc":
		filter.Order = eventdb.DESC
	default:
		return nil, restutil.BadRequest(errors.New("order must be asc or desc"))
	}

	offset, err := restutil.Uint64Query(r, "offset", 0)
	if err != nil {
		return nil, err
	}
	if offset > math.MaxInt64 {
		return nil, restutil.BadRequest(fmt.Errorf("offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	limit, err := restutil.Uint64Query(r, "limit", e.limit)
	if err != nil {
		return nil, err
	}
	if limit > e.limit {
		return nil, restutil.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}
	filter.Options = &eventdb.Options{Offset: offset, Limit: limit}
	return filter, nil
}

func (e *Events) filter(r *http.Request, filter *eventdb.Filter) ([]*Event, error) {
	evs, err := e.node.EventDB().Filter(r.Context(), filter)
	if err != nil {
		return nil, err
	}
	out := make([]*Event, 0, len(evs))
	for _, ev := range evs {
		out = append(out, Convert(ev))
	}
	return out, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, r *http.Request) error {
	filter, err := e.parseFilter(r)
	if err != nil {
		return err
	}
	evs, err := e.filter(r, filter)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, evs)
}

// handleNext waits until a block after the "after" query parameter is committed, then responds
// the events of the blocks following it. An empty list is responded on timeout.
func (e *Events) handleNext(w http.ResponseWriter, r *http.Request) error {
	after, err := restutil.Uint64Query(r, "after", uint64(e.node.Head()))
	if err != nil {
		return err
	}
	if after >= math.MaxUint32 {
		return restutil.BadRequest(errors.New("after exceeds uint32"))
	}
	waitMs, err := restutil.Uint64Query(r, "timeout", uint64(maxWait.Milliseconds()))
	if err != nil {
		return err
	}
	wait := min(time.Duration(waitMs)*time.Millisecond, maxWait)

	ticker := e.node.NewTicker()
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for uint64(e.node.Head()) <= after {
		select {
		case <-ticker.C():
		case <-timer.C:
			return restutil.WriteJSON(w, []*Event{})
		case <-r.Context().Done():
			return r.Context().Err()
		}
	}

	evs, err := e.filter(r, &eventdb.Filter{
		Range:   &eventdb.Range{From: uint32(after) + 1},
		Options: &eventdb.Options{Limit: e.limit},
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, evs)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
	sub.Path("/next").
		Methods(http.MethodGet).
		Name("GET /events/next").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleNext))
}
