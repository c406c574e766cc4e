// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package client

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vechain/stakeweight/api/events"
	"github.com/vechain/stakeweight/thor"
)

var ErrUnexpectedMsg = errors.New("unexpected message")

// EventWrapper carries a streamed event, or the error that ended the stream.
type EventWrapper struct {
	Event *events.Event
	Error error
}

// Subscription is an open event stream.
type Subscription struct {
	conn      *websocket.Conn
	ch        chan EventWrapper
	done      chan struct{}
	closeOnce sync.Once
}

// C returns the stream. It is closed when the subscription ends.
func (s *Subscription) C() <-chan EventWrapper {
	return s.ch
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

func (s *Subscription) read() {
	defer close(s.ch)
	for {
		var ev events.Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			select {
			case s.ch <- EventWrapper{Error: fmt.Errorf("%w: %w", ErrUnexpectedMsg, err)}:
			case <-s.done:
			}
			return
		}
		select {
		case s.ch <- EventWrapper{Event: &ev}:
		case <-s.done:
			return
		}
	}
}

// SubscribeEvents streams the events of the blocks committed after pos, the head when pos is nil.
func (c *Client) SubscribeEvents(pos *uint32, address *thor.Address, topic *thor.Bytes32) (*Subscription, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	u.Path += "/subscriptions/event"

	q := url.Values{}
	if pos != nil {
		q.Set("pos", strconv.FormatUint(uint64(*pos), 10))
	}
	if address != nil {
		q.Set("address", address.String())
	}
	if topic != nil {
		q.Set("topic", topic.String())
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect - %w", err)
	}
	sub := &Subscription{
		conn: conn,
		ch:   make(chan EventWrapper),
		done: make(chan struct{}),
	}
	go sub.read()
	return sub, nil
}
