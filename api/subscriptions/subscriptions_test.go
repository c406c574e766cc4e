// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"math/big"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/api/events"
	stakerevents "github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/eventdb"
	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/node"
	"github.com/vechain/stakeweight/test/datagen"
	"github.com/vechain/stakeweight/test/testnode"
	"github.com/vechain/stakeweight/thor"
)

var depositedTopic = thor.Keccak256([]byte(stakerevents.StakeDeposited))

func initServer(t *testing.T, backtraceLimit uint32) (*node.Node, *Subscriptions, *testnode.Client) {
	n := testnode.New(t, nil)
	sub := New(n, []string{"*"}, backtraceLimit)
	router := mux.NewRouter()
	sub.Mount(router, "/subscriptions")
	c := testnode.NewClient(t, router)
	return n, sub, c
}

func stake(t *testing.T, n *node.Node, value int64) {
	owner := genesis.DevAccounts()[3].Address
	require.NoError(t, n.Exec(context.Background(), func(c *node.Contracts) error {
		_, err := c.Staker.Stake(owner, big.NewInt(value), owner, owner, datagen.RandAddress())
		return err
	}))
}

func dial(t *testing.T, c *testnode.Client, query string) *websocket.Conn {
	u, err := url.Parse(c.URL())
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/subscriptions/event"
	u.RawQuery = query

	conn, res, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *events.Event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return &ev
}

func TestSubscribeEvents(t *testing.T) {
	n, sub, c := initServer(t, 10)
	defer sub.Close()

	stake(t, n, 10)
	stake(t, n, 20)

	conn := dial(t, c, "pos=0&topic="+depositedTopic.String())
	first := readEvent(t, conn)
	assert.Equal(t, "10", first.Args["amount"])
	assert.Equal(t, stakerevents.StakeDeposited, first.Name)
	second := readEvent(t, conn)
	assert.Equal(t, "20", second.Args["amount"])
	assert.Less(t, first.BlockNumber, second.BlockNumber)

	stake(t, n, 30)
	live := readEvent(t, conn)
	assert.Equal(t, "30", live.Args["amount"])
	assert.Equal(t, n.Head(), live.BlockNumber)
}

func TestSubscribeFromHead(t *testing.T) {
	n, sub, c := initServer(t, 10)
	defer sub.Close()

	stake(t, n, 10)
	conn := dial(t, c, "address="+genesis.StakerAddress.String())

	stake(t, n, 40)
	ev := readEvent(t, conn)
	assert.Equal(t, n.Head(), ev.BlockNumber)
	assert.Equal(t, genesis.StakerAddress, ev.Address)
}

func TestSubscribeBadRequests(t *testing.T) {
	n, sub, c := initServer(t, 1)
	defer sub.Close()

	stake(t, n, 10)
	stake(t, n, 20)

	_, status := c.Get("/subscriptions/event?pos=0")
	assert.Equal(t, http.StatusForbidden, status)

	for _, bad := range []string{"pos=abc", "pos=4294967295", "address=0x12", "topic=nope"} {
		_, status := c.Get("/subscriptions/event?" + bad)
		assert.Equal(t, http.StatusBadRequest, status, bad)
	}
}

func TestClose(t *testing.T) {
	_, sub, c := initServer(t, 10)

	conn := dial(t, c, "")
	done := make(chan struct{})
	go func() {
		sub.Close()
		close(done)
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}
}

func TestCheckOrigin(t *testing.T) {
	n := testnode.New(t, nil)
	sub := New(n, []string{"https://example.org"}, 10)
	defer sub.Close()

	check := func(origin string) bool {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return sub.upgrader.CheckOrigin(r)
	}
	assert.True(t, check(""))
	assert.True(t, check("https://Example.org"))
	assert.False(t, check("https://evil.org"))

	open := New(n, []string{"*"}, 10)
	defer open.Close()
	assert.True(t, open.upgrader.CheckOrigin(&http.Request{Header: http.Header{"Origin": {"https://evil.org"}}}))
}

func TestEventReader(t *testing.T) {
	var (
		head  uint32 = 3
		loads []uint32
		addr  = datagen.RandAddress()
	)
	cache := newBlockCache(8, func(num uint32) ([]*eventdb.Event, error) {
		loads = append(loads, num)
		return []*eventdb.Event{
			{BlockNumber: num, Address: addr, Topic: depositedTopic},
			{BlockNumber: num, Index: 1, Address: datagen.RandAddress()},
		}, nil
	})

	reader := newEventReader(func() uint32 { return head }, cache, &eventFilter{Address: &addr}, 1)
	msgs, more, err := reader.Read()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, uint32(2), msgs[0].BlockNumber)
	assert.True(t, more)

	msgs, more, err = reader.Read()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.False(t, more)

	msgs, more, err = reader.Read()
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.False(t, more)

	head = 4
	other := newEventReader(func() uint32 { return head }, cache, &eventFilter{}, 1)
	for range 3 {
		_, _, err := other.Read()
		require.NoError(t, err)
	}
	assert.Equal(t, []uint32{2, 3, 4}, loads)
}

func TestBlockCacheSize(t *testing.T) {
	calls := 0
	cache := newBlockCache(0, func(uint32) ([]*eventdb.Event, error) {
		calls++
		return nil, nil
	})
	_, hit, err := cache.Get(1)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, _ = cache.Get(1)
	assert.True(t, hit)
	_, _, _ = cache.Get(2)
	_, hit, _ = cache.Get(1)
	assert.False(t, hit)
	assert.Equal(t, 3, calls)
}
