// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testnode builds in-memory nodes for tests.
package testnode

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/eventdb"
	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/lvldb"
	"github.com/vechain/stakeweight/node"
)

// New creates a node over memory storage. The dev genesis is used when gen is nil.
func New(t *testing.T, gen *genesis.Config) *node.Node {
	if gen == nil {
		gen = genesis.NewDevConfig()
	}
	db := lvldb.NewMem()
	edb, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		edb.Close()
		db.Close()
	})

	n, err := node.New(context.Background(), db, edb, gen)
	require.NoError(t, err)
	return n
}

// Client sends JSON requests to a test server.
type Client struct {
	t   *testing.T
	srv *httptest.Server
}

func NewClient(t *testing.T, handler http.Handler) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{t: t, srv: srv}
}

func (c *Client) URL() string {
	return c.srv.URL
}

// Get requests path and returns the body and status code.
func (c *Client) Get(path string) ([]byte, int) {
	res, err := http.Get(c.srv.URL + path) //#nosec G107
	require.NoError(c.t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return body, res.StatusCode
}

// Post sends obj as JSON to path and returns the body and status code.
func (c *Client) Post(path string, obj any) ([]byte, int) {
	data, err := json.Marshal(obj)
	require.NoError(c.t, err)

	res, err := http.Post(c.srv.URL+path, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(c.t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return body, res.StatusCode
}

// GetJSON requests path, requires status 200 and decodes the body into out.
func (c *Client) GetJSON(path string, out any) {
	body, status := c.Get(path)
	require.Equal(c.t, http.StatusOK, status, string(body))
	require.NoError(c.t, json.Unmarshal(body, out))
}
