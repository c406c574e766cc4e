// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/thor"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		revert bool
	}{
		{"ok", nil, http.StatusOK, false},
		{"unauthorized", reverts.Unauthorized("not admin"), http.StatusForbidden, true},
		{"deposit not found", reverts.ErrDepositNotFound, http.StatusNotFound, true},
		{"validator not found", errors.WithMessage(reverts.ErrValidatorNotFound, "wrapped"), http.StatusNotFound, true},
		{"other revert", reverts.ErrInvalidAmount, http.StatusBadRequest, true},
		{"bad request", BadRequest(errors.New("bad")), http.StatusBadRequest, false},
		{"forbidden", Forbidden(errors.New("no")), http.StatusForbidden, false},
		{"custom", HTTPError(errors.New("teapot"), http.StatusTeapot), http.StatusTeapot, false},
		{"internal", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			if !tt.revert {
				return
			}
			assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
			var body Revert
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			assert.True(t, strings.HasPrefix(body.Data, "0x08c379a0"))
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)

	assert.Error(t, ParseJSON(strings.NewReader(`{"a":1,"b":2}`), &v))
	assert.Error(t, ParseJSON(strings.NewReader(`{`), &v))
}

func TestVars(t *testing.T) {
	addr := thor.BytesToAddress([]byte("addr"))

	router := mux.NewRouter()
	router.Path("/{address}/{id}").HandlerFunc(WrapHandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		a, err := AddressVar(r, "address")
		if err != nil {
			return err
		}
		id, err := Uint64Var(r, "id")
		if err != nil {
			return err
		}
		limit, err := Uint64Query(r, "limit", 7)
		if err != nil {
			return err
		}
		return WriteJSON(w, map[string]any{"address": &a, "id": id, "limit": limit})
	}))

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := serve("/" + addr.String() + "/42")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Address thor.Address `json:"address"`
		ID      uint64       `json:"id"`
		Limit   uint64       `json:"limit"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, addr, out.Address)
	assert.Equal(t, uint64(42), out.ID)
	assert.Equal(t, uint64(7), out.Limit)

	assert.Equal(t, http.StatusBadRequest, serve("/0x12/42").Code)
	assert.Equal(t, http.StatusBadRequest, serve("/"+addr.String()+"/x").Code)
	assert.Equal(t, http.StatusBadRequest, serve("/"+addr.String()+"/1?limit=-1").Code)
}
