// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/thor"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError creates an error responded with status.
func HTTPError(cause error, status int) error {
	return &httpError{cause: cause, status: status}
}

func BadRequest(cause error) error {
	return &httpError{cause: cause, status: http.StatusBadRequest}
}

func Forbidden(cause error) error {
	return &httpError{cause: cause, status: http.StatusForbidden}
}

func NotFound(cause error) error {
	return &httpError{cause: cause, status: http.StatusNotFound}
}

// Revert is the body responded for a reverted operation.
type Revert struct {
	Error string `json:"error"`
	Data  string `json:"data"`
}

// HandlerFunc is a http.HandlerFunc returning an error.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc converts f into a http.HandlerFunc.
// Reverts are responded as JSON with status 403 when unauthorized, 404 for missing records and
// 400 otherwise. An httpError is responded with its status, any other error with 500.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var revert *reverts.ErrRevert
		if errors.As(err, &revert) {
			status := http.StatusBadRequest
			switch {
			case reverts.IsUnauthorized(err):
				status = http.StatusForbidden
			case errors.Is(err, reverts.ErrDepositNotFound), errors.Is(err, reverts.ErrValidatorNotFound):
				status = http.StatusNotFound
			}
			w.Header().Set("Content-Type", JSONContentType)
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(&Revert{Error: revert.Error(), Data: hexutil.Encode(revert.Bytes())})
			return
		}
		var he *httpError
		if errors.As(err, &he) {
			if he.cause != nil {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				w.WriteHeader(he.status)
			}
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const JSONContentType = "application/json; charset=utf-8"

// ParseJSON decodes a JSON object in strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON responds obj in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// AddressVar parses the path variable name as an address.
func AddressVar(r *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(r)[name])
	if err != nil {
		return thor.Address{}, BadRequest(errors.Join(errors.New(name), err))
	}
	return addr, nil
}

// Uint64Var parses the path variable name as a decimal uint64.
func Uint64Var(r *http.Request, name string) (uint64, error) {
	n, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, BadRequest(errors.Join(errors.New(name), err))
	}
	return n, nil
}

// Uint64Query parses the optional query parameter name, returning def when absent.
func Uint64Query(r *http.Request, name string, def uint64) (uint64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, BadRequest(errors.Join(errors.New(name), err))
	}
	return n, nil
}
