// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/node"
	"github.com/vechain/stakeweight/thor"
)

type Balance struct {
	Address thor.Address          `json:"address"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type TransferRequest struct {
	Caller thor.Address          `json:"caller"`
	To     thor.Address          `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Token struct {
	node *node.Node
}

func New(n *node.Node) *Token {
	return &Token{node: n}
}

func (t *Token) handleGetBalance(w http.ResponseWriter, r *http.Request) error {
	addr, err := restutil.AddressVar(r, "address")
	if err != nil {
		return err
	}
	var bal *big.Int
	if err := t.node.View(func(c *node.Contracts) (err error) {
		bal, err = c.Token.BalanceOf(addr)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Balance{Address: addr, Balance: (*math.HexOrDecimal256)(bal)})
}

func (t *Token) handleTransfer(w http.ResponseWriter, r *http.Request) error {
	var req TransferRequest
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if req.Amount == nil {
		return restutil.BadRequest(errors.New("amount required"))
	}
	if err := t.node.Exec(r.Context(), func(c *node.Contracts) error {
		return c.Token.Transfer(req.Caller, req.To, (*big.Int)(req.Amount))
	}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (t *Token) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/balances/{address}").
		Methods(http.MethodGet).
		Name("GET /token/balances/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetBalance))
	sub.Path("/transfers").
		Methods(http.MethodPost).
		Name("POST /token/transfers").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleTransfer))
}
