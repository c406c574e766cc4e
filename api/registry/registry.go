// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/node"
)

type Registry struct {
	node *node.Node
}

func New(n *node.Node) *Registry {
	return &Registry{node: n}
}

func (rg *Registry) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	out := make([]*Validator, 0)
	if err := rg.node.View(func(c *node.Contracts) error {
		vs, err := c.Registry.Validators()
		if err != nil {
			return err
		}
		for _, v := range vs {
			out = append(out, convertValidator(v))
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (rg *Registry) handleGetValidator(w http.ResponseWriter, r *http.Request) error {
	addr, err := restutil.AddressVar(r, "address")
	if err != nil {
		return err
	}
	var out *Validator
	if err := rg.node.View(func(c *node.Contracts) error {
		v, err := c.Registry.Get(addr)
		if err != nil {
			return err
		}
		if v.PubKey.IsZero() {
			return restutil.NotFound(errors.New("validator not found"))
		}
		out = convertValidator(v)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

// handleGetCommittee responds the committee of the epoch query parameter, the latest when omitted.
func (rg *Registry) handleGetCommittee(w http.ResponseWriter, r *http.Request) error {
	epoch, err := restutil.Uint64Query(r, "epoch", 0)
	if err != nil {
		return err
	}
	var out *Committee
	if err := rg.node.View(func(c *node.Contracts) error {
		committee, err := c.Registry.Committee(epoch)
		if err != nil {
			return err
		}
		if committee == nil {
			return restutil.NotFound(errors.New("committee not found"))
		}
		out = convertCommittee(committee)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (rg *Registry) handleGetSettings(w http.ResponseWriter, _ *http.Request) error {
	var out Settings
	if err := rg.node.View(func(c *node.Contracts) error {
		delay, err := c.Registry.CommitteeActivationDelay()
		if err != nil {
			return err
		}
		ls, err := c.Registry.LeaderSelection()
		if err != nil {
			return err
		}
		out = Settings{CommitteeActivationDelay: delay, LeaderFrequency: ls.Frequency, WeightedLeaders: ls.Weighted}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (rg *Registry) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/validators").
		Methods(http.MethodGet).
		Name("GET /registry/validators").
		HandlerFunc(restutil.WrapHandlerFunc(rg.handleGetValidators))
	sub.Path("/validators/{address}").
		Methods(http.MethodGet).
		Name("GET /registry/validators/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(rg.handleGetValidator))
	sub.Path("/committee").
		Methods(http.MethodGet).
		Name("GET /registry/committee").
		HandlerFunc(restutil.WrapHandlerFunc(rg.handleGetCommittee))
	sub.Path("/settings").
		Methods(http.MethodGet).
		Name("GET /registry/settings").
		HandlerFunc(restutil.WrapHandlerFunc(rg.handleGetSettings))
}
