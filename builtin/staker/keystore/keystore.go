// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package keystore

import (
	"github.com/vechain/stakeweight/builtin/reverts"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/thor"
)

var slotKeys = thor.BytesToBytes32([]byte("validator-keys"))

// Keys is the key material a validator owner declared.
type Keys struct {
	PubKey thor.PublicKey
	Pop    thor.ProofOfPossession
}

// Declared is true only when both components are set.
func (k *Keys) Declared() bool {
	return !k.PubKey.IsZero() && !k.Pop.IsZero()
}

// Store maps validator owners to their keys, independent of registry membership.
type Store struct {
	keys *solidity.Mapping[thor.Address, *Keys]
}

func New(sctx *solidity.Context) *Store {
	return &Store{keys: solidity.NewMapping[thor.Address, *Keys](sctx, slotKeys)}
}

func (s *Store) Get(owner thor.Address) (*Keys, error) {
	return s.keys.Get(owner)
}

func (s *Store) HasKeys(owner thor.Address) (bool, error) {
	keys, err := s.keys.Get(owner)
	if err != nil {
		return false, err
	}
	return keys.Declared(), nil
}

// Set overwrites owner's keys. A zero component is rejected before anything is written.
func (s *Store) Set(owner thor.Address, pubKey thor.PublicKey, pop thor.ProofOfPossession) error {
	if pubKey.IsZero() || pop.IsZero() {
		return reverts.InvalidValidatorKeys()
	}
	return s.keys.Set(owner, &Keys{PubKey: pubKey, Pop: pop})
}
