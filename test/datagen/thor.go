// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/vechain/stakeweight/thor"
)

func RandAddress() (addr thor.Address) {
	rand.Read(addr[:])
	return
}

// RandKeys returns non-zero validator key material.
func RandKeys() (pk thor.PublicKey, pop thor.ProofOfPossession) {
	rand.Read(pk[:])
	rand.Read(pop[:])
	pk[0] |= 1
	pop[0] |= 1
	return
}
