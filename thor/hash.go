// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"github.com/ethereum/go-ethereum/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Blake2b computes the blake2b-256 checksum of the concatenated data. Storage slots are derived with it.
func Blake2b(data ...[]byte) Bytes32 {
	if len(data) == 1 {
		return blake2b.Sum256(data[0])
	}
	hasher, _ := blake2b.New256(nil)
	for _, b := range data {
		hasher.Write(b)
	}
	var h Bytes32
	hasher.Sum(h[:0])
	return h
}

// Keccak256 computes the keccak-256 checksum, used for event topics and revert selectors.
func Keccak256(data ...[]byte) (h Bytes32) {
	hasher := sha3.NewLegacyKeccak256()
	for _, b := range data {
		hasher.Write(b)
	}
	hasher.Sum(h[:0])
	return
}
