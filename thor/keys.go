// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
)

const (
	// PublicKeyLength is the length of a compressed BLS12-381 G1 public key.
	PublicKeyLength = 48
	// ProofOfPossessionLength is the length of a compressed BLS12-381 G2 signature.
	ProofOfPossessionLength = 96
)

// PublicKey is the consensus public key a validator declares to the registry.
// The all-zero value is the "not declared" sentinel.
type PublicKey [PublicKeyLength]byte

// ProofOfPossession is the signature proving ownership of a PublicKey.
type ProofOfPossession [ProofOfPossessionLength]byte

func (k PublicKey) IsZero() bool         { return k == PublicKey{} }
func (k PublicKey) Bytes() []byte        { return k[:] }
func (k PublicKey) String() string       { return encodeHex(k[:]) }
func (p ProofOfPossession) IsZero() bool { return p == ProofOfPossession{} }
func (p ProofOfPossession) Bytes() []byte {
	return p[:]
}
func (p ProofOfPossession) String() string { return encodeHex(p[:]) }

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *PublicKey) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, k[:], "public key")
}

func (p ProofOfPossession) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *ProofOfPossession) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, p[:], "proof of possession")
}

// ParsePublicKey decodes a hex public key.
func ParsePublicKey(s string) (PublicKey, error) {
	var k PublicKey
	return k, decodeFixedHex(s, k[:], "public key")
}

// ParseProofOfPossession decodes a hex proof of possession.
func ParseProofOfPossession(s string) (ProofOfPossession, error) {
	var p ProofOfPossession
	return p, decodeFixedHex(s, p[:], "proof of possession")
}
