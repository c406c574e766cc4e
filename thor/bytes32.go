// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// Bytes32 is a storage slot key or value, and an event topic.
type Bytes32 [32]byte

var (
	_ json.Marshaler   = Bytes32{}
	_ json.Unmarshaler = (*Bytes32)(nil)
)

func (b Bytes32) String() string { return encodeHex(b[:]) }
func (b Bytes32) Bytes() []byte  { return b[:] }
func (b Bytes32) IsZero() bool   { return b == Bytes32{} }

func (b Bytes32) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Bytes32) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, b[:], "bytes32")
}

// ParseBytes32 decodes a hex string, the 0x prefix being optional.
func ParseBytes32(s string) (Bytes32, error) {
	var b Bytes32
	if err := decodeFixedHex(s, b[:], "bytes32"); err != nil {
		return Bytes32{}, err
	}
	return b, nil
}

// BytesToBytes32 left-pads or left-crops b to 32 bytes.
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(common.BytesToHash(b))
}
