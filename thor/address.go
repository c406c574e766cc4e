// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

const AddressLength = common.AddressLength

// Address identifies an account: depositors, validator owners, admins and contracts.
type Address common.Address

var (
	_ json.Marshaler   = Address{}
	_ json.Unmarshaler = (*Address)(nil)
)

func (a Address) String() string { return encodeHex(a[:]) }
func (a Address) Bytes() []byte  { return a[:] }
func (a Address) IsZero() bool   { return a == Address{} }

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, a[:], "address")
}

// MarshalText implements encoding.TextMarshaler, used by yaml and map keys.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	return decodeFixedHex(string(text), a[:], "address")
}

// ParseAddress decodes a hex address, the 0x prefix being optional.
func ParseAddress(s string) (Address, error) {
	var addr Address
	if err := decodeFixedHex(s, addr[:], "address"); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// MustParseAddress is ParseAddress panicking on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// BytesToAddress left-pads or left-crops b to an address.
func BytesToAddress(b []byte) Address {
	return Address(common.BytesToAddress(b))
}
