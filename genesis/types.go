// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"gopkg.in/yaml.v3"
)

// HexOrDecimal256 is a big integer written as hex or decimal.
type HexOrDecimal256 math.HexOrDecimal256

func NewHexOrDecimal256(i int64) *HexOrDecimal256 {
	return (*HexOrDecimal256)(big.NewInt(i))
}

func parseBig(s string) (*HexOrDecimal256, error) {
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, fmt.Errorf("invalid hex or decimal integer %q", s)
	}
	return (*HexOrDecimal256)(v), nil
}

func (i *HexOrDecimal256) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: integer expected", node.Line)
	}
	v, err := parseBig(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*i = *v
	return nil
}

func (i *HexOrDecimal256) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return (*big.Int)(i).UnmarshalJSON(input)
	}
	v, err := parseBig(s)
	if err != nil {
		return err
	}
	*i = *v
	return nil
}

func (i HexOrDecimal256) MarshalJSON() ([]byte, error) {
	text, err := (*math.HexOrDecimal256)(&i).MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// Big returns a copy, zero when i is nil.
func (i *HexOrDecimal256) Big() *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(i))
}
