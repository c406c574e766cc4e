// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// decodeFixedHex decodes s into out. The 0x prefix is optional and the length must match exactly.
func decodeFixedHex(s string, out []byte, what string) error {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s) != len(out)*2 {
		return errors.Errorf("%s: invalid length %d, want %d", what, len(s)/2, len(out))
	}
	if _, err := hex.Decode(out, []byte(s)); err != nil {
		return errors.WithMessage(err, what)
	}
	return nil
}

func unmarshalFixedHex(data []byte, out []byte, what string) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.WithMessage(err, what)
	}
	return decodeFixedHex(s, out, what)
}

func encodeHex(b []byte) string {
	var sb strings.Builder
	sb.Grow(2 + len(b)*2)
	sb.WriteString("0x")
	sb.WriteString(hex.EncodeToString(b))
	return sb.String()
}
