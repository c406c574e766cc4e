// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrRevert aborts an entry point. All state changes made by the entry point are undone.
type ErrRevert struct {
	kind    string
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{message: message}
}

func (e *ErrRevert) Error() string {
	if e.kind == "" {
		return e.message
	}
	if e.message == "" {
		return e.kind
	}
	return e.kind + ": " + e.message
}

// Kind returns the revert name, e.g. "Unauthorized".
func (e *ErrRevert) Kind() string {
	return e.kind
}

// Is matches reverts of the same kind, so errors.Is(err, reverts.ErrInvalidValidatorKeys) works
// for any message.
func (e *ErrRevert) Is(target error) bool {
	var t *ErrRevert
	if !errors.As(target, &t) {
		return false
	}
	if t.kind == "" {
		return t.message == e.message
	}
	return t.kind == e.kind
}

// Bytes returns the revert message ABI encoded as Error(string).
func (e *ErrRevert) Bytes() []byte {
	if e == nil {
		return nil
	}

	selector, _ := hex.DecodeString("08c379a0")
	msgBytes := []byte(e.Error())
	padded := ((len(msgBytes) + 31) / 32) * 32

	encoded := make([]byte, 0, 4+32+32+padded)
	encoded = append(encoded, selector...)

	offset := make([]byte, 32)
	binary.BigEndian.PutUint64(offset[24:], 32)
	encoded = append(encoded, offset...)

	length := make([]byte, 32)
	binary.BigEndian.PutUint64(length[24:], uint64(len(msgBytes)))
	encoded = append(encoded, length...)

	data := make([]byte, padded)
	copy(data, msgBytes)
	return append(encoded, data...)
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve != nil
	}
	return false
}

// IsUnauthorized reports whether err is an authorization revert.
func IsUnauthorized(err error) bool {
	var ve *ErrRevert
	return errors.As(err, &ve) && ve.kind == kindUnauthorized
}

const kindUnauthorized = "Unauthorized"

var (
	ErrUnauthorized          = &ErrRevert{kind: kindUnauthorized}
	ErrInvalidValidatorKeys  = &ErrRevert{kind: "InvalidValidatorKeys"}
	ErrInsufficientWeight    = &ErrRevert{kind: "InsufficientWeight"}
	ErrEarningPowerOverflow  = &ErrRevert{kind: "EarningPowerOverflow"}
	ErrUnknownRegistry       = &ErrRevert{kind: "UnknownRegistry"}
	ErrInsufficientBalance   = &ErrRevert{kind: "InsufficientBalance"}
	ErrInvalidTip            = &ErrRevert{kind: "InvalidTip"}
	ErrUnqualified           = &ErrRevert{kind: "Unqualified"}
	ErrCapExceeded           = &ErrRevert{kind: "CapExceeded"}
	ErrDepositNotFound       = &ErrRevert{kind: "DepositNotFound"}
	ErrInvalidAmount         = &ErrRevert{kind: "InvalidAmount"}
	ErrInvalidAddress        = &ErrRevert{kind: "InvalidAddress"}
	ErrValidatorExists       = &ErrRevert{kind: "ValidatorAlreadyRegistered"}
	ErrValidatorNotFound     = &ErrRevert{kind: "ValidatorNotRegistered"}
	ErrInvalidRewardRate     = &ErrRevert{kind: "InvalidRewardRate"}
	ErrInsufficientRewardBal = &ErrRevert{kind: "InsufficientRewardBalance"}
)

func Unauthorized(reason string) *ErrRevert {
	return &ErrRevert{kind: kindUnauthorized, message: reason}
}

func InvalidValidatorKeys() *ErrRevert {
	return &ErrRevert{kind: ErrInvalidValidatorKeys.kind}
}

func InsufficientWeight(reason string) *ErrRevert {
	return &ErrRevert{kind: ErrInsufficientWeight.kind, message: reason}
}

func EarningPowerOverflow(reason string) *ErrRevert {
	return &ErrRevert{kind: ErrEarningPowerOverflow.kind, message: reason}
}

func UnknownRegistry(reason string) *ErrRevert {
	return &ErrRevert{kind: ErrUnknownRegistry.kind, message: reason}
}

func InsufficientBalance(reason string) *ErrRevert {
	return &ErrRevert{kind: ErrInsufficientBalance.kind, message: reason}
}

// Wrap builds a revert of the same kind as base with a custom message.
func Wrap(base *ErrRevert, message string) *ErrRevert {
	return &ErrRevert{kind: base.kind, message: strings.TrimSpace(message)}
}
