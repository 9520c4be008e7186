// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was rejected.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidParameters
	KindNotFound
	KindInvalidState
	KindUnauthorized
	KindGroupFull
	KindAlreadyJoined
	KindStakeMismatch
	KindInsufficientParticipants
	KindTooEarly
	KindStillAlive
	KindNotActiveParticipant
	KindAlreadyWithdrawn
	KindNotEntitled
)

var kindNames = [...]string{
	KindUnknown:                  "Unknown",
	KindInvalidParameters:        "InvalidParameters",
	KindNotFound:                 "NotFound",
	KindInvalidState:             "InvalidState",
	KindUnauthorized:             "Unauthorized",
	KindGroupFull:                "GroupFull",
	KindAlreadyJoined:            "AlreadyJoined",
	KindStakeMismatch:            "StakeMismatch",
	KindInsufficientParticipants: "InsufficientParticipants",
	KindTooEarly:                 "TooEarly",
	KindStillAlive:               "StillAlive",
	KindNotActiveParticipant:     "NotActiveParticipant",
	KindAlreadyWithdrawn:         "AlreadyWithdrawn",
	KindNotEntitled:              "NotEntitled",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ErrRevert is a guard failure. The operation that returned it did not mutate anything.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
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
	return errors.As(e, &ve)
}

// KindOf returns the kind of a revert error, or KindUnknown for anything else.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return KindUnknown
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	return IsRevertErr(err) && KindOf(err) == kind
}
