// Package domain contains entities and the call state machine, no transport.
package domain

import (
	"errors"
	"strings"
)

const (
	MaxIdentityLen    = 64
	MaxDisplayNameLen = 64
)

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
)

// Identity is the logical account a connection announces on join,
// e.g. "customer:42" or "provider:7". It is not a transport id.
type Identity string

// ParseIdentity trims and validates a client supplied identity.
func ParseIdentity(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(s) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return Identity(s), nil
}

// DisplayName clips a name to MaxDisplayNameLen bytes.
func DisplayName(name string) string {
	if len(name) > MaxDisplayNameLen {
		return name[:MaxDisplayNameLen]
	}
	return name
}
