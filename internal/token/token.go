// Package token issues and verifies the session token carried in the auth cookie.
package token

import (
	"fmt"
	"time"

	"github.com/openkcm/access-gate/internal/config"
)

// Claims is what a valid token asserts.
type Claims struct {
	Identifier string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// Token is an issued token: its wire value and the claims it encodes.
type Token struct {
	Value  string
	Claims Claims
}

// Codec creates and checks tokens. Implementations hold no mutable state and
// never read the clock; callers pass now explicitly.
type Codec interface {
	Issue(identifier string, now time.Time) (Token, error)
	Verify(wire string, now time.Time) (Claims, error)
}

// NewCodec returns the codec configured by mode.
func NewCodec(mode config.TokenMode, key []byte, lifetime time.Duration) (Codec, error) {
	switch mode {
	case config.TokenModeSigned:
		return NewSignedCodec(key, lifetime)
	case config.TokenModeFlag:
		return NewFlagCodec(lifetime), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTokenMode, mode)
	}
}
