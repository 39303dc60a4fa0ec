package server

import (
	"time"

	"github.com/openkcm/access-gate/internal/credential"
	"github.com/openkcm/access-gate/internal/gate"
	"github.com/openkcm/access-gate/internal/session"
	"github.com/openkcm/access-gate/internal/throttle"
	"github.com/openkcm/access-gate/internal/token"
)

// Auth bundles the login components the HTTP server dispatches to.
type Auth struct {
	Validator *credential.Validator
	Codec     token.Codec
	Policy    *session.Policy
	Gate      *gate.Gate
	// Limiter is nil when login throttling is disabled.
	Limiter *throttle.Limiter
	// Clock supplies the issue time of new tokens. Nil means time.Now.
	Clock func() time.Time
}

func (a *Auth) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}
