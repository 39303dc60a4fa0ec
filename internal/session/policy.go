// Package session decides how the session token travels between server and
// browser.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/access-gate/internal/config"
	"github.com/openkcm/access-gate/internal/token"
)

// Policy turns tokens into cookies according to the configured template.
type Policy struct {
	template config.CookieTemplate
}

// NewPolicy returns a Policy whose cookies live for lifetime.
func NewPolicy(template config.CookieTemplate, lifetime time.Duration) *Policy {
	template.MaxAge = int(lifetime.Seconds())
	return &Policy{template: template}
}

// CookieName is the name of both the set and the clearing cookie.
func (p *Policy) CookieName() string {
	return p.template.Name
}

// SessionCookie returns the cookie that carries tok.
func (p *Policy) SessionCookie(ctx context.Context, tok token.Token) (*http.Cookie, error) {
	cookie := p.template.ToCookie(tok.Value)

	if err := cookie.Valid(); err != nil {
		return nil, fmt.Errorf("invalid session cookie: %w", err)
	}

	if !cookie.Secure {
		slogctx.Warn(ctx, "Session cookie is not marked as Secure; this is not recommended in production environments")
	}
	if !cookie.HttpOnly {
		slogctx.Warn(ctx, "Session cookie is readable by scripts; this is not recommended in production environments")
	}

	return cookie, nil
}

// ClearCookie returns a cookie that removes the session cookie. It carries
// the same path, domain and flags as the one set at login, otherwise some
// browsers keep the original.
func (p *Policy) ClearCookie() *http.Cookie {
	cookie := p.template.ToCookie("")
	cookie.MaxAge = -1
	return cookie
}
