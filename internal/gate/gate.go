// Package gate guards protected routes with the session cookie.
package gate

import (
	"context"
	"net/http"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/access-gate/internal/serviceerr"
	"github.com/openkcm/access-gate/internal/token"
)

// RouteKind selects how a denied request is answered. It is fixed when the
// route is registered.
type RouteKind int

const (
	// KindPage redirects denied browser navigations to the login page.
	KindPage RouteKind = iota
	// KindAPI answers denied programmatic requests with a JSON 401.
	KindAPI
)

func (k RouteKind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Using an unexported type prevents key collisions from other packages.
type contextKey string

const claimsKey contextKey = "claims"

// Gate authorizes requests carrying the session cookie.
type Gate struct {
	codec      token.Codec
	cookieName string
	loginPage  string
	clock      func() time.Time
}

// New returns a Gate. A nil clock means time.Now.
func New(codec token.Codec, cookieName, loginPage string, clock func() time.Time) *Gate {
	if clock == nil {
		clock = time.Now
	}
	return &Gate{
		codec:      codec,
		cookieName: cookieName,
		loginPage:  loginPage,
		clock:      clock,
	}
}

// Authorize returns the claims of the request's session token. A request
// without the cookie is denied with serviceerr.ErrNoSession before the codec
// is consulted.
func (g *Gate) Authorize(r *http.Request) (token.Claims, error) {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return token.Claims{}, serviceerr.ErrNoSession
	}

	return g.codec.Verify(cookie.Value, g.clock())
}

// Require returns middleware that lets authorized requests through with their
// claims in the context and answers the rest according to kind.
func (g *Gate) Require(kind RouteKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.Authorize(r)
			if err != nil {
				slogctx.Debug(r.Context(), "Access denied", "route_kind", kind.String(), "path", r.URL.Path, "error", err)
				g.deny(w, r, kind)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, kind RouteKind) {
	w.Header().Set("Cache-Control", "no-store")

	if kind == KindPage {
		http.Redirect(w, r, g.loginPage, http.StatusFound)
		return
	}

	serviceerr.WriteJSON(w, http.StatusUnauthorized, serviceerr.Response{Reason: serviceerr.CodeUnauthorized})
}

// ClaimsFromContext returns the claims stored by Require.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(token.Claims)
	return claims, ok
}
