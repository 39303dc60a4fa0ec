package server

import (
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/access-gate/internal/credential"
	"github.com/openkcm/access-gate/internal/gate"
	"github.com/openkcm/access-gate/internal/serviceerr"
)

const (
	maxLoginBodyBytes = 4 << 10

	outcomeSuccess = "success"
	outcomeError   = "error"
)

type handlers struct {
	auth   *Auth
	meters *meters
}

type meResponse struct {
	OK         bool       `json:"ok"`
	Identifier string     `json:"identifier,omitempty"`
	IssuedAt   *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := clientKey(r)

	if h.auth.Limiter != nil {
		retryAfter, err := h.auth.Limiter.Check(ctx, client)
		if err != nil {
			slogctx.Warn(ctx, "Login throttle unavailable, continuing without it", "error", err)
		}
		if retryAfter > 0 {
			slogctx.Info(ctx, "Login locked", "client", client, "retry_after", retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			h.reject(w, r, serviceerr.ErrTooManyAttempts)
			return
		}
	}

	var attempt credential.Attempt
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)).Decode(&attempt); err != nil {
		slogctx.Debug(ctx, "Undecodable login body", "error", err)
		h.reject(w, r, serviceerr.ErrMissingFields)
		return
	}

	if err := h.auth.Validator.Validate(attempt); err != nil {
		if h.auth.Limiter != nil && !errors.Is(err, serviceerr.ErrMissingFields) {
			remaining, ferr := h.auth.Limiter.Fail(ctx, client)
			if ferr != nil {
				slogctx.Warn(ctx, "Failed to record a login failure", "error", ferr)
			} else {
				slogctx.Debug(ctx, "Recorded a login failure", "client", client, "remaining", remaining)
			}
		}
		h.reject(w, r, err)
		return
	}

	tok, err := h.auth.Codec.Issue(attempt.Identifier, h.auth.now())
	if err != nil {
		slogctx.Error(ctx, "Failed to issue a session token", "error", err)
		h.reject(w, r, err)
		return
	}

	cookie, err := h.auth.Policy.SessionCookie(ctx, tok)
	if err != nil {
		slogctx.Error(ctx, "Failed to make a session cookie", "error", err)
		h.reject(w, r, err)
		return
	}

	if h.auth.Limiter != nil {
		if err := h.auth.Limiter.Reset(ctx, client); err != nil {
			slogctx.Warn(ctx, "Failed to reset the login throttle", "error", err)
		}
	}

	h.meters.recordLogin(ctx, outcomeSuccess)
	slogctx.Info(ctx, "Login succeeded", "identifier", attempt.Identifier, "expires_at", tok.Claims.ExpiresAt)

	http.SetCookie(w, cookie)
	serviceerr.WriteJSON(w, http.StatusOK, serviceerr.Response{OK: true})
}

// reject answers a failed login with the outward code of err and logs the
// internal reason.
func (h *handlers) reject(w http.ResponseWriter, r *http.Request, err error) {
	code := serviceerr.From(err).Err
	outcome := string(code)
	if code == serviceerr.CodeUnknown {
		outcome = outcomeError
	}

	h.meters.recordLogin(r.Context(), outcome)
	slogctx.Info(r.Context(), "Login rejected", "reason", err.Error())

	serviceerr.WriteError(w, err)
}

// logout clears the session cookie. Without a server-side session there is
// nothing else to revoke, so it always succeeds.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.auth.Policy.ClearCookie())
	serviceerr.WriteJSON(w, http.StatusOK, serviceerr.Response{OK: true})
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := gate.ClaimsFromContext(r.Context())
	if !ok {
		serviceerr.WriteError(w, serviceerr.ErrNoSession)
		return
	}

	resp := meResponse{OK: true, Identifier: claims.Identifier}
	if !claims.IssuedAt.IsZero() {
		resp.IssuedAt = &claims.IssuedAt
	}
	if !claims.ExpiresAt.IsZero() {
		resp.ExpiresAt = &claims.ExpiresAt
	}

	serviceerr.WriteJSON(w, http.StatusOK, resp)
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// clientKey identifies the client for throttling by the host part of its address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
