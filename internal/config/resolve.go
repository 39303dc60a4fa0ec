package config

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

const minSigningKeyLength = 32

// reservedPaths are served by the gate itself.
var reservedPaths = map[string]struct{}{
	"/login":  {},
	"/logout": {},
	"/api/me": {},
	"/health": {},
}

var (
	ErrSecretRequired       = errors.New("gate secret must not be empty")
	ErrSigningKeyTooShort   = fmt.Errorf("gate signing key must be at least %d bytes", minSigningKeyLength)
	ErrUnknownTokenMode     = errors.New("unknown gate token mode")
	ErrUnknownSameSite      = errors.New("unknown cookie sameSite value")
	ErrInsecureSameSiteNone = errors.New("cookie sameSite None requires secure")
	ErrInvalidLifetime      = errors.New("session duration must be positive")
	ErrInvalidProtectedPage = errors.New("invalid protected page")
	ErrUnknownThrottle      = errors.New("unknown throttle backend")
	ErrInvalidThrottle      = errors.New("throttle limits must be positive")
)

// Resolve loads the gate secrets from their source references and validates
// the configuration. It is called once after loading; the result must be
// treated as read-only afterwards.
func (c *Config) Resolve() error {
	if err := c.Gate.resolve(); err != nil {
		return fmt.Errorf("gate: %w", err)
	}

	if err := c.Throttle.validate(); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}

	return nil
}

func (g *Gate) resolve() error {
	secret, err := commoncfg.LoadValueFromSourceRef(g.Secret)
	if err != nil {
		return fmt.Errorf("loading secret from source ref: %w", err)
	}
	if len(secret) == 0 {
		return ErrSecretRequired
	}
	g.SecretParsed = secret

	switch g.TokenMode {
	case TokenModeSigned:
		key, err := commoncfg.LoadValueFromSourceRef(g.SigningKey)
		if err != nil {
			return fmt.Errorf("loading signing key from source ref: %w", err)
		}
		if len(key) < minSigningKeyLength {
			return ErrSigningKeyTooShort
		}
		g.SigningKeyParsed = key
	case TokenModeFlag:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTokenMode, g.TokenMode)
	}

	if g.SessionDuration <= 0 {
		return ErrInvalidLifetime
	}

	switch g.Cookie.SameSite {
	case CookieSameSiteNone:
		// Browsers drop SameSite=None cookies that are not Secure.
		if !g.Cookie.Secure {
			return ErrInsecureSameSiteNone
		}
	case CookieSameSiteLax, CookieSameSiteStrict:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSameSite, g.Cookie.SameSite)
	}
	g.Cookie.MaxAge = int(g.SessionDuration.Seconds())

	seen := make(map[string]struct{}, len(g.ProtectedPages))
	for _, page := range g.ProtectedPages {
		if _, ok := reservedPaths[page.Path]; ok {
			return fmt.Errorf("%w: path %q is reserved", ErrInvalidProtectedPage, page.Path)
		}
		if _, ok := seen[page.Path]; ok {
			return fmt.Errorf("%w: path %q listed twice", ErrInvalidProtectedPage, page.Path)
		}
		seen[page.Path] = struct{}{}

		if !strings.HasPrefix(page.Path, "/") || page.File == "" {
			return fmt.Errorf("%w: path %q file %q", ErrInvalidProtectedPage, page.Path, page.File)
		}
		if path.Clean("/"+page.File) != "/"+page.File {
			return fmt.Errorf("%w: file %q must be a clean relative path", ErrInvalidProtectedPage, page.File)
		}
	}

	return nil
}

func (t *Throttle) validate() error {
	if !t.Enabled {
		return nil
	}

	switch t.Backend {
	case ThrottleBackendMemory, ThrottleBackendValKey:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownThrottle, t.Backend)
	}

	if t.MaxAttempts <= 0 || t.Window <= 0 || t.Lockout <= 0 {
		return ErrInvalidThrottle
	}

	return nil
}
