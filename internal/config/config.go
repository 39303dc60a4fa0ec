// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP     HTTPServer `yaml:"http"`
	Gate     Gate       `yaml:"gate"`
	Throttle Throttle   `yaml:"throttle"`
	ValKey   ValKey     `yaml:"valkey"`
	Static   Static     `yaml:"static"`
}

type HTTPServer struct {
	Address           string        `yaml:"address" default:":8080"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout" default:"5s"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" default:"10s"`
	// TrustProxyHeaders takes the client address from X-Real-IP or
	// X-Forwarded-For. Enable it only behind a proxy that sets them.
	TrustProxyHeaders bool `yaml:"trustProxyHeaders"`
}

// TokenMode selects how the session token is represented on the wire.
type TokenMode string

const (
	// TokenModeSigned issues a tamper-evident JWS carrying identifier, iat and exp.
	TokenModeSigned TokenMode = "signed"
	// TokenModeFlag issues the literal value "1" and relies on cookie scoping only.
	TokenModeFlag TokenMode = "flag"
)

// Gate holds the credential configuration and the session token settings.
type Gate struct {
	// IdentifierDomain is an optional suffix every identifier must end with, e.g. "@dept.edu".
	IdentifierDomain string              `yaml:"identifierDomain"`
	Secret           commoncfg.SourceRef `yaml:"secret"`
	SigningKey       commoncfg.SourceRef `yaml:"signingKey"`
	TokenMode        TokenMode           `yaml:"tokenMode" default:"signed"`
	SessionDuration  time.Duration       `yaml:"sessionDuration" default:"12h"`
	LoginPage        string              `yaml:"loginPage" default:"/"`
	Cookie           CookieTemplate      `yaml:"cookie"`
	ProtectedPages   []ProtectedPage     `yaml:"protectedPages"`

	// Resolved by Resolve; never read from the file.
	SecretParsed     []byte `yaml:"-"`
	SigningKeyParsed []byte `yaml:"-"`
}

// ProtectedPage binds a browser route to a file below Static.Dir.
type ProtectedPage struct {
	Path string `yaml:"path"`
	File string `yaml:"file"`
}

type CookieSameSite string

const (
	CookieSameSiteNone   CookieSameSite = "None"
	CookieSameSiteLax    CookieSameSite = "Lax"
	CookieSameSiteStrict CookieSameSite = "Strict"
)

// CookieTemplate describes the session cookie attributes. Set and clear both
// derive from the same template so their attributes always match.
type CookieTemplate struct {
	Name     string         `yaml:"name" default:"auth"`
	Path     string         `yaml:"path" default:"/"`
	Domain   string         `yaml:"domain"`
	Secure   bool           `yaml:"secure"`
	SameSite CookieSameSite `yaml:"sameSite" default:"Lax"`
	// ScriptAccessible drops HttpOnly so front-end code can read the cookie.
	// Only meaningful for the flag token mode.
	ScriptAccessible bool `yaml:"scriptAccessible"`
	MaxAge           int  `yaml:"-"`
}

type ThrottleBackend string

const (
	ThrottleBackendMemory ThrottleBackend = "memory"
	ThrottleBackendValKey ThrottleBackend = "valkey"
)

// Throttle configures the optional per-client login lockout.
type Throttle struct {
	Enabled     bool            `yaml:"enabled"`
	Backend     ThrottleBackend `yaml:"backend" default:"memory"`
	MaxAttempts int             `yaml:"maxAttempts" default:"5"`
	Window      time.Duration   `yaml:"window" default:"15m"`
	Lockout     time.Duration   `yaml:"lockout" default:"10m"`
}

type ValKey struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix" default:"access-gate"`
}

type Static struct {
	Dir string `yaml:"dir" default:"./public"`
}
