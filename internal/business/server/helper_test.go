package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/access-gate/internal/config"
	"github.com/openkcm/access-gate/internal/credential"
	"github.com/openkcm/access-gate/internal/gate"
	"github.com/openkcm/access-gate/internal/session"
	"github.com/openkcm/access-gate/internal/throttle"
	"github.com/openkcm/access-gate/internal/throttle/memory"
	"github.com/openkcm/access-gate/internal/token"
)

const (
	testSecret   = "correctpw"
	testDomain   = "@dept.edu"
	testLifetime = 12 * time.Hour
)

var (
	testKey = []byte("0123456789abcdef0123456789abcdef")
	t0      = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	handler http.Handler
	clock   *fakeClock
	cfg     *config.Config
}

type testOption func(*config.Config)

func withTokenMode(mode config.TokenMode) testOption {
	return func(c *config.Config) { c.Gate.TokenMode = mode }
}

func withThrottle(maxAttempts int) testOption {
	return func(c *config.Config) {
		c.Throttle = config.Throttle{
			Enabled:     true,
			Backend:     config.ThrottleBackendMemory,
			MaxAttempts: maxAttempts,
			Window:      time.Minute,
			Lockout:     time.Minute,
		}
	}
}

func testConfig(t *testing.T, opts ...testOption) *config.Config {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<h1>login</h1>")
	writeFile(t, dir, "scanner.html", "<h1>scanner</h1>")
	writeFile(t, dir, "app.js", "console.log('app')")

	cfg := &config.Config{
		BaseConfig: commoncfg.BaseConfig{
			Application: commoncfg.Application{Name: "test-app"},
		},
		HTTP: config.HTTPServer{
			Address:         "localhost:0",
			ShutdownTimeout: time.Second,
		},
		Gate: config.Gate{
			IdentifierDomain: testDomain,
			Secret:           commoncfg.SourceRef{Source: "embedded", Value: testSecret},
			SigningKey:       commoncfg.SourceRef{Source: "embedded", Value: string(testKey)},
			TokenMode:        config.TokenModeSigned,
			SessionDuration:  testLifetime,
			LoginPage:        "/",
			Cookie: config.CookieTemplate{
				Name:     "auth",
				Path:     "/",
				SameSite: config.CookieSameSiteLax,
			},
			ProtectedPages: []config.ProtectedPage{{Path: "/scanner", File: "scanner.html"}},
		},
		Static: config.Static{Dir: dir},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	require.NoError(t, cfg.Resolve())

	return cfg
}

func newTestAuth(t *testing.T, cfg *config.Config, clock *fakeClock) *Auth {
	t.Helper()

	codec, err := token.NewCodec(cfg.Gate.TokenMode, cfg.Gate.SigningKeyParsed, cfg.Gate.SessionDuration)
	require.NoError(t, err)

	auth := &Auth{
		Validator: credential.NewValidator(cfg.Gate.IdentifierDomain, cfg.Gate.SecretParsed),
		Codec:     codec,
		Policy:    session.NewPolicy(cfg.Gate.Cookie, cfg.Gate.SessionDuration),
		Gate:      gate.New(codec, cfg.Gate.Cookie.Name, cfg.Gate.LoginPage, clock.Now),
		Clock:     clock.Now,
	}

	if cfg.Throttle.Enabled {
		auth.Limiter, err = throttle.NewLimiter(memory.NewStore(time.Minute), throttle.Limits{
			MaxAttempts: cfg.Throttle.MaxAttempts,
			Window:      cfg.Throttle.Window,
			Lockout:     cfg.Throttle.Lockout,
		})
		require.NoError(t, err)
	}

	return auth
}

func newTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()

	cfg := testConfig(t, opts...)
	clock := &fakeClock{now: t0}

	m, err := newMeters(t.Context(), cfg)
	require.NoError(t, err)

	return &testServer{
		handler: newRouter(cfg, newTestAuth(t, cfg, clock), m),
		clock:   clock,
		cfg:     cfg,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth" {
			return c
		}
	}
	t.Fatal("no auth cookie in response")
	return nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	file := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o700))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
}
