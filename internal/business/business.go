package business

import (
	"context"
	"fmt"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/access-gate/internal/business/server"
	"github.com/openkcm/access-gate/internal/config"
	"github.com/openkcm/access-gate/internal/credential"
	"github.com/openkcm/access-gate/internal/gate"
	"github.com/openkcm/access-gate/internal/session"
	"github.com/openkcm/access-gate/internal/throttle"
	throttlememory "github.com/openkcm/access-gate/internal/throttle/memory"
	throttlevalkey "github.com/openkcm/access-gate/internal/throttle/valkey"
	"github.com/openkcm/access-gate/internal/token"
)

// Main starts the gate HTTP server and blocks until ctx is cancelled.
func Main(ctx context.Context, cfg *config.Config) error {
	auth, closeFn, err := initAuth(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the gate: %w", err)
	}

	defer closeFn()

	return server.StartHTTPServer(ctx, cfg, auth)
}

// initAuth builds the gate components from the resolved configuration.
func initAuth(ctx context.Context, cfg *config.Config) (_ *server.Auth, closeFn func(), _ error) {
	codec, err := token.NewCodec(cfg.Gate.TokenMode, cfg.Gate.SigningKeyParsed, cfg.Gate.SessionDuration)
	if err != nil {
		return nil, nil, fmt.Errorf("creating token codec: %w", err)
	}

	if cfg.Gate.TokenMode == config.TokenModeFlag {
		slogctx.Warn(ctx, "Flag tokens carry no integrity protection; any client can forge the session cookie")
	}

	limiter, closeFn, err := initLimiter(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating login throttle: %w", err)
	}

	policy := session.NewPolicy(cfg.Gate.Cookie, cfg.Gate.SessionDuration)

	slogctx.Info(ctx, "Gate configured",
		"token_mode", cfg.Gate.TokenMode,
		"session_duration", cfg.Gate.SessionDuration,
		"protected_pages", len(cfg.Gate.ProtectedPages),
		"throttle", cfg.Throttle.Enabled,
	)

	return &server.Auth{
		Validator: credential.NewValidator(cfg.Gate.IdentifierDomain, cfg.Gate.SecretParsed),
		Codec:     codec,
		Policy:    policy,
		Gate:      gate.New(codec, policy.CookieName(), cfg.Gate.LoginPage, time.Now),
		Limiter:   limiter,
		Clock:     time.Now,
	}, closeFn, nil
}

func initLimiter(ctx context.Context, cfg *config.Config) (_ *throttle.Limiter, closeFn func(), _ error) {
	closeFn = func() {}
	if !cfg.Throttle.Enabled {
		return nil, closeFn, nil
	}

	var store throttle.Store
	switch cfg.Throttle.Backend {
	case config.ThrottleBackendMemory:
		store = throttlememory.NewStore(cfg.Throttle.Window)
	case config.ThrottleBackendValKey:
		valkeyClient, err := newValkeyClient(cfg.ValKey)
		if err != nil {
			return nil, nil, err
		}
		store = throttlevalkey.NewStore(valkeyClient, cfg.ValKey.Prefix)
		closeFn = valkeyClient.Close
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownThrottle, cfg.Throttle.Backend)
	}

	limiter, err := throttle.NewLimiter(store, throttle.Limits{
		MaxAttempts: cfg.Throttle.MaxAttempts,
		Window:      cfg.Throttle.Window,
		Lockout:     cfg.Throttle.Lockout,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	slogctx.Info(ctx, "Login throttle enabled", "backend", cfg.Throttle.Backend, "max_attempts", cfg.Throttle.MaxAttempts)

	return limiter, closeFn, nil
}

func newValkeyClient(cfg config.ValKey) (valkey.Client, error) {
	valkeyHost, err := commoncfg.LoadValueFromSourceRef(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("loading valkey host: %w", err)
	}

	valkeyUsername, err := commoncfg.LoadValueFromSourceRef(cfg.User)
	if err != nil {
		return nil, fmt.Errorf("loading valkey username: %w", err)
	}

	valkeyPassword, err := commoncfg.LoadValueFromSourceRef(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("loading valkey password: %w", err)
	}

	valkeyClient, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{string(valkeyHost)},
		Username:    string(valkeyUsername),
		Password:    string(valkeyPassword),
	})
	if err != nil {
		return nil, fmt.Errorf("creating a new valkey client: %w", err)
	}

	return valkeyClient, nil
}
