package business

import (
	"fmt"
	"time"

	"github.com/openkcm/access-gate/internal/config"
	"github.com/openkcm/access-gate/internal/token"
)

// IssueToken mints a session token for identifier with the configured codec.
// The credential checks are skipped; it is meant for operators.
func IssueToken(cfg *config.Config, identifier string, now time.Time) (token.Token, error) {
	codec, err := token.NewCodec(cfg.Gate.TokenMode, cfg.Gate.SigningKeyParsed, cfg.Gate.SessionDuration)
	if err != nil {
		return token.Token{}, fmt.Errorf("creating token codec: %w", err)
	}

	return codec.Issue(identifier, now)
}

// InspectToken verifies wire with the configured codec and returns its claims.
func InspectToken(cfg *config.Config, wire string, now time.Time) (token.Claims, error) {
	codec, err := token.NewCodec(cfg.Gate.TokenMode, cfg.Gate.SigningKeyParsed, cfg.Gate.SessionDuration)
	if err != nil {
		return token.Claims{}, fmt.Errorf("creating token codec: %w", err)
	}

	return codec.Verify(wire, now)
}
