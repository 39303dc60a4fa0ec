package token

import (
	"time"

	"github.com/openkcm/access-gate/internal/serviceerr"
)

// FlagValue is the wire value of every flag token.
const FlagValue = "1"

// FlagCodec issues an unsigned marker. It carries no identity and no expiry,
// so a flag token is only as trustworthy as the cookie scoping that delivers
// it; lifetime is left to the cookie Max-Age.
type FlagCodec struct {
	lifetime time.Duration
}

var _ Codec = (*FlagCodec)(nil)

func NewFlagCodec(lifetime time.Duration) *FlagCodec {
	return &FlagCodec{lifetime: lifetime}
}

// Issue returns the flag token. The claims are informational only and are not
// recoverable from the wire value.
func (c *FlagCodec) Issue(identifier string, now time.Time) (Token, error) {
	issuedAt := time.Unix(now.Unix(), 0)
	return Token{
		Value: FlagValue,
		Claims: Claims{
			Identifier: identifier,
			IssuedAt:   issuedAt,
			ExpiresAt:  issuedAt.Add(c.lifetime),
		},
	}, nil
}

// Verify accepts only the flag value. The flag carries no claims, so the
// returned Claims are always zero and Identifier is empty.
func (c *FlagCodec) Verify(wire string, _ time.Time) (Claims, error) {
	if wire != FlagValue {
		return Claims{}, serviceerr.ErrMalformed
	}
	return Claims{}, nil
}
