package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/openkcm/access-gate/internal/serviceerr"
)

// Issuer is written to and required in the iss claim.
const Issuer = "access-gate"

var ErrInvalidLifetime = errors.New("token lifetime must be positive")

var strictEncoding = base64.RawURLEncoding.Strict()

// SignedCodec issues compact JWS tokens signed with HS256.
type SignedCodec struct {
	key      []byte
	lifetime time.Duration
	signer   jose.Signer
}

var _ Codec = (*SignedCodec)(nil)

func NewSignedCodec(key []byte, lifetime time.Duration) (*SignedCodec, error) {
	if lifetime <= 0 {
		return nil, ErrInvalidLifetime
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating signer: %w", err)
	}

	return &SignedCodec{
		key:      key,
		lifetime: lifetime,
		signer:   signer,
	}, nil
}

// Issue mints a token valid from now for the codec lifetime. Times are kept
// at second precision, the resolution of the JWT date claims.
func (c *SignedCodec) Issue(identifier string, now time.Time) (Token, error) {
	issuedAt := time.Unix(now.Unix(), 0)
	expiresAt := issuedAt.Add(c.lifetime)

	claims := jwt.Claims{
		Issuer:   Issuer,
		Subject:  identifier,
		IssuedAt: jwt.NewNumericDate(issuedAt),
		Expiry:   jwt.NewNumericDate(expiresAt),
	}

	raw, err := jwt.Signed(c.signer).Claims(claims).Serialize()
	if err != nil {
		return Token{}, fmt.Errorf("serializing token: %w", err)
	}

	return Token{
		Value: raw,
		Claims: Claims{
			Identifier: identifier,
			IssuedAt:   issuedAt,
			ExpiresAt:  expiresAt,
		},
	}, nil
}

// Verify checks integrity before expiry. The token is valid while now is
// strictly before its expiry.
func (c *SignedCodec) Verify(wire string, now time.Time) (Claims, error) {
	if !isCanonicalCompact(wire) {
		return Claims{}, serviceerr.ErrMalformed
	}

	tok, err := jwt.ParseSigned(wire, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return Claims{}, serviceerr.ErrMalformed
	}

	var claims jwt.Claims
	if err := tok.Claims(c.key, &claims); err != nil {
		return Claims{}, serviceerr.ErrTamperedOrMalformed
	}

	if claims.Issuer != Issuer || claims.IssuedAt == nil || claims.Expiry == nil {
		return Claims{}, serviceerr.ErrMalformed
	}

	expiresAt := claims.Expiry.Time()
	if !now.Before(expiresAt) {
		return Claims{}, serviceerr.ErrExpired
	}

	return Claims{
		Identifier: claims.Subject,
		IssuedAt:   claims.IssuedAt.Time(),
		ExpiresAt:  expiresAt,
	}, nil
}

// isCanonicalCompact reports whether wire is three non-empty segments of
// canonical unpadded base64url. Lenient decoders ignore trailing bits, which
// would let a flipped bit in the last character of a segment go unnoticed.
func isCanonicalCompact(wire string) bool {
	segments := strings.Split(wire, ".")
	if len(segments) != 3 {
		return false
	}
	for _, segment := range segments {
		if segment == "" {
			return false
		}
		if _, err := strictEncoding.DecodeString(segment); err != nil {
			return false
		}
	}
	return true
}
