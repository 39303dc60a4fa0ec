// Package credential decides whether a submitted login attempt matches the
// configured shared secret and identifier domain.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/openkcm/access-gate/internal/serviceerr"
)

// Attempt is one submitted login.
type Attempt struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Validator holds the expected values. It is safe for concurrent use.
type Validator struct {
	identifierDomain string
	secretDigest     [sha256.Size]byte
}

// NewValidator returns a Validator. An empty identifierDomain accepts any identifier.
func NewValidator(identifierDomain string, secret []byte) *Validator {
	return &Validator{
		identifierDomain: identifierDomain,
		secretDigest:     sha256.Sum256(secret),
	}
}

// Validate returns nil when the attempt is accepted. Checks run in a fixed
// order: missing fields, then identifier domain, then secret.
func (v *Validator) Validate(a Attempt) error {
	if a.Identifier == "" || a.Secret == "" {
		return serviceerr.ErrMissingFields
	}

	if v.identifierDomain != "" && !strings.HasSuffix(a.Identifier, v.identifierDomain) {
		return serviceerr.ErrInvalidDomain
	}

	// Both sides are hashed to a fixed size so the comparison does not depend
	// on the length of either value or on where they first differ.
	got := sha256.Sum256([]byte(a.Secret))
	if subtle.ConstantTimeCompare(got[:], v.secretDigest[:]) != 1 {
		return serviceerr.ErrInvalidSecret
	}

	return nil
}
