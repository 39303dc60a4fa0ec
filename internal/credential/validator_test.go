package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openkcm/access-gate/internal/credential"
	"github.com/openkcm/access-gate/internal/serviceerr"
)

func TestValidator_Validate(t *testing.T) {
	v := credential.NewValidator("@dept.edu", []byte("correctpw"))

	tests := []struct {
		name    string
		attempt credential.Attempt
		wantErr error
	}{
		{
			name:    "accepted",
			attempt: credential.Attempt{Identifier: "x@dept.edu", Secret: "correctpw"},
		},
		{
			name:    "wrong domain",
			attempt: credential.Attempt{Identifier: "x@other.com", Secret: "correctpw"},
			wantErr: serviceerr.ErrInvalidDomain,
		},
		{
			name:    "domain is case sensitive",
			attempt: credential.Attempt{Identifier: "x@DEPT.EDU", Secret: "correctpw"},
			wantErr: serviceerr.ErrInvalidDomain,
		},
		{
			name:    "domain must be a suffix",
			attempt: credential.Attempt{Identifier: "x@dept.edu.evil.com", Secret: "correctpw"},
			wantErr: serviceerr.ErrInvalidDomain,
		},
		{
			name:    "wrong secret",
			attempt: credential.Attempt{Identifier: "x@dept.edu", Secret: "correctpx"},
			wantErr: serviceerr.ErrInvalidSecret,
		},
		{
			name:    "secret prefix",
			attempt: credential.Attempt{Identifier: "x@dept.edu", Secret: "correct"},
			wantErr: serviceerr.ErrInvalidSecret,
		},
		{
			name:    "empty identifier",
			attempt: credential.Attempt{Secret: "correctpw"},
			wantErr: serviceerr.ErrMissingFields,
		},
		{
			name:    "empty secret",
			attempt: credential.Attempt{Identifier: "x@dept.edu"},
			wantErr: serviceerr.ErrMissingFields,
		},
		{
			name:    "missing fields wins over domain",
			attempt: credential.Attempt{Identifier: "x@other.com"},
			wantErr: serviceerr.ErrMissingFields,
		},
		{
			name:    "domain wins over secret",
			attempt: credential.Attempt{Identifier: "x@other.com", Secret: "nope"},
			wantErr: serviceerr.ErrInvalidDomain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.attempt)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidator_NoDomain(t *testing.T) {
	v := credential.NewValidator("", []byte("correctpw"))

	for _, id := range []string{"x@dept.edu", "x@other.com", "operator"} {
		assert.NoError(t, v.Validate(credential.Attempt{Identifier: id, Secret: "correctpw"}), id)
	}
}

func TestValidator_SuffixProperty(t *testing.T) {
	const domain = "@dept.edu"
	v := credential.NewValidator(domain, []byte("s"))

	identifiers := []string{
		"a@dept.edu", "@dept.edu", "a@dept.ed", "a@dept.edu ", "dept.edu", "a@sub.dept.edu",
		"a@dept.eduX", "A@Dept.edu", "a@@dept.edu",
	}
	for _, id := range identifiers {
		err := v.Validate(credential.Attempt{Identifier: id, Secret: "s"})
		if len(id) >= len(domain) && id[len(id)-len(domain):] == domain {
			assert.NoError(t, err, id)
		} else {
			assert.ErrorIs(t, err, serviceerr.ErrInvalidDomain, id)
		}
	}
}

func TestValidator_ErrorsDoNotEchoExpectedValues(t *testing.T) {
	v := credential.NewValidator("@dept.edu", []byte("correctpw"))

	for _, a := range []credential.Attempt{
		{Identifier: "x@other.com", Secret: "correctpw"},
		{Identifier: "x@dept.edu", Secret: "wrong"},
	} {
		err := v.Validate(a)
		assert.Error(t, err)
		assert.NotContains(t, err.Error(), "@dept.edu")
		assert.NotContains(t, err.Error(), "correctpw")
	}
}
