package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used by HashToken.
const BcryptCost = 12

var (
	ErrMissingAdminToken = errors.New("missing admin token")
	ErrInvalidAdminToken = errors.New("invalid admin token")
)

// Verifier checks a presented admin token against the configured shared
// secret, given either in plain text or as a bcrypt hash.
type Verifier struct {
	token []byte
	hash  []byte
}

func NewVerifier(token, bcryptHash string) *Verifier {
	v := &Verifier{}
	if token != "" {
		v.token = []byte(token)
	}
	if bcryptHash != "" {
		v.hash = []byte(bcryptHash)
	}
	return v
}

// Configured reports whether any secret is set. An unconfigured verifier
// rejects every token.
func (v *Verifier) Configured() bool {
	return v != nil && (len(v.token) > 0 || len(v.hash) > 0)
}

// Verify compares presented byte for byte in constant time.
func (v *Verifier) Verify(presented string) error {
	if presented == "" {
		return ErrMissingAdminToken
	}
	if !v.Configured() {
		return ErrInvalidAdminToken
	}
	if len(v.token) > 0 && subtle.ConstantTimeCompare([]byte(presented), v.token) == 1 {
		return nil
	}
	if len(v.hash) > 0 && bcrypt.CompareHashAndPassword(v.hash, []byte(presented)) == nil {
		return nil
	}
	return ErrInvalidAdminToken
}

// TokenFromRequest reads the admin token from header without trimming.
func TokenFromRequest(r *http.Request, header string) (string, error) {
	if r == nil {
		return "", ErrMissingAdminToken
	}
	token := r.Header.Get(header)
	if token == "" {
		return "", ErrMissingAdminToken
	}
	if !utf8.ValidString(token) {
		return "", ErrInvalidAdminToken
	}
	return token, nil
}

// HashToken returns the bcrypt hash to configure as ADMIN_TOKEN_BCRYPT.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", ErrMissingAdminToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
