package signal

import (
	"fmt"

	"github.com/dkeye/callrelay/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier checks the HS256 token a client presents on join.
// The token subject must be the identity being joined.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns nil when secret is empty, which disables the check.
func NewTokenVerifier(secret string) *TokenVerifier {
	if secret == "" {
		return nil
	}
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) Verify(raw string, id domain.Identity) error {
	if raw == "" {
		return fmt.Errorf("%w: token required", domain.ErrUnauthorized)
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub != string(id) {
		return fmt.Errorf("%w: token subject does not match identity", domain.ErrUnauthorized)
	}
	return nil
}
