package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned by Claims for a session without a token.
var ErrNoToken = errors.New("session: no token")

// Claims are the fields the backend puts into its session token.
type Claims struct {
	UserID string `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Claims decodes the token for display. The signature is not checked and
// expiry is not enforced; the backend does both.
func (s State) Claims() (*Claims, error) {
	if s.Token == "" {
		return nil, ErrNoToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return nil, fmt.Errorf("session: decode token: %w", err)
	}
	return claims, nil
}
