package echoapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/user"
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued elsewhere: this API only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

func (c Claims) Principal() user.Principal {
	return user.Principal{ID: c.Subject, Role: c.Role}
}

// NewClaims returns the claims of a token identifying `p`, valid for `ttl`.
func NewClaims(p user.Principal, issuer, audience string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: p.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(secret []byte, claims Claims) (string, error) {
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(raw string, secret []byte, audience string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) { return secret, nil }, opts...); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
