package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT claim set exchanged with the analytics backend.
type Claims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scope,omitempty"`
}

// tokenMinter signs short-lived HS256 bearer tokens for outbound requests.
type tokenMinter struct {
	secret     []byte
	subject    string
	expiration time.Duration
}

func newTokenMinter(secret, subject string, expiration time.Duration) *tokenMinter {
	if expiration == 0 {
		expiration = 15 * time.Minute
	}
	return &tokenMinter{
		secret:     []byte(secret),
		subject:    subject,
		expiration: expiration,
	}
}

// Token mints a fresh token. Tokens are cheap to sign, so no caching.
func (m *tokenMinter) Token() (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   m.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
		Scopes: []string{"analytics:query"},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken validates a bearer token against the shared secret. The
// devserver uses this to mirror the real backend's auth check.
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
