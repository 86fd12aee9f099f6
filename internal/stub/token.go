package stub

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and verifies the bearer tokens the stub hands out at
// login. HS256 only; the secret may be generated for local runs but must be
// configured everywhere else.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		// Dev convenience: an ephemeral secret means every restart
		// invalidates outstanding tokens, which exercises the 401 path.
		secret = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Issue returns a signed bearer token for userID.
func (m *TokenManager) Issue(now time.Time, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		UserID: userID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses a bearer token and returns the user id it was issued to.
func (m *TokenManager) Verify(tokenString string, now time.Time) (string, error) {
	var claims tokenClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", errors.New("user_id missing")
	}
	return claims.UserID, nil
}
