package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"emotlink/pkg/domain"
)

const sessionIssuer = "emotlink"

var defaultSessionTTL = 120 * time.Hour

// SessionClaims carries the identity the rest of the system trusts.
type SessionClaims struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	AccountType int    `json:"accountType"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 JWT session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager builds a manager from the shared signing secret.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("session secret required")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token carrying the user's identity claims.
func (m *SessionManager) Issue(user domain.User) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		Name:        user.Name,
		Email:       user.Email,
		AccountType: int(user.AccountType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    sessionIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a token and reconstructs the user identity from its
// claims. The identity is trusted without a database round-trip.
func (m *SessionManager) Verify(token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, errors.New("invalid token format")
	}
	claims := SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithIssuedAt(),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return domain.User{}, fmt.Errorf("verify session: %w", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.User{}, errors.New("token subject missing")
	}
	return domain.User{
		ID:          claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		AccountType: domain.AccountType(claims.AccountType),
	}, nil
}
