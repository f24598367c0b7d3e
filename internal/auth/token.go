package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleSupplier
}

// Identity is the decoded credential attached to every authorized request.
// It is produced exactly once by the token manager; nothing downstream
// re-interprets raw claims.
type Identity struct {
	ID   string
	Role Role
}

var (
	ErrMalformedToken = fmt.Errorf("%w: token is malformed", apperr.ErrUnauthenticated)
	ErrBadSignature   = fmt.Errorf("%w: token signature verification failed", apperr.ErrUnauthenticated)
	ErrExpiredToken   = fmt.Errorf("%w: token has expired", apperr.ErrUnauthenticated)
)

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs an HS256 token carrying the user's id and role.
func (m *TokenManager) Issue(id string, role Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":   id,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify decodes and validates a bearer token. Decode failures map to typed
// errors: malformed structure, bad signature and expiry are authentication
// failures; any other parse problem, and a cryptographically valid token
// whose claims lack id or role, count as an invalid token structure.
func (m *TokenManager) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrExpiredToken
		default:
			return Identity{}, fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: claims are not an object", apperr.ErrInvalidToken)
	}

	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return Identity{}, fmt.Errorf("%w: missing id claim", apperr.ErrInvalidToken)
	}

	roleStr, ok := claims["role"].(string)
	if !ok {
		return Identity{}, fmt.Errorf("%w: missing role claim", apperr.ErrInvalidToken)
	}

	role := Role(roleStr)
	if !role.Valid() {
		return Identity{}, fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidToken, roleStr)
	}

	return Identity{ID: id, Role: role}, nil
}
