package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"socio/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Organiser bool   `json:"organiser"`
}

type jwtManager struct {
	secret []byte
}

// NewJWTManager returns a combined TokenIssuer and TokenVerifier that signs
// and checks HS256 JWTs with the given secret. The email claim is the
// identity key used for ownership checks.
func NewJWTManager(secret string) interface {
	domain.TokenIssuer
	domain.TokenVerifier
} {
	return &jwtManager{secret: []byte(secret)}
}

func (m *jwtManager) Issue(email string, isOrganiser bool, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email:     email,
		Organiser: isOrganiser,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (m *jwtManager) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	if claims.Email == "" {
		return "", fmt.Errorf("token missing email claim")
	}
	return claims.Email, nil
}
