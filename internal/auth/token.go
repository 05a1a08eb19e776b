package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"agrolink/internal/domain"
)

// Identity типизированный контекст вызова: кто и в какой роли.
// Проверяется один раз на запрос и передаётся в сервисы явно.
type Identity struct {
	UserID string
	Role   domain.Role
}

// IsAdmin true для административной роли
func (id Identity) IsAdmin() bool { return id.Role == domain.RoleAdmin }

var ErrInvalidToken = errors.New("invalid token")

// TokenManager выпускает и проверяет bearer-токены (HS256, sub+role)
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue подписывает токен с субъектом и ролью, срок действия ttl
func (tm *TokenManager) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  id.UserID,
		"role": string(id.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(tm.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify разбирает и валидирует токен, возвращает Identity
func (tm *TokenManager) Verify(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: sub, Role: domain.Role(role)}, nil
}
