package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims 访问令牌载荷
type TokenClaims struct {
	UserUuid string `json:"user_uuid"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

var (
	// ErrTokenInvalid 令牌无效
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired 令牌过期
	ErrTokenExpired = errors.New("token expired")
)

// SignToken 签发访问令牌
func SignToken(secret, userUUID, email string, expire time.Duration) (string, time.Time, error) {
	now := time.Now()
	expireAt := now.Add(expire)

	claims := &TokenClaims{
		UserUuid: userUUID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expireAt),
			Issuer:    "lovmap",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expireAt, nil
}

// ParseToken 解析并校验访问令牌
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
