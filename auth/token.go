package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ConsoleClaims is the payload of a console websocket token. The
// token binds one user to one instance for a short window; the tunnel
// checks authorization once at open time, so a short expiry bounds
// the exposure of a leaked token.
type ConsoleClaims struct {
	UserID     string `json:"userId"`
	InstanceID string `json:"instanceId"`
	jwt.RegisteredClaims
}

const consoleTokenTTL = 2 * time.Minute

// IssueConsoleToken signs a token admitting userID to instanceID's
// console.
func IssueConsoleToken(secret, userID, instanceID string) (string, error) {
	claims := ConsoleClaims{
		UserID:     userID,
		InstanceID: instanceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(consoleTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseConsoleToken validates a console token and returns its claims.
func ParseConsoleToken(secret, token string) (*ConsoleClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &ConsoleClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*ConsoleClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid console token")
	}
	return claims, nil
}
