// Package auth issues the rejoin tokens that tie a browser back to its seat
// and hashes the passcodes guarding private sessions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken covers every way a presented token can fail: bad
// signature, expired, wrong shape.
var ErrInvalidToken = errors.New("auth: invalid session token")

// sessionClaims binds a player id to one game.
type sessionClaims struct {
	PlayerID string `json:"playerId"`
	GameCode string `json:"gameCode"`
	jwt.RegisteredClaims
}

// TokenLifetime is generous: a session token only ever re-seats a player in
// a game that still exists.
const TokenLifetime = 24 * time.Hour

// NewSessionToken signs a rejoin token for the player's seat in a game.
func NewSessionToken(secret []byte, playerID, gameCode string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		PlayerID: playerID,
		GameCode: gameCode,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates a rejoin token and returns the seat it names.
func ParseSessionToken(secret []byte, tokenString string) (playerID, gameCode string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.PlayerID == "" || claims.GameCode == "" {
		return "", "", ErrInvalidToken
	}
	return claims.PlayerID, claims.GameCode, nil
}

// HashPasscode bcrypt-hashes a private-session passcode for storage in the
// game document.
func HashPasscode(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash passcode: %w", err)
	}
	return string(hash), nil
}

// CheckPasscode reports whether the passcode matches the stored hash.
func CheckPasscode(hash, passcode string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
