package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "series-browser"

var (
	mu       sync.RWMutex
	secret   []byte
	tokenTTL = 24 * time.Hour
)

var ErrNotInitialized = errors.New("auth: signing secret not set")

// Claims identify the user a session token was issued to.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Init sets the signing secret and the lifetime of issued tokens.
func Init(jwtSecret string, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	secret = []byte(jwtSecret)
	if ttl > 0 {
		tokenTTL = ttl
	}
}

func signingKey() ([]byte, time.Duration, error) {
	mu.RLock()
	defer mu.RUnlock()
	if len(secret) == 0 {
		return nil, 0, ErrNotInitialized
	}
	return secret, tokenTTL, nil
}

// GenerateToken issues an HS256 token for userID.
func GenerateToken(userID int64) (string, error) {
	key, ttl, err := signingKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ValidateToken checks the signature and expiry of token and returns its
// claims.
func ValidateToken(token string) (*Claims, error) {
	key, _, err := signingKey()
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return nil, errors.New("invalid token: subject mismatch")
	}
	return claims, nil
}
