package mock

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errRevokedToken = errors.New("token revoked")
	errStaleToken   = errors.New("token invalidated")
)

type grant struct {
	identity string
	role     string
}

// createJWT creates a signed HS256 access token
func (b *Backend) createJWT(identity, role string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   b.Issuer,
		"sub":   identity,
		"role":  role,
		"typ":   "access_token",
		"epoch": b.epoch.Load(),
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(b.Secret)
}

// IssueTokens mints an access token and a rotating refresh token for identity
func (b *Backend) IssueTokens(identity, role string) (accessToken, refreshToken string, err error) {
	if accessToken, err = b.createJWT(identity, role, b.AccessTTL); err != nil {
		return "", "", err
	}
	refreshToken = "rt_" + uuid.NewString()
	b.refreshTokens.Put(refreshToken, grant{identity: identity, role: role})
	return accessToken, refreshToken, nil
}

// verify validates an access token and returns its subject
func (b *Backend) verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errMissingToken
	}
	if _, revoked := b.revoked.Get(tokenString); revoked {
		return "", errRevokedToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.Secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	if epoch, _ := claims["epoch"].(float64); int64(epoch) != b.epoch.Load() {
		return "", errStaleToken
	}
	subject, _ := claims["sub"].(string)
	return subject, nil
}
