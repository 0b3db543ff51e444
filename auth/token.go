package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/mcpadmin/auth/store"
	"github.com/viant/mcpadmin/transport"
	"golang.org/x/oauth2"
)

// DefaultMinTokenLength is the shortest access token accepted from the backend
const DefaultMinTokenLength = 20

// tokenResponse is the payload returned by the login and refresh tools
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Role         string `json:"role,omitempty"`
	Identity     string `json:"identity,omitempty"`
}

func validateTokenShape(token string, minLength int) error {
	if len(token) < minLength {
		return transport.NewAuthError(fmt.Sprintf("access token too short: %d < %d", len(token), minLength), nil)
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return transport.NewAuthError("access token contains whitespace", nil)
	}
	return nil
}

// tokenExpiry prefers expires_in, then the JWT exp claim; opaque tokens without either never expire locally.
func tokenExpiry(response *tokenResponse, now time.Time) time.Time {
	if response.ExpiresIn > 0 {
		return now.Add(time.Duration(response.ExpiresIn) * time.Second)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(response.AccessToken, claims); err != nil {
		return time.Time{}
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}
	}
	return expiry.Time
}

// newCredential validates a token response; previous fills fields the backend omitted on refresh.
func newCredential(response *tokenResponse, previous *store.Credential, minLength int) (*store.Credential, error) {
	if response == nil {
		return nil, transport.NewAuthError("empty token response", nil)
	}
	if err := validateTokenShape(response.AccessToken, minLength); err != nil {
		return nil, err
	}
	tokenType := response.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	token := &oauth2.Token{
		AccessToken:  response.AccessToken,
		TokenType:    tokenType,
		RefreshToken: response.RefreshToken,
		Expiry:       tokenExpiry(response, time.Now()),
	}
	ret := &store.Credential{Token: token, Identity: response.Identity, Role: response.Role}
	if previous != nil {
		// preserve refresh token if the backend omitted it
		if token.RefreshToken == "" {
			token.RefreshToken = previous.RefreshToken()
		}
		if ret.Identity == "" {
			ret.Identity = previous.Identity
		}
		if ret.Role == "" {
			ret.Role = previous.Role
		}
	}
	return ret, nil
}
