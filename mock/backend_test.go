package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackend_Tokens(t *testing.T) {
	backend := New()
	accessToken, refreshToken, err := backend.IssueTokens("admin", "admin")
	assert.Nil(t, err)
	assert.NotEmpty(t, refreshToken)

	subject, err := backend.verify(accessToken)
	assert.Nil(t, err)
	assert.Equal(t, "admin", subject)

	_, err = backend.verify("")
	assert.ErrorIs(t, err, errMissingToken)
	_, err = backend.verify("not-a-jwt")
	assert.NotNil(t, err)

	backend.InvalidateAccessTokens()
	_, err = backend.verify(accessToken)
	assert.ErrorIs(t, err, errStaleToken)

	accessToken, _, err = backend.IssueTokens("admin", "admin")
	assert.Nil(t, err)
	backend.revoke(context.Background(), &Call{Arguments: map[string]interface{}{"token": accessToken, "token_type_hint": "access_token"}})
	_, err = backend.verify(accessToken)
	assert.ErrorIs(t, err, errRevokedToken)

	other := New()
	other.Secret = []byte("another-signing-secret")
	accessToken, _, err = other.IssueTokens("admin", "admin")
	assert.Nil(t, err)
	_, err = backend.verify(accessToken)
	assert.NotNil(t, err)
}

func TestBackend_RefreshRotates(t *testing.T) {
	backend := New()
	_, refreshToken, err := backend.IssueTokens("admin", "admin")
	assert.Nil(t, err)

	call := &Call{Arguments: map[string]interface{}{"refresh_token": refreshToken}}
	reply := backend.refresh(context.Background(), call)
	assert.Nil(t, reply.Error)
	result, ok := reply.Result.(map[string]interface{})
	if assert.True(t, ok) {
		assert.NotNil(t, result["structuredContent"])
	}

	reply = backend.refresh(context.Background(), call)
	result, _ = reply.Result.(map[string]interface{})
	assert.Equal(t, true, result["isError"])
	assert.EqualValues(t, 2, backend.Refreshes.Load())
}
