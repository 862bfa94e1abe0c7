package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret", "idp")
	tok, err := v.Issue("auth0|42", "Jane Doe", "jane@example.com", time.Minute)
	require.NoError(t, err)

	claims, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "auth0|42", claims.Subject)
	assert.Equal(t, "Jane Doe", claims.Name)
}

func TestTokenRejected(t *testing.T) {
	v := NewTokenVerifier("secret", "idp")

	expired, err := v.Issue("auth0|42", "", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	other, err := NewTokenVerifier("other", "idp").Issue("auth0|42", "", "", time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(other)
	assert.Error(t, err)

	wrongIssuer, err := NewTokenVerifier("secret", "elsewhere").Issue("auth0|42", "", "", time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(wrongIssuer)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	noSubject, err := v.Issue("", "", "", time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(noSubject)
	assert.ErrorIs(t, err, ErrMissingSubject)
}
