package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "estate-listings", TTL: time.Hour}

	tok, err := j.Issue("alice", []Flash{{Category: "success", Message: "welcome"}})
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Subject)
	assert.Equal(t, []Flash{{Category: "success", Message: "welcome"}}, c.Flashes)
}

func TestParseRejectsForeignSecretAndIssuer(t *testing.T) {
	good := &JWTer{Secret: []byte("a"), Issuer: "estate-listings", TTL: time.Hour}
	tok, err := good.Issue("alice", nil)
	require.NoError(t, err)

	_, err = (&JWTer{Secret: []byte("b"), Issuer: "estate-listings"}).Parse(tok)
	assert.Error(t, err)

	_, err = (&JWTer{Secret: []byte("a"), Issuer: "other"}).Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	j := &JWTer{Secret: []byte("a"), Issuer: "i", TTL: -2 * time.Minute}
	tok, err := j.Issue("alice", nil)
	require.NoError(t, err)

	_, err = j.Parse(tok)
	assert.Error(t, err)
}
