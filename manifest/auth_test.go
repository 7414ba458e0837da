package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

func TestParseAuthFileAllSchemes(t *testing.T) {
	af, err := ParseAuthFile([]byte(`{
		"http-basic": {"packages.example.com": {"username": "bob", "password": "secret"}},
		"bearer": {"api.example.com": "token123"},
		"github-oauth": {"github.com": "ghtoken"},
		"gitlab-token": {"gitlab.com": "gltoken"},
		"bitbucket-oauth": {"bitbucket.org": {"consumer-key": "key", "consumer-secret": "shh"}}
	}`))
	require.NoError(t, err)

	basic, ok := af.Lookup("packages.example.com")
	require.True(t, ok)
	assert.Equal(t, CredentialBasic, basic.Kind)
	assert.Equal(t, "bob", basic.Username)
	assert.Equal(t, "secret", basic.Password)

	bearer, ok := af.Lookup("api.example.com")
	require.True(t, ok)
	assert.Equal(t, CredentialBearer, bearer.Kind)
	assert.Equal(t, "token123", bearer.Token)

	gh, ok := af.Lookup("github.com")
	require.True(t, ok)
	assert.Equal(t, CredentialOAuth, gh.Kind)
	assert.Equal(t, "ghtoken", gh.Token)

	gl, ok := af.Lookup("gitlab.com")
	require.True(t, ok)
	assert.Equal(t, CredentialOAuth, gl.Kind)
	assert.Equal(t, "gltoken", gl.Token)

	bb, ok := af.Lookup("bitbucket.org")
	require.True(t, ok)
	assert.Equal(t, "key", bb.Username)
	assert.Equal(t, "shh", bb.Password)
}

func TestLookupFallsBackToParentDomain(t *testing.T) {
	af, err := ParseAuthFile([]byte(`{"bearer": {"example.com": "parenttoken"}}`))
	require.NoError(t, err)

	cred, ok := af.Lookup("packages.example.com")
	require.True(t, ok)
	assert.Equal(t, "parenttoken", cred.Token)
}

func TestLookupMissesReturnFalse(t *testing.T) {
	af, err := ParseAuthFile([]byte(`{}`))
	require.NoError(t, err)
	_, ok := af.Lookup("unknown.example.com")
	assert.False(t, ok)
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	af, err := ParseAuthFile([]byte(`{"bearer": {"Example.COM": "tok"}}`))
	require.NoError(t, err)
	cred, ok := af.Lookup("example.com")
	require.True(t, ok)
	assert.Equal(t, "tok", cred.Token)
}

func TestParseAuthFileRejectsInvalidJSON(t *testing.T) {
	_, err := ParseAuthFile([]byte(`{not json`))
	require.Error(t, err)
	assert.Equal(t, phalanxerrors.CodeInvalidAuth, phalanxerrors.Code(err))
}
