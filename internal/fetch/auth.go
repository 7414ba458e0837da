package fetch

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/phalanx-pm/phalanx/manifest"
)

// CredentialManager resolves per-host credentials from a parsed auth.json
// and applies them to outgoing requests. It generalizes the teacher's
// AuthOptions precedence chain in
// _examples/jmgilman-go/oci/internal/oras/client.go (credential func, then
// static auth, then default chain) to this domain's auth.json scheme, which
// has no anonymous default chain to fall back to.
type CredentialManager struct {
	auth *manifest.AuthFile
}

// NewCredentialManager wraps a parsed auth.json. A nil auth file is valid
// and means every request goes out unauthenticated.
func NewCredentialManager(auth *manifest.AuthFile) *CredentialManager {
	return &CredentialManager{auth: auth}
}

// Apply sets the appropriate Authorization header on req for its host, if
// any credential is configured for it.
func (m *CredentialManager) Apply(ctx context.Context, req *http.Request) error {
	if m == nil || m.auth == nil {
		return nil
	}
	cred, ok := m.auth.Lookup(req.URL.Hostname())
	if !ok {
		return nil
	}

	switch cred.Kind {
	case manifest.CredentialBasic:
		req.SetBasicAuth(cred.Username, cred.Password)
	case manifest.CredentialBearer:
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	case manifest.CredentialOAuth:
		token, err := m.oauthToken(ctx, cred)
		if err != nil {
			return err
		}
		token.SetAuthHeader(req)
	}
	return nil
}

// oauthToken wraps the credential's static token as an oauth2.Token so
// callers that need a token source (for libraries expecting one, such as a
// VCS client) can obtain it through the same abstraction. auth.json only
// ever supplies long-lived personal-access-style tokens, so there is no
// refresh flow to drive here.
func (m *CredentialManager) oauthToken(_ context.Context, cred manifest.Credential) (*oauth2.Token, error) {
	token := cred.Token
	if token == "" {
		token = cred.Password
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
