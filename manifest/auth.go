package manifest

import (
	"encoding/json"
	"strings"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// CredentialKind selects which scheme a host's credentials use.
type CredentialKind string

const (
	CredentialBasic  CredentialKind = "basic"
	CredentialBearer CredentialKind = "bearer"
	CredentialOAuth  CredentialKind = "oauth"
)

// Credential is one host's entry from auth.json.
type Credential struct {
	Kind     CredentialKind
	Username string
	Password string
	Token    string
}

// AuthFile models auth.json: per-host credential objects under
// "http-basic", "bearer", and the ecosystem's OAuth token maps
// (github-oauth, gitlab-token, bitbucket-oauth).
type AuthFile struct {
	hosts map[string]Credential
}

type authFileWire struct {
	HTTPBasic map[string]struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"http-basic"`
	Bearer        map[string]string `json:"bearer"`
	GitHubOAuth   map[string]string `json:"github-oauth"`
	GitLabToken   map[string]string `json:"gitlab-token"`
	BitbucketOAuth map[string]struct {
		ConsumerKey    string `json:"consumer-key"`
		ConsumerSecret string `json:"consumer-secret"`
	} `json:"bitbucket-oauth"`
}

// ParseAuthFile decodes auth.json.
func ParseAuthFile(data []byte) (*AuthFile, error) {
	var wire authFileWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidAuth, "parse auth.json", err)
	}
	af := &AuthFile{hosts: make(map[string]Credential)}
	for host, cred := range wire.HTTPBasic {
		af.hosts[strings.ToLower(host)] = Credential{Kind: CredentialBasic, Username: cred.Username, Password: cred.Password}
	}
	for host, token := range wire.Bearer {
		af.hosts[strings.ToLower(host)] = Credential{Kind: CredentialBearer, Token: token}
	}
	for host, token := range wire.GitHubOAuth {
		af.hosts[strings.ToLower(host)] = Credential{Kind: CredentialOAuth, Token: token}
	}
	for host, token := range wire.GitLabToken {
		af.hosts[strings.ToLower(host)] = Credential{Kind: CredentialOAuth, Token: token}
	}
	for host, cred := range wire.BitbucketOAuth {
		af.hosts[strings.ToLower(host)] = Credential{Kind: CredentialOAuth, Username: cred.ConsumerKey, Password: cred.ConsumerSecret}
	}
	return af, nil
}

// Lookup finds credentials for host, first by exact match, then by
// successively stripping the leftmost label (parent-domain match), e.g.
// "packages.example.com" falls back to "example.com" then "com".
func (af *AuthFile) Lookup(host string) (Credential, bool) {
	host = strings.ToLower(host)
	for {
		if cred, ok := af.hosts[host]; ok {
			return cred, true
		}
		idx := strings.Index(host, ".")
		if idx < 0 {
			return Credential{}, false
		}
		host = host[idx+1:]
	}
}
