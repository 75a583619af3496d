package google

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
)

// ClientSecrets holds the OAuth client descriptor in the shape Google's
// console exports it: a "web" section carrying client_id and client_secret.
type ClientSecrets struct {
	Web struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		AuthURI      string   `json:"auth_uri"`
		TokenURI     string   `json:"token_uri"`
		RedirectURIs []string `json:"redirect_uris"`
	} `json:"web"`
}

// LoadClientSecrets reads and validates a client secrets JSON file.
// A missing or incomplete descriptor is a startup-time configuration
// error; the process must not serve traffic without it.
func LoadClientSecrets(path string) (*ClientSecrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client secrets file: %w", err)
	}

	var secrets ClientSecrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parse client secrets file %s: %w", path, err)
	}

	if secrets.Web.ClientID == "" || secrets.Web.ClientSecret == "" {
		return nil, fmt.Errorf("client secrets file %s is missing web.client_id or web.client_secret", path)
	}

	return &secrets, nil
}

// OAuthConfig builds the oauth2 configuration for the authorization-code
// flow. The descriptor's auth_uri/token_uri override Google's defaults
// when present.
func (s *ClientSecrets) OAuthConfig(redirectURL string, scopes []string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}

	endpoint := googleauth.Endpoint
	if s.Web.AuthURI != "" {
		endpoint.AuthURL = s.Web.AuthURI
	}
	if s.Web.TokenURI != "" {
		endpoint.TokenURL = s.Web.TokenURI
	}

	return &oauth2.Config{
		ClientID:     s.Web.ClientID,
		ClientSecret: s.Web.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}
