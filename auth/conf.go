package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf holds the client credentials of the identity provider. Scopes are
// optional.
type Conf struct {
	ClientID       string   `json:"client_id"`
	ClientSecret   string   `json:"client_secret"`
	AuthURL        string   `json:"auth_url"`
	Scopes         []string `json:"scopes"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
		Scopes:       c.Scopes,
	}
}
