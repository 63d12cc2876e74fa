package rpc

import "net/http"

type AuthType string

const (
	AuthTypeHeader AuthType = "header"
	AuthTypeQuery  AuthType = "query"
	AuthTypeBearer AuthType = "bearer"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Type  AuthType `json:"type"  yaml:"type"`
	Key   string   `json:"key"   yaml:"key"`
	Value string   `json:"value" yaml:"value"`
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+a.Value)
	case AuthTypeHeader:
		req.Header.Set(a.Key, a.Value)
	case AuthTypeQuery:
		q := req.URL.Query()
		q.Set(a.Key, a.Value)
		req.URL.RawQuery = q.Encode()
	}
}
