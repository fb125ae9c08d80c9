package transport

import (
	"context"
	"net/http"
)

// Authenticator attaches a resolved credential to an outgoing request.
// An empty credential leaves the request untouched.
type Authenticator interface {
	Apply(req *http.Request, credential string)
}

// Credential yields the secret for one request. Token sources refresh
// inside the call, so the client asks again for every request.
type Credential func(ctx context.Context) (string, error)

// StaticCredential wraps a fixed key such as the Perenual API key.
func StaticCredential(value string) Credential {
	return func(context.Context) (string, error) { return value, nil }
}

// NoAuth sends requests as they are. The Plantbook token endpoint uses it
// because the client credentials travel in the form body.
type NoAuth struct{}

func (*NoAuth) Apply(*http.Request, string) {}

// BearerAuth sets "Authorization: Bearer <credential>".
type BearerAuth struct{}

func (*BearerAuth) Apply(req *http.Request, credential string) {
	if credential == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+credential)
}

// QueryAuth puts the credential in the query parameter Param, replacing
// any value already there.
type QueryAuth struct {
	Param string
}

func (a *QueryAuth) Apply(req *http.Request, credential string) {
	if req.URL == nil || credential == "" {
		return
	}
	q := req.URL.Query()
	q.Set(a.Param, credential)
	req.URL.RawQuery = q.Encode()
}
