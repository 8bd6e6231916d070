package httpclient

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// CredentialReader looks up a stored credential. ok=false means nothing is stored.
type CredentialReader interface {
	Get(key string) (value string, ok bool, err error)
}

// CredentialMiddleware performs one lookup of key in creds per request and, when a
// credential is present, sets "Authorization: <scheme> <credential>".
// A missing credential sends the request unauthenticated. A lookup failure
// rejects the request before it is sent.
func CredentialMiddleware(creds CredentialReader, key, scheme string) resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		if creds == nil {
			return nil
		}
		token, ok, err := creds.Get(key)
		if err != nil {
			return &Error{
				Kind:   KindPreparation,
				Method: req.Method,
				URL:    req.URL,
				Err:    fmt.Errorf("read credential %q: %w", key, err),
			}
		}
		if !ok || token == "" {
			return nil
		}
		req.SetHeader("Authorization", scheme+" "+token)
		return nil
	}
}
