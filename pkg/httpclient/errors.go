package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies request failures.
type Kind string

const (
	KindTransport   Kind = "transport"
	KindTimeout     Kind = "timeout"
	KindServer      Kind = "server"
	KindPreparation Kind = "preparation"
	KindDecode      Kind = "decode"
)

// Error is returned for every failed request. Server errors carry the status
// code and the raw response body; the other kinds wrap the underlying cause.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindServer {
		msg := fmt.Sprintf("%s %s: server responded %d", e.Method, e.URL, e.StatusCode)
		if snippet := readBodySnippet(e.Body); snippet != "" {
			msg += ": " + snippet
		}
		return msg
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func classify(method, url string, err error) error {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr
	}

	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Method: method, URL: url, Err: err}
}

func kindOf(err error) Kind {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return ""
}

// IsTimeout reports whether err is a request that exceeded the configured timeout.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsServer reports whether err is a non-2xx response.
func IsServer(err error) bool { return kindOf(err) == KindServer }

// IsTransport reports whether err is a network-level failure other than a timeout.
func IsTransport(err error) bool { return kindOf(err) == KindTransport }

// IsPreparation reports whether err happened before the request left the process.
func IsPreparation(err error) bool { return kindOf(err) == KindPreparation }

// StatusCode returns the HTTP status of a server error, or 0.
func StatusCode(err error) int {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// Body returns the response body attached to err, if any.
func Body(err error) []byte {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Body
	}
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
