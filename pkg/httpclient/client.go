package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultCredentialKey = "token"
	DefaultAuthScheme    = "Token"
)

// ClientConfig is fixed at startup and shared by every request.
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	Headers       map[string]string
	CredentialKey string
	AuthScheme    string
}

// DefaultHeaders returns the headers sent on every request.
func DefaultHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// Client is the shared authenticated entry point for backend calls.
// It is safe for concurrent use; it holds no mutable state after New returns.
type Client struct {
	cfg ClientConfig
	rc  *resty.Client
	log Logger
}

// New builds the client and composes its request pipeline: default headers,
// the credential middleware and a pass-through error hook.
func New(cfg ClientConfig, creds CredentialReader, log Logger) (*Client, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	log = ensureLogger(log)

	rc := resty.New()
	rc.SetBaseURL(cfg.BaseURL)
	rc.SetTimeout(cfg.Timeout)
	rc.SetHeaders(cfg.Headers)
	rc.OnBeforeRequest(CredentialMiddleware(creds, cfg.CredentialKey, cfg.AuthScheme))
	rc.OnError(func(req *resty.Request, err error) {
		log.DebugObj("backend request failed", "http_error", map[string]any{
			"method": req.Method,
			"url":    req.URL,
			"error":  err.Error(),
		})
	})

	return &Client{cfg: cfg, rc: rc, log: log}, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	out := c.cfg
	out.Headers = copyHeaders(c.cfg.Headers)
	return out
}

// Get issues a GET and decodes a 2xx JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, nil, out)
}

// Post issues a POST with a JSON body and decodes a 2xx JSON body into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body and decodes a 2xx JSON body into out.
func (c *Client) Patch(ctx context.Context, path string, pathParams map[string]string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, pathParams, body, out)
}

// Do issues exactly one request. Path placeholders like {id} are filled from
// pathParams. Decoding is skipped when out is nil or the body is empty; a
// *json.RawMessage or *[]byte out receives the body bytes verbatim.
//
// Cancellation of ctx is ignored: an issued request runs until it completes or
// the configured timeout fires. Values carried by ctx are kept.
func (c *Client) Do(ctx context.Context, method, path string, pathParams map[string]string, body, out any) error {
	if c == nil || c.rc == nil {
		return fmt.Errorf("http client is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.rc.R().SetContext(context.WithoutCancel(ctx))
	if len(pathParams) > 0 {
		req.SetPathParams(pathParams)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return classify(method, req.URL, err)
	}
	if !resp.IsSuccess() {
		return &Error{
			Kind:       KindServer,
			Method:     method,
			URL:        resp.Request.URL,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}

	raw := resp.Body()
	if out == nil || len(raw) == 0 {
		return nil
	}
	switch dst := out.(type) {
	case *json.RawMessage:
		*dst = append(json.RawMessage(nil), raw...)
		return nil
	case *[]byte:
		*dst = append([]byte(nil), raw...)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Kind:       KindDecode,
			Method:     method,
			URL:        resp.Request.URL,
			StatusCode: resp.StatusCode(),
			Body:       raw,
			Err:        err,
		}
	}
	return nil
}

func normalizeConfig(cfg ClientConfig) (ClientConfig, error) {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return ClientConfig{}, fmt.Errorf("base url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return ClientConfig{}, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if len(cfg.Headers) == 0 {
		cfg.Headers = DefaultHeaders()
	} else {
		cfg.Headers = copyHeaders(cfg.Headers)
	}
	cfg.CredentialKey = strings.TrimSpace(cfg.CredentialKey)
	if cfg.CredentialKey == "" {
		cfg.CredentialKey = DefaultCredentialKey
	}
	cfg.AuthScheme = strings.TrimSpace(cfg.AuthScheme)
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	return cfg, nil
}

func copyHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}
