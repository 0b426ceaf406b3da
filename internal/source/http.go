package source

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
)

// DefaultTimeout bounds every outbound request unless overridden.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 16 << 20

// ClientOptions configures NewHTTPClient.
type ClientOptions struct {
	Timeout time.Duration
	// Insecure disables TLS certificate verification. Only set it for
	// hosts the user has explicitly chosen to trust (self-signed Proxmox,
	// or allowInsecureCerts).
	Insecure bool
}

// NewHTTPClient returns a client with a bounded timeout.
func NewHTTPClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // user opted in to self-signed certificates
		}
	}
	return &http.Client{Timeout: opts.Timeout, Transport: transport}
}

// Endpoint builds an absolute URL from a base URL, a path and a query.
// The base may carry a path prefix; a trailing slash is tolerated.
func Endpoint(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// Request describes one outbound call.
type Request struct {
	Service string
	Method  string
	URL     string
	Header  http.Header
	Auth    auth.Authenticator
	Body    interface{}
}

// Do issues r and returns the response body. Transport failures, non-2xx
// statuses and oversized bodies map onto the error taxonomy.
func Do(ctx context.Context, client *http.Client, r Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	body := io.Reader(http.NoBody)
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrDecode, "failed to encode request body", "")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, errors.Transport(r.Service, err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Auth != nil {
		if err := r.Auth.Authorize(ctx, req); err != nil {
			return nil, err
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Transport(r.Service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, errors.NewHTTPStatus(r.Service, resp.StatusCode, redact(r.URL))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Transport(r.Service, err)
	}
	return data, nil
}

// GetJSON issues r and decodes the body into out.
func GetJSON(ctx context.Context, client *http.Client, r Request, what string, out interface{}) error {
	data, err := Do(ctx, client, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Decode(what, err)
	}
	return nil
}

// redact strips credentials from a URL before it ends up in an error.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, k := range []string{"apikey", "X-Plex-Token", "token"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	u.User = nil
	return u.String()
}

// Clients hands out one secure and one insecure client, created on first use.
type Clients struct {
	Timeout time.Duration

	mu       sync.Mutex
	secure   *http.Client
	insecure *http.Client
}

// For returns the client matching the trust decision.
func (c *Clients) For(insecure bool) *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if insecure {
		if c.insecure == nil {
			c.insecure = NewHTTPClient(ClientOptions{Timeout: c.Timeout, Insecure: true})
		}
		return c.insecure
	}
	if c.secure == nil {
		c.secure = NewHTTPClient(ClientOptions{Timeout: c.Timeout})
	}
	return c.secure
}

// Fixed returns a Clients that always hands out client. Used by tests to
// route every request through an httptest server's client.
func Fixed(client *http.Client) *Clients {
	return &Clients{secure: client, insecure: client}
}
