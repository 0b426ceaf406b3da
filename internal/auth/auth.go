// Package auth attaches credentials to outbound requests: fixed headers or
// query parameters for static credentials, and renewable sessions obtained
// through a login exchange.
package auth

import (
	"context"
	"net/http"
)

// Authenticator decorates a request with its credential.
type Authenticator interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// Static attaches a fixed header to every request.
type Static struct {
	Header string
	Value  string
}

// Authorize implements Authenticator.
func (s Static) Authorize(_ context.Context, req *http.Request) error {
	req.Header.Set(s.Header, s.Value)
	return nil
}

// Bearer returns an Authorization: Bearer authenticator.
func Bearer(token string) Static {
	return Static{Header: "Authorization", Value: "Bearer " + token}
}

// APIKey returns an authenticator for a header-carried API key, such as
// X-Api-Key or X-Plex-Token.
func APIKey(header, key string) Static {
	return Static{Header: header, Value: key}
}

// ProxmoxToken returns the PVEAPIToken authorization used by Proxmox VE.
func ProxmoxToken(tokenID, secret string) Static {
	return Static{Header: "Authorization", Value: "PVEAPIToken=" + tokenID + "=" + secret}
}

// Query adds a fixed query parameter to every request.
type Query struct {
	Param string
	Value string
}

// Authorize implements Authenticator.
func (q Query) Authorize(_ context.Context, req *http.Request) error {
	v := req.URL.Query()
	v.Set(q.Param, q.Value)
	req.URL.RawQuery = v.Encode()
	return nil
}

// Chain applies several authenticators in order.
type Chain []Authenticator

// Authorize implements Authenticator.
func (c Chain) Authorize(ctx context.Context, req *http.Request) error {
	for _, a := range c {
		if err := a.Authorize(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// None leaves requests untouched.
type None struct{}

// Authorize implements Authenticator.
func (None) Authorize(context.Context, *http.Request) error { return nil }
