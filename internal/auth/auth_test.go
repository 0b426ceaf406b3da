package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return req
}

func TestStaticAuthenticators(t *testing.T) {
	ctx := context.Background()

	req := newRequest(t, "http://ha/api/states")
	require.NoError(t, Bearer("abc").Authorize(ctx, req))
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))

	req = newRequest(t, "http://sonarr/api/v3/calendar")
	require.NoError(t, APIKey("X-Api-Key", "k").Authorize(ctx, req))
	assert.Equal(t, "k", req.Header.Get("X-Api-Key"))

	req = newRequest(t, "https://pve:8006/api2/json/cluster/resources")
	require.NoError(t, ProxmoxToken("root@pam!homestats", "uuid-secret").Authorize(ctx, req))
	assert.Equal(t, "PVEAPIToken=root@pam!homestats=uuid-secret", req.Header.Get("Authorization"))
}

func TestQueryAndChain(t *testing.T) {
	req := newRequest(t, "http://radarr/api/v3/movie?x=1")
	chain := Chain{APIKey("X-Api-Key", "k"), Query{Param: "apikey", Value: "k"}}
	require.NoError(t, chain.Authorize(context.Background(), req))

	assert.Equal(t, "k", req.Header.Get("X-Api-Key"))
	assert.Equal(t, "k", req.URL.Query().Get("apikey"))
	assert.Equal(t, "1", req.URL.Query().Get("x"))
}

func TestNone(t *testing.T) {
	req := newRequest(t, "http://pihole/api/auth")
	require.NoError(t, None{}.Authorize(context.Background(), req))
	assert.Empty(t, req.Header)
	assert.Empty(t, req.URL.RawQuery)
}
