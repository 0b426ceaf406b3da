// Package homeassistant polls the Home Assistant REST API and exposes its
// write commands (service calls, button presses, camera snapshots).
package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/observability"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

const serviceName = "Home Assistant"

// Client talks to one Home Assistant instance. Credentials are read from
// the store.Source on every request so edits apply without a rebuild.
type Client struct {
	cfg     store.Source
	clients *source.Clients
	limiter *rate.Limiter
}

// NewClient returns a client. Service calls are limited to callsPerSecond
// with a burst of the same size.
func NewClient(cfg store.Source, clients *source.Clients, callsPerSecond float64) *Client {
	if callsPerSecond <= 0 {
		callsPerSecond = 5
	}
	burst := int(callsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		cfg:     cfg,
		clients: clients,
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), burst),
	}
}

type target struct {
	base   string
	auth   auth.Authenticator
	client *http.Client
}

func (c *Client) target() (target, error) {
	cfg := c.cfg.Current()
	ha := cfg.HomeAssistant
	if ha == nil || ha.URL == "" {
		return target{}, errors.NewNotConfigured(serviceName)
	}
	return target{base: ha.URL, auth: auth.Bearer(ha.Token), client: c.clients.For(cfg.AllowInsecureCerts)}, nil
}

type rawEntity struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
}

// States fetches the full entity list. Items that fail to decode or lack
// an entity id are dropped.
func (c *Client) States(ctx context.Context) ([]source.Entity, error) {
	t, err := c.target()
	if err != nil {
		return nil, err
	}
	endpoint, err := source.Endpoint(t.base, "api/states", nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Home Assistant URL is invalid", "")
	}

	var items []json.RawMessage
	if err := source.GetJSON(ctx, t.client, source.Request{
		Service: serviceName,
		URL:     endpoint,
		Auth:    t.auth,
	}, "entity states", &items); err != nil {
		return nil, err
	}

	return decodeEntities(items), nil
}

func decodeEntities(items []json.RawMessage) []source.Entity {
	out := make([]source.Entity, 0, len(items))
	for _, item := range items {
		var raw rawEntity
		if err := json.Unmarshal(item, &raw); err != nil || raw.EntityID == "" {
			continue
		}
		if raw.Attributes == nil {
			raw.Attributes = map[string]interface{}{}
		}
		out = append(out, source.Entity{
			ID:          raw.EntityID,
			Domain:      source.DomainOf(raw.EntityID),
			State:       raw.State,
			Attributes:  raw.Attributes,
			LastChanged: raw.LastChanged,
			LastUpdated: raw.LastUpdated,
		})
	}
	return out
}

// CallService invokes POST /api/services/{domain}/{service} for entityID.
func (c *Client) CallService(ctx context.Context, domain, service, entityID string) error {
	t, err := c.target()
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Transport(serviceName, err)
	}
	endpoint, err := source.Endpoint(t.base, fmt.Sprintf("api/services/%s/%s", domain, service), nil)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Home Assistant URL is invalid", "")
	}

	_, err = source.Do(ctx, t.client, source.Request{
		Service: serviceName,
		Method:  http.MethodPost,
		URL:     endpoint,
		Auth:    t.auth,
		Body:    map[string]string{"entity_id": entityID},
	})
	observability.ServiceCalls.WithLabelValues(domain+"."+service, observability.ResultOf(err)).Inc()
	return err
}

// CameraImage fetches the current frame of a camera entity.
func (c *Client) CameraImage(ctx context.Context, entityID string) ([]byte, string, error) {
	t, err := c.target()
	if err != nil {
		return nil, "", err
	}
	endpoint, err := source.Endpoint(t.base, "api/camera_proxy/"+entityID, nil)
	if err != nil {
		return nil, "", errors.WrapWithCode(err, errors.ErrConfig, "Home Assistant URL is invalid", "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, "", errors.Transport(serviceName, err)
	}
	if err := t.auth.Authorize(ctx, req); err != nil {
		return nil, "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, "", errors.Transport(serviceName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.NewHTTPStatus(serviceName, resp.StatusCode, endpoint)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", errors.Transport(serviceName, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// BaseURL returns the configured base URL, or "" when unconfigured.
func (c *Client) BaseURL() string {
	if ha := c.cfg.Current().HomeAssistant; ha != nil {
		return ha.URL
	}
	return ""
}
