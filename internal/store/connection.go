package store

import (
	"context"
	"net/http"
	"net/url"
	"time"

	hserrors "github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source"
)

// ConnectionTestTimeout bounds each TestConnection request.
const ConnectionTestTimeout = 10 * time.Second

// probe describes the lightweight request used to test one service.
type probe struct {
	path    string
	query   url.Values
	header  http.Header
	minCode int
	maxCode int
	okMsg   string
}

// TestConnection issues one bounded request against a cheap endpoint of s
// and reports whether it answered as expected. Unconfigured services fail
// with ErrNotConfigured without touching the network.
func (m *Manager) TestConnection(ctx context.Context, s ServiceType) (string, error) {
	cfg := m.Current()
	base, p, ok := probeFor(cfg, s)
	if !ok || base == "" {
		return "", hserrors.NewNotConfigured(string(s))
	}

	endpoint, err := source.Endpoint(base, p.path, p.query)
	if err != nil {
		return "", hserrors.WrapWithCode(err, hserrors.ErrConfig,
			string(s)+" URL is invalid", "Use a full URL such as http://192.168.1.10:8123")
	}

	client := m.client
	if client == nil {
		client = source.NewHTTPClient(source.ClientOptions{
			Timeout:  ConnectionTestTimeout,
			Insecure: cfg.AllowInsecureCerts || s == Proxmox,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectionTestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", hserrors.Transport(string(s), err)
	}
	for k, vs := range p.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", hserrors.Transport(string(s), err)
	}
	resp.Body.Close()

	if resp.StatusCode < p.minCode || resp.StatusCode > p.maxCode {
		return "", hserrors.NewHTTPStatus(string(s), resp.StatusCode, endpoint)
	}
	return p.okMsg, nil
}

func probeFor(cfg Config, s ServiceType) (string, probe, bool) {
	ok200 := func(path, msg string) probe {
		return probe{path: path, minCode: 200, maxCode: 200, okMsg: msg, header: http.Header{}}
	}

	switch s {
	case HomeAssistant:
		if cfg.HomeAssistant == nil {
			return "", probe{}, false
		}
		p := ok200("api/", "Connected to Home Assistant")
		p.header.Set("Authorization", "Bearer "+cfg.HomeAssistant.Token)
		return cfg.HomeAssistant.URL, p, true
	case Plex:
		if cfg.Plex == nil {
			return "", probe{}, false
		}
		p := ok200("", "Connected to Plex")
		p.header.Set("X-Plex-Token", cfg.Plex.Token)
		return cfg.Plex.URL, p, true
	case Sonarr, Radarr:
		svc := cfg.Sonarr
		if s == Radarr {
			svc = cfg.Radarr
		}
		if svc == nil {
			return "", probe{}, false
		}
		p := ok200("api/v3/system/status", "Connected to "+string(s))
		p.header.Set("X-Api-Key", svc.APIKey)
		return svc.URL, p, true
	case SABnzbd:
		if cfg.SABnzbd == nil {
			return "", probe{}, false
		}
		p := ok200("api", "Connected to SABnzbd")
		p.query = url.Values{"mode": {"version"}, "output": {"json"}, "apikey": {cfg.SABnzbd.APIKey}}
		return cfg.SABnzbd.URL, p, true
	case Proxmox:
		if cfg.Proxmox == nil {
			return "", probe{}, false
		}
		// Reachability only: credentials may not be known-good yet.
		p := ok200("api2/json/version", "Proxmox server reachable")
		p.maxCode = 401
		return cfg.Proxmox.URL, p, true
	case Pihole:
		if cfg.Pihole == nil {
			return "", probe{}, false
		}
		return cfg.Pihole.URL, ok200("admin/api.php", "Connected to Pi-hole"), true
	}
	return "", probe{}, false
}
