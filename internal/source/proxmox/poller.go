// Package proxmox polls a Proxmox VE cluster: the guest resource list,
// one node's status, and that node's day of RRD samples.
package proxmox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/observability"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

const serviceName = "Proxmox"

// Poller fetches the three Proxmox endpoints concurrently and publishes
// only when all three succeed.
type Poller struct {
	cfg     store.Source
	clients *source.Clients
	state   *source.State[Snapshot]
	log     logger.Logger
}

// NewPoller returns a Proxmox poller. Proxmox hosts usually carry
// self-signed certificates, so requests always use the insecure client.
func NewPoller(cfg store.Source, clients *source.Clients, log logger.Logger) *Poller {
	if log == nil {
		log = logger.Noop()
	}
	return &Poller{cfg: cfg, clients: clients, state: source.NewState[Snapshot](), log: log}
}

// Name implements source.Poller.
func (p *Poller) Name() string { return "proxmox" }

// State returns the published snapshot.
func (p *Poller) State() *source.State[Snapshot] { return p.state }

type envelope[T any] struct {
	Data T `json:"data"`
}

// Fetch implements source.Poller.
func (p *Poller) Fetch(ctx context.Context) error {
	p.state.SetLoading(true)
	defer p.state.SetLoading(false)

	snap, err := p.fetch(ctx)
	if err != nil {
		p.state.Fail(err)
		return err
	}
	p.state.Publish(snap)
	return nil
}

func (p *Poller) fetch(ctx context.Context) (Snapshot, error) {
	pc := p.cfg.Current().Proxmox
	if pc == nil || pc.URL == "" {
		return Snapshot{}, errors.NewNotConfigured(serviceName)
	}
	node := pc.PrimaryNode()
	if node == "" {
		return Snapshot{}, errors.New(errors.ErrNotConfigured,
			"Proxmox has no node configured",
			"Add a node name to the Proxmox settings")
	}
	token := auth.ProxmoxToken(pc.Username, pc.Password)
	client := p.clients.For(true)

	get := func(ctx context.Context, path string, query url.Values, what string, out interface{}) error {
		endpoint, err := source.Endpoint(pc.URL, path, query)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Proxmox URL is invalid", "")
		}
		err = source.GetJSON(ctx, client, source.Request{Service: serviceName, URL: endpoint, Auth: token}, what, out)
		if err != nil {
			observability.SubFetchErrors.WithLabelValues(p.Name(), what).Inc()
		}
		return err
	}

	var (
		resources envelope[[]json.RawMessage]
		status    envelope[NodeStatus]
		rrd       envelope[[]RRDPoint]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return get(gctx, "api2/json/cluster/resources", nil, "cluster resources", &resources)
	})
	g.Go(func() error {
		return get(gctx, fmt.Sprintf("api2/json/nodes/%s/status", url.PathEscape(node)), nil, "node status", &status)
	})
	g.Go(func() error {
		return get(gctx, fmt.Sprintf("api2/json/nodes/%s/rrddata", url.PathEscape(node)),
			url.Values{"timeframe": {"day"}}, "rrd data", &rrd)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	guests := Guests(decodeResources(resources.Data))
	p.log.Debug("proxmox: %d guests on cluster, %d rrd samples for %s", len(guests), len(rrd.Data), node)
	return Snapshot{Node: node, Resources: guests, Status: status.Data, RRD: rrd.Data}, nil
}

func decodeResources(items []json.RawMessage) []Resource {
	out := make([]Resource, 0, len(items))
	for _, item := range items {
		var r Resource
		if err := json.Unmarshal(item, &r); err != nil || r.Type == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Guests drops nodes and templates and sorts by vmid ascending.
func Guests(all []Resource) []Resource {
	out := make([]Resource, 0, len(all))
	for _, r := range all {
		if r.Kind() == KindNode || r.IsTemplate() {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VMID < out[j].VMID })
	return out
}
