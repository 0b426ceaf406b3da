package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

// flag decodes a JSON bool or its string spelling.
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = false
		return nil
	}
	*f = flag(strings.EqualFold(s, "true") || s == "1")
	return nil
}

type sabResponse struct {
	Queue *struct {
		Speed      *string           `json:"speed"`
		SizeLeft   *string           `json:"sizeleft"`
		ETA        string            `json:"eta"`
		Paused     flag              `json:"paused"`
		SlotsTotal source.Number     `json:"noofslots_total"`
		Slots      []json.RawMessage `json:"slots"`
	} `json:"queue"`
}

type sabSlot struct {
	ID         *string       `json:"nzo_id"`
	Filename   *string       `json:"filename"`
	Status     string        `json:"status"`
	Percentage source.Number `json:"percentage"`
	SizeLeft   string        `json:"sizeleft"`
	TimeLeft   string        `json:"timeleft"`
}

func fetchSABnzbd(ctx context.Context, sc *store.ServiceConfig, f fetcher) (*Queue, error) {
	endpoint, err := source.Endpoint(sc.URL, "api", url.Values{
		"mode":   {"queue"},
		"output": {"json"},
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "SABnzbd URL is invalid", "")
	}

	var resp sabResponse
	if err := f.get(ctx, source.Request{
		Service: string(store.SABnzbd),
		URL:     endpoint,
		Auth:    auth.Query{Param: "apikey", Value: sc.APIKey},
	}, "SABnzbd queue", &resp); err != nil {
		return nil, err
	}
	if resp.Queue == nil {
		return nil, errors.Decode("SABnzbd queue", fmt.Errorf("response has no queue object"))
	}

	q := resp.Queue
	out := &Queue{
		Speed:      "0",
		SizeLeft:   "0 B",
		ETA:        q.ETA,
		Paused:     bool(q.Paused),
		QueueCount: q.SlotsTotal.Int(),
		Slots:      []Download{},
	}
	if q.Speed != nil {
		out.Speed = *q.Speed
	}
	if q.SizeLeft != nil {
		out.SizeLeft = *q.SizeLeft
	}

	slots := q.Slots
	if len(slots) > QueueSlotLimit {
		slots = slots[:QueueSlotLimit]
	}
	for _, raw := range slots {
		var s sabSlot
		if err := json.Unmarshal(raw, &s); err != nil || s.ID == nil || s.Filename == nil {
			continue
		}
		out.Slots = append(out.Slots, Download{
			ID:       *s.ID,
			Name:     *s.Filename,
			Status:   s.Status,
			Progress: s.Percentage.Float() / 100,
			SizeLeft: s.SizeLeft,
			ETA:      s.TimeLeft,
		})
	}
	return out, nil
}
