package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"time"

	hserrors "github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/observability"
)

// SyncState is the coarse replica sync state.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncSynced  SyncState = "synced"
	SyncError   SyncState = "error"
)

// SyncStatus is the replica sync state plus the error message when State
// is SyncError.
type SyncStatus struct {
	State   SyncState `json:"state"`
	Message string    `json:"message,omitempty"`
}

func (s SyncStatus) String() string {
	if s.State == SyncError {
		return fmt.Sprintf("error(%s)", s.Message)
	}
	return string(s.State)
}

// Manager owns the single authoritative in-memory Config of the process.
// Reads return copies; every write goes memory, then local, then replica.
type Manager struct {
	// writeMu is held from the memory swap through the replica save.
	writeMu sync.Mutex

	mu       sync.RWMutex
	cfg      Config
	status   SyncStatus
	lastSync time.Time

	local   *LocalStore
	replica Replica
	log     logger.Logger
	now     func() time.Time

	// client overrides the connection-test HTTP client.
	client *http.Client

	subMu  sync.Mutex
	subs   map[int]chan Config
	nextID int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHTTPClient overrides the client used by TestConnection.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// NewManager loads the config from local storage, falling back to the
// replica and then to Empty. A nil replica keeps the config local only.
func NewManager(ctx context.Context, local *LocalStore, replica Replica, opts ...Option) *Manager {
	m := &Manager{
		local:   local,
		replica: replica,
		log:     logger.Noop(),
		now:     time.Now,
		status:  SyncStatus{State: SyncIdle},
		subs:    make(map[int]chan Config),
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg, ok := m.loadLocal(); ok {
		m.cfg = cfg
	} else if cfg, ok := m.loadReplica(ctx); ok {
		m.cfg = cfg
	} else {
		m.cfg = Empty()
	}
	return m
}

// Current returns a copy of the config. It has no side effects.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Clone()
}

// IsConfigured reports whether s has a config block.
func (m *Manager) IsConfigured(s ServiceType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.IsConfigured(s)
}

// Status returns the replica sync status.
func (m *Manager) Status() SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LastSync returns when the replica was last written or read successfully.
func (m *Manager) LastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// Set replaces the config and writes it through to local storage and the
// replica. An unchanged config is not rewritten. A replica failure leaves
// the local copy authoritative and is reported as an ErrSync error.
func (m *Manager) Set(ctx context.Context, cfg Config) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.set(ctx, cfg)
}

// Update applies fn to a copy of the current config and Sets the result.
// No other write can interleave between the read and the write.
func (m *Manager) Update(ctx context.Context, fn func(*Config)) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	cfg := m.Current()
	fn(&cfg)
	return m.set(ctx, cfg)
}

func (m *Manager) set(ctx context.Context, cfg Config) error {
	cfg = cfg.Clone()
	if cfg.Printers == nil {
		cfg.Printers = []PrinterConfig{}
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return hserrors.WrapWithCode(err, hserrors.ErrConfig, "Failed to encode config", "")
	}

	m.mu.Lock()
	if reflect.DeepEqual(m.cfg, cfg) {
		m.mu.Unlock()
		return nil
	}
	m.cfg = cfg
	m.mu.Unlock()

	if err := m.local.Save(data); err != nil {
		return hserrors.WrapWithCode(err, hserrors.ErrConfig,
			"Failed to save config locally",
			"Check permissions on "+m.local.Path())
	}
	m.notify(cfg)

	return m.saveReplica(ctx, data)
}

// Refresh force-pulls the replica. If it holds a valid document it
// overwrites memory and the local copy.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.replica == nil {
		return nil
	}

	m.setStatus(SyncStatus{State: SyncSyncing})
	data, err := m.replica.Load(ctx)
	observability.ConfigSyncs.WithLabelValues("load", observability.ResultOf(err)).Inc()
	if err != nil {
		m.setStatus(SyncStatus{State: SyncError, Message: err.Error()})
		return hserrors.WrapWithCode(err, hserrors.ErrSync, "Failed to read config replica", "Check the replica settings in .homestats.yaml")
	}

	cfg, ok := m.decode(data, "replica")
	if !ok {
		m.setStatus(SyncStatus{State: SyncIdle})
		return nil
	}

	m.apply(cfg, data)
	return nil
}

// HandleRemoteChange applies the conflict policy for an external change:
// the remote copy replaces memory and local unconditionally.
func (m *Manager) HandleRemoteChange(ctx context.Context, reason ChangeReason) {
	observability.ConfigSyncs.WithLabelValues("remote_"+reason.String(), observability.ResultOK).Inc()
	switch reason {
	case ReasonServerChange, ReasonInitialSync:
		if m.replica == nil {
			return
		}
		data, err := m.replica.Load(ctx)
		if err != nil {
			m.log.Warn("replica load after %s failed: %v", reason, err)
			return
		}
		if cfg, ok := m.decode(data, "replica"); ok {
			m.apply(cfg, data)
		}
	case ReasonQuotaViolation:
		m.setStatus(SyncStatus{State: SyncError, Message: ErrQuotaExceeded.Error()})
	case ReasonAccountChange:
		if err := m.Refresh(ctx); err != nil {
			m.log.Warn("refresh after account change failed: %v", hserrors.Summary(err))
		}
	}
}

// Watch subscribes to replica changes until ctx is done. A dropped watch is
// re-established after retryDelay.
func (m *Manager) Watch(ctx context.Context, retryDelay time.Duration) {
	if m.replica == nil {
		return
	}
	for {
		err := m.replica.Watch(ctx, func(reason ChangeReason) {
			m.HandleRemoteChange(ctx, reason)
		})
		if ctx.Err() != nil {
			return
		}
		m.log.Warn("replica watch ended: %v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// Subscribe returns a channel receiving every new config. The channel holds
// only the latest value; call cancel to release it.
func (m *Manager) Subscribe() (<-chan Config, func()) {
	ch := make(chan Config, 1)
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

func (m *Manager) notify(cfg Config) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cfg.Clone()
	}
}

func (m *Manager) apply(cfg Config, data []byte) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	changed := !reflect.DeepEqual(m.cfg, cfg)
	m.cfg = cfg
	m.lastSync = m.now()
	m.status = SyncStatus{State: SyncSynced}
	m.mu.Unlock()

	if err := m.local.Save(data); err != nil {
		m.log.Error("save local config: %v", err)
	}
	if changed {
		m.notify(cfg)
	}
}

func (m *Manager) saveReplica(ctx context.Context, data []byte) error {
	if m.replica == nil {
		return nil
	}

	m.setStatus(SyncStatus{State: SyncSyncing})
	err := m.replica.Save(ctx, data)
	observability.ConfigSyncs.WithLabelValues("save", observability.ResultOf(err)).Inc()
	if err != nil {
		m.setStatus(SyncStatus{State: SyncError, Message: err.Error()})
		suggestion := "The local copy was saved; retry with 'homestats sync push'"
		if errors.Is(err, ErrQuotaExceeded) {
			suggestion = "Remove printers or unused services to shrink the config"
		}
		return hserrors.WrapWithCode(err, hserrors.ErrSync, "Failed to replicate config", suggestion)
	}

	m.mu.Lock()
	m.lastSync = m.now()
	m.status = SyncStatus{State: SyncSynced}
	m.mu.Unlock()
	return nil
}

// Push rewrites the replica from the current config.
func (m *Manager) Push(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	data, err := json.Marshal(m.Current())
	if err != nil {
		return hserrors.WrapWithCode(err, hserrors.ErrConfig, "Failed to encode config", "")
	}
	return m.saveReplica(ctx, data)
}

func (m *Manager) setStatus(s SyncStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *Manager) loadLocal() (Config, bool) {
	data, err := m.local.Load()
	if err != nil {
		m.log.Warn("local config unreadable, ignoring: %v", err)
		return Config{}, false
	}
	return m.decode(data, "local")
}

func (m *Manager) loadReplica(ctx context.Context) (Config, bool) {
	if m.replica == nil {
		return Config{}, false
	}
	data, err := m.replica.Load(ctx)
	if err != nil {
		m.log.Warn("replica unreachable at startup: %v", err)
		return Config{}, false
	}
	cfg, ok := m.decode(data, "replica")
	if ok {
		if err := m.local.Save(data); err != nil {
			m.log.Warn("save local config: %v", err)
		}
	}
	return cfg, ok
}

// decode treats an empty or malformed document as absent.
func (m *Manager) decode(data []byte, where string) (Config, bool) {
	if len(data) == 0 {
		return Config{}, false
	}
	cfg := Empty()
	if err := json.Unmarshal(data, &cfg); err != nil {
		m.log.Warn("%s config is not valid, treating as absent: %v", where, err)
		return Config{}, false
	}
	if cfg.Printers == nil {
		cfg.Printers = []PrinterConfig{}
	}
	if cfg.AppMode == "" {
		cfg.AppMode = AppModeSimple
	}
	return cfg, true
}
