package app

import (
	"context"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/store"
)

// OpenLocal returns the local config copy under the state directory,
// sealed when a key file is configured.
func OpenLocal(settings *config.Config) (*store.LocalStore, error) {
	dir, err := config.ResolveStateDir(settings)
	if err != nil {
		return nil, err
	}
	local := store.NewLocalStore(dir)
	if settings.Store.KeyFile == "" {
		return local, nil
	}
	key, err := store.ReadKeyFile(settings.Store.KeyFile)
	if err != nil {
		return nil, err
	}
	return local.WithKey(key)
}

// OpenReplica connects to the configured replica. It returns a nil Replica
// for the "none" backend.
func OpenReplica(ctx context.Context, r config.ReplicaConfig) (store.Replica, error) {
	switch r.Backend {
	case "", config.ReplicaNone:
		return nil, nil
	case config.ReplicaRedis:
		replica, err := store.NewRedisReplica(ctx, r.Addr, r.Password, r.DB, r.Key)
		if err != nil {
			return nil, err
		}
		return replica, nil
	case config.ReplicaPostgres:
		replica, err := store.NewPostgresReplica(ctx, r.DSN, r.Key)
		if err != nil {
			return nil, err
		}
		return replica, nil
	}
	return nil, errors.New(errors.ErrConfig,
		"Unknown replica backend '"+r.Backend+"'",
		"Use one of: none, redis, postgres")
}
