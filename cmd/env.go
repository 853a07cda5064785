package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/branch-risk/internal/config"
	"github.com/sells-group/branch-risk/internal/notify"
	"github.com/sells-group/branch-risk/internal/store"
)

// broker carries change events between the store and watchers.
type broker interface {
	notify.Publisher
	notify.Subscriber
	Close() error
}

// initStore opens the configured store and applies migrations.
func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Driver {
	case "sqlite":
		dsn := c.DatabaseURL
		if dsn == "" {
			dsn = "branch-risk.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.DatabaseURL, &store.PoolConfig{
			MaxConns: c.MaxConns,
			MinConns: c.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// initBroker connects the configured notification transport.
func initBroker(ctx context.Context, c config.NotifyConfig) (broker, error) {
	switch c.Driver {
	case "", "memory":
		return notify.NewHub(0), nil
	case "redis":
		return notify.NewRedis(ctx, notify.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Channel:  c.Channel,
		})
	default:
		return nil, eris.Errorf("unsupported notify driver: %s", c.Driver)
	}
}

// withAnnouncer wraps st so that writes reach other processes when
// notifications travel over Redis. An in-memory hub has no listeners
// outside this process, so st is returned unchanged.
func withAnnouncer(ctx context.Context, st store.Store, c config.NotifyConfig) (store.Store, func(), error) {
	if c.Driver != "redis" {
		return st, func() {}, nil
	}
	br, err := initBroker(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	return store.Notifying(st, br), func() { br.Close() }, nil //nolint:errcheck
}
