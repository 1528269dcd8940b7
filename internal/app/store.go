package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suPer8Hu/attackforge/internal/config"
	"github.com/suPer8Hu/attackforge/internal/db"
	"github.com/suPer8Hu/attackforge/internal/secret"
	"github.com/suPer8Hu/attackforge/internal/session"
	"github.com/suPer8Hu/attackforge/internal/store/redisstore"
)

// OpenStore builds the session store from cfg: the file or SQL backend,
// optionally sealing api keys and fronted by a Redis read cache. The
// returned func releases whatever was opened.
func OpenStore(ctx context.Context, cfg config.Config, log *slog.Logger) (session.Store, func(), error) {
	opts := []session.Option{session.WithLogger(log)}
	if cfg.SecretKey != "" {
		sealer, err := secret.NewSealer(cfg.SecretKey)
		if err != nil {
			return nil, nil, fmt.Errorf("secret key: %w", err)
		}
		opts = append(opts, session.WithSealer(sealer))
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store session.Store
	switch cfg.StoreDriver {
	case "sqlite", "mysql":
		gdb, err := db.Connect(cfg.StoreDriver, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		sqlStore := session.NewSQLStore(gdb, opts...)
		if err := sqlStore.Migrate(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		store = sqlStore
	default:
		store = session.NewFileStore(cfg.SessionsFile, opts...)
	}

	if cfg.RedisAddr != "" {
		rdb := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			closeAll()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		store = session.NewCachedStore(store, rdb, cfg.RedisCacheTTL, opts...)
		log.Info("session cache enabled", "redis", cfg.RedisAddr, "ttl", cfg.RedisCacheTTL)
	}

	return store, closeAll, nil
}
