package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/basket"
	"MiniShop/internal/catalog"
	"MiniShop/internal/filter"
	"MiniShop/internal/kv"
	"MiniShop/internal/productcache"
	"MiniShop/internal/session"
	"MiniShop/internal/shop"
	"MiniShop/internal/user"
	"MiniShop/pkg/kit"
)

func main() {
	log := kit.NewLogger("shop")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	var (
		store kv.Store
		f     filter.Filter
	)
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb, err := kv.NewRedis(kv.RedisConfig{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		})
		if err != nil {
			log.Fatal("redis connect failed", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()

		cuckoo, err := filter.NewCuckoo(ctx, rdb.Client(), getenv("USERNAME_FILTER", "usernames"))
		if err != nil {
			log.Fatal("cuckoo filter reserve failed", zap.Error(err))
		}
		store, f = rdb, cuckoo
	} else {
		log.Info("REDIS_ADDR not set, running on the in-memory store")
		store, f = kv.NewMem(), filter.NewMem()
	}

	var cat catalog.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := catalog.OpenPostgres(dsn)
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		cat = catalog.NewPostgresStore(db)
	} else {
		log.Info("DATABASE_URL not set, using the seeded demo catalog")
		cat = catalog.NewSeededMemStore()
	}

	reg := prometheus.NewRegistry()
	metrics := kit.NewMetrics(reg)

	if addr := os.Getenv("OPS_ADDR"); addr != "" {
		ready := func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			return cat.Ping(ctx)
		}
		stop := kit.StartOps(addr, reg, os.Getenv("METRICS_TOKEN"), ready, log)
		defer stop()
	}

	baskets := basket.NewStore(store)
	sessionTTL := time.Duration(getenvInt("SESSION_TTL", 360)) * time.Second
	cacheTTL := time.Duration(getenvInt("CACHE_TTL", 60)) * time.Second

	s := shop.New(shop.Shop{
		Log:      log,
		Users:    user.NewStore(store, f, baskets),
		Sessions: session.NewManager(store, sessionTTL, metrics),
		Baskets:  baskets,
		Cache:    productcache.New(store, cat, cacheTTL, log, metrics),
		Catalog:  cat,
	}, os.Stdin, os.Stdout)

	if err := s.Run(ctx); err != nil {
		log.Fatal("shop stopped", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
