// Command pagecache fetches pages through a counting, expiring cache.
//
// With URL arguments it fetches each one and prints the content and access
// count. Without arguments it serves the cache over HTTP until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/illmade-knight/go-pagecache/pkg/cache"
	"github.com/illmade-knight/go-pagecache/pkg/httpfetch"
	"github.com/illmade-knight/go-pagecache/pkg/microservice"
	"github.com/illmade-knight/go-pagecache/pkg/pagecache"
	"github.com/rs/zerolog"
)

func main() {
	cfg := loadConfigFromEnv()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", cfg.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], logger); err != nil {
		logger.Error().Err(err).Msg("pagecache failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config, urls []string, logger zerolog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close store.")
		}
	}()

	fetcher := httpfetch.NewHTTPFetcher(httpfetch.NewDefaultConfig(), nil, logger)
	pc, err := pagecache.New(pagecache.LoadConfigFromEnv(), store, fetcher, logger)
	if err != nil {
		return err
	}

	if len(urls) > 0 {
		for _, u := range urls {
			content, err := pc.Fetch(ctx, u)
			if err != nil {
				return err
			}
			n, err := pc.Count(ctx, u)
			if err != nil {
				return err
			}
			fmt.Println(content)
			fmt.Printf("Access count for %s: %d\n", u, n)
		}
		return nil
	}

	server := microservice.NewPageServer(pc, cfg.HTTPPort, logger)
	if err := server.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// config is the process configuration, read from the environment.
type config struct {
	microservice.BaseConfig
	StoreBackend string
	Redis        cache.RedisConfig
	Firestore    cache.FirestoreConfig
	Bolt         cache.BoltConfig
}

func loadConfigFromEnv() *config {
	cfg := &config{
		BaseConfig: microservice.BaseConfig{
			LogLevel:    "info",
			HTTPPort:    ":8080",
			ServiceName: "pagecache",
		},
		StoreBackend: "redis",
		Redis:        cache.RedisConfig{Addr: "localhost:6379"},
		Firestore: cache.FirestoreConfig{
			ProjectID:       os.Getenv("GCP_PROJECT_ID"),
			CollectionName:  "pagecache",
			CredentialsFile: os.Getenv("GCP_CREDENTIALS_FILE"),
		},
		Bolt: cache.BoltConfig{Path: "pagecache.db"},
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		cfg.HTTPPort = v
	}
	if v := os.Getenv("PAGECACHE_STORE"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("FIRESTORE_COLLECTION"); v != "" {
		cfg.Firestore.CollectionName = v
	}
	if v := os.Getenv("BOLT_PATH"); v != "" {
		cfg.Bolt.Path = v
	}
	return cfg
}

func openStore(ctx context.Context, cfg *config, logger zerolog.Logger) (cache.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		return cache.NewRedisStore(ctx, &cfg.Redis, logger)
	case "firestore":
		if cfg.Firestore.ProjectID == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID environment variable not set")
		}
		client, err := cache.NewProductionFirestoreClient(ctx, &cfg.Firestore, logger)
		if err != nil {
			return nil, err
		}
		store, err := cache.NewFirestoreStore(&cfg.Firestore, client, logger)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &ownedFirestoreStore{FirestoreStore: store, closeClient: client.Close}, nil
	case "bolt":
		return cache.NewBoltStore(&cfg.Bolt, logger)
	case "memory":
		return cache.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// ownedFirestoreStore closes the client this process created for the store.
type ownedFirestoreStore struct {
	*cache.FirestoreStore
	closeClient func() error
}

func (s *ownedFirestoreStore) Close() error {
	return s.closeClient()
}
