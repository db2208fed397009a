package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mantrasdk "mantra-sdk"
	"mantra-sdk/internal/cache"
	"mantra-sdk/internal/config"
	"mantra-sdk/internal/events"
	"mantra-sdk/internal/mcp"
	"mantra-sdk/internal/protocols/evm"
	"mantra-sdk/internal/storage"
	"mantra-sdk/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("mantra-mcpd: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to the YAML configuration file")
	network := flag.String("network", "", "override the active network")
	transport := flag.String("transport", "", "override the tool transport: stdio or http")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *network != "" {
		cfg.Network = *network
	}
	if *transport != "" {
		cfg.MCP.Transport = *transport
	}

	if err := logger.Init(loggerConfig(cfg.Log)); err != nil {
		return err
	}
	defer logger.Sync()

	publisher, err := createPublisher(cfg.MCP.Events)
	if err != nil {
		return err
	}

	sdk, err := mantrasdk.NewBuilder().
		WithConfig(cfg).
		WithPublisher(publisher).
		Build(ctx)
	if err != nil {
		return err
	}
	defer sdk.Close()

	responseCache, err := createCache(ctx, cfg.MCP.Cache)
	if err != nil {
		return err
	}

	tokenStore, err := createTokenStore(ctx, cfg.MCP.TokenStore)
	if err != nil {
		return err
	}
	var erc20 *evm.ERC20
	if evmClient, err := sdk.EVM(); err == nil {
		if erc20, err = evm.NewERC20(evmClient); err != nil {
			return err
		}
	}

	adapter := mcp.NewAdapter(sdk,
		mcp.WithCache(responseCache, time.Duration(cfg.MCP.Cache.TTLSeconds)*time.Second),
		mcp.WithTokenRegistry(mcp.NewTokenRegistry(tokenStore, erc20)),
	)
	defer adapter.Close()

	return mcp.NewServer(adapter, cfg.MCP).Run(ctx)
}

func loggerConfig(cfg config.LogConfig) logger.Config {
	out := logger.Config{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
	}
	if cfg.AuditPath != "" {
		out.Audit = logger.AuditConfig{Enabled: true, Path: cfg.AuditPath}
	}
	return out
}

func createPublisher(cfg config.EventsConfig) (events.Publisher, error) {
	switch cfg.Driver {
	case "", "noop":
		return events.NewNoop(), nil
	case "memory":
		return events.NewMemory(0), nil
	case "rabbitmq":
		return events.NewRabbitMQ(events.RabbitMQConfig{
			URL:        cfg.RabbitMQ.URL,
			Queue:      cfg.RabbitMQ.Queue,
			Durable:    cfg.RabbitMQ.Durable,
			AutoDelete: cfg.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("unknown events driver: %s", cfg.Driver)
	}
}

func createCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return cache.NewMemory(), nil
	case "redis":
		return cache.NewRedis(ctx, cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
	}
}

func createTokenStore(ctx context.Context, cfg config.TokenStoreConfig) (storage.TokenStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return storage.NewMemoryTokenStore(), nil
	case "mysql":
		return storage.NewMySQLTokenStore(ctx, storage.MySQLConfig{DSN: cfg.DSN})
	default:
		return nil, fmt.Errorf("unknown token store driver: %s", cfg.Driver)
	}
}
