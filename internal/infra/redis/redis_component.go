package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

// RedisComponent holds the client used for cross-process run locks.
type RedisComponent struct {
	*core.BaseComponent
	cfg    *Config
	client *redis.Client
}

func NewRedisComponent(cfg *Config) *RedisComponent {
	return &RedisComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_REDIS, consts.COMPONENT_LOGGING),
		cfg:           cfg,
	}
}

// Start fails when the server does not answer PING: a daemon that cannot
// lock must not run families concurrently with another host.
func (rc *RedisComponent) Start(ctx context.Context) error {
	if err := rc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if rc.cfg == nil {
		return errors.New("redis config nil")
	}
	rc.cfg.applyDefaults()

	rc.client = redis.NewClient(&redis.Options{
		Addr:         rc.cfg.Addr,
		Username:     rc.cfg.Username,
		Password:     rc.cfg.Password,
		DB:           rc.cfg.DB,
		PoolSize:     rc.cfg.PoolSize,
		DialTimeout:  rc.cfg.DialTimeout,
		ReadTimeout:  rc.cfg.OpTimeout,
		WriteTimeout: rc.cfg.OpTimeout,
	})
	if err := rc.ping(ctx); err != nil {
		_ = rc.client.Close()
		rc.client = nil
		return fmt.Errorf("redis %s: %w", rc.cfg.Addr, err)
	}
	logging.Info(ctx, "redis component started", zap.String("addr", rc.cfg.Addr), zap.Int("db", rc.cfg.DB))
	return nil
}

func (rc *RedisComponent) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, rc.cfg.DialTimeout)
	defer cancel()
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisComponent) Stop(ctx context.Context) error {
	defer func() { _ = rc.BaseComponent.Stop(ctx) }()
	if rc.client == nil {
		return nil
	}
	err := rc.client.Close()
	rc.client = nil
	logging.Info(ctx, "redis component stopped")
	return err
}

func (rc *RedisComponent) HealthCheck() error {
	if err := rc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if rc.client == nil {
		return errors.New("redis client nil")
	}
	return rc.ping(context.Background())
}

// Client is nil until Start succeeds.
func (rc *RedisComponent) Client() redis.UniversalClient {
	if rc.client == nil {
		return nil
	}
	return rc.client
}
