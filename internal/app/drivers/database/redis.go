package database

import (
	"context"
	"fmt"
	"time"

	"konsulin-wallet-service/internal/app/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func NewRedisClient(driverConfig *config.DriverConfig, log *logrus.Logger) (*redis.Client, error) {
	cfg := driverConfig.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	log.WithField("addr", rdb.Options().Addr).Info("Successfully connected to redis")
	return rdb, nil
}
