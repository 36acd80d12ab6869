package config

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-chi/chi/v5"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Bootstrap holds the long lived resources of a running service. Drivers
// that were not started are left nil.
type Bootstrap struct {
	Router         *chi.Mux
	Postgres       *sql.DB
	MongoDB        *mongo.Client
	Redis          *redis.Client
	RabbitMQ       *amqp091.Connection
	Logger         *zap.Logger
	BootLogger     *logrus.Logger
	InternalConfig *InternalConfig
	DriverConfig   *DriverConfig
	// WorkerStop if set will be called during Shutdown to gracefully stop background workers
	WorkerStop func()
}

// Shutdown stops the workers first, then closes every started driver. It
// keeps going after a failure and returns all errors joined.
func (b *Bootstrap) Shutdown(ctx context.Context) error {
	var errs []error
	log := b.BootLogger
	if log == nil {
		log = logrus.StandardLogger()
	}

	if b.WorkerStop != nil {
		b.WorkerStop()
		log.Info("Successfully stopped background workers")
	}

	if b.RabbitMQ != nil {
		if err := b.RabbitMQ.Close(); err != nil && !errors.Is(err, amqp091.ErrClosed) {
			errs = append(errs, err)
		} else {
			log.Info("Successfully closing RabbitMQ")
		}
	}

	if b.MongoDB != nil {
		if err := b.MongoDB.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("Successfully closing MongoDB")
		}
	}

	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("Successfully closing Redis")
		}
	}

	if b.Postgres != nil {
		if err := b.Postgres.Close(); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("Successfully closing Postgres")
		}
	}

	if b.Logger != nil {
		// Sync on stdout returns EINVAL on some platforms.
		_ = b.Logger.Sync()
	}

	return errors.Join(errs...)
}
