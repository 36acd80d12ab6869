package events

import (
	"fmt"
	"strings"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"

	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	SinkRabbitMQ = "rabbitmq"
	SinkMongo    = "mongo"
	SinkRedis    = "redis"
	SinkMemory   = "memory"
)

// Sinks carries the connections a publisher may write to. A nil field means
// the backing driver was not started.
type Sinks struct {
	RabbitMQ *amqp091.Connection
	Mongo    *mongo.Database
	Redis    contracts.RedisRepository
}

// ParseSinks splits the comma separated sink list, dropping blanks and
// duplicates.
func ParseSinks(raw string) []string {
	seen := map[string]bool{}
	var sinks []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sinks = append(sinks, name)
	}
	return sinks
}

// NewPublisherFromConfig fans events out to every sink named in
// Events.Sinks. Naming a sink whose connection is missing is an error.
func NewPublisherFromConfig(cfg *config.InternalConfig, sinks Sinks, logger *zap.Logger) (contracts.EventPublisher, error) {
	var publishers []contracts.EventPublisher
	for _, name := range ParseSinks(cfg.Events.Sinks) {
		switch name {
		case SinkRabbitMQ:
			if sinks.RabbitMQ == nil {
				return nil, fmt.Errorf("events: sink %q configured without a rabbitmq connection", name)
			}
			publisher, err := NewRabbitMQPublisher(sinks.RabbitMQ, cfg.Events.RabbitMQExchange, cfg.Events.RabbitMQQueue, logger)
			if err != nil {
				return nil, err
			}
			publishers = append(publishers, publisher)
		case SinkMongo:
			if sinks.Mongo == nil {
				return nil, fmt.Errorf("events: sink %q configured without a mongo database", name)
			}
			publishers = append(publishers, NewMongoAuditPublisher(sinks.Mongo, cfg.Events.MongoCollection, logger))
		case SinkRedis:
			if sinks.Redis == nil {
				return nil, fmt.Errorf("events: sink %q configured without redis", name)
			}
			publishers = append(publishers, NewRedisPublisher(sinks.Redis, cfg.Events.RedisChannel))
		case SinkMemory:
			publishers = append(publishers, NewMemoryPublisher())
		default:
			return nil, fmt.Errorf("events: unknown sink %q", name)
		}
	}

	logger.Info("events publisher configured", zap.Strings("sinks", ParseSinks(cfg.Events.Sinks)))
	return NewCompositePublisher(logger, publishers...), nil
}
