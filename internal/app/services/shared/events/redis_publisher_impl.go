package events

import (
	"context"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/exceptions"
)

type redisPublisher struct {
	redisRepo contracts.RedisRepository
	channel   string
}

func NewRedisPublisher(redisRepo contracts.RedisRepository, channel string) contracts.EventPublisher {
	return &redisPublisher{redisRepo: redisRepo, channel: channel}
}

func (p *redisPublisher) Publish(ctx context.Context, events ...models.Event) error {
	for _, event := range events {
		if err := p.redisRepo.Publish(ctx, p.channel, event); err != nil {
			return exceptions.ErrPublishEvent(err, event.RoutingKey())
		}
	}
	return nil
}
