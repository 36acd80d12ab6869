package events

import (
	"context"
	"errors"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type compositePublisher struct {
	publishers []contracts.EventPublisher
	Log        *zap.Logger
}

// NewCompositePublisher fans every batch out to all sinks. A failing sink
// does not stop the others; their errors are joined.
func NewCompositePublisher(logger *zap.Logger, publishers ...contracts.EventPublisher) contracts.EventPublisher {
	return &compositePublisher{publishers: publishers, Log: logger}
}

func (p *compositePublisher) Publish(ctx context.Context, events ...models.Event) error {
	if len(events) == 0 {
		return nil
	}

	var errs []error
	for _, publisher := range p.publishers {
		if err := publisher.Publish(ctx, events...); err != nil {
			p.Log.Warn("compositePublisher.Publish sink failed",
				zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
				zap.Int(constvars.LoggingCountKey, len(events)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
