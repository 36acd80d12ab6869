package events

import (
	"context"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type mongoAuditPublisher struct {
	Collection *mongo.Collection
	Log        *zap.Logger
}

// NewMongoAuditPublisher appends every event to the audit collection keyed
// by event id, so a redelivered event is stored once.
func NewMongoAuditPublisher(db *mongo.Database, collection string, logger *zap.Logger) contracts.EventPublisher {
	return &mongoAuditPublisher{
		Collection: db.Collection(collection),
		Log:        logger,
	}
}

func (p *mongoAuditPublisher) Publish(ctx context.Context, events ...models.Event) error {
	requestID := utils.GetRequestID(ctx)

	for _, event := range events {
		_, err := p.Collection.InsertOne(ctx, event)
		if mongo.IsDuplicateKeyError(err) {
			p.Log.Debug("mongoAuditPublisher.Publish event already recorded",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingEventIDKey, event.ID),
			)
			continue
		}
		if err != nil {
			p.Log.Error("mongoAuditPublisher.Publish error inserting event",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingEventIDKey, event.ID),
				zap.Error(err),
			)
			return exceptions.ErrMongoInsert(err)
		}
	}
	return nil
}
