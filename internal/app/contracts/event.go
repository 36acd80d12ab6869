package contracts

import (
	"context"

	"konsulin-wallet-service/internal/app/models"
)

// EventPublisher delivers committed ledger events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...models.Event) error
}
