package events

import (
	"context"
	"sync"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type rabbitMQPublisher struct {
	mu       sync.Mutex
	Channel  *amqp091.Channel
	Exchange string
	Log      *zap.Logger
}

// NewRabbitMQPublisher declares a durable topic exchange and binds queue to
// every ledger routing key. Messages carry the event id as message id so
// consumers can deduplicate redeliveries.
func NewRabbitMQPublisher(rabbitMQConnection *amqp091.Connection, exchange, queue string, logger *zap.Logger) (contracts.EventPublisher, error) {
	channel, err := rabbitMQConnection.Channel()
	if err != nil {
		return nil, err
	}

	err = channel.ExchangeDeclare(exchange, amqp091.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	if queue != "" {
		_, err = channel.QueueDeclare(queue, true, false, false, false, nil)
		if err != nil {
			return nil, err
		}
		err = channel.QueueBind(queue, constvars.EventRoutingKeyPrefix+"#", exchange, false, nil)
		if err != nil {
			return nil, err
		}
	}

	return &rabbitMQPublisher{
		Channel:  channel,
		Exchange: exchange,
		Log:      logger,
	}, nil
}

func (p *rabbitMQPublisher) Publish(ctx context.Context, events ...models.Event) error {
	requestID := utils.GetRequestID(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, event := range events {
		body, err := json.Marshal(event)
		if err != nil {
			return exceptions.ErrCannotMarshalJSON(err)
		}

		routingKey := constvars.EventRoutingKeyPrefix + event.RoutingKey()
		message := amqp091.Publishing{
			ContentType:  constvars.MIMEApplicationJSON,
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         event.RoutingKey(),
			Headers: amqp091.Table{
				"message_type": "JSON",
				"request_id":   requestID,
			},
		}

		err = p.Channel.PublishWithContext(ctx, p.Exchange, routingKey, false, false, message)
		if err != nil {
			p.Log.Error("rabbitMQPublisher.Publish error publishing event",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingEventIDKey, event.ID),
				zap.String(constvars.LoggingEventTypeKey, routingKey),
				zap.Error(err),
			)
			return exceptions.ErrPublishEvent(err, routingKey)
		}
	}
	return nil
}
