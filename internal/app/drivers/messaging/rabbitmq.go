package messaging

import (
	"fmt"
	"net/url"

	"konsulin-wallet-service/internal/app/config"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

func rabbitMQURL(cfg config.RabbitMQ) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
	)
}

func NewRabbitMQ(driverConfig *config.DriverConfig, log *logrus.Logger) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(rabbitMQURL(driverConfig.RabbitMQ))
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq %s:%s: %w", driverConfig.RabbitMQ.Host, driverConfig.RabbitMQ.Port, err)
	}
	log.WithField("host", driverConfig.RabbitMQ.Host).Info("Successfully connected to rabbitMQ")
	return conn, nil
}
