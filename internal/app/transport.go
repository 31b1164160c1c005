package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/next-trace/scg-rideshare/adapters/inmemory"
	"github.com/next-trace/scg-rideshare/adapters/kafka"
	"github.com/next-trace/scg-rideshare/adapters/nats"
	"github.com/next-trace/scg-rideshare/adapters/rabbitmq"
	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	"github.com/next-trace/scg-rideshare/internal/config"
)

// openTransport connects the configured broker. The returned cleanup closes it.
func openTransport(cfg config.Config, logger *slog.Logger) (cbus.Transport, func(), error) {
	client := "rideshare-" + cfg.Service

	switch cfg.Transport {
	case config.TransportMemory:
		ad := inmemory.New()
		return ad, func() { _ = ad.Close() }, nil

	case config.TransportNATS:
		ad, cleanup, err := nats.NewWithNATS(nats.Config{URL: cfg.NATS.URL, Name: client, ConnTimeout: 5 * time.Second, MaxReconnects: -1})
		if err != nil {
			return nil, nil, fmt.Errorf("nats: %w", err)
		}

		ad.Logger = logger

		return ad, cleanup, nil

	case config.TransportRabbitMQ:
		ad, cleanup, err := rabbitmq.NewWithAMQPConn(rabbitmq.Config{URL: cfg.RabbitMQ.URL, ConnTimeout: 5 * time.Second, Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: %w", err)
		}

		return ad, cleanup, nil

	case config.TransportKafka:
		ad, cleanup, err := kafka.NewWithKgo(kafka.Config{Brokers: cfg.Kafka.Brokers, ClientID: client})
		if err != nil {
			return nil, nil, fmt.Errorf("kafka: %w", err)
		}

		ad.Logger = logger

		return ad, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
