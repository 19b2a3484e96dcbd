// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package events

import (
	"context"
	"time"

	"github.com/Shopify/sarama"
	"github.com/cloudevents/sdk-go/protocol/kafka_sarama/v2"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pkg/errors"

	"marketplace/internal/logger"
)

// Publisher sends category events to other instances.
type Publisher interface {
	Publish(ctx context.Context, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// NewSaramaConfig returns the producer and consumer settings shared by the
// publisher and the subscriber.
func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_2_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.MaxMessageBytes = 1024 * 1024
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	cfg.Consumer.Group.Session.Timeout = 30 * time.Second
	cfg.Consumer.MaxProcessingTime = 10 * time.Second
	cfg.Consumer.Return.Errors = true
	return cfg
}

// KafkaPublisher publishes events to one topic, keyed by subject so all
// changes to a category land on the same partition in order.
type KafkaPublisher struct {
	sender *kafka_sarama.Sender
	client cloudevents.Client
	topic  string
	log    logger.Logger
}

// NewKafkaPublisher connects a CloudEvents client to the Kafka brokers.
func NewKafkaPublisher(brokers []string, topic string, log logger.Logger) (*KafkaPublisher, error) {
	sender, err := kafka_sarama.NewSender(brokers, NewSaramaConfig(), topic)
	if err != nil {
		return nil, errors.Wrap(err, "kafka sender")
	}

	client, err := cloudevents.NewClient(sender, cloudevents.WithTimeNow(), cloudevents.WithUUIDs())
	if err != nil {
		sender.Close(context.Background())
		return nil, errors.Wrap(err, "cloudevents client")
	}

	log.Info("kafka publisher ready", logger.String("topic", topic), logger.Any("brokers", brokers))
	return &KafkaPublisher{sender: sender, client: client, topic: topic, log: log}, nil
}

// Publish sends e and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, e cloudevents.Event) error {
	ctx = kafka_sarama.WithMessageKey(ctx, sarama.StringEncoder(e.Subject()))
	if result := p.client.Send(ctx, e); !cloudevents.IsACK(result) {
		return errors.Wrapf(result, "publish %s to %s", e.Type(), p.topic)
	}
	p.log.Debug("event published",
		logger.String("type", e.Type()),
		logger.String("subject", e.Subject()),
		logger.String("topic", p.topic),
	)
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	return errors.Wrap(p.sender.Close(ctx), "close kafka sender")
}

// NopPublisher drops events. It is used when no brokers are configured.
type NopPublisher struct {
	Log logger.Logger
}

// Publish logs the event at debug level and discards it.
func (p NopPublisher) Publish(_ context.Context, e cloudevents.Event) error {
	if p.Log != nil {
		p.Log.Debug("event dropped, publishing disabled", logger.String("type", e.Type()))
	}
	return nil
}

// Close does nothing.
func (NopPublisher) Close(context.Context) error { return nil }
