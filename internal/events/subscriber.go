// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package events

import (
	"context"

	"github.com/Shopify/sarama"
	"github.com/cloudevents/sdk-go/protocol/kafka_sarama/v2"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/binding"
	"github.com/pkg/errors"

	"marketplace/internal/logger"
)

// HandlerFunc processes one received event. Errors are logged and the
// message is still marked, so a poison message cannot stall the partition.
type HandlerFunc func(ctx context.Context, e cloudevents.Event) error

// Subscriber consumes the category topic as part of a consumer group.
type Subscriber struct {
	group   sarama.ConsumerGroup
	topic   string
	handler HandlerFunc
	log     logger.Logger
}

// NewSubscriber joins the consumer group. Call Run to start consuming.
func NewSubscriber(brokers []string, groupID, topic string, handler HandlerFunc, log logger.Logger) (*Subscriber, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, NewSaramaConfig())
	if err != nil {
		return nil, errors.Wrap(err, "kafka consumer group")
	}
	return newSubscriber(group, topic, handler, log), nil
}

func newSubscriber(group sarama.ConsumerGroup, topic string, handler HandlerFunc, log logger.Logger) *Subscriber {
	return &Subscriber{
		group:   group,
		topic:   topic,
		handler: handler,
		log:     log,
	}
}

// Run consumes until ctx is cancelled. Consume returns on every rebalance,
// so it is called in a loop.
func (s *Subscriber) Run(ctx context.Context) error {
	go func() {
		for err := range s.group.Errors() {
			s.log.Error("kafka consumer error", logger.Error(err))
		}
	}()

	for {
		if err := s.group.Consume(ctx, []string{s.topic}, s); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			s.log.Error("error while consuming", logger.String("topic", s.topic), logger.Error(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close leaves the consumer group.
func (s *Subscriber) Close() error {
	return errors.Wrap(s.group.Close(), "close consumer group")
}

// Setup implements sarama.ConsumerGroupHandler.
func (s *Subscriber) Setup(_ sarama.ConsumerGroupSession) error {
	s.log.Info("consumer group session started", logger.String("topic", s.topic))
	return nil
}

// Cleanup implements sarama.ConsumerGroupHandler.
func (s *Subscriber) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim implements sarama.ConsumerGroupHandler.
func (s *Subscriber) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for message := range claim.Messages() {
		event, err := MessageToEvent(ctx, message)
		if err != nil {
			s.log.Warn("skipping undecodable message",
				logger.String("topic", message.Topic),
				logger.Int("partition", int(message.Partition)),
				logger.Any("offset", message.Offset),
				logger.Error(err),
			)
		} else if err := s.handler(ctx, *event); err != nil {
			s.log.Error("event handler failed",
				logger.String("type", event.Type()),
				logger.String("id", event.ID()),
				logger.Error(err),
			)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

// MessageToEvent reads a CloudEvent from a Kafka message in either binary
// or structured mode.
func MessageToEvent(ctx context.Context, message *sarama.ConsumerMessage) (*cloudevents.Event, error) {
	msg := kafka_sarama.NewMessageFromConsumerMessage(message)
	event, err := binding.ToEvent(ctx, msg)
	if err != nil {
		return nil, errors.Wrap(err, "message to event")
	}
	return event, nil
}
