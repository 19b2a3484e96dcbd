package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Shopify/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"marketplace/internal/logger"
	"marketplace/internal/models"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	marked []int64
}

func (s *fakeSession) Context() context.Context { return context.Background() }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

// structuredMessage encodes e the way a structured-mode producer would.
func structuredMessage(t *testing.T, e cloudevents.Event, offset int64) *sarama.ConsumerMessage {
	t.Helper()
	body, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &sarama.ConsumerMessage{
		Topic:  "marketplace.categories",
		Offset: offset,
		Value:  body,
		Headers: []*sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte(cloudevents.ApplicationCloudEventsJSON)},
		},
	}
}

func TestConsumeClaimHandlesEveryMessage(t *testing.T) {
	c := qt.New(t)

	core, logs := observer.New(zapcore.DebugLevel)
	cat := models.Category{ID: uuid.New(), Name: "Wood", Slug: "wood"}

	created, err := NewCategoryEvent(TypeCategoryCreated, "marketplace/a", cat)
	c.Assert(err, qt.IsNil)
	deleted, err := NewDeletedEvent("marketplace/a", []uuid.UUID{cat.ID})
	c.Assert(err, qt.IsNil)

	var got []Change
	handler := func(_ context.Context, e cloudevents.Event) error {
		change, err := Decode(e)
		if err != nil {
			return err
		}
		got = append(got, change)
		if change.Type == TypeCategoryDeleted {
			return errors.New("handler failed")
		}
		return nil
	}

	sub := newSubscriber(nil, "marketplace.categories", handler, logger.New(zap.New(core)))

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- structuredMessage(t, created, 10)
	claim.messages <- &sarama.ConsumerMessage{Topic: "marketplace.categories", Offset: 11, Value: []byte("not an event")}
	claim.messages <- structuredMessage(t, deleted, 12)
	close(claim.messages)

	session := &fakeSession{}
	c.Assert(sub.ConsumeClaim(session, claim), qt.IsNil)

	c.Assert(session.marked, qt.DeepEquals, []int64{10, 11, 12})
	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[0].Category.ID, qt.Equals, cat.ID)
	c.Assert(got[1].Deleted, qt.DeepEquals, []uuid.UUID{cat.ID})

	c.Assert(logs.FilterMessage("skipping undecodable message").Len(), qt.Equals, 1)
	c.Assert(logs.FilterMessage("event handler failed").Len(), qt.Equals, 1)
}

func TestSetupSurvivesRebalances(t *testing.T) {
	c := qt.New(t)

	core, logs := observer.New(zapcore.DebugLevel)
	sub := newSubscriber(nil, "marketplace.categories", nil, logger.New(zap.New(core)))

	// Each rebalance starts a new session on the same handler.
	for range 3 {
		c.Assert(sub.Setup(&fakeSession{}), qt.IsNil)
		c.Assert(sub.Cleanup(&fakeSession{}), qt.IsNil)
	}
	c.Assert(logs.FilterMessage("consumer group session started").Len(), qt.Equals, 3)
}

func TestMessageToEvent(t *testing.T) {
	c := qt.New(t)

	e, err := NewCategoryEvent(TypeCategoryCreated, "marketplace/a", models.Category{ID: uuid.New(), Name: "Metal"})
	c.Assert(err, qt.IsNil)

	got, err := MessageToEvent(context.Background(), structuredMessage(t, e, 1))
	c.Assert(err, qt.IsNil)
	c.Assert(got.ID(), qt.Equals, e.ID())
	c.Assert(got.Type(), qt.Equals, TypeCategoryCreated)
	c.Assert(got.Subject(), qt.Equals, e.Subject())
}
