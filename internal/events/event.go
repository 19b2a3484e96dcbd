// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package events carries category changes between service instances as
// CloudEvents over Kafka.
package events

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"marketplace/internal/models"
)

// Event types published for category changes.
const (
	TypeCategoryCreated = "marketplace.category.created"
	TypeCategoryUpdated = "marketplace.category.updated"
	TypeCategoryDeleted = "marketplace.category.deleted"
)

// ErrUnknownType is returned by Decode for event types this service does not publish.
var ErrUnknownType = errors.New("unknown event type")

// DeletedData is the payload of a deletion event. IDs lists the whole
// removed subtree, root first.
type DeletedData struct {
	IDs []uuid.UUID `json:"ids"`
}

// Change is a decoded category event.
type Change struct {
	Type     string
	Source   string
	Category *models.Category
	Deleted  []uuid.UUID
}

// NewCategoryEvent builds a created or updated event carrying the category.
func NewCategoryEvent(eventType, source string, c models.Category) (cloudevents.Event, error) {
	if eventType != TypeCategoryCreated && eventType != TypeCategoryUpdated {
		return cloudevents.Event{}, errors.Wrap(ErrUnknownType, eventType)
	}
	return createEvent(eventType, source, c.ID.String(), c)
}

// NewDeletedEvent builds a deletion event for the given subtree.
func NewDeletedEvent(source string, ids []uuid.UUID) (cloudevents.Event, error) {
	if len(ids) == 0 {
		return cloudevents.Event{}, errors.New("deleted event without ids")
	}
	return createEvent(TypeCategoryDeleted, source, ids[0].String(), DeletedData{IDs: ids})
}

func createEvent(eventType, source, subject string, v interface{}) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()
	id, err := uuid.NewRandom()
	if err != nil {
		return event, errors.Wrap(err, "event id")
	}
	event.SetID(id.String())
	event.SetType(eventType)
	event.SetSource(source)
	event.SetSubject(subject)
	if err := event.SetData(cloudevents.ApplicationJSON, v); err != nil {
		return event, errors.Wrap(err, "event data")
	}
	return event, nil
}

// Decode turns a received event into a Change.
func Decode(e cloudevents.Event) (Change, error) {
	change := Change{Type: e.Type(), Source: e.Source()}

	switch e.Type() {
	case TypeCategoryCreated, TypeCategoryUpdated:
		var c models.Category
		if err := e.DataAs(&c); err != nil {
			return change, errors.Wrapf(err, "decode %s", e.Type())
		}
		if c.ID == uuid.Nil {
			return change, errors.Errorf("%s event %s without category id", e.Type(), e.ID())
		}
		change.Category = &c
	case TypeCategoryDeleted:
		var d DeletedData
		if err := e.DataAs(&d); err != nil {
			return change, errors.Wrapf(err, "decode %s", e.Type())
		}
		change.Deleted = d.IDs
	default:
		return change, errors.Wrap(ErrUnknownType, e.Type())
	}
	return change, nil
}
