package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventTokenIssued, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventExchangeFailed, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "1", Type: EventTokenIssued})
	assert.NoError(t, err)
	assert.Equal(t, []EventType{EventTokenIssued}, got)
}

func TestDispatcherContinuesPastHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()

	var second bool
	d.Subscribe(EventTokenIssued, func(context.Context, Event) error {
		return errors.New("handler failed")
	})
	d.Subscribe(EventTokenIssued, func(context.Context, Event) error {
		second = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTokenIssued})
	assert.NoError(t, err, "handler errors never reach the publisher")
	assert.True(t, second)
}
