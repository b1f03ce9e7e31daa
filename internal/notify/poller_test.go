package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/boutique/internal/models"
)

func TestWatchDeliversImmediatelyAndOnTicks(t *testing.T) {
	cs := newFakeContent()
	d := NewDispatcher(cs)
	d.OrderStatus(context.Background(), "B1", "order-1", models.OrderStatusAccepted)

	p := NewPoller(d, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := p.Watch(ctx, "B1")

	select {
	case batch := <-updates:
		require.Len(t, batch, 1)
	case <-time.After(time.Second):
		t.Fatal("No immediate poll delivered")
	}

	d.OrderStatus(context.Background(), "B1", "order-2", models.OrderStatusDelivered)

	deadline := time.After(time.Second)
	for {
		select {
		case batch := <-updates:
			if len(batch) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("Tick never picked up the new notification")
		}
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	p := NewPoller(NewDispatcher(newFakeContent()), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	updates := p.Watch(ctx, "B1")

	// drain the immediate poll, then cancel as a logout would
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("No immediate poll delivered")
	}
	cancel()

	select {
	case _, open := <-updates:
		assert.False(t, open, "channel must close after cancellation")
	case <-time.After(time.Second):
		t.Fatal("Channel not closed after cancellation")
	}
}
