package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/safar/boutique/internal/content"
	"github.com/safar/boutique/internal/models"
	"github.com/safar/boutique/internal/notify"
)

// fakeContent keeps one order record and collects created notifications.
type fakeContent struct {
	mu            sync.Mutex
	order         content.Record
	notifications []content.Record
	updateErr     error
}

func (f *fakeContent) Update(_ context.Context, kind, id string, payload map[string]any) (content.Record, error) {
	if kind != content.KindOrder {
		return nil, fmt.Errorf("unexpected kind %s", kind)
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range payload {
		f.order[k] = v
	}
	return f.order, nil
}

func (f *fakeContent) Create(_ context.Context, kind string, payload map[string]any) (content.Record, error) {
	if kind != content.KindNotification {
		return nil, fmt.Errorf("unexpected kind %s", kind)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	record := content.Record{"id": fmt.Sprintf("n-%d", len(f.notifications)+1)}
	for k, v := range payload {
		record[k] = v
	}
	f.notifications = append(f.notifications, record)
	return record, nil
}

func (f *fakeContent) List(context.Context, string, content.ListOptions) ([]content.Record, error) {
	return nil, nil
}

func (f *fakeContent) Get(context.Context, string, string) (content.Record, error) {
	return nil, content.ErrNotFound
}

func (f *fakeContent) sent() []content.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]content.Record, len(f.notifications))
	copy(out, f.notifications)
	return out
}

const testOrderID = "a1b2c3d4e5f6"

func newFixture(updateErr error) (*Engine, *fakeContent) {
	cs := &fakeContent{
		order: content.Record{
			"id":     testOrderID,
			"userId": "B1",
			"status": models.OrderStatusPaid,
		},
		updateErr: updateErr,
	}
	return NewEngine(cs, notify.NewDispatcher(cs)), cs
}

func TestSetStatusNotifiesBuyerPerTransition(t *testing.T) {
	ctx := context.Background()
	engine, cs := newFixture(nil)

	accepted, err := engine.SetStatus(ctx, testOrderID, models.OrderStatusAccepted)
	if err != nil {
		t.Fatalf("SetStatus accepted: %v", err)
	}
	if accepted.Status != models.OrderStatusAccepted {
		t.Errorf("Order status after accept: %s", accepted.Status)
	}

	delivered, err := engine.SetStatus(ctx, testOrderID, models.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("SetStatus delivered: %v", err)
	}
	if delivered.Status != models.OrderStatusDelivered {
		t.Errorf("Order status after deliver: %s", delivered.Status)
	}

	sent := cs.sent()
	if len(sent) != 2 {
		t.Fatalf("Expected exactly one notification per transition, got %d", len(sent))
	}

	first := sent[0]
	if first.String("userId") != "B1" {
		t.Errorf("Notification addressee: %s", first.String("userId"))
	}
	if first.Bool("read") {
		t.Error("Notification should be created unread")
	}
	if first.String("type") != models.NotificationTypeOrderStatus {
		t.Errorf("Notification type: %s", first.String("type"))
	}
	wantAccepted := "Great news! Your order #a1b2c3d4 has been accepted and is being prepared."
	if got := first.String("message"); got != wantAccepted {
		t.Errorf("Accepted message:\n got %q\nwant %q", got, wantAccepted)
	}

	wantDelivered := "Your order #a1b2c3d4 has been delivered! Enjoy your purchase."
	if got := sent[1].String("message"); got != wantDelivered {
		t.Errorf("Delivered message:\n got %q\nwant %q", got, wantDelivered)
	}
	if got := sent[1].String("relatedOrderId"); got != testOrderID {
		t.Errorf("Related order reference: %s", got)
	}
}

func TestSetStatusFailureSkipsNotification(t *testing.T) {
	ctx := context.Background()
	engine, cs := newFixture(&content.UpstreamError{Status: 500, Message: "boom"})

	_, err := engine.SetStatus(ctx, testOrderID, models.OrderStatusAccepted)
	if err == nil {
		t.Fatal("Expected error from failed status write")
	}
	var upstream *content.UpstreamError
	if !errors.As(err, &upstream) {
		t.Errorf("Expected UpstreamError, got %v", err)
	}
	if len(cs.sent()) != 0 {
		t.Errorf("No notification should be sent when the status write fails, got %d", len(cs.sent()))
	}
}

func TestSetStatusToleratesUnknownStatus(t *testing.T) {
	ctx := context.Background()
	engine, cs := newFixture(nil)

	// Transition legality lives in the presenting UI; the engine writes what
	// it is told and still notifies.
	updated, err := engine.SetStatus(ctx, testOrderID, "misplaced")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.Status != "misplaced" {
		t.Errorf("Status: %s", updated.Status)
	}

	sent := cs.sent()
	if len(sent) != 1 {
		t.Fatalf("Expected generic notification, got %d", len(sent))
	}
	want := "Your order #a1b2c3d4 has been misplaced."
	if got := sent[0].String("message"); got != want {
		t.Errorf("Generic message:\n got %q\nwant %q", got, want)
	}
}
