// Package notify implements the buyer notification channel: durable records
// created on every order status transition, polled periodically by the
// buyer's client. Notifications are a best-effort convenience channel, not
// the source of truth, so every failure here is logged and swallowed.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/safar/boutique/internal/content"
	"github.com/safar/boutique/internal/models"
)

// PollLimit caps how many notifications a single poll surfaces.
const PollLimit = 20

type Dispatcher struct {
	content content.Store
}

func NewDispatcher(cs content.Store) *Dispatcher {
	return &Dispatcher{content: cs}
}

// Message renders the buyer-facing text for an order status change. The order
// is referenced by the first 8 characters of its identifier.
func Message(orderID, status string) string {
	prefix := orderID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	switch status {
	case models.OrderStatusAccepted:
		return fmt.Sprintf("Great news! Your order #%s has been accepted and is being prepared.", prefix)
	case models.OrderStatusDelivered:
		return fmt.Sprintf("Your order #%s has been delivered! Enjoy your purchase.", prefix)
	default:
		return fmt.Sprintf("Your order #%s has been %s.", prefix, status)
	}
}

// OrderStatus creates an unread notification for the buyer about an order
// status change. The content store may independently create a duplicate on
// terminal transitions via its own lifecycle hook; notifications are additive
// so that is tolerated.
func (d *Dispatcher) OrderStatus(ctx context.Context, buyerID, orderID, status string) {
	_, err := d.content.Create(ctx, content.KindNotification, map[string]any{
		"message":        Message(orderID, status),
		"userId":         buyerID,
		"type":           models.NotificationTypeOrderStatus,
		"read":           false,
		"relatedOrderId": orderID,
	})
	if err != nil {
		log.Printf("Create notification for buyer %s: %v", buyerID, err)
	}
}

// Poll returns the buyer's notifications, most recent first, capped at
// PollLimit. Fetch failures yield an empty result.
func (d *Dispatcher) Poll(ctx context.Context, buyerID string) []models.Notification {
	records, err := d.content.List(ctx, content.KindNotification, content.ListOptions{
		Filters: map[string]string{"userId": buyerID},
		Sort:    []string{"createdAt:desc"},
		Limit:   PollLimit,
	})
	if err != nil {
		log.Printf("Fetch notifications for buyer %s: %v", buyerID, err)
		return nil
	}

	notifications := make([]models.Notification, 0, len(records))
	for _, record := range records {
		notifications = append(notifications, models.DecodeNotification(record))
	}
	return notifications
}

// MarkRead flips the read flag. Marking an already-read notification is a
// no-op, and failures never surface to the triggering flow.
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID string) {
	record, err := d.content.Get(ctx, content.KindNotification, notificationID)
	if err != nil {
		log.Printf("Fetch notification %s: %v", notificationID, err)
		return
	}
	if record.Bool("read") {
		return
	}

	if _, err := d.content.Update(ctx, content.KindNotification, notificationID, map[string]any{
		"read": true,
	}); err != nil {
		log.Printf("Mark notification %s read: %v", notificationID, err)
	}
}

func UnreadCount(notifications []models.Notification) int {
	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// LatestUnread picks the notification the attention popup should show: the
// most recent unread order-status notification, or nil when none exists. The
// input is expected most recent first, as Poll returns it.
func LatestUnread(notifications []models.Notification) *models.Notification {
	for i := range notifications {
		n := notifications[i]
		if !n.Read && n.Type == models.NotificationTypeOrderStatus {
			return &n
		}
	}
	return nil
}
