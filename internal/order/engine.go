// Package order drives persisted orders through the fulfillment state
// machine: paid -> accepted -> delivered.
package order

import (
	"context"
	"fmt"
	"log"

	"github.com/safar/boutique/internal/content"
	"github.com/safar/boutique/internal/models"
)

// Notifier receives the buyer-facing side effect of a status transition.
type Notifier interface {
	OrderStatus(ctx context.Context, buyerID, orderID, status string)
}

type Engine struct {
	content  content.Store
	notifier Notifier
}

func NewEngine(cs content.Store, notifier Notifier) *Engine {
	return &Engine{content: cs, notifier: notifier}
}

// SetStatus writes the new status and dispatches a buyer notification for the
// transition. Transition legality is enforced by the presenting UI, not here;
// a structurally odd jump is logged but written anyway. The order write and
// the notification write are not atomic: a crash between them leaves an
// advanced order with no notification, which is tolerated.
func (e *Engine) SetStatus(ctx context.Context, orderID, newStatus string) (models.Order, error) {
	record, err := e.content.Update(ctx, content.KindOrder, orderID, map[string]any{
		"status": newStatus,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("update order status: %w", err)
	}

	updated := models.DecodeOrder(record)
	if !knownStatus(newStatus) {
		log.Printf("Order %s moved to unrecognized status %q", orderID, newStatus)
	}

	if e.notifier != nil {
		e.notifier.OrderStatus(ctx, updated.UserID, orderID, newStatus)
	}

	return updated, nil
}

// ListForSeller returns the orders addressed to one seller, newest first.
func (e *Engine) ListForSeller(ctx context.Context, sellerID string) ([]models.Order, error) {
	return e.list(ctx, "sellerId", sellerID)
}

// ListForBuyer returns one buyer's order history, newest first.
func (e *Engine) ListForBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	return e.list(ctx, "userId", buyerID)
}

// ListAll returns the full order stream for analytics.
func (e *Engine) ListAll(ctx context.Context) ([]models.Order, error) {
	return e.list(ctx, "", "")
}

func (e *Engine) list(ctx context.Context, filterField, filterValue string) ([]models.Order, error) {
	opts := content.ListOptions{Sort: []string{"createdAt:desc"}}
	if filterField != "" {
		opts.Filters = map[string]string{filterField: filterValue}
	}

	records, err := e.content.List(ctx, content.KindOrder, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]models.Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, models.DecodeOrder(record))
	}
	return orders, nil
}

func knownStatus(status string) bool {
	switch status {
	case models.OrderStatusPaid, models.OrderStatusAccepted, models.OrderStatusDelivered:
		return true
	}
	return false
}
