// Package cart implements the buyer's cart aggregate: pending line items that
// survive a restart, totals, and the checkout split into one order per seller.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/safar/boutique/internal/content"
	"github.com/safar/boutique/internal/models"
	"github.com/safar/boutique/internal/session"
)

// UnknownSeller keys cart items that carry no seller identifier when grouping.
const UnknownSeller = "unknown"

// PlaceholderImage stands in for line items whose product snapshot has no
// image reference.
const PlaceholderImage = "https://via.placeholder.com/150"

const mockPaymentMethod = "Credit Card (Mock)"

type Cart struct {
	mu      sync.Mutex
	items   []models.CartItem
	store   session.Store
	content content.Store
}

func New(store session.Store, cs content.Store) *Cart {
	return &Cart{store: store, content: cs}
}

// Load rehydrates the persisted snapshot. A corrupt snapshot resets the cart
// to empty rather than failing startup.
func (c *Cart) Load(ctx context.Context) error {
	raw, ok, err := c.store.Get(ctx, session.KeyCart)
	if err != nil {
		return fmt.Errorf("load cart snapshot: %w", err)
	}
	if !ok {
		return nil
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("Cart snapshot corrupted, resetting: %v", err)
		return c.store.Delete(ctx, session.KeyCart)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

func (c *Cart) Add(ctx context.Context, product models.Product, size string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	c.items = append(c.items, models.CartItem{
		Product:      product,
		SelectedSize: size,
		Quantity:     quantity,
	})
	c.mu.Unlock()

	return c.persist(ctx)
}

// Remove deletes the line item at the given position. Positions outside the
// cart are ignored.
func (c *Cart) Remove(ctx context.Context, index int) error {
	c.mu.Lock()
	if index >= 0 && index < len(c.items) {
		c.items = append(c.items[:index], c.items[index+1:]...)
	}
	c.mu.Unlock()

	return c.persist(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()

	return c.persist(ctx)
}

func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]models.CartItem, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total sums price*quantity over all items. A missing price counts as zero.
func (c *Cart) Total() decimal.Decimal {
	return subtotal(c.Items())
}

// GroupBySeller partitions the current items by owning seller identifier.
func (c *Cart) GroupBySeller() map[string][]models.CartItem {
	return groupBySeller(c.Items())
}

// Checkout splits the cart into one order per seller and persists each order
// concurrently. Any persist failure fails the whole operation and the cart is
// kept; orders already written for other sellers are not compensated. The
// cart is cleared only on full success.
func (c *Cart) Checkout(ctx context.Context, buyerID string, shipping map[string]string) ([]models.Order, error) {
	if buyerID == "" {
		return nil, content.ErrNotAuthenticated
	}

	snapshot := c.Items()
	if len(snapshot) == 0 {
		return nil, nil
	}

	groups := groupBySeller(snapshot)

	sellerIDs := make([]string, 0, len(groups))
	for sellerID := range groups {
		sellerIDs = append(sellerIDs, sellerID)
	}
	sort.Strings(sellerIDs)

	orders := make([]models.Order, len(sellerIDs))
	g, gctx := errgroup.WithContext(ctx)

	for i, sellerID := range sellerIDs {
		i, sellerID := i, sellerID
		items := groups[sellerID]

		g.Go(func() error {
			payload := orderPayload(buyerID, sellerID, items, shipping)
			record, err := c.content.Create(gctx, content.KindOrder, payload)
			if err != nil {
				return fmt.Errorf("create order for seller %s: %w", sellerID, err)
			}
			orders[i] = models.DecodeOrder(record)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := c.Clear(ctx); err != nil {
		return orders, err
	}
	return orders, nil
}

func orderPayload(buyerID, sellerID string, items []models.CartItem, shipping map[string]string) map[string]any {
	lineItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, map[string]any{
			"productId":    frozenProductID(item.Product),
			"name":         item.Product.Name,
			"price":        item.Product.Price.InexactFloat64(),
			"imageUrl":     frozenImageURL(item.Product),
			"quantity":     itemQuantity(item),
			"selectedSize": frozenSize(item),
		})
	}

	return map[string]any{
		"orderNumber":     newOrderNumber(),
		"userId":          buyerID,
		"sellerId":        sellerID,
		"items":           lineItems,
		"totalAmount":     subtotal(items).InexactFloat64(),
		"status":          models.OrderStatusPaid,
		"paymentMethod":   mockPaymentMethod,
		"shippingAddress": shipping,
	}
}

func newOrderNumber() string {
	return "ORD-" + uuid.NewString()
}

func groupBySeller(items []models.CartItem) map[string][]models.CartItem {
	groups := make(map[string][]models.CartItem)
	for _, item := range items {
		sellerID := item.Product.SellerID
		if sellerID == "" {
			sellerID = UnknownSeller
		}
		groups[sellerID] = append(groups[sellerID], item)
	}
	return groups
}

func subtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(itemQuantity(item)))
		total = total.Add(item.Product.Price.Mul(qty))
	}
	return total
}

func itemQuantity(item models.CartItem) int {
	if item.Quantity < 1 {
		return 1
	}
	return item.Quantity
}

func frozenSize(item models.CartItem) string {
	if item.SelectedSize == "" {
		return "N/A"
	}
	return item.SelectedSize
}

func frozenImageURL(p models.Product) string {
	if p.ImageURL == "" {
		return PlaceholderImage
	}
	return p.ImageURL
}

func frozenProductID(p models.Product) string {
	if p.DocumentID != "" {
		return p.DocumentID
	}
	return p.ID
}

func (c *Cart) persist(ctx context.Context) error {
	encoded, err := json.Marshal(c.Items())
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := c.store.Set(ctx, session.KeyCart, string(encoded)); err != nil {
		return fmt.Errorf("persist cart snapshot: %w", err)
	}
	return nil
}
