package models

import (
	"github.com/safar/boutique/internal/content"
)

func DecodeUser(r content.Record) User {
	return User{
		ID:       r.ID(),
		Username: r.String("username"),
		Email:    r.String("email"),
		UserType: r.String("user_type"),
	}
}

func DecodeProduct(r content.Record) Product {
	return Product{
		ID:          r.ID(),
		DocumentID:  r.DocumentID(),
		Name:        r.String("name"),
		Price:       r.Decimal("price"),
		Category:    r.String("category"),
		Description: r.String("description"),
		Stock:       r.Int("stock"),
		Sizes:       r.Strings("sizes"),
		ImageURL:    r.String("imageUrl"),
		Tags:        r.Strings("tags"),
		SellerID:    r.String("sellerId"),
		SellerName:  r.String("sellerName"),
	}
}

func DecodeOrder(r content.Record) Order {
	order := Order{
		ID:            r.ID(),
		DocumentID:    r.DocumentID(),
		OrderNumber:   r.String("orderNumber"),
		UserID:        r.String("userId"),
		SellerID:      r.String("sellerId"),
		TotalAmount:   r.Decimal("totalAmount"),
		Status:        r.String("status"),
		PaymentMethod: r.String("paymentMethod"),
		Date:          r.String("date"),
		CreatedAt:     r.Time("createdAt"),
	}

	for _, item := range r.Records("items") {
		order.Items = append(order.Items, OrderItem{
			ProductID:    item.String("productId"),
			Name:         item.String("name"),
			Price:        item.Decimal("price"),
			ImageURL:     item.String("imageUrl"),
			Quantity:     item.Int("quantity"),
			SelectedSize: item.String("selectedSize"),
		})
	}

	if addr := r.Map("shippingAddress"); addr != nil {
		order.ShippingAddress = make(map[string]string, len(addr))
		for k := range addr {
			order.ShippingAddress[k] = content.Record(addr).String(k)
		}
	}

	return order
}

func DecodeNotification(r content.Record) Notification {
	return Notification{
		ID:             r.ID(),
		DocumentID:     r.DocumentID(),
		UserID:         r.String("userId"),
		Message:        r.String("message"),
		Type:           r.String("type"),
		Read:           r.Bool("read"),
		RelatedOrderID: r.String("relatedOrderId"),
		CreatedAt:      r.Time("createdAt"),
	}
}
