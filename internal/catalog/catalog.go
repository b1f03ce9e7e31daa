// Package catalog covers the product side of the shop: seller inventory
// management with pre-network validation, and buyer-side search over the
// shared catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/safar/boutique/internal/content"
	"github.com/safar/boutique/internal/models"
)

// ValidationError rejects a product form before any network call.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid product input: " + strings.Join(e.Fields, ", ")
}

// ProductInput carries a seller's product form. Price and Stock are pointers
// so a missing field is distinguishable from zero.
type ProductInput struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Stock       *int     `json:"stock"`
	Sizes       []string `json:"sizes"`
	ImageURL    string   `json:"imageUrl"`
	Tags        []string `json:"tags"`
}

func (in ProductInput) validate() error {
	var bad []string
	if in.Name == "" {
		bad = append(bad, "name")
	}
	if in.Price == nil || *in.Price < 0 {
		bad = append(bad, "price")
	}
	if in.Category == "" {
		bad = append(bad, "category")
	}
	if in.Description == "" {
		bad = append(bad, "description")
	}
	if in.Stock == nil || *in.Stock < 0 {
		bad = append(bad, "stock")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

type Service struct {
	content content.Store
}

func NewService(cs content.Store) *Service {
	return &Service{content: cs}
}

// Create publishes a new product owned by the seller.
func (s *Service) Create(ctx context.Context, seller models.User, in ProductInput) (models.Product, error) {
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	record, err := s.content.Create(ctx, content.KindProduct, productPayload(seller, in))
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	return models.DecodeProduct(record), nil
}

// Update rewrites an existing product by its document id.
func (s *Service) Update(ctx context.Context, documentID string, seller models.User, in ProductInput) (models.Product, error) {
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	record, err := s.content.Update(ctx, content.KindProduct, documentID, productPayload(seller, in))
	if err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	return models.DecodeProduct(record), nil
}

func (s *Service) Fetch(ctx context.Context, documentID string) (models.Product, error) {
	record, err := s.content.Get(ctx, content.KindProduct, documentID)
	if err != nil {
		return models.Product{}, err
	}
	return models.DecodeProduct(record), nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, nil)
}

// ListForSeller filters server-side by seller id and then re-checks
// client-side, since the store compares loosely across id types.
func (s *Service) ListForSeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	products, err := s.list(ctx, map[string]string{"sellerId": sellerID})
	if err != nil {
		return nil, err
	}

	filtered := products[:0]
	for _, p := range products {
		if p.SellerID == sellerID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Service) list(ctx context.Context, filters map[string]string) ([]models.Product, error) {
	records, err := s.content.List(ctx, content.KindProduct, content.ListOptions{Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]models.Product, 0, len(records))
	for _, record := range records {
		products = append(products, models.DecodeProduct(record))
	}
	return products, nil
}

func productPayload(seller models.User, in ProductInput) map[string]any {
	return map[string]any{
		"name":        in.Name,
		"price":       *in.Price,
		"category":    in.Category,
		"description": in.Description,
		"stock":       *in.Stock,
		"sizes":       in.Sizes,
		"imageUrl":    in.ImageURL,
		"tags":        strings.Join(in.Tags, ","),
		"sellerId":    seller.ID,
		"sellerName":  sellerName(seller),
	}
}

func sellerName(seller models.User) string {
	if seller.Email != "" {
		return seller.Email
	}
	return "Unknown Seller"
}

// Search filters products by case-insensitive substring containment over name
// and tags, optionally narrowed to one category first. Pure function; the
// catalog is small enough to filter client-side.
func Search(products []models.Product, query, category string) []models.Product {
	result := products
	if category != "" && category != "All" {
		var narrowed []models.Product
		for _, p := range result {
			if p.Category == category {
				narrowed = append(narrowed, p)
			}
		}
		result = narrowed
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return result
	}
	needle := strings.ToLower(trimmed)

	var matched []models.Product
	for _, p := range result {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matched = append(matched, p)
			continue
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

// Recommend picks up to limit other products sharing at least one tag with
// the given product.
func Recommend(products []models.Product, product models.Product, limit int) []models.Product {
	want := make(map[string]bool, len(product.Tags))
	for _, tag := range product.Tags {
		want[strings.ToLower(strings.TrimSpace(tag))] = true
	}
	if len(want) == 0 {
		return nil
	}

	var out []models.Product
	for _, p := range products {
		if p.DocumentID == product.DocumentID && p.ID == product.ID {
			continue
		}
		for _, tag := range p.Tags {
			if want[strings.ToLower(strings.TrimSpace(tag))] {
				out = append(out, p)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
