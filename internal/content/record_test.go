package content

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeOneShapes(t *testing.T) {
	flat := NormalizeOne(map[string]any{"id": "abc", "name": "Kurta"})
	if flat.ID() != "abc" || flat.String("name") != "Kurta" {
		t.Errorf("Flat shape: %v", flat)
	}

	wrapped := NormalizeOne(map[string]any{
		"id":         float64(3),
		"documentId": "doc-3",
		"attributes": map[string]any{"name": "Frock", "stock": float64(4)},
	})
	if wrapped.ID() != "3" || wrapped.DocumentID() != "doc-3" {
		t.Errorf("Wrapped ids: %v", wrapped)
	}
	if wrapped.String("name") != "Frock" || wrapped.Int("stock") != 4 {
		t.Errorf("Wrapped attributes: %v", wrapped)
	}

	nested := NormalizeOne(map[string]any{"data": map[string]any{"id": float64(5), "name": "Jeans"}})
	if nested.ID() != "5" || nested.String("name") != "Jeans" {
		t.Errorf("Nested data shape: %v", nested)
	}
}

func TestRecordDecimal(t *testing.T) {
	rec := Record{"price": 499.5, "total": "1200.25", "count": 3}

	if !rec.Decimal("price").Equal(decimal.NewFromFloat(499.5)) {
		t.Errorf("Float price: %s", rec.Decimal("price"))
	}
	if !rec.Decimal("total").Equal(decimal.RequireFromString("1200.25")) {
		t.Errorf("String total: %s", rec.Decimal("total"))
	}
	if !rec.Decimal("missing").Equal(decimal.Zero) {
		t.Errorf("Missing price should be zero, got %s", rec.Decimal("missing"))
	}
	if !rec.Decimal("count").Equal(decimal.NewFromInt(3)) {
		t.Errorf("Int count: %s", rec.Decimal("count"))
	}
}

func TestRecordStringsHandlesArrayAndCSV(t *testing.T) {
	rec := Record{
		"sizes": []any{"S", "M", "L"},
		"tags":  "ethnic, festive ,silk",
	}

	sizes := rec.Strings("sizes")
	if len(sizes) != 3 || sizes[1] != "M" {
		t.Errorf("Array field: %v", sizes)
	}

	tags := rec.Strings("tags")
	if len(tags) != 3 || tags[1] != "festive" {
		t.Errorf("CSV field: %v", tags)
	}
}
