// Package analytics folds the full order and product streams into the
// dashboard aggregates: per-category unit counts, a detailed-type histogram,
// a trailing 7-day revenue trend, and global totals. Every aggregate is a
// pure function of its inputs, recomputed from scratch on each call.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/boutique/internal/models"
)

// TrendDays is the length of the daily revenue series.
const TrendDays = 7

// FallbackCategory absorbs line items whose product reference cannot be
// resolved against the catalog.
const FallbackCategory = "Other"

// seededCategories always appear in the category breakdown, even at zero.
var seededCategories = []string{"Men", "Women", "Kids", "Seniors"}

// detailedTypeRules classify a line item by case-insensitive substring match
// on its name. First match wins.
var detailedTypeRules = []struct {
	keywords []string
	label    string
}{
	{[]string{"lahanga", "lehenga"}, "Lehenga"},
	{[]string{"saree", "sari"}, "Saree"},
	{[]string{"kurta", "kurti"}, "Kurta/Kurti"},
	{[]string{"shirt", "tee"}, "T-Shirt/Shirt"},
	{[]string{"frock", "frok"}, "Frock"},
	{[]string{"jeans", "denim"}, "Jeans"},
	{[]string{"pajama", "pyjama"}, "Pajama"},
}

const topTypeCount = 10

type Count struct {
	Label string `json:"label"`
	Units int    `json:"units"`
}

type TrendPoint struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Snapshot struct {
	TotalUsers    int             `json:"totalUsers"`
	TotalProducts int             `json:"totalProducts"`
	GlobalRevenue decimal.Decimal `json:"globalRevenue"`
	Sellers       []models.User   `json:"sellers"`
	CategoryUnits []Count         `json:"categoryUnits"`
	DetailedTypes []Count         `json:"detailedTypes"`
	RevenueTrend  []TrendPoint    `json:"revenueTrend"`
}

// Aggregate recomputes the full dashboard snapshot. now anchors the trailing
// 7-day window; calendar days are resolved in UTC so the trend is stable
// regardless of client timezone.
func Aggregate(users []models.User, products []models.Product, orders []models.Order, now time.Time) Snapshot {
	categories := productCategories(products)

	snapshot := Snapshot{
		TotalUsers:    len(users),
		TotalProducts: len(products),
		GlobalRevenue: decimal.Zero,
		Sellers:       sellers(users),
	}

	categoryUnits := make(map[string]int, len(seededCategories))
	for _, category := range seededCategories {
		categoryUnits[category] = 0
	}
	detailedUnits := make(map[string]int)
	dailyRevenue := make(map[string]decimal.Decimal)

	for _, order := range orders {
		snapshot.GlobalRevenue = snapshot.GlobalRevenue.Add(order.TotalAmount)

		for _, item := range order.Items {
			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}

			category, resolved := categories[item.ProductID]
			if !resolved {
				category = FallbackCategory
			}
			categoryUnits[category] += qty

			detailedUnits[classifyType(item.Name, category, resolved)] += qty
		}

		day := order.Date
		if day == "" && !order.CreatedAt.IsZero() {
			day = dayKey(order.CreatedAt)
		}
		if day != "" {
			dailyRevenue[day] = dailyRevenue[day].Add(order.TotalAmount)
		}
	}

	snapshot.CategoryUnits = sortedCounts(categoryUnits, 0)
	snapshot.DetailedTypes = sortedCounts(detailedUnits, topTypeCount)
	snapshot.RevenueTrend = trend(dailyRevenue, now)

	return snapshot
}

// classifyType buckets a line item for the detailed histogram: keyword rules
// first, then the resolved catalog category, then the fallback.
func classifyType(name, category string, resolved bool) string {
	lower := strings.ToLower(name)
	for _, rule := range detailedTypeRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.label
			}
		}
	}
	if resolved && category != "" {
		return category
	}
	return FallbackCategory
}

// productCategories maps both product ids and document ids to the owning
// category, since frozen line items may reference either.
func productCategories(products []models.Product) map[string]string {
	categories := make(map[string]string, len(products)*2)
	for _, p := range products {
		category := p.Category
		if category == "" {
			category = FallbackCategory
		}
		if p.ID != "" {
			categories[p.ID] = category
		}
		if p.DocumentID != "" {
			categories[p.DocumentID] = category
		}
	}
	return categories
}

func sellers(users []models.User) []models.User {
	var out []models.User
	for _, u := range users {
		if u.IsSeller() {
			out = append(out, u)
		}
	}
	return out
}

func sortedCounts(units map[string]int, top int) []Count {
	counts := make([]Count, 0, len(units))
	for label, n := range units {
		counts = append(counts, Count{Label: label, Units: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Units != counts[j].Units {
			return counts[i].Units > counts[j].Units
		}
		return counts[i].Label < counts[j].Label
	})
	if top > 0 && len(counts) > top {
		counts = counts[:top]
	}
	return counts
}

// trend reports exactly the trailing TrendDays UTC calendar days in
// chronological order, zero-filled.
func trend(dailyRevenue map[string]decimal.Decimal, now time.Time) []TrendPoint {
	points := make([]TrendPoint, 0, TrendDays)
	for i := TrendDays - 1; i >= 0; i-- {
		day := dayKey(now.AddDate(0, 0, -i))
		revenue, ok := dailyRevenue[day]
		if !ok {
			revenue = decimal.Zero
		}
		points = append(points, TrendPoint{Day: day, Revenue: revenue})
	}
	return points
}

// dayKey formats a UTC calendar day as DD/MM/YYYY, the shape explicit order
// date fields use.
func dayKey(t time.Time) string {
	return t.UTC().Format("02/01/2006")
}
