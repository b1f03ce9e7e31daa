package content

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the single flat shape every content store response converges to:
// {id, documentId, ...fields}. The store answers with three shapes depending
// on version and endpoint: a flat object, an {id, attributes: {...}} wrapper,
// or the payload nested under a "data" key. Normalize handles all three.
type Record map[string]any

func NormalizeOne(v any) Record {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if inner, ok := val["data"]; ok {
			return NormalizeOne(inner)
		}
		if attrs, ok := val["attributes"].(map[string]any); ok && val["id"] != nil {
			rec := Record{"id": val["id"]}
			if docID, ok := val["documentId"]; ok {
				rec["documentId"] = docID
			}
			for k, field := range attrs {
				rec[k] = field
			}
			return rec
		}
		return Record(val)
	default:
		return nil
	}
}

func NormalizeList(v any) []Record {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return NormalizeList(val["data"])
	case []any:
		records := make([]Record, 0, len(val))
		for _, item := range val {
			if rec := NormalizeOne(item); rec != nil {
				records = append(records, rec)
			}
		}
		return records
	default:
		return nil
	}
}

// ID returns the record's stable identifier as a string regardless of whether
// the store sent it as a JSON number or string.
func (r Record) ID() string {
	return stringify(r["id"])
}

// DocumentID returns the external reference id, falling back to ID when the
// store did not send one.
func (r Record) DocumentID() string {
	if doc := stringify(r["documentId"]); doc != "" {
		return doc
	}
	return r.ID()
}

func (r Record) String(key string) string {
	return stringify(r[key])
}

func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func (r Record) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

func (r Record) Time(key string) time.Time {
	s, _ := r[key].(string)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Strings reads a field that may arrive as a JSON array or as a single
// comma-separated string.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return nil
}

func (r Record) Records(key string) []Record {
	return NormalizeList(r[key])
}

func (r Record) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
