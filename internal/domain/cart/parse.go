package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseItems maps loosely typed stored entries onto line items. Entries
// without a product reference, with a non-positive or fractional quantity,
// or with a non-string size are dropped. Duplicate lines are merged.
func ParseItems(raw []any) []LineItem {
	c := Cart{}
	for _, entry := range raw {
		item, ok := parseItem(entry)
		if !ok {
			continue
		}
		c = c.Add(item.ProductID, item.Size, item.Quantity)
	}
	if c.Items == nil {
		return []LineItem{}
	}
	return c.Items
}

// ParseJSON decodes a stored JSON document, either a bare array of entries
// or an object with an "items" array. Undecodable input yields no items.
func ParseJSON(data []byte) []LineItem {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return []LineItem{}
	}
	switch v := raw.(type) {
	case []any:
		return ParseItems(v)
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return ParseItems(items)
		}
	}
	return []LineItem{}
}

func parseItem(entry any) (LineItem, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return LineItem{}, false
	}

	productID, ok := firstUint(m, "product_id", "productId", "id")
	if !ok || productID == 0 {
		return LineItem{}, false
	}

	qty, ok := firstInt(m, "quantity", "qty")
	if !ok || qty <= 0 {
		return LineItem{}, false
	}

	size := ""
	if rawSize, present := m["size"]; present && rawSize != nil {
		s, isString := rawSize.(string)
		if !isString {
			return LineItem{}, false
		}
		size = strings.TrimSpace(s)
	}

	return LineItem{ProductID: productID, Size: size, Quantity: qty}, true
}

func firstUint(m map[string]any, keys ...string) (uint, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			n, ok := toInt(v)
			if !ok || n <= 0 {
				return 0, false
			}
			return uint(n), true
		}
	}
	return 0, false
}

func firstInt(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			n, ok := toInt(v)
			if !ok {
				return 0, false
			}
			return int(n), true
		}
	}
	return 0, false
}

// toInt accepts integral numbers from JSON, Firestore and Go callers
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
