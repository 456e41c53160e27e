// Package cartparse turns backend cart payloads into normalized cart lines.
// Payload shapes vary by endpoint, so parsing is lenient: malformed entries
// are skipped instead of failing the whole response.
package cartparse

import (
	"math"
	"strconv"
	"strings"

	"fooddelivery-cart/internal/domain"
	"fooddelivery-cart/internal/linekey"
)

// PlaceholderImage is used when neither the backend nor the line id carries an image.
const PlaceholderImage = "/images/placeholder-food.png"

// Parse unwraps and parses a raw body. ok is false when the body did not
// contain a restaurants array at any level.
func Parse(body []byte) ([]domain.CartLine, bool) {
	return Lines(Unwrap(body))
}

// Lines extracts cart lines from an envelope. An envelope of any kind other
// than KindCart yields ok == false; a cart with no restaurants yields an
// empty, non-nil slice.
func Lines(env Envelope) ([]domain.CartLine, bool) {
	if env.Kind != KindCart {
		return nil, false
	}
	lines := make([]domain.CartLine, 0)
	for _, raw := range env.Restaurants {
		restaurant, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		restaurantID := stringField(restaurant, "restaurantId")
		restaurantName := stringField(restaurant, "restaurantName")
		items, ok := restaurant["items"].([]interface{})
		if !ok {
			continue
		}
		for _, rawItem := range items {
			item, ok := rawItem.(map[string]interface{})
			if !ok {
				continue
			}
			line, ok := parseItem(item)
			if !ok {
				continue
			}
			line.RestaurantID = restaurantID
			line.RestaurantName = restaurantName
			lines = append(lines, line)
		}
	}
	return lines, true
}

func parseItem(item map[string]interface{}) (domain.CartLine, bool) {
	productID, ok := item["productId"].(string)
	if !ok || strings.TrimSpace(productID) == "" {
		return domain.CartLine{}, false
	}
	name, ok := item["productName"].(string)
	if !ok {
		return domain.CartLine{}, false
	}
	price, ok := item["price"].(float64)
	if !ok {
		return domain.CartLine{}, false
	}
	qty, ok := item["quantity"].(float64)
	if !ok || qty != math.Trunc(qty) || qty <= 0 {
		return domain.CartLine{}, false
	}

	baseID, decoded := linekey.Decode(productID)
	line := domain.CartLine{
		LineID:         productID,
		BaseProductID:  baseID,
		Name:           name,
		UnitPrice:      price,
		Quantity:       int(qty),
		CategoryID:     firstNonEmpty(stringField(item, "categoryId"), decoded.CategoryID),
		CategoryName:   firstNonEmpty(stringField(item, "categoryName"), decoded.CategoryName),
		SizeID:         firstNonEmpty(stringField(item, "sizeId"), decoded.SizeID),
		SizeName:       firstNonEmpty(stringField(item, "sizeName"), decoded.SizeName),
		Customizations: firstNonEmpty(stringField(item, "customizations"), decoded.Customizations),
		ImageURL: firstNonEmpty(
			stringField(item, "cartItemImage"),
			stringField(item, "imageURL"),
			decoded.ImageURL,
			PlaceholderImage,
		),
	}
	return line, true
}

// stringField reads a string or number field as text.
func stringField(obj map[string]interface{}, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
