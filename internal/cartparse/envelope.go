package cartparse

import (
	"bytes"
	"encoding/json"
)

// Kind says how much a response body can be trusted about cart contents.
type Kind int

const (
	// KindUnknown is a body that matches no known shape. It is never
	// authoritative and must not clear local state.
	KindUnknown Kind = iota
	// KindEmpty is an empty body, JSON null, a null data field or an object
	// carrying neither data nor restaurants (a bare {status, message}).
	KindEmpty
	// KindCart carries a restaurants array (possibly empty).
	KindCart
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindCart:
		return "cart"
	default:
		return "unknown"
	}
}

// Envelope is the canonical form of every cart-returning response. Both the
// bare cart object and the {status, message, data} wrapper unwrap to it.
type Envelope struct {
	Kind        Kind
	Restaurants []interface{}
	TotalItems  *int
	TotalAmount *float64
	Message     string
}

// Unwrap normalizes a raw response body. The inner data.restaurants shape is
// preferred over a root-level restaurants array.
func Unwrap(body []byte) Envelope {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Envelope{Kind: KindEmpty}
	}

	var root map[string]interface{}
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return Envelope{Kind: KindUnknown}
	}
	message, _ := root["message"].(string)

	data, hasData := root["data"]
	if hasData {
		if inner, ok := data.(map[string]interface{}); ok {
			if env, ok := fromCart(inner); ok {
				env.Message = message
				return env
			}
		}
	}
	if env, ok := fromCart(root); ok {
		env.Message = message
		return env
	}
	if hasData && data == nil {
		return Envelope{Kind: KindEmpty, Message: message}
	}
	if _, hasRestaurants := root["restaurants"]; !hasData && !hasRestaurants {
		return Envelope{Kind: KindEmpty, Message: message}
	}
	return Envelope{Kind: KindUnknown, Message: message}
}

func fromCart(obj map[string]interface{}) (Envelope, bool) {
	restaurants, ok := obj["restaurants"].([]interface{})
	if !ok {
		return Envelope{}, false
	}
	env := Envelope{Kind: KindCart, Restaurants: restaurants}
	if n, ok := obj["totalItems"].(float64); ok {
		v := int(n)
		env.TotalItems = &v
	}
	if n, ok := obj["totalAmount"].(float64); ok {
		env.TotalAmount = &n
	}
	return env, true
}
