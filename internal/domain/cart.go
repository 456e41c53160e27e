package domain

// VariantAttrs are the attributes that distinguish two additions of the same
// catalog product. Field order is the encoding order used by linekey.
type VariantAttrs struct {
	CategoryID     string `json:"categoryId,omitempty"`
	CategoryName   string `json:"categoryName,omitempty"`
	SizeID         string `json:"sizeId,omitempty"`
	SizeName       string `json:"sizeName,omitempty"`
	Customizations string `json:"customizations,omitempty"`
	ImageURL       string `json:"imageURL,omitempty"`
}

// IsZero reports whether no attribute is set.
func (a VariantAttrs) IsZero() bool {
	return a == VariantAttrs{}
}

// CartLine is one purchasable unit inside a restaurant's sub-cart.
type CartLine struct {
	LineID         string  `json:"lineId"`
	BaseProductID  string  `json:"baseProductId"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unitPrice"`
	Quantity       int     `json:"quantity"`
	RestaurantID   string  `json:"restaurantId"`
	RestaurantName string  `json:"restaurantName"`
	CategoryID     string  `json:"categoryId,omitempty"`
	CategoryName   string  `json:"categoryName,omitempty"`
	SizeID         string  `json:"sizeId,omitempty"`
	SizeName       string  `json:"sizeName,omitempty"`
	Customizations string  `json:"customizations,omitempty"`
	ImageURL       string  `json:"imageURL,omitempty"`
}

// Key identifies the line within the whole cart. The same lineId may appear
// under two restaurants because restaurant is not part of the encoding.
func (l CartLine) Key() string {
	return LineKey(l.RestaurantID, l.LineID)
}

// Attrs returns the variant attributes carried by the line.
func (l CartLine) Attrs() VariantAttrs {
	return VariantAttrs{
		CategoryID:     l.CategoryID,
		CategoryName:   l.CategoryName,
		SizeID:         l.SizeID,
		SizeName:       l.SizeName,
		Customizations: l.Customizations,
		ImageURL:       l.ImageURL,
	}
}

// Total is unit price times quantity.
func (l CartLine) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// LineKey builds the cart-wide key for a line.
func LineKey(restaurantID, lineID string) string {
	return restaurantID + "/" + lineID
}

// RestaurantSummary groups the lines of one restaurant.
type RestaurantSummary struct {
	RestaurantID   string     `json:"restaurantId"`
	RestaurantName string     `json:"restaurantName"`
	Lines          []CartLine `json:"items"`
	ItemCount      int        `json:"itemCount"`
	Subtotal       float64    `json:"subtotal"`
}

// CartSummary is the grouped, totalled view of a cart.
type CartSummary struct {
	Restaurants []RestaurantSummary `json:"restaurants"`
	TotalItems  int                 `json:"totalItems"`
	TotalAmount float64             `json:"totalAmount"`
}
