// Package linekey encodes a product and its selected variant into a single
// cart line identifier. The backend stores whatever id it is given, so the
// variant travels inside the id and can be recovered on the read path.
package linekey

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"fooddelivery-cart/internal/domain"
)

// Separator splits the base product id from the encoded variant suffix.
// It never occurs in base64url output.
const Separator = "::"

// Normalize trims every attribute and drops the ones left empty.
func Normalize(attrs domain.VariantAttrs) domain.VariantAttrs {
	return domain.VariantAttrs{
		CategoryID:     strings.TrimSpace(attrs.CategoryID),
		CategoryName:   strings.TrimSpace(attrs.CategoryName),
		SizeID:         strings.TrimSpace(attrs.SizeID),
		SizeName:       strings.TrimSpace(attrs.SizeName),
		Customizations: strings.TrimSpace(attrs.Customizations),
		ImageURL:       strings.TrimSpace(attrs.ImageURL),
	}
}

// Encode returns the line id for a product with the given variant. Products
// without any variant attribute keep their plain id.
func Encode(baseProductID string, attrs domain.VariantAttrs) string {
	norm := Normalize(attrs)
	if norm.IsZero() {
		return baseProductID
	}
	// Marshalling a flat struct of strings cannot fail.
	raw, _ := json.Marshal(norm)
	return baseProductID + Separator + base64.RawURLEncoding.EncodeToString(raw)
}

// Decode splits a line id back into its base product id and attributes.
// Ids that carry no suffix, or a suffix that does not decode, are returned
// unchanged with empty attributes.
func Decode(lineID string) (string, domain.VariantAttrs) {
	idx := strings.Index(lineID, Separator)
	if idx < 0 {
		return lineID, domain.VariantAttrs{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(lineID[idx+len(Separator):])
	if err != nil {
		return lineID, domain.VariantAttrs{}
	}
	var attrs domain.VariantAttrs
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return lineID, domain.VariantAttrs{}
	}
	return lineID[:idx], Normalize(attrs)
}

// BaseID returns only the catalog part of a line id.
func BaseID(lineID string) string {
	id, _ := Decode(lineID)
	return id
}
