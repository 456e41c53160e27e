package linekey

import (
	"strings"
	"testing"

	"fooddelivery-cart/internal/domain"
)

func TestEncode_EmptyAttrsKeepPlainID(t *testing.T) {
	if got := Encode("p1", domain.VariantAttrs{}); got != "p1" {
		t.Fatalf("expected plain id, got %q", got)
	}
	if got := Encode("p1", domain.VariantAttrs{SizeID: ""}); got != "p1" {
		t.Fatalf("expected plain id for empty size, got %q", got)
	}
	if got := Encode("p1", domain.VariantAttrs{SizeID: "   ", Customizations: "\t"}); got != "p1" {
		t.Fatalf("expected whitespace attrs to normalize away, got %q", got)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []domain.VariantAttrs{
		{},
		{SizeID: "L"},
		{SizeID: "S", SizeName: "Small"},
		{CategoryID: "c1", CategoryName: "Pizza", Customizations: "no onions, extra cheese"},
		{ImageURL: "https://cdn.example.com/img/p1.png?w=200&h=200"},
		{CategoryID: "c", CategoryName: "n", SizeID: "s", SizeName: "sn", Customizations: "x/y+z", ImageURL: "/i.png"},
	}
	for _, attrs := range cases {
		id := Encode("prod-42", attrs)
		base, got := Decode(id)
		if base != "prod-42" {
			t.Fatalf("base mismatch for %+v: %q", attrs, base)
		}
		if got != attrs {
			t.Fatalf("attrs mismatch: want %+v, got %+v", attrs, got)
		}
	}
}

func TestEncode_TrimsValues(t *testing.T) {
	id := Encode("p1", domain.VariantAttrs{SizeID: " M "})
	_, attrs := Decode(id)
	if attrs.SizeID != "M" {
		t.Fatalf("expected trimmed size, got %q", attrs.SizeID)
	}
	if id != Encode("p1", domain.VariantAttrs{SizeID: "M"}) {
		t.Fatalf("expected equal ids for trimmed and untrimmed values")
	}
}

func TestEncode_DistinctVariants(t *testing.T) {
	small := Encode("p1", domain.VariantAttrs{SizeID: "S"})
	medium := Encode("p1", domain.VariantAttrs{SizeID: "M"})
	if small == medium {
		t.Fatalf("expected distinct ids, both %q", small)
	}
	if BaseID(small) != "p1" || BaseID(medium) != "p1" {
		t.Fatalf("expected shared base id")
	}
}

func TestEncode_IsURLSafe(t *testing.T) {
	id := Encode("p1", domain.VariantAttrs{Customizations: "?>?>?>~~~"})
	suffix := strings.TrimPrefix(id, "p1"+Separator)
	if strings.ContainsAny(suffix, "+/=") {
		t.Fatalf("expected url-safe suffix, got %q", suffix)
	}
}

func TestDecode_FailsSoft(t *testing.T) {
	cases := []string{
		"p1",
		"p1::!!!not-base64!!!",
		"p1::" + "bm90LWpzb24", // "not-json"
		"::",
	}
	for _, id := range cases {
		base, attrs := Decode(id)
		if base != id {
			t.Fatalf("expected id %q back unchanged, got %q", id, base)
		}
		if !attrs.IsZero() {
			t.Fatalf("expected empty attrs for %q, got %+v", id, attrs)
		}
	}
}

func TestDecode_SplitsOnFirstSeparator(t *testing.T) {
	id := Encode("p1", domain.VariantAttrs{SizeID: "XL"})
	base, attrs := Decode(id)
	if base != "p1" || attrs.SizeID != "XL" {
		t.Fatalf("unexpected decode %q %+v", base, attrs)
	}
}
