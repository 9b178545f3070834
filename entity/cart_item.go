package entity

import (
	"github.com/imrishuroy/go-wgf-sdk/money"
	"github.com/imrishuroy/go-wgf-sdk/validation"
)

// CartItem is one line of the cart being financed.
type CartItem struct {
	SKU         string
	DisplayName string
	UnitPrice   money.Value
	Quantity    int
	UnitTax     money.Value
	Category    *string
}

var cartItemSchema = validation.Schema{
	Entity: "cart item",
	Fields: []validation.Field{
		{
			Name: "sku", Required: true, Missing: validation.NotBlankMessage("sku"),
			Rules: []validation.Rule{
				validation.IsString("sku"),
				validation.NotBlank("sku"),
			},
		},
		{
			Name: "displayName", Required: true, Missing: validation.NotBlankMessage("display name"),
			Rules: []validation.Rule{
				validation.IsString("display name"),
				validation.NotBlank("display name"),
				validation.MinLength("display name", 2),
			},
		},
		{Name: "unitPrice", Required: true, Missing: validation.NotNullMessage("unit price")},
		{
			Name: "quantity", Required: true, Missing: validation.NotNullMessage("quantity"),
			Rules: []validation.Rule{
				validation.IsInteger("quantity"),
				validation.Positive("quantity"),
			},
		},
		{Name: "unitTax", Required: true, Missing: validation.NotNullMessage("unit tax")},
		{
			Name: "category", Nullable: true,
			Rules: []validation.Rule{validation.IsString("category")},
		},
	},
}

// NewCartItem builds a CartItem from raw.
func NewCartItem(raw map[string]any) (*CartItem, error) {
	item, vs := buildCartItem(raw)
	if err := validation.Check(cartItemSchema.Entity, vs); err != nil {
		return nil, err
	}
	return item, nil
}

func buildCartItem(raw map[string]any) (*CartItem, validation.Violations) {
	in := input(raw)

	var (
		item CartItem
		vs   validation.Violations
	)
	if v, ok := present(in, "unitPrice"); ok {
		price, mvs := money.New(v, "Unit Price", false)
		vs = append(vs, mvs.Under("unitPrice")...)
		item.UnitPrice = price
	}
	if v, ok := present(in, "unitTax"); ok {
		tax, mvs := money.New(v, "Unit Tax", true)
		vs = append(vs, mvs.Under("unitTax")...)
		item.UnitTax = tax
	}

	vs = append(vs, engine.Validate(cartItemSchema, in)...)
	if len(vs) > 0 {
		return nil, vs
	}

	item.SKU = str(in, "sku")
	item.DisplayName = str(in, "displayName")
	item.Quantity = integer(in, "quantity")
	item.Category = optStr(in, "category")
	return &item, nil
}

func (c *CartItem) WireFields() []WireField {
	return []WireField{
		{"sku", c.SKU},
		{"displayName", c.DisplayName},
		{"unitPrice", c.UnitPrice},
		{"quantity", c.Quantity},
		{"unitTax", c.UnitTax},
		{"category", c.Category},
	}
}
