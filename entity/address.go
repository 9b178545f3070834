package entity

import "github.com/imrishuroy/go-wgf-sdk/validation"

// Address is a US postal address.
type Address struct {
	Street1 string
	City    string
	State   string
	Zipcode string
}

var addressSchema = validation.Schema{
	Entity: "address",
	Fields: []validation.Field{
		{
			Name: "street1", Required: true, Missing: validation.NotBlankMessage("street1"),
			Rules: []validation.Rule{
				validation.IsString("street1"),
				validation.NotBlank("street1"),
				validation.MinLength("street1", 2),
			},
		},
		{
			Name: "city", Required: true, Missing: validation.NotBlankMessage("city"),
			Rules: []validation.Rule{
				validation.IsString("city"),
				validation.NotBlank("city"),
				validation.MinLength("city", 2),
			},
		},
		{
			Name: "state", Required: true, Missing: validation.NotBlankMessage("state"),
			Rules: []validation.Rule{
				validation.IsString("state"),
				validation.NotBlank("state"),
				validation.ExactLength("state", 2),
			},
		},
		{
			Name: "zipcode", Required: true, Missing: validation.NotBlankMessage("zipcode"),
			Rules: []validation.Rule{
				validation.IsString("zipcode"),
				validation.NotBlank("zipcode"),
				validation.Pattern(validation.TagUSZipCode,
					"The value of zipcode should contain only 5 numbers optionally followed by a dash and 4 numbers."),
			},
		},
	},
}

// NewAddress builds an Address from raw. Keys may be snake_case or camelCase.
func NewAddress(raw map[string]any) (*Address, error) {
	a, vs := buildAddress(raw)
	if err := validation.Check(addressSchema.Entity, vs); err != nil {
		return nil, err
	}
	return a, nil
}

func buildAddress(raw map[string]any) (*Address, validation.Violations) {
	in := input(raw)
	if vs := engine.Validate(addressSchema, in); len(vs) > 0 {
		return nil, vs
	}
	return &Address{
		Street1: str(in, "street1"),
		City:    str(in, "city"),
		State:   str(in, "state"),
		Zipcode: str(in, "zipcode"),
	}, nil
}

func (a *Address) WireFields() []WireField {
	return []WireField{
		{"street1", a.Street1},
		{"city", a.City},
		{"state", a.State},
		{"zipcode", a.Zipcode},
	}
}
