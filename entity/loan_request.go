package entity

import (
	"github.com/imrishuroy/go-wgf-sdk/money"
	"github.com/imrishuroy/go-wgf-sdk/validation"
)

// LoanRequest is the body of a new loan application.
type LoanRequest struct {
	FirstName             string
	LastName              string
	ShippingAmount        money.Value
	BillingAddress        *Address
	ShippingAddress       *Address
	Email                 string
	CartItems             []*CartItem
	Version               string
	Phone                 *string
	MerchantTransactionID *string
	SuccessURL            *string
	FailureURL            *string
	PostbackURL           *string
	SoftwareName          *string
	SoftwareVersion       *string
	SoftwarePluginVersion *string
}

func optionalText(name, label string) validation.Field {
	return validation.Field{
		Name: name, Missing: validation.NotNullMessage(label),
		Rules: []validation.Rule{
			validation.IsString(label),
			validation.NotBlank(label),
		},
	}
}

func optionalURL(name, label string) validation.Field {
	return validation.Field{
		Name: name, Missing: validation.NotNullMessage(label),
		Rules: []validation.Rule{
			validation.IsString(label),
			validation.URL(label),
		},
	}
}

var loanRequestSchema = validation.Schema{
	Entity: "loan request",
	Fields: []validation.Field{
		{
			Name: "firstName", Required: true, Missing: validation.NotBlankMessage("first name"),
			Rules: []validation.Rule{
				validation.IsString("first name"),
				validation.NotBlank("first name"),
				validation.MinLength("first name", 2),
			},
		},
		{
			Name: "lastName", Required: true, Missing: validation.NotBlankMessage("last name"),
			Rules: []validation.Rule{
				validation.IsString("last name"),
				validation.NotBlank("last name"),
				validation.MinLength("last name", 2),
			},
		},
		{Name: "shippingAmount", Required: true, Missing: validation.NotNullMessage("shipping amount")},
		{
			Name: "billingAddress", Required: true, Missing: validation.NotNullMessage("billing address"),
			Rules: []validation.Rule{validation.IsMap("billing address", "address")},
		},
		{
			Name: "shippingAddress", Required: true, Missing: validation.NotNullMessage("shipping address"),
			Rules: []validation.Rule{validation.IsMap("shipping address", "address")},
		},
		{
			Name: "email", Required: true, Missing: validation.NotBlankMessage("email"),
			Rules: []validation.Rule{
				validation.IsString("email"),
				validation.NotBlank("email"),
				validation.Email("email"),
			},
		},
		{
			Name: "cartItems", Required: true, Missing: validation.NotNullMessage("cart items"),
			Rules: []validation.Rule{
				validation.IsList("cart items"),
				validation.MinItems("cart items", 1),
			},
		},
		{
			Name: "version", Required: true, Missing: validation.NotBlankMessage("version"),
			Rules: []validation.Rule{
				validation.IsString("version"),
				validation.NotBlank("version"),
			},
		},
		{
			Name: "phone", Nullable: true,
			Rules: []validation.Rule{
				validation.IsString("phone"),
				validation.Pattern(validation.TagUSPhone, "The value of phone have to be 10 digits only."),
			},
		},
		{
			Name: "merchantTransactionId", Nullable: true,
			Rules: []validation.Rule{
				validation.IsString("merchant transaction id"),
				validation.MinLength("merchant transaction id", 2),
			},
		},
		optionalURL("successUrl", "success url"),
		optionalURL("failureUrl", "failure url"),
		optionalURL("postbackUrl", "postback url"),
		optionalText("softwareName", "software name"),
		optionalText("softwareVersion", "software version"),
		optionalText("softwarePluginVersion", "software plugin version"),
	},
}

// NewLoanRequest builds a LoanRequest, including its addresses, cart items
// and shipping amount. Violations of nested entities are reported with a
// dotted path (billingAddress.zipcode, cartItems.0.unitPrice).
func NewLoanRequest(raw map[string]any) (*LoanRequest, error) {
	lr, vs := buildLoanRequest(raw)
	if err := validation.Check(loanRequestSchema.Entity, vs); err != nil {
		return nil, err
	}
	return lr, nil
}

func buildLoanRequest(raw map[string]any) (*LoanRequest, validation.Violations) {
	in := input(raw)

	var (
		lr LoanRequest
		vs validation.Violations
	)

	if v, ok := present(in, "shippingAmount"); ok {
		amount, mvs := money.New(v, "Shipping Amount", true)
		vs = append(vs, mvs.Under("shippingAmount")...)
		lr.ShippingAmount = amount
	}

	for _, f := range []struct {
		key  string
		slot **Address
	}{
		{"billingAddress", &lr.BillingAddress},
		{"shippingAddress", &lr.ShippingAddress},
	} {
		m, ok := asMap(in[f.key])
		if !ok {
			// absent or of the wrong kind, reported by the schema
			continue
		}
		addr, avs := buildAddress(m)
		vs = append(vs, avs.Under(f.key)...)
		*f.slot = addr
	}

	if items, ok := asList(in["cartItems"]); ok {
		for i, raw := range items {
			path := index("cartItems", i)
			m, ok := asMap(raw)
			if !ok {
				vs = append(vs, validation.Violation{
					Field:   path,
					Message: "The value of cart items should contain only cart items.",
				})
				continue
			}
			item, ivs := buildCartItem(m)
			vs = append(vs, ivs.Under(path)...)
			if item != nil {
				lr.CartItems = append(lr.CartItems, item)
			}
		}
	}

	vs = append(vs, engine.Validate(loanRequestSchema, in)...)
	if len(vs) > 0 {
		return nil, vs
	}

	lr.FirstName = str(in, "firstName")
	lr.LastName = str(in, "lastName")
	lr.Email = str(in, "email")
	lr.Version = str(in, "version")
	lr.Phone = optStr(in, "phone")
	lr.MerchantTransactionID = optStr(in, "merchantTransactionId")
	lr.SuccessURL = optStr(in, "successUrl")
	lr.FailureURL = optStr(in, "failureUrl")
	lr.PostbackURL = optStr(in, "postbackUrl")
	lr.SoftwareName = optStr(in, "softwareName")
	lr.SoftwareVersion = optStr(in, "softwareVersion")
	lr.SoftwarePluginVersion = optStr(in, "softwarePluginVersion")
	return &lr, nil
}

func (lr *LoanRequest) WireFields() []WireField {
	items := make([]Serializable, 0, len(lr.CartItems))
	for _, item := range lr.CartItems {
		items = append(items, item)
	}
	return []WireField{
		{"firstName", lr.FirstName},
		{"lastName", lr.LastName},
		{"shippingAmount", lr.ShippingAmount},
		{"billingAddress", lr.BillingAddress},
		{"shippingAddress", lr.ShippingAddress},
		{"email", lr.Email},
		{"cartItems", items},
		{"version", lr.Version},
		{"phone", lr.Phone},
		{"merchantTransactionId", lr.MerchantTransactionID},
		{"successUrl", lr.SuccessURL},
		{"failureUrl", lr.FailureURL},
		{"postbackUrl", lr.PostbackURL},
		{"softwareName", lr.SoftwareName},
		{"softwareVersion", lr.SoftwareVersion},
		{"softwarePluginVersion", lr.SoftwarePluginVersion},
	}
}
