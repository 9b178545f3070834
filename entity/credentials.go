package entity

import "github.com/imrishuroy/go-wgf-sdk/validation"

// Credentials identify a merchant against the lending API. They are
// read-only for the lifetime of a client.
type Credentials struct {
	Username   string
	Password   string
	MerchantID string
	// BaseURL overrides the environment's default API host when set.
	BaseURL string
	IsProd  bool
}

func credential(name, label string) validation.Field {
	return validation.Field{
		Name: name, Required: true, Missing: validation.NotBlankMessage(label),
		Rules: []validation.Rule{
			validation.IsString(label),
			validation.NotBlank(label),
			validation.MinLength(label, 2),
		},
	}
}

var credentialsSchema = validation.Schema{
	Entity: "credentials",
	Fields: []validation.Field{
		credential("username", "username"),
		credential("password", "password"),
		credential("merchantId", "merchant id"),
		{
			Name: "baseUrl", Nullable: true,
			Rules: []validation.Rule{
				validation.IsString("base url"),
				validation.URL("base url"),
			},
		},
		{
			Name: "isProd", Nullable: true,
			Rules: []validation.Rule{validation.IsBool("is prod")},
		},
	},
}

// NewCredentials builds Credentials from raw. isProd defaults to false.
func NewCredentials(raw map[string]any) (*Credentials, error) {
	in := input(raw)
	if err := validation.Check(credentialsSchema.Entity, engine.Validate(credentialsSchema, in)); err != nil {
		return nil, err
	}
	prod, _ := in["isProd"].(bool)
	return &Credentials{
		Username:   str(in, "username"),
		Password:   str(in, "password"),
		MerchantID: str(in, "merchantId"),
		BaseURL:    str(in, "baseUrl"),
		IsProd:     prod,
	}, nil
}

// String hides the secret so credentials can be passed to a logger.
func (c *Credentials) String() string {
	return "merchant " + c.MerchantID
}
