package entity

import "github.com/imrishuroy/go-wgf-sdk/validation"

// Shipping statuses accepted by the lead API.
const (
	StatusShipped   = "shipped"
	StatusStocked   = "stocked"
	StatusShortage  = "shortage"
	StatusDelivered = "delivered"
)

// ShippingStatusUpdate reports the shipping progress of a financed order.
// InvID addresses the lead and is not part of the request body.
type ShippingStatusUpdate struct {
	ShippingStatus  string
	TrackingID      string
	TrackingCompany string
	DeliveryDate    string
	InvID           string
}

var shippingStatusSchema = validation.Schema{
	Entity: "shipping status update",
	Fields: []validation.Field{
		{
			Name: "shippingStatus", Required: true, Missing: validation.NotBlankMessage("shipping status"),
			Rules: []validation.Rule{
				validation.IsString("shipping status"),
				validation.OneOf("shipping status", StatusShipped, StatusStocked, StatusShortage, StatusDelivered),
			},
		},
		{
			Name: "trackingId", Required: true, Missing: validation.NotBlankMessage("tracking id"),
			Rules: []validation.Rule{
				validation.IsString("tracking id"),
				validation.NotBlank("tracking id"),
			},
		},
		{
			Name: "trackingCompany", Required: true, Missing: validation.NotBlankMessage("tracking company"),
			Rules: []validation.Rule{
				validation.IsString("tracking company"),
				validation.NotBlank("tracking company"),
			},
		},
		{
			Name: "deliveryDate", Required: true, Missing: validation.NotBlankMessage("delivery date"),
			Rules: []validation.Rule{
				validation.IsString("delivery date"),
				validation.Date("delivery date"),
			},
		},
		{
			Name: "invId", Required: true, Missing: validation.NotBlankMessage("inv id"),
			Rules: []validation.Rule{
				validation.IsString("inv id"),
				validation.NotBlank("inv id"),
			},
		},
	},
}

// NewShippingStatusUpdate builds a ShippingStatusUpdate from raw.
func NewShippingStatusUpdate(raw map[string]any) (*ShippingStatusUpdate, error) {
	in := input(raw)
	if err := validation.Check(shippingStatusSchema.Entity, engine.Validate(shippingStatusSchema, in)); err != nil {
		return nil, err
	}
	return &ShippingStatusUpdate{
		ShippingStatus:  str(in, "shippingStatus"),
		TrackingID:      str(in, "trackingId"),
		TrackingCompany: str(in, "trackingCompany"),
		DeliveryDate:    str(in, "deliveryDate"),
		InvID:           str(in, "invId"),
	}, nil
}

// WireFields omits invId, which travels in the request path.
func (s *ShippingStatusUpdate) WireFields() []WireField {
	return []WireField{
		{"shippingStatus", s.ShippingStatus},
		{"trackingId", s.TrackingID},
		{"trackingCompany", s.TrackingCompany},
		{"deliveryDate", s.DeliveryDate},
	}
}

// Record returns every field including invId, for queuing the update
// before it is sent.
func (s *ShippingStatusUpdate) Record() map[string]any {
	out := Serialize(s)
	out["inv_id"] = s.InvID
	return out
}
