package entity

import (
	"github.com/imrishuroy/go-wgf-sdk/money"
	"github.com/imrishuroy/go-wgf-sdk/validation"
)

// LoanSuccess is the data of an accepted loan request.
type LoanSuccess struct {
	Amount money.Value
	Href   string
	InvID  string
}

// LoanError is the data of a rejected loan request.
type LoanError struct {
	Error    string
	Message  string
	Type     string
	Stamp    string
	Debug    any
	Subjects any
	Reasons  any
}

var loanSuccessSchema = validation.Schema{
	Entity: "loan success",
	Fields: []validation.Field{
		{Name: "amount", Required: true, Missing: validation.NotNullMessage("amount")},
		{
			Name: "href", Required: true, Missing: validation.NotBlankMessage("href"),
			Rules: []validation.Rule{
				validation.IsString("href"),
				validation.NotBlank("href"),
				validation.URL("href"),
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

func errorText(name string) validation.Field {
	return validation.Field{
		Name: name, Required: true, Missing: validation.NotBlankMessage(name),
		Rules: []validation.Rule{
			validation.IsString(name),
			validation.NotBlank(name),
		},
	}
}

var loanErrorSchema = validation.Schema{
	Entity: "loan error",
	Fields: []validation.Field{
		errorText("error"),
		errorText("message"),
		errorText("type"),
		errorText("stamp"),
		{Name: "debug", Nullable: true},
		{Name: "subjects", Nullable: true},
		{
			Name: "reasons", Nullable: true,
			Rules: []validation.Rule{validation.IsList("reasons")},
		},
	},
}

// NewLoanSuccess builds LoanSuccess from the decoded response body.
func NewLoanSuccess(raw map[string]any) (*LoanSuccess, error) {
	in := input(raw)

	var (
		s  LoanSuccess
		vs validation.Violations
	)
	if v, ok := present(in, "amount"); ok {
		amount, mvs := money.New(v, "Amount", true)
		vs = append(vs, mvs.Under("amount")...)
		s.Amount = amount
	}
	vs = append(vs, engine.Validate(loanSuccessSchema, in)...)
	if err := validation.Check(loanSuccessSchema.Entity, vs); err != nil {
		return nil, err
	}

	s.Href = str(in, "href")
	s.InvID = str(in, "invId")
	return &s, nil
}

// NewLoanError builds LoanError from the decoded response body.
func NewLoanError(raw map[string]any) (*LoanError, error) {
	in := input(raw)
	if err := validation.Check(loanErrorSchema.Entity, engine.Validate(loanErrorSchema, in)); err != nil {
		return nil, err
	}
	return &LoanError{
		Error:    str(in, "error"),
		Message:  str(in, "message"),
		Type:     str(in, "type"),
		Stamp:    str(in, "stamp"),
		Debug:    in["debug"],
		Subjects: in["subjects"],
		Reasons:  in["reasons"],
	}, nil
}

// Data returns the success shape keyed the way the envelope exposes it.
func (s *LoanSuccess) Data() map[string]any {
	return map[string]any{
		"amount": s.Amount.Canonical(),
		"href":   s.Href,
		"invId":  s.InvID,
	}
}

// Data returns the error shape keyed the way the envelope exposes it.
func (e *LoanError) Data() map[string]any {
	return map[string]any{
		"error":    e.Error,
		"message":  e.Message,
		"type":     e.Type,
		"stamp":    e.Stamp,
		"debug":    e.Debug,
		"subjects": e.Subjects,
		"reasons":  e.Reasons,
	}
}
