package validation

import (
	"fmt"
	"strings"
)

// Violation describes one failed rule. Field is a dotted path for nested
// entities (billingAddress.zipcode, cartItems.0.unitTax).
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is an ordered list of rule failures.
type Violations []Violation

// Messages returns the messages in order.
func (vs Violations) Messages() []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Message)
	}
	return out
}

// Under returns a copy with every field path nested below parent.
func (vs Violations) Under(parent string) Violations {
	out := make(Violations, 0, len(vs))
	for _, v := range vs {
		field := parent
		if v.Field != "" {
			field = parent + "." + v.Field
		}
		out = append(out, Violation{Field: field, Message: v.Message})
	}
	return out
}

// ValidationError is returned when an entity cannot be built from its input.
// It carries every violation found, not only the first.
type ValidationError struct {
	Entity     string
	Violations Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(e.Violations.Messages(), "; "))
}

// Check returns a *ValidationError when vs is non-empty, nil otherwise.
func Check(entity string, vs Violations) error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Violations: vs}
}

// Rule is one atomic check attached to a field. Tag uses validator tag
// syntax ("min=2", "email", "us_zipcode"). Message may contain the
// {{ value }} placeholder. A failing Gate rule stops the remaining rules of
// its field, which keeps type-specific rules away from values of the wrong kind.
type Rule struct {
	Tag     string
	Message string
	Gate    bool
}

func (r Rule) render(value any) string {
	return strings.ReplaceAll(r.Message, "{{ value }}", fmt.Sprintf("%v", value))
}

// Field declares the rules of a single entity field.
type Field struct {
	Name string
	// Required fields must be present in the input.
	Required bool
	// Nullable fields accept an explicit nil.
	Nullable bool
	// Missing is reported when a required field is absent or a non-nullable one is nil.
	Missing string
	Rules   []Rule
}

// Schema is the declarative rule table of one entity type, in declaration order.
type Schema struct {
	Entity string
	Fields []Field
}
