// Package naming maps field names between the wire (snake_case) and the
// SDK's internal representation (lowerCamelCase).
package naming

import "github.com/stoewer/go-strcase"

// Normalize converts an internal field name to its wire form: firstName -> first_name.
func Normalize(internal string) string {
	return strcase.SnakeCase(internal)
}

// Denormalize converts a wire or internal field name to its internal form.
// Both first_name and firstName yield firstName, so input maps may mix casing styles.
func Denormalize(external string) string {
	return strcase.LowerCamelCase(external)
}
