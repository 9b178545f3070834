package validation

import (
	"fmt"
	"strings"
)

// Rule constructors with the message catalogue shared by every entity.

func IsString(label string) Rule {
	return Rule{Tag: TagString, Message: "The value of " + label + " - {{ value }} - is not a valid string.", Gate: true}
}

func IsInteger(label string) Rule {
	return Rule{Tag: TagInteger, Message: "The value of " + label + " - {{ value }} - is not a valid integer.", Gate: true}
}

func IsBool(label string) Rule {
	return Rule{Tag: TagBool, Message: "The value of " + label + " - {{ value }} - is not a valid boolean.", Gate: true}
}

// IsMap gates nested entities; kind names the expected entity ("address").
func IsMap(label, kind string) Rule {
	return Rule{Tag: TagMap, Message: fmt.Sprintf("The value of %s is not a valid %s.", label, kind), Gate: true}
}

func IsList(label string) Rule {
	return Rule{Tag: TagList, Message: "The value of " + label + " should be a list.", Gate: true}
}

func NotBlank(label string) Rule {
	return Rule{Tag: "required", Message: "The value of " + label + " should not be blank."}
}

func MinLength(label string, n int) Rule {
	return Rule{
		Tag:     fmt.Sprintf("min=%d", n),
		Message: fmt.Sprintf("The value of %s is too short. It should have %d characters or more.", label, n),
	}
}

func ExactLength(label string, n int) Rule {
	return Rule{
		Tag:     fmt.Sprintf("len=%d", n),
		Message: fmt.Sprintf("The value of %s should have exactly %d characters.", label, n),
	}
}

func MinItems(label string, n int) Rule {
	return Rule{
		Tag:     fmt.Sprintf("min=%d", n),
		Message: fmt.Sprintf("The value of %s should contain at least %d element(s).", label, n),
	}
}

func Positive(label string) Rule {
	return Rule{Tag: "gt=0", Message: "The value of " + label + " should be positive."}
}

func Email(label string) Rule {
	return Rule{Tag: "email", Message: "The value of " + label + " is not a valid email address."}
}

// URL accepts the empty string, matching how merchants leave optional callbacks unset.
func URL(label string) Rule {
	return Rule{Tag: "omitempty,url", Message: "The value of " + label + " is not a valid URL."}
}

func Date(label string) Rule {
	return Rule{Tag: "datetime=2006-01-02", Message: "The value of " + label + " is not a valid Date with format YYYY-MM-DD."}
}

func OneOf(label string, choices ...string) Rule {
	return Rule{
		Tag:     "oneof=" + strings.Join(choices, " "),
		Message: fmt.Sprintf("The value of %s should be one of: %s.", label, strings.Join(choices, ", ")),
	}
}

// Pattern attaches one of the regexp-backed custom tags. Empty strings are
// left to NotBlank.
func Pattern(tag, message string) Rule {
	return Rule{Tag: "omitempty," + tag, Message: message}
}

// Missing messages.

func NotNullMessage(label string) string {
	return "The value of " + label + " should not be null."
}

func NotBlankMessage(label string) string {
	return "The value of " + label + " should not be blank."
}
