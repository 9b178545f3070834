package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Custom tags registered on top of the validator's baked-in ones.
const (
	TagString    = "is_string"
	TagInteger   = "is_integer"
	TagBool      = "is_bool"
	TagMap       = "is_map"
	TagList      = "is_list"
	TagUSZipCode = "us_zipcode"
	TagUSPhone   = "us_phone"
)

var (
	usZipCodeRegex = regexp.MustCompile(`^[0-9]{5}(?:-[0-9]{4})?$`)
	usPhoneRegex   = regexp.MustCompile(`^[0-9]{10}$`)
)

// Engine evaluates a Schema against raw field values.
type Engine struct {
	v *validatorv10.Validate
}

// New returns an Engine with the SDK's custom tags registered.
func New() *Engine {
	v := validatorv10.New()

	custom := map[string]validatorv10.Func{
		TagString:    isString,
		TagInteger:   isInteger,
		TagBool:      isBool,
		TagMap:       isMap,
		TagList:      isList,
		TagUSZipCode: matches(usZipCodeRegex),
		TagUSPhone:   matches(usPhoneRegex),
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// only fails on empty tag or nil func
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}

	return &Engine{v: v}
}

// Validate evaluates every declared field of s against values and returns
// all violations in declaration order. It never stops at the first failing field.
func (e *Engine) Validate(s Schema, values map[string]any) Violations {
	var out Violations
	for _, f := range s.Fields {
		value, present := values[f.Name]
		if !present || value == nil {
			if (!present && f.Required) || (present && !f.Nullable) {
				out = append(out, Violation{Field: f.Name, Message: f.Missing})
			}
			continue
		}

		for _, r := range f.Rules {
			if e.passes(value, r.Tag) {
				continue
			}
			out = append(out, Violation{Field: f.Name, Message: r.render(value)})
			if r.Gate {
				break
			}
		}
	}
	return out
}

// passes reports whether value satisfies tag. Baked-in rules panic on
// unsupported kinds; that counts as a failure.
func (e *Engine) passes(value any, tag string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return e.v.Var(value, tag) == nil
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

// isString rejects json.Number, which is a string kind carrying a JSON number.
func isString(fl validatorv10.FieldLevel) bool {
	f := fl.Field()
	return f.Kind() == reflect.String && f.Type() != jsonNumberType
}

// isInteger accepts integer kinds and floats holding a whole number, which is
// what encoding/json produces for integers decoded into interface values.
// Values outside the int64 range are rejected.
func isInteger(fl validatorv10.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return f.Uint() <= math.MaxInt64
	case reflect.Float32, reflect.Float64:
		x := f.Float()
		// -2^63 is exact in float64; 2^63 is the first value past MaxInt64
		return x == math.Trunc(x) && x >= math.MinInt64 && x < -math.MinInt64
	}
	return false
}

func isBool(fl validatorv10.FieldLevel) bool {
	return fl.Field().Kind() == reflect.Bool
}

func isMap(fl validatorv10.FieldLevel) bool {
	return fl.Field().Kind() == reflect.Map
}

func isList(fl validatorv10.FieldLevel) bool {
	k := fl.Field().Kind()
	return k == reflect.Slice || k == reflect.Array
}

func matches(re *regexp.Regexp) validatorv10.Func {
	return func(fl validatorv10.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return false
		}
		return re.MatchString(f.String())
	}
}
