package markup

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// ScalarKind identifies the type of a Scalar.
type ScalarKind int

const (
	Null ScalarKind = iota
	Bool
	Number
	String
)

// String returns the scalar kind name.
func (k ScalarKind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

var numberPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Scalar is a leaf value: null, boolean, number or string.
// Numbers keep their source text so they re-encode exactly.
type Scalar struct {
	kind ScalarKind
	b    bool
	text string
}

func (Scalar) Kind() Kind { return KindScalar }
func (Scalar) sealed()    {}

// NullValue returns the null scalar.
func NullValue() Scalar { return Scalar{kind: Null} }

// BoolValue returns a boolean scalar.
func BoolValue(b bool) Scalar { return Scalar{kind: Bool, b: b} }

// NumberValue returns a numeric scalar rendered in the shortest exact form.
func NumberValue(f float64) Scalar {
	return Scalar{kind: Number, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// StringValue returns a string scalar.
func StringValue(s string) Scalar { return Scalar{kind: String, text: s} }

// Coerce converts a trimmed token into a typed scalar. It never fails: a
// token matching no special form is returned as a plain string.
func Coerce(token string) Scalar {
	switch token {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	case "null":
		return NullValue()
	}
	if numberPattern.MatchString(token) {
		return Scalar{kind: Number, text: token}
	}
	if inner, ok := stripQuotes(token); ok {
		return StringValue(inner)
	}
	return StringValue(token)
}

// stripQuotes removes one pair of matching single or double quotes. Escapes
// are not processed.
func stripQuotes(s string) (string, bool) {
	if n := len(s); n >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[n-1] == q {
			return s[1 : n-1], true
		}
	}
	return s, false
}

// ScalarKind returns the scalar's type.
func (s Scalar) ScalarKind() ScalarKind { return s.kind }

// IsNull reports whether the scalar is null.
func (s Scalar) IsNull() bool { return s.kind == Null }

// Bool returns the boolean value; false for non-booleans.
func (s Scalar) Bool() bool { return s.kind == Bool && s.b }

// Float returns the numeric value; 0 for non-numbers.
func (s Scalar) Float() float64 {
	if s.kind != Number {
		return 0
	}
	f, _ := strconv.ParseFloat(s.text, 64)
	return f
}

// Int returns the numeric value truncated to an integer.
func (s Scalar) Int() int64 {
	if s.kind != Number {
		return 0
	}
	if i, err := strconv.ParseInt(s.text, 10, 64); err == nil {
		return i
	}
	return int64(s.Float())
}

// String renders the scalar as text. Strings are returned without quotes.
func (s Scalar) String() string {
	switch s.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(s.b)
	default:
		return s.text
	}
}

// Interface returns nil, bool, float64 or string.
func (s Scalar) Interface() any {
	switch s.kind {
	case Null:
		return nil
	case Bool:
		return s.b
	case Number:
		return s.Float()
	default:
		return s.text
	}
}

// Equal compares two scalars by kind and value. Numbers compare numerically.
func (s Scalar) Equal(o Scalar) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case Null:
		return true
	case Bool:
		return s.b == o.b
	case Number:
		return s.Float() == o.Float()
	default:
		return s.text == o.text
	}
}

// MarshalJSON encodes the scalar as its JSON equivalent.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(s.b)
	case Number:
		// Leading zeros are valid here but not in JSON.
		if json.Valid([]byte(s.text)) {
			return []byte(s.text), nil
		}
		return json.Marshal(s.Float())
	default:
		return json.Marshal(s.text)
	}
}
