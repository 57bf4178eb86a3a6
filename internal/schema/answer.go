package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ValueKind tags which field of an AnswerValue is populated.
type ValueKind string

const (
	KindNone    ValueKind = ""
	KindBool    ValueKind = "bool"
	KindString  ValueKind = "string"
	KindStrings ValueKind = "strings"
	KindNumber  ValueKind = "number"
	KindDate    ValueKind = "date"
)

// DateLayout is the canonical wire format of date answers.
const DateLayout = "2006-01-02"

// AnswerValue is a tagged union over the concrete answer shapes. Exactly one
// field matching Kind is meaningful. On the wire it is the bare JSON value.
type AnswerValue struct {
	Kind    ValueKind
	Bool    bool
	Str     string
	Strings []string
	Number  float64
}

// Bool returns a boolean answer value.
func Bool(v bool) AnswerValue { return AnswerValue{Kind: KindBool, Bool: v} }

// String returns a string answer value.
func String(v string) AnswerValue { return AnswerValue{Kind: KindString, Str: v} }

// Strings returns a string-array answer value.
func Strings(v ...string) AnswerValue {
	return AnswerValue{Kind: KindStrings, Strings: append([]string(nil), v...)}
}

// Number returns a numeric answer value.
func Number(v float64) AnswerValue { return AnswerValue{Kind: KindNumber, Number: v} }

// Date returns a date answer value truncated to the calendar day.
func Date(t time.Time) AnswerValue {
	return AnswerValue{Kind: KindDate, Str: t.UTC().Format(DateLayout)}
}

// IsEmpty reports whether the value carries no usable content. Blank strings
// count as empty; an explicit false or zero does not.
func (v AnswerValue) IsEmpty() bool {
	switch v.Kind {
	case KindNone:
		return true
	case KindString, KindDate:
		return strings.TrimSpace(v.Str) == ""
	}
	return false
}

// AsTime parses a date or string value. Accepts DateLayout and RFC 3339.
func (v AnswerValue) AsTime() (time.Time, bool) {
	if v.Kind != KindDate && v.Kind != KindString {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.Str)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// String renders the value for messages and string comparisons.
func (v AnswerValue) String() string {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString, KindDate:
		return v.Str
	case KindStrings:
		return strings.Join(v.Strings, ", ")
	case KindNumber:
		return fmt.Sprintf("%g", v.Number)
	}
	return ""
}

// MarshalJSON writes the bare JSON value.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindString, KindDate:
		return json.Marshal(v.Str)
	case KindStrings:
		if v.Strings == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Strings)
	case KindNumber:
		return json.Marshal(v.Number)
	}
	return []byte("null"), nil
}

// UnmarshalJSON infers the kind from the JSON token. Date answers arrive as
// strings; AsTime recovers them.
func (v *AnswerValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*v = AnswerValue{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case 't', 'f':
		v.Kind = KindBool
		return json.Unmarshal(b, &v.Bool)
	case '"':
		v.Kind = KindString
		return json.Unmarshal(b, &v.Str)
	case '[':
		v.Kind = KindStrings
		if err := json.Unmarshal(b, &v.Strings); err != nil {
			return fmt.Errorf("schema: answer array must contain strings: %w", err)
		}
		return nil
	default:
		v.Kind = KindNumber
		if err := json.Unmarshal(b, &v.Number); err != nil {
			return fmt.Errorf("schema: unsupported answer value %s", b)
		}
		return nil
	}
}
