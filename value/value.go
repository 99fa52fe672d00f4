// Package value defines the closed scalar value variant used across colgo.
//
// A Value carries exactly one of the supported scalar kinds (or null). The
// representation is designed to make filtering and grouping fast and
// predictable: no reflection and no fmt-based stringification on hot paths.
package value

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt32 represents a 32-bit integer value.
	KindInt32
	// KindInt64 represents a 64-bit integer value.
	KindInt64
	// KindFloat32 represents a 32-bit float value.
	KindFloat32
	// KindFloat64 represents a 64-bit float value.
	KindFloat64
	// KindBool represents a boolean value.
	KindBool
	// KindString represents a string value.
	KindString
	// KindDate represents a date as milliseconds since the Unix epoch.
	KindDate
	// KindTimestamp represents a timestamp as milliseconds since the Unix epoch.
	KindTimestamp
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindTimestamp:
		return "Timestamp"
	default:
		return "Invalid"
	}
}

// Value is a small typed scalar used for rows, filter operands and results.
//
// Exactly one payload field is meaningful, selected by Kind. Int32, Date and
// Timestamp share the I64 payload; Float32 shares F64 (a float32 converts to
// float64 exactly, so round-trips are lossless).
//
// NOTE: This type crosses the wire via the codec package; keep it stable.
type Value struct {
	Kind Kind    `json:"k"`
	I64  int64   `json:"i,omitempty"`
	F64  float64 `json:"f,omitempty"`
	B    bool    `json:"b,omitempty"`
	S    string  `json:"s,omitempty"`
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int32 returns an int32 Value.
func Int32(v int32) Value { return Value{Kind: KindInt32, I64: int64(v)} }

// Int64 returns an int64 Value.
func Int64(v int64) Value { return Value{Kind: KindInt64, I64: v} }

// Float32 returns a float32 Value.
func Float32(v float32) Value { return Value{Kind: KindFloat32, F64: float64(v)} }

// Float64 returns a float64 Value.
func Float64(v float64) Value { return Value{Kind: KindFloat64, F64: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Date returns a date Value from milliseconds since the Unix epoch.
func Date(millis int64) Value { return Value{Kind: KindDate, I64: millis} }

// Timestamp returns a timestamp Value from milliseconds since the Unix epoch.
func Timestamp(millis int64) Value { return Value{Kind: KindTimestamp, I64: millis} }

// DateFromTime returns a date Value for t, truncated to millisecond precision.
func DateFromTime(t time.Time) Value { return Date(t.UnixMilli()) }

// TimestampFromTime returns a timestamp Value for t, truncated to millisecond precision.
func TimestampFromTime(t time.Time) Value { return Timestamp(t.UnixMilli()) }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsInt32 returns the int32 value if Kind is KindInt32.
func (v Value) AsInt32() (int32, bool) {
	if v.Kind != KindInt32 {
		return 0, false
	}
	return int32(v.I64), true
}

// AsInt64 returns the int64 value if Kind is KindInt64.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt64 {
		return 0, false
	}
	return v.I64, true
}

// AsFloat32 returns the float32 value if Kind is KindFloat32.
func (v Value) AsFloat32() (float32, bool) {
	if v.Kind != KindFloat32 {
		return 0, false
	}
	return float32(v.F64), true
}

// AsFloat64 returns the float64 value if Kind is KindFloat64.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat64 {
		return 0, false
	}
	return v.F64, true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// AsMillis returns the epoch-millisecond payload if Kind is KindDate or KindTimestamp.
func (v Value) AsMillis() (int64, bool) {
	if v.Kind != KindDate && v.Kind != KindTimestamp {
		return 0, false
	}
	return v.I64, true
}

// Key returns a stable string representation for use as a map or bitmap key.
//
// It is intended for internal indexing (bitmap posting lists, group keys) and
// must remain stable across versions for wire-encoded partial results.
func (v Value) Key() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt32:
		return "i32:" + strconv.FormatInt(v.I64, 10)
	case KindInt64:
		return "i64:" + strconv.FormatInt(v.I64, 10)
	case KindFloat32:
		return "f32:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindFloat64:
		return "f64:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case KindString:
		return "s:" + v.S
	case KindDate:
		return "d:" + strconv.FormatInt(v.I64, 10)
	case KindTimestamp:
		return "ts:" + strconv.FormatInt(v.I64, 10)
	default:
		return "invalid"
	}
}

// String returns a human-readable representation, mainly for logs and tests.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt32, KindInt64, KindDate, KindTimestamp:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat32, KindFloat64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindString:
		return v.S
	default:
		return "invalid"
	}
}

// Equal reports whether a and b hold the same kind and payload.
// Null equals null; null never equals a non-null value.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindInt32, KindInt64, KindDate, KindTimestamp:
		return a.I64 == b.I64
	case KindFloat32, KindFloat64:
		return a.F64 == b.F64
	case KindBool:
		return a.B == b.B
	case KindString:
		return a.S == b.S
	default:
		return false
	}
}

// Less reports whether a orders before b. Both values must be non-null and of
// the same kind; the second return is false for unordered kinds (bool, null).
func Less(a, b Value) (less, ok bool) {
	if a.Kind != b.Kind {
		return false, false
	}
	switch a.Kind {
	case KindInt32, KindInt64, KindDate, KindTimestamp:
		return a.I64 < b.I64, true
	case KindFloat32, KindFloat64:
		return a.F64 < b.F64, true
	case KindString:
		return a.S < b.S, true
	default:
		return false, false
	}
}

// Compare orders two values for sorting. Null compares as less than any
// non-null value, independent of sort direction. Values of unordered kinds
// compare equal unless one side is null.
func Compare(a, b Value) int {
	switch {
	case a.Kind == KindNull && b.Kind == KindNull:
		return 0
	case a.Kind == KindNull:
		return -1
	case b.Kind == KindNull:
		return 1
	}
	if less, ok := Less(a, b); ok {
		if less {
			return -1
		}
		if gr, _ := Less(b, a); gr {
			return 1
		}
		return 0
	}
	if Equal(a, b) {
		return 0
	}
	// Unordered kind (bool): fall back to a stable arbitrary order.
	if !a.B && b.B {
		return -1
	}
	if a.B && !b.B {
		return 1
	}
	return 0
}
