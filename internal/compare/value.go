package compare

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the representation held by a Value.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindBool
	KindText
	KindNumber
	KindBBox
)

// Value is a scalar or short fixed-length field value of a flattened row.
//
// Numbers and boxes carry the precision they were rounded to; when set, the
// textual form is fixed-precision and boxes render as a comma-joined string
// so exact comparison is a comparison of the rounded representation.
type Value struct {
	kind      ValueKind
	b         bool
	text      string
	num       float64
	vec       []float64
	precision int
}

// Missing is the marker used in mismatches for an absent field.
func Missing() Value { return Value{kind: KindMissing} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Text returns an opaque string token.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns an unrounded number.
func Number(f float64) Value { return Value{kind: KindNumber, num: f, precision: NoRounding} }

// BBox returns an unrounded bounding box.
func BBox(coords ...float64) Value {
	return Value{kind: KindBBox, vec: append([]float64(nil), coords...), precision: NoRounding}
}

// roundedNumber rounds f to precision decimals (or not at all).
func roundedNumber(f float64, precision int) Value {
	return Value{kind: KindNumber, num: roundTo(f, precision), precision: precision}
}

// roundedBBox rounds every coordinate to precision decimals (or not at all).
func roundedBBox(coords []float64, precision int) Value {
	vec := make([]float64, len(coords))
	for i, c := range coords {
		vec[i] = roundTo(c, precision)
	}
	return Value{kind: KindBBox, vec: vec, precision: precision}
}

// roundTo rounds the exact binary value of f once, half to even, so 2.675
// becomes 2.67 because it is stored as 2.67499999...
func roundTo(f float64, precision int) float64 {
	if precision < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', precision, 64), 64)
	if err != nil {
		return f
	}
	return r
}

// Kind reports the representation of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric value and whether v is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Coords returns a copy of the box coordinates and whether v is a box.
func (v Value) Coords() ([]float64, bool) {
	if v.kind != KindBBox {
		return nil, false
	}
	return append([]float64(nil), v.vec...), true
}

// String renders the value as it appears in a transcript.
func (v Value) String() string {
	switch v.kind {
	case KindMissing:
		return "missing"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindText:
		return v.text
	case KindNumber:
		return formatFloat(v.num, v.precision)
	case KindBBox:
		parts := make([]string, len(v.vec))
		for i, c := range v.vec {
			parts[i] = formatFloat(c, v.precision)
		}
		if v.precision >= 0 {
			return strings.Join(parts, ",")
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// Equal is exact equality of kind and rendered representation.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.String() == o.String()
}

// MarshalJSON writes the natural JSON form: booleans, numbers and strings
// as themselves, unrounded boxes as arrays, rounded boxes as their joined
// string and the missing marker as "missing".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBBox:
		if v.precision < 0 {
			return json.Marshal(v.vec)
		}
	}
	return json.Marshal(v.String())
}
