package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// NumberKind tags how a decoded input should be treated.
type NumberKind int

const (
	KindInvalid NumberKind = iota
	KindInt
	KindFloat
)

func (k NumberKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "invalid"
	}
}

// Number is an operand decoded at the transport boundary. The zero value is
// Invalid, which is what an absent JSON field decodes to.
type Number struct {
	kind NumberKind
	i    int64
	f    float64
	raw  string
}

func Int(v int64) Number     { return Number{kind: KindInt, i: v} }
func Float(v float64) Number { return Number{kind: KindFloat, f: v} }

// Invalid wraps a value that is not numeric. raw is kept for diagnostics.
func Invalid(raw string) Number { return Number{kind: KindInvalid, raw: raw} }

func (n Number) Kind() NumberKind { return n.kind }
func (n Number) IsValid() bool    { return n.kind != KindInvalid }

// Float64 returns the value as float64. Invalid numbers return 0.
func (n Number) Float64() float64 {
	switch n.kind {
	case KindInt:
		return float64(n.i)
	case KindFloat:
		return n.f
	default:
		return 0
	}
}

// Int64 returns the integral value and whether the number is an Int.
func (n Number) Int64() (int64, bool) {
	return n.i, n.kind == KindInt
}

// UnmarshalJSON never fails on well-formed JSON: anything that is not a
// numeric literal becomes Invalid so the validator can report it. Text
// passed through ReplaceNonFiniteLiterals decodes NaN and Infinity as floats.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*n = Invalid("")
		return nil
	}
	if f, ok := nonFiniteFromSentinel(string(data)); ok {
		*n = Float(f)
		return nil
	}
	c := data[0]
	if c != '-' && (c < '0' || c > '9') {
		*n = Invalid(string(data))
		return nil
	}

	lit := string(data)
	if !strings.ContainsAny(lit, ".eE") {
		if v, err := strconv.ParseInt(lit, 10, 64); err == nil {
			*n = Int(v)
			return nil
		}
	}

	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		// ParseFloat reports overflow as ErrRange alongside ±Inf, which is
		// exactly what the validator needs to see.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			*n = Float(v)
			return nil
		}
		*n = Invalid(lit)
		return nil
	}
	*n = Float(v)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	switch n.kind {
	case KindInt:
		return []byte(strconv.FormatInt(n.i, 10)), nil
	case KindFloat:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return json.Marshal(n.String())
		}
		return []byte(strconv.FormatFloat(n.f, 'g', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

// String renders the value the way results are reported to clients: ints
// verbatim, floats in shortest round-trip form that always shows a
// fraction or an exponent ("5.0", "3.3333333333333335", "1e+16").
func (n Number) String() string {
	switch n.kind {
	case KindInt:
		return strconv.FormatInt(n.i, 10)
	case KindFloat:
		return formatFloat(n.f)
	default:
		if n.raw == "" {
			return "None"
		}
		return n.raw
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp := 0
	if i := strings.IndexByte(sci, 'e'); i >= 0 {
		exp, _ = strconv.Atoi(sci[i+1:])
	}
	if exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
