package core

import (
	"bytes"
	"math"
)

// Sentinels standing in for the non-standard NaN and Infinity literals. They
// are JSON strings so the rewritten text stays valid JSON; the leading NUL
// escape keeps them apart from anything a client would type.
const (
	nanSentinel    = `"\u0000NaN"`
	posInfSentinel = `"\u0000Infinity"`
	negInfSentinel = `"\u0000-Infinity"`
)

var nonFiniteLiterals = []struct {
	literal  string
	sentinel string
}{
	{literal: "-Infinity", sentinel: negInfSentinel},
	{literal: "Infinity", sentinel: posInfSentinel},
	{literal: "NaN", sentinel: nanSentinel},
}

// ReplaceNonFiniteLiterals rewrites bare NaN, Infinity and -Infinity tokens
// outside of strings so encoding/json accepts the document. The tokens then
// decode into a Number as the matching float value. Input without such
// tokens is returned unchanged.
func ReplaceNonFiniteLiterals(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) && !bytes.Contains(data, []byte("Infinity")) {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if n, sentinel := matchNonFinite(data, i); n > 0 {
			out = append(out, sentinel...)
			i += n - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchNonFinite(data []byte, i int) (int, string) {
	if i > 0 && !isTokenBoundary(data[i-1]) {
		return 0, ""
	}
	for _, lit := range nonFiniteLiterals {
		end := i + len(lit.literal)
		if !bytes.HasPrefix(data[i:], []byte(lit.literal)) {
			continue
		}
		if end < len(data) && !isTokenBoundary(data[end]) {
			continue
		}
		return len(lit.literal), lit.sentinel
	}
	return 0, ""
}

func isTokenBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', ':', '[', ']', '{', '}':
		return true
	}
	return false
}

func nonFiniteFromSentinel(raw string) (float64, bool) {
	switch raw {
	case nanSentinel:
		return math.NaN(), true
	case posInfSentinel:
		return math.Inf(1), true
	case negInfSentinel:
		return math.Inf(-1), true
	}
	return 0, false
}
