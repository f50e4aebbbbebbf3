package style

import (
	"strconv"
	"strings"
)

// Numeric is a CSS length, serialized as {number}{unit}.
type Numeric struct {
	Value float64
	Unit  string
}

func (n Numeric) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64) + n.Unit
}

// IsZero reports whether the length is zero regardless of unit.
func (n Numeric) IsZero() bool {
	return n.Value == 0
}

// ParseNumeric splits values like "12.5px", "-3em" or "0". Unit is lower
// cased, keywords such as "auto" are not numeric.
func ParseNumeric(s string) (Numeric, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && end == 0) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return Numeric{}, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return Numeric{}, false
	}
	unit := strings.ToLower(s[end:])
	for _, c := range unit {
		if (c < 'a' || c > 'z') && c != '%' {
			return Numeric{}, false
		}
	}
	return Numeric{Value: v, Unit: unit}, true
}
