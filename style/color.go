package style

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeColor brings colour to the form used for comparison and commit.
// Hex colours become lower case #rrggbb, rgb() and opaque rgba() are
// converted to hex, semi transparent values are kept as rgba(r, g, b, a).
// Empty string is returned for "unset": transparent and fully transparent
// rgba.
func NormalizeColor(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "", v == "transparent":
		return "", nil
	case strings.HasPrefix(v, "#"):
		return normalizeHex(v)
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		return normalizeRGB(v)
	}
	for _, c := range v {
		if c < 'a' || c > 'z' {
			return "", fmt.Errorf("unsupported color value %q", value)
		}
	}
	// named colour
	return v, nil
}

func normalizeHex(v string) (string, error) {
	digits := v[1:]
	for _, c := range digits {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return "", fmt.Errorf("bad hex color %q", v)
		}
	}
	switch len(digits) {
	case 3, 4:
		var sb strings.Builder
		for _, c := range digits {
			sb.WriteRune(c)
			sb.WriteRune(c)
		}
		digits = sb.String()
	case 6, 8:
	default:
		return "", fmt.Errorf("bad hex color %q", v)
	}
	if len(digits) == 8 {
		switch digits[6:] {
		case "00":
			return "", nil
		case "ff":
			digits = digits[:6]
		}
	}
	return "#" + digits, nil
}

func normalizeRGB(v string) (string, error) {
	open, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if end < open || strings.TrimSpace(v[end+1:]) != "" {
		return "", fmt.Errorf("bad color function %q", v)
	}
	args := strings.FieldsFunc(v[open+1:end], func(r rune) bool {
		return r == ',' || r == '/' || r == ' ' || r == '\t'
	})
	if len(args) != 3 && len(args) != 4 {
		return "", fmt.Errorf("bad color function %q: %d arguments", v, len(args))
	}
	var rgb [3]int
	for i := range 3 {
		c, err := channel(args[i])
		if err != nil {
			return "", fmt.Errorf("bad color function %q: %w", v, err)
		}
		rgb[i] = c
	}
	alpha := 1.0
	if len(args) == 4 {
		a, err := fraction(args[3])
		if err != nil {
			return "", fmt.Errorf("bad color function %q: %w", v, err)
		}
		alpha = a
	}
	switch {
	case alpha <= 0:
		return "", nil
	case alpha >= 1:
		return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), nil
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", rgb[0], rgb[1], rgb[2], strconv.FormatFloat(alpha, 'f', -1, 64)), nil
}

func channel(s string) (int, error) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		return int(min(max(f, 0), 100)*255/100 + 0.5), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(min(max(f, 0), 255) + 0.5), nil
}

func fraction(s string) (float64, error) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		return min(max(f/100, 0), 1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return min(max(f, 0), 1), nil
}
