package param

import (
	"fmt"
	"math"
	"strings"
)

// unit is a display suffix and the factor from its value to the plain value.
type unit struct {
	suffix string
	scale  float64
}

// parseUnits strips the first matching suffix (case-insensitive) and scales
// the number in front of it. Suffixes are tried in order, so longer ones
// that share an ending must come first.
func parseUnits(str string, units ...unit) (float64, error) {
	s := strings.TrimSpace(str)
	lower := strings.ToLower(s)
	for _, u := range units {
		if strings.HasSuffix(lower, strings.ToLower(u.suffix)) {
			v, err := parseFloat(strings.TrimSpace(s[:len(s)-len(u.suffix)]))
			if err != nil {
				return 0, err
			}
			return v * u.scale, nil
		}
	}
	return parseFloat(s)
}

func isInfinity(str string) bool {
	return strings.Contains(str, "∞") || strings.Contains(strings.ToLower(str), "inf")
}

func trimUnit(str, suffix string) string {
	str = strings.TrimSpace(str)
	if suffix != "" {
		str = strings.TrimSpace(strings.TrimSuffix(str, suffix))
	}
	return str
}

// EnumParser maps names (case-insensitive) or their index to the index.
func EnumParser(names []string) func(string) (float64, error) {
	return func(str string) (float64, error) {
		s := strings.TrimSpace(str)
		for i, name := range names {
			if strings.EqualFold(s, name) {
				return float64(i), nil
			}
		}
		if v, err := parseFloat(s); err == nil && v == math.Trunc(v) && v >= 0 && int(v) < len(names) {
			return v, nil
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}
}

// DecibelFormatter renders levels at or below -100 dB as -∞.
func DecibelFormatter(db float64) string {
	if db <= -100 {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

func DecibelParser(str string) (float64, error) {
	if isInfinity(str) {
		return -100, nil
	}
	return parseUnits(str, unit{"dB", 1})
}

func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

func PercentParser(str string) (float64, error) {
	return parseUnits(str, unit{"%", 1})
}

// TimeFormatter formats milliseconds.
func TimeFormatter(ms float64) string {
	switch {
	case ms < 1:
		return fmt.Sprintf("%.2f µs", ms*1000)
	case ms < 1000:
		return fmt.Sprintf("%.1f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// TimeParser parses a duration into milliseconds. A bare number is ms.
func TimeParser(str string) (float64, error) {
	return parseUnits(str, unit{"ms", 1}, unit{"µs", 1e-3}, unit{"us", 1e-3}, unit{"s", 1000})
}

// PanFormatter shows -1..1 as 100L..C..100R.
func PanFormatter(pan float64) string {
	switch {
	case math.Abs(pan) < 0.01:
		return "C"
	case pan < 0:
		return fmt.Sprintf("%.0fL", -pan*100)
	}
	return fmt.Sprintf("%.0fR", pan*100)
}

func PanParser(str string) (float64, error) {
	switch strings.ToUpper(strings.TrimSpace(str)) {
	case "C", "CENTER", "CENTRE":
		return 0, nil
	}
	return parseUnits(str, unit{"L", -0.01}, unit{"R", 0.01})
}

func OnOffFormatter(value float64) string {
	if value >= 0.5 {
		return "On"
	}
	return "Off"
}

func OnOffParser(str string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	}
	return 0, fmt.Errorf("expected on or off, got %q", str)
}
