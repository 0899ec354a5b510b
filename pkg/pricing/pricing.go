// Package pricing turns quoted price text into comparable numbers.
package pricing

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel is the normalized value for an absent or unparsable price. It
// compares greater than every real price.
var Sentinel = math.Inf(1)

var (
	// A leading dot is a decimal point: ".99" is 0.99.
	numberPattern = regexp.MustCompile(`\d*\.?\d+`)
	// Currency markers removed before the numeric scan. "rs." precedes "rs" so
	// the dot is not left behind as a decimal point.
	currencyStripper = strings.NewReplacer(
		",", "",
		"₹", "",
		"rs.", "",
		"rs", "",
		"inr", "",
		"usd", "",
		"$", "",
		"€", "",
		"£", "",
	)
)

// Normalize converts a raw price field into a number. It never fails:
// anything without a numeric substring maps to Sentinel.
func Normalize(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return Sentinel
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return finite(float64(v))
	case int64:
		return finite(float64(v))
	case json.Number:
		return Parse(v.String())
	case string:
		return Parse(v)
	default:
		return Sentinel
	}
}

// Parse extracts the first decimal number from s after stripping currency
// symbols, thousands separators and trailing unit text ("/ pack").
func Parse(s string) float64 {
	clean := strings.TrimSpace(strings.ToLower(s))
	if clean == "" {
		return Sentinel
	}
	clean = currencyStripper.Replace(clean)
	if idx := strings.Index(clean, "/"); idx >= 0 {
		clean = clean[:idx]
	}
	match := numberPattern.FindString(clean)
	if match == "" {
		return Sentinel
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return Sentinel
	}
	return val
}

// IsValid reports whether price is a real (finite) normalized price.
func IsValid(price float64) bool {
	return !math.IsInf(price, 0) && !math.IsNaN(price)
}

func finite(v float64) float64 {
	if !IsValid(v) || v < 0 {
		return Sentinel
	}
	return v
}
