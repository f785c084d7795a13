// Package core provides the finance tracker's domain types and the
// fee-plan scheduling calculation.
//
// This file contains amount parsing and formatting helpers. Amounts are
// float64 throughout, matching the REAL columns they are stored in.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts an operator-entered amount string to a float64.
//
// It accepts both dot (1250.50) and comma (1250,50) decimal separators and
// rejects empty, non-numeric, non-finite, and non-positive values.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

// FormatAmount renders an amount with two decimal places for messages and
// templates.
func FormatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// roundCents rounds to two decimal places, half away from zero.
func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
