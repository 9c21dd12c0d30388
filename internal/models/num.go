package models

import "strconv"

// Optional-numeric boundary helpers. Form-style inputs distinguish "left blank"
// from "explicitly zero"; absent stays nil until a default-fill rule applies.

// ParseOptional reads a numeric form value. Empty string means absent (nil).
func ParseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FormatOptional renders an optional number for a form field. Nil renders empty.
func FormatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// OrDefault applies an explicit default-fill rule to an absent value.
func OrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
