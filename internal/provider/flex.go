package provider

import (
	"bytes"
	"fmt"
	"strconv"
)

// The panel serializes numbers and booleans inconsistently: the same field
// arrives as 100, "100", or "100.00" depending on the endpoint. These types
// absorb both encodings.

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("provider: parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

func (f flexFloat) Float64() float64 { return float64(f) }

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("provider: parse number %q: %w", s, err)
	}
	*f = flexInt(v)
	return nil
}

func (f flexInt) Int() int { return int(f) }

type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch string(bytes.Trim(b, `"`)) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

func (f flexBool) ok() bool { return bool(f) }
