package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MissingArgumentError is returned when a required call argument is absent
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return "missing required parameter: " + e.Name
}

// InvalidArgumentError is returned when an argument has the wrong type
type InvalidArgumentError struct {
	Name     string
	Expected string
	Value    any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid parameter %s: expected %s, got %T", e.Name, e.Expected, e.Value)
}

// RequiredString returns a non-empty string argument
func RequiredString(args map[string]any, name string) (string, error) {
	value, err := OptionalString(args, name, "")
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", &MissingArgumentError{Name: name}
	}
	return value, nil
}

// OptionalString returns a string argument, or def when absent or blank
func OptionalString(args map[string]any, name, def string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &InvalidArgumentError{Name: name, Expected: "string", Value: raw}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return s, nil
}

// OptionalInt returns an integer argument, or def when absent. JSON numbers
// arrive as float64; fractional values are truncated.
func OptionalInt(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &InvalidArgumentError{Name: name, Expected: "number", Value: raw}
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, &InvalidArgumentError{Name: name, Expected: "number", Value: raw}
			}
			return int(f), nil
		}
		return int(n), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &InvalidArgumentError{Name: name, Expected: "number", Value: raw}
		}
		return n, nil
	}

	return 0, &InvalidArgumentError{Name: name, Expected: "number", Value: raw}
}
