package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/jetdag/internal/ir"
)

// marshalFloats converts a name -> value map to canonical JSON TEXT with
// exact hex values. Uses RFC 8785 canonical JSON for deterministic
// serialization.
func marshalFloats(m map[string]float64) (string, error) {
	obj := make(map[string]any, len(m))
	for name, v := range m {
		obj[name] = ir.FormatFloat(v)
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal floats: %w", err)
	}
	return string(data), nil
}

// unmarshalFloats parses the TEXT written by marshalFloats.
func unmarshalFloats(data string) (map[string]float64, error) {
	out := map[string]float64{}
	if data == "" || data == "{}" {
		return out, nil
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal floats: %w", err)
	}
	for name, s := range raw {
		v, err := ir.ParseFloat(s)
		if err != nil {
			return nil, fmt.Errorf("unmarshal floats: %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// marshalMask stores mask exponent vectors as a JSON list of lists. An
// unmasked run stores [].
func marshalMask(mask [][]int) (string, error) {
	list := make([]any, len(mask))
	for i, e := range mask {
		list[i] = e
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal mask: %w", err)
	}
	return string(data), nil
}

func unmarshalMask(data string) ([][]int, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var mask [][]int
	if err := json.Unmarshal([]byte(data), &mask); err != nil {
		return nil, fmt.Errorf("unmarshal mask: %w", err)
	}
	return mask, nil
}

// formatExponents renders an exponent vector as "1,0,2".
func formatExponents(e []int) string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// parseExponents is the inverse of formatExponents.
func parseExponents(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	e := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse exponents %q: %w", s, err)
		}
		e[i] = v
	}
	return e, nil
}

// formatMask renders mask entries as "1,0;0,2", the form the CLI accepts.
func formatMask(mask [][]int) string {
	parts := make([]string, len(mask))
	for i, e := range mask {
		parts[i] = formatExponents(e)
	}
	return strings.Join(parts, ";")
}
