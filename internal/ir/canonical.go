package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing and for the
// compiled IR files.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats and null are rejected; graph values travel as hex strings
//
// Accepted inputs: string, bool, int, int64, []any, map[string]any.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case []string:
		elems := make([]any, len(val))
		for i, s := range val {
			elems[i] = s
		}
		return writeCanonical(buf, elems)
	case []int:
		elems := make([]any, len(val))
		for i, n := range val {
			elems[i] = n
		}
		return writeCanonical(buf, elems)
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// sortedKeys orders keys by UTF-16 code units as RFC 8785 requires.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(norm.NFC.String(a)))
	ub := utf16.Encode([]rune(norm.NFC.String(b)))
	return slices.Compare(ua, ub)
}

// writeCanonicalString escapes only quote, backslash and control
// characters. U+2028 and U+2029 stay literal.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns \u2028 and \u2029 escapes back into the
// literal characters unless the backslash is itself escaped.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\\' && backslashes%2 == 0 && i+5 < len(data) &&
			string(data[i+1:i+5]) == "u202" && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, c)
	}
	return out
}

// FormatFloat renders a float64 exactly, as used for values inside
// canonical IR.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'x', -1, 64)
}

// ParseFloat is the inverse of FormatFloat. Decimal input is accepted too.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// CanonicalGraph converts g into the generic tree accepted by
// MarshalCanonical.
func CanonicalGraph(g *Graph) map[string]any {
	nodes := make([]any, len(g.Nodes))
	for i, n := range g.Nodes {
		obj := map[string]any{
			"op":    n.Op.String(),
			"left":  n.Left,
			"right": n.Right,
			"shape": n.Shape.String(),
		}
		if n.Value != 0 {
			obj["value"] = FormatFloat(n.Value)
		}
		if n.Name != "" {
			obj["name"] = n.Name
		}
		nodes[i] = obj
	}
	params := make(map[string]any, len(g.Params))
	for name, id := range g.Params {
		params[name] = id
	}
	return map[string]any{
		"ir_version": IRVersion,
		"name":       g.Name,
		"nodes":      nodes,
		"vars":       g.Vars,
		"params":     params,
		"time":       g.Time,
		"outputs":    g.Outputs,
		"finalized":  g.Finalized,
	}
}

// MarshalGraph returns the canonical JSON encoding of g.
func MarshalGraph(g *Graph) ([]byte, error) {
	data, err := MarshalCanonical(CanonicalGraph(g))
	if err != nil {
		return nil, fmt.Errorf("marshal graph %q: %w", g.Name, err)
	}
	return data, nil
}

// UnmarshalGraph decodes the canonical JSON produced by MarshalGraph.
func UnmarshalGraph(data []byte) (*Graph, error) {
	var raw struct {
		IRVersion string         `json:"ir_version"`
		Name      string         `json:"name"`
		Vars      []int          `json:"vars"`
		Params    map[string]int `json:"params"`
		Time      int            `json:"time"`
		Outputs   []int          `json:"outputs"`
		Finalized bool           `json:"finalized"`
		Nodes     []struct {
			Op    string `json:"op"`
			Left  int    `json:"left"`
			Right int    `json:"right"`
			Shape string `json:"shape"`
			Value string `json:"value"`
			Name  string `json:"name"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	if raw.IRVersion != IRVersion {
		return nil, fmt.Errorf("unmarshal graph: ir version %q, expected %q", raw.IRVersion, IRVersion)
	}
	g := &Graph{
		Name:      raw.Name,
		Vars:      raw.Vars,
		Params:    raw.Params,
		Time:      raw.Time,
		Outputs:   raw.Outputs,
		Finalized: raw.Finalized,
		Nodes:     make([]Node, len(raw.Nodes)),
	}
	for i, rn := range raw.Nodes {
		op, err := ParseOp(rn.Op)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		shape, err := ParseShape(rn.Shape)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		var value float64
		if rn.Value != "" {
			if value, err = ParseFloat(rn.Value); err != nil {
				return nil, fmt.Errorf("node %d: value: %w", i, err)
			}
		}
		g.Nodes[i] = Node{Op: op, Left: rn.Left, Right: rn.Right, Shape: shape, Value: value, Name: rn.Name}
	}
	return g, nil
}
