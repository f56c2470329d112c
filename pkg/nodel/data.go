package nodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Data is the caller-supplied payload of a node: an ordered mapping from
// string keys to string or numeric values. nodel never interprets it; the
// renderer substitutes it into template labels.
//
// The zero value is an empty, usable Data.
type Data struct {
	keys   []string
	values map[string]any
}

// NewData builds Data from alternating key/value arguments.
// Values must be strings or numbers; anything else is formatted with %v.
func NewData(kv ...any) Data {
	var d Data
	for i := 0; i+1 < len(kv); i += 2 {
		d.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return d
}

// Set stores value under key, keeping the key's original position if it
// already exists.
func (d *Data) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = normalizeValue(value)
}

// Get returns the value stored under key.
func (d Data) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// String returns the value under key formatted as text, or "" if absent.
func (d Data) String(key string) string {
	v, ok := d.values[key]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Delete removes key.
func (d *Data) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (d Data) Keys() []string { return slices.Clone(d.keys) }

// Len returns the number of keys.
func (d Data) Len() int { return len(d.keys) }

// Clone returns a copy that shares no state with d.
func (d Data) Clone() Data {
	out := Data{keys: slices.Clone(d.keys)}
	if d.values != nil {
		out.values = make(map[string]any, len(d.values))
		for k, v := range d.values {
			out.values[k] = v
		}
	}
	return out
}

// Equal reports whether both hold the same keys in the same order with equal values.
func (d Data) Equal(o Data) bool {
	if !slices.Equal(d.keys, o.keys) {
		return false
	}
	for _, k := range d.keys {
		if d.values[k] != o.values[k] {
			return false
		}
	}
	return true
}

// normalizeValue folds every numeric type to float64 so values compare equal
// after a trip through JSON or YAML.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case string, float64:
		return x
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// FormatValue renders a data value the way it appears in labels.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// MarshalJSON encodes the data as a JSON object in insertion order.
func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of strings and numbers.
func (d *Data) UnmarshalJSON(data []byte) error {
	*d = Data{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return decodeOrderedObject(data, func(key string, dec *json.Decoder) error {
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("data %q: %w", key, err)
		}
		switch v.(type) {
		case string, json.Number, nil:
		default:
			return fmt.Errorf("data %q: value must be a string or number", key)
		}
		d.Set(key, v)
		return nil
	})
}

// MarshalYAML encodes the data as a YAML mapping in insertion order.
func (d Data) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range d.keys {
		val := &yaml.Node{}
		if err := val.Encode(d.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, val)
	}
	return node, nil
}

// UnmarshalYAML decodes a flat YAML mapping of strings and numbers.
func (d *Data) UnmarshalYAML(value *yaml.Node) error {
	*d = Data{}
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: data must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: data %q must be a scalar", val.Line, key)
		}
		switch val.Tag {
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(val.Value, 64)
			if err != nil {
				return fmt.Errorf("line %d: data %q: %w", val.Line, key, err)
			}
			d.Set(key, f)
		default:
			d.Set(key, val.Value)
		}
	}
	return nil
}
