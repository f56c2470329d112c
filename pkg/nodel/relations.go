package nodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultRelation is the relation type used when a caller does not name one.
const DefaultRelation = "default"

// Relations maps a relation type to an ordered set of neighbor IDs.
//
// Relation types keep the order in which they were first used, so lookups
// that pick "the first type containing an ID" are deterministic. A type whose
// list has been emptied is kept; an absent type and an empty list both mean
// "no such relation".
//
// The zero value is an empty, usable Relations.
type Relations struct {
	types []string
	ids   map[string][]string
}

// NewRelations builds a Relations from type/ID pairs given in order.
// It is mostly useful in tests and examples.
func NewRelations(pairs ...string) Relations {
	var r Relations
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Add(pairs[i], pairs[i+1])
	}
	return r
}

// Types returns the relation types in first-use order.
func (r Relations) Types() []string { return slices.Clone(r.types) }

// IDs returns the neighbor IDs under relType. The returned slice is a copy.
func (r Relations) IDs(relType string) []string { return slices.Clone(r.ids[relType]) }

// Len returns the total number of neighbor entries across all types.
func (r Relations) Len() int {
	n := 0
	for _, ids := range r.ids {
		n += len(ids)
	}
	return n
}

// Empty reports whether every relation type's list is empty.
func (r Relations) Empty() bool { return r.Len() == 0 }

// Has reports whether id is listed under relType.
func (r Relations) Has(relType, id string) bool {
	return slices.Contains(r.ids[relType], id)
}

// TypeOf returns the first relation type, in first-use order, that lists id.
func (r Relations) TypeOf(id string) (string, bool) {
	for _, t := range r.types {
		if slices.Contains(r.ids[t], id) {
			return t, true
		}
	}
	return "", false
}

// ensure creates the relType entry if it does not exist yet.
func (r *Relations) ensure(relType string) {
	if r.ids == nil {
		r.ids = make(map[string][]string)
	}
	if _, ok := r.ids[relType]; !ok {
		r.types = append(r.types, relType)
		r.ids[relType] = []string{}
	}
}

// Add appends id under relType unless it is already present.
// It reports whether the set changed.
func (r *Relations) Add(relType, id string) bool {
	r.ensure(relType)
	if slices.Contains(r.ids[relType], id) {
		return false
	}
	r.ids[relType] = append(r.ids[relType], id)
	return true
}

// Remove deletes id from relType. It reports whether the set changed.
func (r *Relations) Remove(relType, id string) bool {
	ids := r.ids[relType]
	i := slices.Index(ids, id)
	if i < 0 {
		return false
	}
	r.ids[relType] = slices.Delete(ids, i, i+1)
	return true
}

// RemoveAll deletes id from every relation type and returns the types it
// was removed from.
func (r *Relations) RemoveAll(id string) []string {
	var removed []string
	for _, t := range r.types {
		if r.Remove(t, id) {
			removed = append(removed, t)
		}
	}
	return removed
}

// Reassign moves id from oldType to newType, creating newType if needed.
// It fails without changing anything when id is not under oldType.
func (r *Relations) Reassign(id, oldType, newType string) error {
	if !r.Has(oldType, id) {
		return fmt.Errorf("%s is not related under %q", id, oldType)
	}
	if oldType == newType {
		return nil
	}
	r.Remove(oldType, id)
	r.ensure(newType)
	if !slices.Contains(r.ids[newType], id) {
		r.ids[newType] = append(r.ids[newType], id)
	}
	return nil
}

// Edge is one (relation type, neighbor) pair of a Relations.
type Edge struct {
	Type string
	ID   string
}

// Edges returns every (type, id) pair in order. The result is a snapshot and
// stays valid while the Relations is mutated.
func (r Relations) Edges() []Edge {
	var out []Edge
	for _, t := range r.types {
		for _, id := range r.ids[t] {
			out = append(out, Edge{Type: t, ID: id})
		}
	}
	return out
}

// Clone returns a deep copy.
func (r Relations) Clone() Relations {
	out := Relations{types: slices.Clone(r.types)}
	if r.ids != nil {
		out.ids = make(map[string][]string, len(r.ids))
		for t, ids := range r.ids {
			out.ids[t] = slices.Clone(ids)
		}
	}
	return out
}

// Equal reports whether both list the same neighbors under the same types,
// with non-empty types in the same order. Emptied types are ignored, since an
// empty list and an absent type mean the same thing.
func (r Relations) Equal(o Relations) bool {
	a, b := r.nonEmptyTypes(), o.nonEmptyTypes()
	if !slices.Equal(a, b) {
		return false
	}
	for _, t := range a {
		if !slices.Equal(r.ids[t], o.ids[t]) {
			return false
		}
	}
	return true
}

func (r Relations) nonEmptyTypes() []string {
	var out []string
	for _, t := range r.types {
		if len(r.ids[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// MarshalJSON encodes the relations as a JSON object whose keys appear in
// first-use order.
func (r Relations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range r.types {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		ids := r.ids[t]
		if ids == nil {
			ids = []string{}
		}
		val, err := json.Marshal(ids)
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

// UnmarshalJSON decodes a JSON object of id lists, keeping key order.
func (r *Relations) UnmarshalJSON(data []byte) error {
	*r = Relations{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return decodeOrderedObject(data, func(key string, dec *json.Decoder) error {
		var ids []string
		if err := dec.Decode(&ids); err != nil {
			return fmt.Errorf("relation %q: %w", key, err)
		}
		r.ensure(key)
		for _, id := range ids {
			r.Add(key, id)
		}
		return nil
	})
}

// MarshalYAML encodes the relations as a YAML mapping in first-use order.
func (r Relations) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range r.types {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, id := range r.ids[t] {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: id})
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: t}, seq)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping of id lists, keeping key order.
func (r *Relations) UnmarshalYAML(value *yaml.Node) error {
	*r = Relations{}
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: relations must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		var ids []string
		if err := value.Content[i+1].Decode(&ids); err != nil {
			return fmt.Errorf("relation %q: %w", key, err)
		}
		r.ensure(key)
		for _, id := range ids {
			r.Add(key, id)
		}
	}
	return nil
}

// decodeOrderedObject walks the members of a JSON object in document order.
func decodeOrderedObject(data []byte, member func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := member(key, dec); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
