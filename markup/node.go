package markup

import (
	"bytes"
	"encoding/json"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	// KindMapping is a set of unique keys bound to child nodes.
	KindMapping Kind = iota
	// KindSequence is an ordered list of child nodes.
	KindSequence
	// KindScalar is a leaf value.
	KindScalar
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Node is one element of a parsed document. The set of implementations is
// closed: *Mapping, *Sequence and Scalar.
type Node interface {
	Kind() Kind
	// Interface converts the node into plain Go values
	// (map[string]any, []any, nil, bool, float64, string).
	Interface() any
	sealed()
}

// Mapping binds unique keys to child nodes. Keys keep their first insertion
// position; setting an existing key replaces its value.
type Mapping struct {
	keys   []string
	values map[string]Node
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Node)}
}

func (*Mapping) Kind() Kind { return KindMapping }
func (*Mapping) sealed()    {}

// Set binds key to value. The last write for a duplicate key wins.
func (m *Mapping) Set(key string, value Node) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value bound to key.
func (m *Mapping) Get(key string) (Node, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Mapping) Len() int { return len(m.keys) }

// Interface returns the mapping as a map[string]any.
func (m *Mapping) Interface() any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k].Interface()
	}
	return out
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	items []Node
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

func (*Sequence) Kind() Kind { return KindSequence }
func (*Sequence) sealed()    {}

// Append adds a node at the end of the sequence.
func (s *Sequence) Append(n Node) {
	s.items = append(s.items, n)
}

// At returns the i-th element.
func (s *Sequence) At(i int) Node { return s.items[i] }

// Len returns the number of elements.
func (s *Sequence) Len() int { return len(s.items) }

// Items returns a copy of the elements.
func (s *Sequence) Items() []Node {
	out := make([]Node, len(s.items))
	copy(out, s.items)
	return out
}

// Interface returns the sequence as a []any.
func (s *Sequence) Interface() any {
	out := make([]any, len(s.items))
	for i, n := range s.items {
		out[i] = n.Interface()
	}
	return out
}

// MarshalJSON encodes the sequence as a JSON array.
func (s *Sequence) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// Lookup walks nested mappings along path. It reports false as soon as a
// segment is missing or the current node is not a mapping.
func Lookup(root Node, path ...string) (Node, bool) {
	cur := root
	for _, key := range path {
		m, ok := cur.(*Mapping)
		if !ok {
			return nil, false
		}
		if cur, ok = m.Get(key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Equal reports whether a and b are structurally identical. Mapping key
// order is ignored.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Mapping:
		y, ok := b.(*Mapping)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.values[k]
			if !ok || !Equal(x.values[k], yv) {
				return false
			}
		}
		return true
	case *Sequence:
		y, ok := b.(*Sequence)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x.Equal(y)
	default:
		return a == nil && b == nil
	}
}
