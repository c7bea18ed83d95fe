package vpbx

import (
	"bytes"
	"encoding/json"
)

// Field is one key/value pair of a Payload.
// Value is a JSON-encodable scalar or a nested Payload.
type Field struct {
	Key   string
	Value any
}

// Payload is a JSON object that keeps its insertion order.
//
// The provider verifies the signature over the exact JSON bytes it receives,
// so the order fields are added in is the order they are signed and sent in.
type Payload []Field

// Set replaces the value of key in place, or appends it when absent.
func (p *Payload) Set(key string, value any) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Clone returns a shallow copy; nested payloads are copied one level deep.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for i, f := range p {
		if nested, ok := f.Value.(Payload); ok {
			f.Value = nested.Clone()
		}
		out[i] = f
	}
	return out
}

func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := canonicalJSON(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := canonicalJSON(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// canonicalJSON encodes v without HTML escaping.
// encoding/json never escapes '/' and writes non-ASCII runes as raw UTF-8,
// which matches the provider's byte format.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
