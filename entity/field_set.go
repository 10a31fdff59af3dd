package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Field is a single named value of a canonical field set.
type Field struct {
	Name  string
	Value string
}

// FieldSet is an ordered set of uniquely named string fields.
// A FieldSet is never modified after construction; With and Without return copies.
type FieldSet struct {
	fields []Field
	index  map[string]int
}

// NewFieldSet keeps the order of the first occurrence of each name;
// a repeated name replaces the earlier value.
func NewFieldSet(fields ...Field) *FieldSet {
	fs := &FieldSet{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		fs.set(f.Name, f.Value)
	}
	return fs
}

// FieldSetFromValues takes the first value of every key, ordered by name.
// Used for form and query payloads where the wire order is not preserved.
func FieldSetFromValues(values url.Values) *FieldSet {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name, Value: values.Get(name)})
	}
	return NewFieldSet(fields...)
}

func (fs *FieldSet) set(name, value string) {
	if i, ok := fs.index[name]; ok {
		fs.fields[i].Value = value
		return
	}
	fs.index[name] = len(fs.fields)
	fs.fields = append(fs.fields, Field{Name: name, Value: value})
}

func (fs *FieldSet) clone() *FieldSet {
	return NewFieldSet(fs.Fields()...)
}

// Get returns the value of name and whether the field is present.
func (fs *FieldSet) Get(name string) (string, bool) {
	if fs == nil {
		return "", false
	}
	i, ok := fs.index[name]
	if !ok {
		return "", false
	}
	return fs.fields[i].Value, true
}

// Value returns the value of name, or an empty string when absent.
func (fs *FieldSet) Value(name string) string {
	v, _ := fs.Get(name)
	return v
}

func (fs *FieldSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.fields)
}

// Fields returns a copy of the fields in order.
func (fs *FieldSet) Fields() []Field {
	if fs == nil {
		return nil
	}
	out := make([]Field, len(fs.fields))
	copy(out, fs.fields)
	return out
}

func (fs *FieldSet) Names() []string {
	names := make([]string, 0, fs.Len())
	for _, f := range fs.Fields() {
		names = append(names, f.Name)
	}
	return names
}

// With returns a copy with name set to value; a new name is appended.
func (fs *FieldSet) With(name, value string) *FieldSet {
	out := fs.clone()
	out.set(name, value)
	return out
}

// Without returns a copy with name removed.
func (fs *FieldSet) Without(name string) *FieldSet {
	kept := make([]Field, 0, fs.Len())
	for _, f := range fs.Fields() {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	return NewFieldSet(kept...)
}

// Map returns the fields as a plain map; order is lost.
func (fs *FieldSet) Map() map[string]string {
	m := make(map[string]string, fs.Len())
	for _, f := range fs.Fields() {
		m[f.Name] = f.Value
	}
	return m
}

// Values converts the set into form values for a urlencoded post.
func (fs *FieldSet) Values() url.Values {
	values := make(url.Values, fs.Len())
	for _, f := range fs.Fields() {
		values.Set(f.Name, f.Value)
	}
	return values
}

func (fs *FieldSet) String() string {
	parts := make([]string, 0, fs.Len())
	for _, f := range fs.Fields() {
		parts = append(parts, f.Name+"="+f.Value)
	}
	return strings.Join(parts, "&")
}

// MarshalJSON writes the fields as a JSON object in field order.
func (fs *FieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object keeping key order. String values are
// taken as is, null becomes an empty string, any other value keeps its JSON text.
func (fs *FieldSet) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("field set: expected object, got %v", token)
	}
	parsed := NewFieldSet()
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return err
		}
		name, ok := token.(string)
		if !ok {
			return fmt.Errorf("field set: unexpected key %v", token)
		}
		var raw json.RawMessage
		if err = decoder.Decode(&raw); err != nil {
			return fmt.Errorf("field set: value of %s: %w", name, err)
		}
		parsed.set(name, rawValue(raw))
	}
	*fs = *parsed
	return nil
}

func rawValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
