package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// IDField is the field name that carries a record's identifier.
const IDField = "id"

// Fields is the body of a document.
type Fields map[string]Value

// Clone returns a deep copy of f. A nil Fields clones to nil.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether f and o contain the same fields.
func (f Fields) Equal(o Fields) bool {
	if len(f) != len(o) {
		return false
	}
	for k, v := range f {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Keys returns the field names in lexical order.
func (f Fields) Keys() []string {
	return sortedKeys(f)
}

// Any converts f into a map[string]any tree.
func (f Fields) Any() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v.Any()
	}
	return out
}

// FieldsFromAny converts a decoded map into Fields.
func FieldsFromAny(m map[string]any) (Fields, error) {
	out := make(Fields, len(m))
	for k, item := range m {
		v, err := FromAny(item)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// DecodeFields parses a JSON object into Fields.
// A JSON null or empty input decodes to nil Fields.
func DecodeFields(data []byte) (Fields, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("document body is %s, want object", v.Kind())
	}
	return obj, nil
}

// Raw is a document exactly as a store returned it for one matched key.
// Any "id" inside Fields is untrusted.
type Raw struct {
	ID     string
	Fields Fields
}

// Record is a normalized document whose "id" field always equals the
// identifier it was fetched under.
type Record Fields

// Normalize builds a Record from raw, copying every field and then
// overwriting "id" with raw.ID. An empty or nil body still yields {id}.
func Normalize(raw Raw) Record {
	rec := make(Record, len(raw.Fields)+1)
	for k, v := range raw.Fields {
		rec[k] = v.Clone()
	}
	rec[IDField] = String(raw.ID)
	return rec
}

// ID returns the record's identifier, or "" when the record is nil.
func (r Record) ID() string {
	id, _ := r[IDField].AsString()
	return id
}

// Fields returns r viewed as a field map.
func (r Record) Fields() Fields { return Fields(r) }

// MarshalJSON encodes the record as a plain JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]Value(r))
}

// Result maps identifiers to their resolved records. It only ever holds
// identifiers that were requested and found.
type Result map[string]Record

// IDs returns the identifiers in r in lexical order.
func (r Result) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
