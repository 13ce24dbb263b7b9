package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Fields holds the attributes of a document that are not modelled as
// struct fields. They are written back verbatim on marshal.
type Fields map[string]json.RawMessage

// Overrides is a free-form set of attributes merged over a document
type Overrides map[string]interface{}

var fieldNameCache sync.Map // reflect.Type -> []string

// jsonFieldNames lists the wire names claimed by a struct's json tags
func jsonFieldNames(t reflect.Type) []string {
	if cached, ok := fieldNameCache.Load(t); ok {
		return cached.([]string)
	}

	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}

	fieldNameCache.Store(t, names)
	return names
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// decodeDocument unmarshals data into the struct pointed to by v and
// returns whatever attributes v did not claim
func decodeDocument(data []byte, v interface{}) (Fields, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, name := range jsonFieldNames(reflect.TypeOf(v).Elem()) {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Fields(all), nil
}

// encodeDocument marshals v and folds extra back in. Modelled fields win.
func encodeDocument(v interface{}, extra Fields) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

// patchDocument carries the attribute-level difference between before and
// after over to raw. Attributes that did not change keep their raw bytes,
// including explicit nulls and empty values.
func patchDocument(raw, before, after []byte) ([]byte, error) {
	var doc, old, cur map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(before, &old); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(after, &cur); err != nil {
		return nil, err
	}

	for k, v := range cur {
		if prev, ok := old[k]; !ok || !bytes.Equal(prev, v) {
			doc[k] = v
		}
	}
	for k := range old {
		if _, ok := cur[k]; !ok {
			delete(doc, k)
		}
	}
	return json.Marshal(doc)
}

// Merge applies overrides on top of the document pointed to by doc, the
// way a dictionary update would: each key replaces the attribute of the
// same name wholesale, whether or not it is modelled.
func Merge(doc interface{}, overrides Overrides) error {
	if len(overrides) == 0 {
		return nil
	}

	rv := reflect.ValueOf(doc)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("merge target must be a non-nil pointer, got %T", doc)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	all := make(map[string]json.RawMessage)
	if !isNull(data) {
		if err := json.Unmarshal(data, &all); err != nil {
			return fmt.Errorf("failed to decode document: %w", err)
		}
	}

	for k, v := range overrides {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode override %q: %w", k, err)
		}
		all[k] = raw
	}

	merged, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode merged document: %w", err)
	}

	rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
	if err := json.Unmarshal(merged, doc); err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}
	return nil
}

// deepCopyInto copies in to out through its wire form, so unmodelled
// attributes travel with the copy
func deepCopyInto(in, out interface{}) {
	data, err := json.Marshal(in)
	if err != nil {
		panic(fmt.Sprintf("types: deep copy of %T: %v", in, err))
	}
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("types: deep copy of %T: %v", in, err))
	}
}
