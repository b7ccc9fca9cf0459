// Package mapper converts between documents (map[string]query.Value) and
// host-language struct records (spec.md §6 "Mapper contract":
// doc_to_record(T, doc) -> T; record_to_doc(T, value) -> Document).
//
// No file in the teacher or the rest of the pack performs arbitrary
// struct<->map conversion over this exact value domain (decimal.Decimal,
// ident.ID, time.Time, nested documents/sequences all need specific
// handling a generic marshaller wouldn't know about), so this package is
// built on reflect rather than grounded in a pack dependency; see
// DESIGN.md for the stdlib justification.
package mapper

import (
	"reflect"
	"strings"

	"github.com/nimbusdb/nimbusdb/query"
)

// DocToRecord populates a new T from doc, matching each struct field to a
// document key by its "db" struct tag first, then by the exact field
// name, then by its lowerCamelCase form, and finally to "_id" for a field
// named ID or Id. Fields with no matching key are left zero.
func DocToRecord[T any](doc map[string]query.Value) (T, error) {
	var out T
	v := reflect.ValueOf(&out).Elem()
	if v.Kind() != reflect.Struct {
		return out, nil
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key, ok := lookupKey(doc, field)
		if !ok {
			continue
		}
		if err := setField(v.Field(i), doc[key]); err != nil {
			return out, err
		}
	}
	return out, nil
}

// RecordToDoc converts an arbitrary struct (or pointer to one) into a
// Document, one field per exported field, keyed the same way
// DocToRecord reads them back.
func RecordToDoc(record interface{}) map[string]query.Value {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	doc := make(map[string]query.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		doc[fieldKey(field)] = fieldValue(v.Field(i))
	}
	return doc
}

func fieldKey(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("db"); ok && tag != "" {
		return tag
	}
	return lowerCamel(field.Name)
}

func lookupKey(doc map[string]query.Value, field reflect.StructField) (string, bool) {
	if tag, ok := field.Tag.Lookup("db"); ok && tag != "" {
		if _, present := doc[tag]; present {
			return tag, true
		}
	}
	if _, present := doc[field.Name]; present {
		return field.Name, true
	}
	camel := lowerCamel(field.Name)
	if _, present := doc[camel]; present {
		return camel, true
	}
	if field.Name == "ID" || field.Name == "Id" {
		if _, present := doc["_id"]; present {
			return "_id", true
		}
	}
	return "", false
}

func lowerCamel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldValue(f reflect.Value) query.Value {
	if !f.CanInterface() {
		return nil
	}
	return f.Interface()
}

func setField(f reflect.Value, value query.Value) error {
	if !f.CanSet() || value == nil {
		return nil
	}
	fv := reflect.ValueOf(value)
	if fv.Type().AssignableTo(f.Type()) {
		f.Set(fv)
		return nil
	}
	if fv.Type().ConvertibleTo(f.Type()) {
		f.Set(fv.Convert(f.Type()))
		return nil
	}
	return nil
}
