// Package eval interprets the query algebra (package query) against a
// row, which is either a document or a host record (spec.md §3, §4.2).
package eval

import (
	"reflect"
	"strings"

	"github.com/nimbusdb/nimbusdb/query"
)

// Row is the Design Notes §9 sum type: a Document (map[string]query.Value)
// or a Record (arbitrary Go value addressed via reflection). Exactly one
// of the two is set. Dispatch goes through member, a single method,
// instead of two duplicated evaluator code paths for the two shapes.
type Row struct {
	doc map[string]query.Value
	rec interface{}
	isDoc bool
}

// Document wraps a document row.
func Document(d map[string]query.Value) Row {
	return Row{doc: d, isDoc: true}
}

// Record wraps a host record row (addressed via reflection).
func Record(v interface{}) Row {
	return Row{rec: v, isDoc: false}
}

// IsDocument reports whether this row is a document.
func (r Row) IsDocument() bool { return r.isDoc }

// member resolves a field/property by name against whichever
// representation this row holds (spec.md §4.2 Member contract).
//
// Document: try the literal name, then a lowerCamelCase variant, then
// "_id" when name == "Id".
// Record: reflect for an exported field or zero-arg method of that name;
// absence yields nil — records never panic on a missing member.
func (r Row) member(name string) query.Value {
	if r.isDoc {
		return documentMember(r.doc, name)
	}
	return recordMember(r.rec, name)
}

func documentMember(doc map[string]query.Value, name string) query.Value {
	if doc == nil {
		return nil
	}
	if v, ok := doc[name]; ok {
		return v
	}
	if alias := lowerCamel(name); alias != name {
		if v, ok := doc[alias]; ok {
			return v
		}
	}
	if name == "Id" {
		if v, ok := doc["_id"]; ok {
			return v
		}
	}
	return nil
}

func lowerCamel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func recordMember(rec interface{}, name string) query.Value {
	if rec == nil {
		return nil
	}
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	if f := v.FieldByName(name); f.IsValid() && f.CanInterface() {
		return f.Interface()
	}
	if m := v.MethodByName(name); m.IsValid() {
		if mt := m.Type(); mt.NumIn() == 0 && mt.NumOut() == 1 {
			return m.Call(nil)[0].Interface()
		}
	}
	if v.CanAddr() {
		if m := v.Addr().MethodByName(name); m.IsValid() {
			if mt := m.Type(); mt.NumIn() == 0 && mt.NumOut() == 1 {
				return m.Call(nil)[0].Interface()
			}
		}
	}
	return nil
}
