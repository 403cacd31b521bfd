// Package projection turns entities into response documents using
// declarative format trees. The projector knows nothing about roles: callers
// pick the format that fits the caller and the endpoint.
package projection

import (
	"fmt"
	"reflect"
)

// Entity is anything a format can be resolved against.
type Entity interface {
	// Field returns the value of a named attribute, or nil when it is absent or unknown.
	Field(name string) any
	// Related returns the loaded relation with the given name, or nil when it is missing.
	Related(name string) Entity
}

// Document is a projected output. A nil Document encodes as JSON null.
type Document map[string]any

type nodeKind int

const (
	kindField nodeKind = iota
	kindURL
	kindBlock
)

// Node is one entry of a format tree.
type Node struct {
	kind       nodeKind
	key        string
	attr       string
	prefix     string
	block      Format
	structured bool
}

// Format is an immutable ordered list of nodes.
type Format struct {
	nodes []Node
}

// New builds a format from nodes. The slice is copied.
func New(nodes ...Node) Format {
	cp := make([]Node, len(nodes))
	copy(cp, nodes)
	return Format{nodes: cp}
}

// Extend returns a new format with extra nodes appended.
func (f Format) Extend(nodes ...Node) Format {
	cp := make([]Node, 0, len(f.nodes)+len(nodes))
	cp = append(cp, f.nodes...)
	cp = append(cp, nodes...)
	return Format{nodes: cp}
}

// Keys returns the output keys of the top level, in order.
func (f Format) Keys() []string {
	keys := make([]string, 0, len(f.nodes))
	for _, n := range f.nodes {
		keys = append(keys, n.key)
	}
	return keys
}

// Attr copies the attribute of the same name.
func Attr(name string) Node {
	return Node{kind: kindField, key: name, attr: name}
}

// Field copies attribute attr under a different output key.
func Field(key, attr string) Node {
	return Node{kind: kindField, key: key, attr: attr}
}

// URL emits prefix followed by the value of attr.
func URL(key, attr, prefix string) Node {
	return Node{kind: kindURL, key: key, attr: attr, prefix: prefix}
}

// Flatten projects relation with f and merges the result into the parent.
func Flatten(relation string, f Format) Node {
	return Node{kind: kindBlock, key: relation, block: f}
}

// Nest projects relation with f under its own key. A missing relation yields null.
func Nest(relation string, f Format) Node {
	return Node{kind: kindBlock, key: relation, block: f, structured: true}
}

// Project resolves path from e through its relations and projects the
// entity found there. It returns nil when e is nil or any step is missing.
func Project(e Entity, f Format, path ...string) Document {
	target := resolve(e, path)
	if target == nil {
		return nil
	}

	doc := make(Document, len(f.nodes))
	for _, n := range f.nodes {
		switch n.kind {
		case kindField:
			if v := target.Field(n.attr); present(v) {
				doc[n.key] = v
			}
		case kindURL:
			if v := target.Field(n.attr); present(v) {
				doc[n.key] = n.prefix + fmt.Sprint(v)
			}
		case kindBlock:
			sub := Project(target, n.block, n.key)
			if n.structured {
				doc[n.key] = sub
				continue
			}
			for k, v := range sub {
				doc[k] = v
			}
		}
	}
	return doc
}

// ProjectAll projects every entity with the same format, keeping input order.
func ProjectAll[T Entity](items []T, f Format) []Document {
	out := make([]Document, 0, len(items))
	for _, item := range items {
		out = append(out, Project(item, f))
	}
	return out
}

func resolve(e Entity, path []string) Entity {
	if isNil(e) {
		return nil
	}
	for _, rel := range path {
		e = e.Related(rel)
		if isNil(e) {
			return nil
		}
	}
	return e
}

func present(v any) bool {
	if isNil(v) {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

// isNil also catches typed nil pointers stored in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
