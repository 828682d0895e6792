package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/rayone121/widow/pkg/ast"
)

type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindFloat
	KindBool
	KindChar
	KindString
	KindArray
	KindMap
	KindStruct
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value is a dynamically typed runtime value. The zero Value is nil.
// Arrays, maps and structs are handles: copying a Value shares the backing
// store, so a write through one copy is seen by all of them.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	Bool bool
	Char rune
	Str  string

	Arr *Array
	Map *Map
	Obj *Struct
	Fn  *Function
}

type Array struct {
	Elems []Value
}

// Map keeps insertion order so rendering is stable.
type Map struct {
	keys    []string
	entries map[string]Value
}

type Struct struct {
	Name   string
	Fields []string
	Values map[string]Value
}

// Function is immutable once created. Body is set for functions declared in
// source; Chunk is the module chunk index for compiled bodies, or -1.
type Function struct {
	Name   string
	Arity  int
	Params []string
	Body   *ast.Block
	Chunk  int
}

var Nil = Value{}

func Int(i int64) Value     { return Value{Kind: KindInt, I64: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F64: f} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func Char(c rune) Value     { return Value{Kind: KindChar, Char: c} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }

func NewArray(elems ...Value) Value {
	return Value{Kind: KindArray, Arr: &Array{Elems: elems}}
}

func NewMap() Value {
	return Value{Kind: KindMap, Map: &Map{entries: make(map[string]Value)}}
}

// NewStruct creates an instance with every declared field set to nil.
func NewStruct(name string, fields []string) Value {
	s := &Struct{Name: name, Fields: append([]string(nil), fields...), Values: make(map[string]Value, len(fields))}
	for _, f := range fields {
		s.Values[f] = Nil
	}
	return Value{Kind: KindStruct, Obj: s}
}

func NewFunction(fn *Function) Value {
	return Value{Kind: KindFunction, Fn: fn}
}

func (v Value) IsNil() bool { return v.Kind == KindNil }

// TypeName is the kind name used in error messages; struct instances report
// their declared name.
func (v Value) TypeName() string {
	if v.Kind == KindStruct && v.Obj != nil {
		return v.Obj.Name
	}
	return v.Kind.String()
}

// Truthy reports whether v counts as true in a condition.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.I64 != 0
	case KindFloat:
		return v.F64 != 0
	case KindString:
		return v.Str != ""
	default:
		return true
	}
}

// String renders the value the way print shows it.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.Kind {
	case KindNil:
		b.WriteString("nil")
	case KindInt:
		b.WriteString(strconv.FormatInt(v.I64, 10))
	case KindFloat:
		b.WriteString(formatFloat(v.F64))
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case KindChar:
		b.WriteByte('\'')
		b.WriteRune(v.Char)
		b.WriteByte('\'')
	case KindString:
		b.WriteString(v.Str)
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.Arr.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, k := range v.Map.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			v.Map.entries[k].write(b)
		}
		b.WriteByte('}')
	case KindStruct:
		b.WriteString(v.Obj.Name)
		b.WriteByte('{')
		for i, f := range v.Obj.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f)
			b.WriteString(": ")
			v.Obj.Values[f].write(b)
		}
		b.WriteByte('}')
	case KindFunction:
		b.WriteString("<fn ")
		b.WriteString(v.Fn.Name)
		b.WriteByte('>')
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *Map) Set(key string, v Value) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (s *Struct) Get(field string) (Value, bool) {
	v, ok := s.Values[field]
	return v, ok
}

// Set writes an existing field; it reports false for undeclared fields.
func (s *Struct) Set(field string, v Value) bool {
	if _, ok := s.Values[field]; !ok {
		return false
	}
	s.Values[field] = v
	return true
}
