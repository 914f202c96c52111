package vm

import "fmt"

// ObjKind identifies the concrete kind of a heap object.
type ObjKind uint8

const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
	ObjNativeKind
	ObjClosureKind
	ObjUpvalueKind
	ObjClassKind
	ObjInstanceKind
	ObjListKind
)

// Obj is implemented by every heap-allocated object kind. All heap objects
// embed header, which threads them on the GC's single intrusive list and
// carries the tri-color mark bit.
type Obj interface {
	Kind() ObjKind
	Inspect() string
	header() *objHeader
}

// objHeader is embedded by every Obj implementation.
type objHeader struct {
	marked bool
	next   Obj // next object on the heap's all-objects list
}

func (h *objHeader) header() *objHeader { return h }

// ObjString is an interned, immutable byte sequence.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) Kind() ObjKind   { return ObjStringKind }
func (s *ObjString) Inspect() string { return s.Chars }

// ObjFunction is a compiled function: arity, upvalue count, and the chunk
// of bytecode for its body. Name is nil for the implicit top-level script
// function.
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func (f *ObjFunction) Kind() ObjKind { return ObjFunctionKind }
func (f *ObjFunction) Inspect() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the signature of a built-in function implemented in Go.
type NativeFn func(vm *VM, args []Value) (Value, error)

// ObjNative wraps a Go function so it can be called like any other value.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (n *ObjNative) Kind() ObjKind   { return ObjNativeKind }
func (n *ObjNative) Inspect() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// ObjUpvalue mediates a closure's access to a variable living on an outer
// call frame. While open, Location points into the VM's value stack; once
// closed, Location is nil and Closed owns the value. NextOpen threads the
// VM's open-upvalue list, which is kept sorted by descending stack address
// — a distinct link from objHeader.next, which threads the GC's heap list.
type ObjUpvalue struct {
	objHeader
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue
}

func (u *ObjUpvalue) Kind() ObjKind   { return ObjUpvalueKind }
func (u *ObjUpvalue) Inspect() string { return "<upvalue>" }

// ObjClosure pairs a compiled function with the upvalues it captured at
// creation time.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Kind() ObjKind   { return ObjClosureKind }
func (c *ObjClosure) Inspect() string { return fmt.Sprintf("<fn %s>", c.Function.Name.Chars) }

// ObjClass is a nascent class value: constructible via CALL, with plain
// field storage. Methods is reserved for a future method table (see
// DESIGN.md's Open Question resolution) and is never populated by the
// current compiler.
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) Kind() ObjKind   { return ObjClassKind }
func (c *ObjClass) Inspect() string { return fmt.Sprintf("<class %s>", c.Name.Chars) }

// ObjInstance is an instance of a class: a class reference plus a field
// table keyed by interned property-name strings.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) Kind() ObjKind   { return ObjInstanceKind }
func (i *ObjInstance) Inspect() string { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }

// ObjList is a growable, ordered sequence of values.
type ObjList struct {
	objHeader
	Items []Value
}

func (l *ObjList) Kind() ObjKind { return ObjListKind }
func (l *ObjList) Inspect() string {
	s := "["
	for i, v := range l.Items {
		if i > 0 {
			s += ", "
		}
		s += v.Inspect()
	}
	return s + "]"
}
