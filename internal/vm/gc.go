package vm

import (
	"fmt"
	"hash/fnv"
	"io"

	"github.com/dustin/go-humanize"
)

// GC is a precise, tri-color mark-sweep collector. It owns the single
// intrusive list of every heap object pebble ever allocates and
// interleaves collection with allocation — Go's own runtime still
// ultimately reclaims the memory behind an object once nothing
// (including this collector's own list) references it, but the
// mark/sweep bookkeeping below is real: sweep actually unlinks dead
// objects from the roots this engine consults, so a marking bug here
// would leak or incorrectly collect something still reachable.
type GC struct {
	vm *VM

	objects Obj // head of the all-objects intrusive list

	strings *Table // interned string table, reused for FindString

	bytesAllocated int64
	nextGC         int64

	gray []Obj

	// StressMode runs a full collection before every allocation, used to
	// validate testable property 4 (GC preservation).
	StressMode bool

	// TraceLog, when non-nil, receives a line per collection with
	// before/after/threshold heap sizes.
	TraceLog io.Writer
}

const initialNextGC = 1 << 20 // 1 MiB

// NewGC returns a GC bound to vm with the default 1 MiB initial threshold.
func NewGC(vm *VM) *GC {
	return &GC{
		vm:      vm,
		strings: NewTable(),
		nextGC:  initialNextGC,
	}
}

// SetInitialThreshold overrides the heap size the next collection
// triggers at. Every collection then recomputes the threshold from the
// surviving heap, so the override governs only the first collection
// after the call.
func (gc *GC) SetInitialThreshold(n int64) {
	gc.nextGC = n
}

func objectSize(o Obj) int64 {
	switch v := o.(type) {
	case *ObjString:
		return int64(32 + len(v.Chars))
	case *ObjFunction:
		return 64
	case *ObjNative:
		return 32
	case *ObjClosure:
		return int64(32 + 8*len(v.Upvalues))
	case *ObjUpvalue:
		return 32
	case *ObjClass:
		return 32
	case *ObjInstance:
		return 48
	case *ObjList:
		return int64(24 + 16*len(v.Items))
	default:
		return 16
	}
}

// allocate links o onto the heap's object list, accounts for its estimated
// size, and runs a collection first if the heap has grown past nextGC (or
// unconditionally in StressMode). This is the sole GC safepoint: every
// reference the VM needs to survive a collection triggered from here must
// already be reachable from the root set.
func (gc *GC) allocate(o Obj) Obj {
	size := objectSize(o)
	if gc.StressMode || gc.bytesAllocated+size > gc.nextGC {
		gc.Collect()
	}

	gc.bytesAllocated += size
	h := o.header()
	h.next = gc.objects
	gc.objects = o
	return o
}

// NewString interns chars, allocating a fresh ObjString only if an equal
// byte sequence isn't already interned.
func (gc *GC) NewString(chars string) *ObjString {
	hash := fnv1a(chars)
	if existing := gc.strings.FindString(chars, hash); existing != nil {
		return existing
	}

	s := &ObjString{Chars: chars, Hash: hash}
	// Push onto the value stack for the duration of the intern-table
	// insert: Set() can grow the table and allocate, and s isn't
	// reachable from any root yet.
	gc.vm.push(ObjVal(s))
	gc.allocate(s)
	gc.strings.Set(s, Nil())
	gc.vm.pop()
	return s
}

func fnv1a(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (gc *GC) NewFunction() *ObjFunction {
	f := &ObjFunction{Chunk: NewChunk()}
	gc.allocate(f)
	return f
}

func (gc *GC) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	gc.allocate(n)
	return n
}

func (gc *GC) NewClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	gc.allocate(c)
	return c
}

func (gc *GC) NewUpvalue(slot *Value) *ObjUpvalue {
	u := &ObjUpvalue{Location: slot}
	gc.allocate(u)
	return u
}

func (gc *GC) NewClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable()}
	gc.allocate(c)
	return c
}

func (gc *GC) NewInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	gc.allocate(i)
	return i
}

func (gc *GC) NewList(items []Value) *ObjList {
	l := &ObjList{Items: items}
	gc.allocate(l)
	return l
}

// Collect runs one full tri-color mark-sweep pass: mark every root, drain
// the gray worklist, strip unmarked keys from the intern table, sweep
// unmarked objects off the heap list, then set the next threshold to
// twice the surviving bytes, never below 1 MiB.
func (gc *GC) Collect() {
	before := gc.bytesAllocated

	gc.markRoots()
	gc.traceReferences()
	gc.strings.RemoveWhite()
	gc.sweep()

	gc.nextGC = gc.bytesAllocated * 2
	if gc.nextGC < initialNextGC {
		gc.nextGC = initialNextGC
	}

	if gc.TraceLog != nil {
		fmt.Fprintf(gc.TraceLog, "gc: collected %s -> %s (next at %s)\n",
			humanize.Bytes(uint64(before)), humanize.Bytes(uint64(gc.bytesAllocated)), humanize.Bytes(uint64(gc.nextGC)))
	}
}

func (gc *GC) markRoots() {
	vm := gc.vm

	for i := 0; i < vm.sp; i++ {
		gc.markValue(vm.stack[i])
	}

	for i := 0; i < vm.frameCount; i++ {
		gc.markObject(vm.frames[i].closure)
	}

	for u := vm.openUpvalues; u != nil; u = u.NextOpen {
		gc.markObject(u)
	}

	for _, key := range vm.globals.Keys() {
		gc.markObject(key)
		if v, ok := vm.globals.Get(key); ok {
			gc.markValue(v)
		}
	}

	for c := vm.compiler; c != nil; c = c.enclosing {
		gc.markObject(c.function)
	}

	if vm.initString != nil {
		gc.markObject(vm.initString)
	}
}

func (gc *GC) markValue(v Value) {
	if v.Kind == ValObj && v.Obj != nil {
		gc.markObject(v.Obj)
	}
}

func (gc *GC) markObject(o Obj) {
	if o == nil {
		return
	}
	h := o.header()
	if h.marked {
		return
	}
	h.marked = true
	gc.gray = append(gc.gray, o)
}

func (gc *GC) traceReferences() {
	for len(gc.gray) > 0 {
		o := gc.gray[len(gc.gray)-1]
		gc.gray = gc.gray[:len(gc.gray)-1]
		gc.blacken(o)
	}
}

func (gc *GC) blacken(o Obj) {
	switch v := o.(type) {
	case *ObjString, *ObjNative:
		// no outgoing references
	case *ObjFunction:
		gc.markObject(v.Name)
		for _, c := range v.Chunk.Constants {
			gc.markValue(c)
		}
	case *ObjClosure:
		gc.markObject(v.Function)
		for _, u := range v.Upvalues {
			gc.markObject(u)
		}
	case *ObjUpvalue:
		// Closed holds Nil while open, so marking it unconditionally is safe.
		gc.markValue(v.Closed)
	case *ObjClass:
		gc.markObject(v.Name)
		if v.Methods != nil {
			for _, key := range v.Methods.Keys() {
				gc.markObject(key)
				if mv, ok := v.Methods.Get(key); ok {
					gc.markValue(mv)
				}
			}
		}
	case *ObjInstance:
		gc.markObject(v.Class)
		for _, key := range v.Fields.Keys() {
			gc.markObject(key)
			if fv, ok := v.Fields.Get(key); ok {
				gc.markValue(fv)
			}
		}
	case *ObjList:
		for _, item := range v.Items {
			gc.markValue(item)
		}
	}
}

func (gc *GC) sweep() {
	var prev Obj
	o := gc.objects
	for o != nil {
		h := o.header()
		if h.marked {
			h.marked = false
			prev = o
			o = h.next
			continue
		}

		unreached := o
		o = h.next
		if prev != nil {
			prev.header().next = o
		} else {
			gc.objects = o
		}
		gc.bytesAllocated -= objectSize(unreached)
	}
}
