package vm

import "fmt"

// ValueKind discriminates the four variants a Value can hold.
type ValueKind uint8

const (
	ValNil ValueKind = iota
	ValBool
	ValNumber
	ValObj
)

// Value is the dynamically typed cell every pebble expression produces.
// It is a plain discriminated union rather than a NaN-boxed word, chosen
// for clarity; NaN-boxing remains a drop-in alternative behind the same
// predicates.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	Obj    Obj
}

func Nil() Value              { return Value{Kind: ValNil} }
func BoolVal(b bool) Value    { return Value{Kind: ValBool, Bool: b} }
func NumberVal(n float64) Value { return Value{Kind: ValNumber, Number: n} }
func ObjVal(o Obj) Value      { return Value{Kind: ValObj, Obj: o} }

func (v Value) IsNil() bool    { return v.Kind == ValNil }
func (v Value) IsBool() bool   { return v.Kind == ValBool }
func (v Value) IsNumber() bool { return v.Kind == ValNumber }
func (v Value) IsObj() bool    { return v.Kind == ValObj }

func (v Value) IsObjKind(k ObjKind) bool {
	return v.Kind == ValObj && v.Obj != nil && v.Obj.Kind() == k
}

func (v Value) IsString() bool   { return v.IsObjKind(ObjStringKind) }
func (v Value) IsFunction() bool { return v.IsObjKind(ObjFunctionKind) }
func (v Value) IsClosure() bool  { return v.IsObjKind(ObjClosureKind) }
func (v Value) IsNative() bool   { return v.IsObjKind(ObjNativeKind) }
func (v Value) IsClass() bool    { return v.IsObjKind(ObjClassKind) }
func (v Value) IsInstance() bool { return v.IsObjKind(ObjInstanceKind) }
func (v Value) IsList() bool     { return v.IsObjKind(ObjListKind) }

func (v Value) AsString() *ObjString     { return v.Obj.(*ObjString) }
func (v Value) AsFunction() *ObjFunction { return v.Obj.(*ObjFunction) }
func (v Value) AsClosure() *ObjClosure   { return v.Obj.(*ObjClosure) }
func (v Value) AsNative() *ObjNative     { return v.Obj.(*ObjNative) }
func (v Value) AsClass() *ObjClass       { return v.Obj.(*ObjClass) }
func (v Value) AsInstance() *ObjInstance { return v.Obj.(*ObjInstance) }
func (v Value) AsList() *ObjList         { return v.Obj.(*ObjList) }

// IsFalsey reports pebble's truthiness rule: nil and false are falsy,
// everything else is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.Bool)
}

// Equals compares by IEEE-754 equality for numbers (NaN != NaN), by
// value for booleans, nil only equals nil, heap objects by identity
// (interned strings' identity already implies byte-equality), and
// cross-kind comparisons are always false.
func (v Value) Equals(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValNil:
		return true
	case ValBool:
		return v.Bool == other.Bool
	case ValNumber:
		return v.Number == other.Number
	case ValObj:
		if v.IsString() && other.IsString() {
			return v.Obj == other.Obj // interning invariant: identity implies equality
		}
		return v.Obj == other.Obj
	default:
		return false
	}
}

// Inspect renders a Value the way `print` does.
func (v Value) Inspect() string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.Number)
	case ValObj:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.Inspect()
	default:
		return "<?>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

func (v Value) TypeName() string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	case ValObj:
		switch v.Obj.Kind() {
		case ObjStringKind:
			return "string"
		case ObjFunctionKind, ObjClosureKind, ObjNativeKind:
			return "function"
		case ObjClassKind:
			return "class"
		case ObjInstanceKind:
			return "instance"
		case ObjListKind:
			return "list"
		case ObjUpvalueKind:
			return "upvalue"
		}
	}
	return "unknown"
}
