package vm

import (
	"math"
	"strconv"
)

// ValueType identifies the variant stored in a Value.
type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNum
	ValObj
)

// Value is a stack-allocated tagged union. Numbers keep their IEEE-754
// bits in Data, bools store 0/1, nil leaves Data zero. Heap objects
// live behind Obj; the Value only carries the reference.
type Value struct {
	Type ValueType
	Data uint64
	Obj  Object
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func BoolVal(b bool) Value {
	var data uint64
	if b {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func NumVal(n float64) Value {
	return Value{Type: ValNum, Data: math.Float64bits(n)}
}

func ObjVal(o Object) Value {
	return Value{Type: ValObj, Obj: o}
}

// Accessors

func (v Value) AsBool() bool {
	return v.Data != 0
}

func (v Value) AsNum() float64 {
	return math.Float64frombits(v.Data)
}

// Raw returns the value's payload bits. Number-keyed map access uses
// these bits directly as the hash key.
func (v Value) Raw() uint64 {
	return v.Data
}

func (v Value) IsNil() bool  { return v.Type == ValNil }
func (v Value) IsBool() bool { return v.Type == ValBool }
func (v Value) IsNum() bool  { return v.Type == ValNum }
func (v Value) IsObj() bool  { return v.Type == ValObj }

func (v Value) IsString() bool {
	if v.Type != ValObj {
		return false
	}
	_, ok := v.Obj.(*ObjString)
	return ok
}

func (v Value) IsMap() bool {
	if v.Type != ValObj {
		return false
	}
	_, ok := v.Obj.(*ObjMap)
	return ok
}

// IsFalsey reports whether conditionals treat the value as false.
// Nil, false and +0.0 all leave Data at zero, so the check collapses
// to a payload test; -0.0 carries the sign bit and stays truthy.
func (v Value) IsFalsey() bool {
	return v.Type != ValObj && v.Data == 0
}

// Equals implements the language's == operator. Different tags never
// compare equal; primitives compare bitwise; objects compare by
// reference, which suffices for strings because they are interned.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValNil:
		return true
	case ValBool, ValNum:
		return v.Data == other.Data
	case ValObj:
		return v.Obj == other.Obj
	}
	return false
}

// String renders the value the way the print statement does.
func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Data != 0 {
			return "true"
		}
		return "false"
	case ValNum:
		return formatNum(v.AsNum())
	case ValObj:
		return v.Obj.String()
	}
	return "<?>"
}

// formatNum drops the trailing ".0" of integral numbers and falls back
// to %g otherwise.
func formatNum(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
