package vm

import (
	"math"
	"testing"
)

func TestIsFalsey(t *testing.T) {
	heap := NewHeap()

	falsey := []Value{
		NilVal(),
		BoolVal(false),
		NumVal(0),
	}
	truthy := []Value{
		BoolVal(true),
		NumVal(1),
		NumVal(-1),
		NumVal(math.Copysign(0, -1)), // -0.0 keeps its sign bit
		NumVal(math.NaN()),
		ObjVal(heap.Intern("")),
		ObjVal(heap.NewMap()),
	}

	for _, v := range falsey {
		if !v.IsFalsey() {
			t.Errorf("%s should be falsey", v.String())
		}
	}
	for _, v := range truthy {
		if v.IsFalsey() {
			t.Errorf("%s should be truthy", v.String())
		}
	}
}

func TestEquals(t *testing.T) {
	heap := NewHeap()
	s := heap.Intern("x")

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil nil", NilVal(), NilVal(), true},
		{"nil false", NilVal(), BoolVal(false), false},
		{"bools", BoolVal(true), BoolVal(true), true},
		{"bool num", BoolVal(true), NumVal(1), false},
		{"nums", NumVal(2.5), NumVal(2.5), true},
		{"nums differ", NumVal(2.5), NumVal(2.6), false},
		{"interned strings", ObjVal(s), ObjVal(heap.Intern("x")), true},
		{"distinct strings", ObjVal(s), ObjVal(heap.Intern("y")), false},
		{"distinct maps", ObjVal(heap.NewMap()), ObjVal(heap.NewMap()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	// Reflexivity for non-NaN
	for _, v := range []Value{NilVal(), BoolVal(true), NumVal(3), ObjVal(s)} {
		if !v.Equals(v) {
			t.Errorf("%s not equal to itself", v.String())
		}
	}

	m := heap.NewMap()
	if !ObjVal(m).Equals(ObjVal(m)) {
		t.Errorf("map not reference-equal to itself")
	}
}

func TestValueString(t *testing.T) {
	heap := NewHeap()
	fn := heap.NewFunction(&Source{Name: "test"})
	named := heap.NewFunction(&Source{Name: "test"})
	named.Name = heap.Intern("best")

	tests := []struct {
		v    Value
		want string
	}{
		{NilVal(), "nil"},
		{BoolVal(true), "true"},
		{BoolVal(false), "false"},
		{NumVal(3), "3"},
		{NumVal(3.0), "3"},
		{NumVal(-2.5), "-2.5"},
		{NumVal(0.1), "0.1"},
		{ObjVal(heap.Intern("raw text")), "raw text"},
		{ObjVal(fn), "<script>"},
		{ObjVal(named), "<fn best>"},
		{ObjVal(heap.NewMap()), "<map>"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
