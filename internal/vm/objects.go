package vm

import "fmt"

// Object is a heap-allocated value. Object equality is reference
// identity, so every implementation must be a pointer type.
type Object interface {
	String() string
	objectKind() string
}

// ObjString is an immutable byte string with its precomputed FNV-1a
// hash. Strings are interned: byte-equal strings share one object, so
// pointer comparison decides equality.
type ObjString struct {
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string     { return s.Chars }
func (s *ObjString) objectKind() string { return "string" }

// ObjFunction is a compiled function. A nil Name marks the top-level
// script.
type ObjFunction struct {
	Name  *ObjString
	Arity int
	Chunk *Chunk
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}
func (f *ObjFunction) objectKind() string { return "function" }

// NativeFn is a host function callable from the language. Arguments
// are a window into the VM stack; the return value replaces the callee
// and arguments.
type NativeFn func(vm *VM, argc int, args []Value) Value

// ObjNative wraps a NativeFn for storage in a Value.
type ObjNative struct {
	Name string
	Fn   NativeFn
}

func (n *ObjNative) String() string     { return "<native fn>" }
func (n *ObjNative) objectKind() string { return "native" }

// ObjMap is the language's heterogeneous container. It keeps two
// tables: Hash is keyed by raw value bits (number keys and literal
// elements), Fields is keyed by interned string (dot access and string
// subscripts).
type ObjMap struct {
	Hash   RawHash
	Fields Table
}

func (m *ObjMap) String() string     { return "<map>" }
func (m *ObjMap) objectKind() string { return "map" }

// fnv1a32 is the string hash used for interning and table probing.
func fnv1a32(chars string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(chars); i++ {
		hash ^= uint32(chars[i])
		hash *= 16777619
	}
	return hash
}

// Heap owns every object the VM allocates. Cloned VMs share one heap;
// teardown is the creator's job. The strings table doubles as the
// interning registry.
type Heap struct {
	objects []Object
	strings *Table
}

func NewHeap() *Heap {
	return &Heap{strings: NewTable()}
}

// adopt registers a freshly allocated object with the heap.
func (h *Heap) adopt(o Object) {
	h.objects = append(h.objects, o)
}

// Intern returns the canonical string object for the given bytes,
// allocating one if none exists. The C original split this into copy
// and take variants around ownership of the char buffer; Go strings
// are immutable so a single entry point covers both.
func (h *Heap) Intern(chars string) *ObjString {
	hash := fnv1a32(chars)
	if existing := h.strings.FindString(chars, hash); existing != nil {
		return existing
	}

	s := &ObjString{Chars: chars, Hash: hash}
	h.adopt(s)
	h.strings.Set(s, NilVal())
	return s
}

// NewFunction allocates a function object with an empty chunk.
func (h *Heap) NewFunction(source *Source) *ObjFunction {
	f := &ObjFunction{Chunk: NewChunk(source)}
	h.adopt(f)
	return f
}

// NewNative allocates a native function object.
func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	h.adopt(n)
	return n
}

// NewMap allocates an empty map object.
func (h *Heap) NewMap() *ObjMap {
	m := &ObjMap{}
	h.adopt(m)
	return m
}

// Objects returns the number of live heap objects.
func (h *Heap) Objects() int {
	return len(h.objects)
}

// Release drops the heap's registries. Exactly one owner of a shared
// heap may call this.
func (h *Heap) Release() {
	h.objects = nil
	h.strings = NewTable()
}
