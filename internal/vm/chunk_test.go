package vm

import "testing"

func TestChunkEmit(t *testing.T) {
	chunk := NewChunk(&Source{Name: "test"})

	chunk.EmitOp(OP_NIL, 1, 5)
	chunk.Emit(42, 2, 9)

	if chunk.Len() != 2 {
		t.Fatalf("expected 2 bytes, got %d", chunk.Len())
	}
	if len(chunk.Code) != len(chunk.Lines) {
		t.Fatalf("code and lines lengths diverged")
	}
	if chunk.ReadByte(0) != byte(OP_NIL) || chunk.ReadByte(1) != 42 {
		t.Errorf("bytes not written as given")
	}
	if chunk.Line(0) != 1 || chunk.Column(0) != 5 {
		t.Errorf("position of byte 0: got %d:%d", chunk.Line(0), chunk.Column(0))
	}
	if chunk.Line(1) != 2 || chunk.Column(1) != 9 {
		t.Errorf("position of byte 1: got %d:%d", chunk.Line(1), chunk.Column(1))
	}
}

func TestChunkReadShort(t *testing.T) {
	chunk := NewChunk(&Source{Name: "test"})
	chunk.Emit(0x12, 1, 1)
	chunk.Emit(0x34, 1, 1)

	if got := chunk.ReadShort(0); got != 0x1234 {
		t.Errorf("expected big-endian 0x1234, got %#x", got)
	}
}

func TestAddConstantDedup(t *testing.T) {
	chunk := NewChunk(&Source{Name: "test"})
	heap := NewHeap()
	name := heap.Intern("name")

	first := chunk.AddConstant(ObjVal(name), true)
	second := chunk.AddConstant(ObjVal(name), true)
	if first != second {
		t.Errorf("dedup returned a new index: %d vs %d", first, second)
	}

	third := chunk.AddConstant(NumVal(1), false)
	fourth := chunk.AddConstant(NumVal(1), false)
	if third == fourth {
		t.Errorf("non-dedup add reused an index")
	}
}

func TestConstantRoundTrip(t *testing.T) {
	// Executing CONST pushes a value equal to its pool entry: a native
	// observes what arrives on the stack.
	machine := New()
	defer machine.Close()

	var captured []Value
	machine.DefineNative("capture", func(vm *VM, argc int, args []Value) Value {
		captured = append(captured, args[0])
		return args[0]
	})

	values := []Value{
		NilVal(),
		BoolVal(true),
		NumVal(3.25),
		ObjVal(machine.Intern("s")),
	}

	for _, want := range values {
		captured = captured[:0]

		fn := machine.heap.NewFunction(&Source{Name: "roundtrip"})
		wantIdx := fn.Chunk.AddConstant(want, false)
		nameIdx := fn.Chunk.AddConstant(ObjVal(machine.Intern("capture")), false)

		fn.Chunk.EmitOp(OP_GLD, 1, 1)
		fn.Chunk.Emit(byte(nameIdx), 1, 1)
		fn.Chunk.EmitOp(OP_CONST, 1, 1)
		fn.Chunk.Emit(byte(wantIdx), 1, 1)
		fn.Chunk.EmitOp(OP_CALL, 1, 1)
		fn.Chunk.Emit(1, 1, 1)
		fn.Chunk.EmitOp(OP_RET, 1, 1)

		machine.push(ObjVal(fn))
		if !machine.call(ObjVal(fn), 0) {
			t.Fatalf("call failed")
		}
		if result := machine.execute(); result != OK {
			t.Fatalf("execute failed: %d", result)
		}

		if len(captured) != 1 || !captured[0].Equals(want) {
			t.Errorf("constant %s did not round-trip", want.String())
		}
	}
}
