package vm

import (
	"strings"
	"testing"
)

// compileChunk compiles source and returns the script chunk, failing
// the test on errors.
func compileChunk(t *testing.T, source string) *Chunk {
	t.Helper()

	heap := NewHeap()
	var errOut strings.Builder
	fn, err := Compile(heap, &Source{Name: "test", Text: source}, &errOut)
	if err != nil {
		t.Fatalf("compile failed: %s", errOut.String())
	}
	return fn.Chunk
}

// opcodes flattens a chunk into its opcode sequence, skipping operands.
func opcodes(t *testing.T, chunk *Chunk) []Opcode {
	t.Helper()

	var ops []Opcode
	for offset := 0; offset < chunk.Len(); {
		ops = append(ops, Opcode(chunk.Code[offset]))
		offset = instructionSize(t, chunk, offset)
	}
	return ops
}

func opsEqual(a, b []Opcode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompileExpressionStatement(t *testing.T) {
	chunk := compileChunk(t, "1 + 2;")

	want := []Opcode{OP_CONST, OP_CONST, OP_ADD, OP_POP, OP_NIL, OP_RET}
	if got := opcodes(t, chunk); !opsEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCompileComparisonSynthesis(t *testing.T) {
	tests := []struct {
		input string
		want  []Opcode
	}{
		{"1 < 2;", []Opcode{OP_CONST, OP_CONST, OP_LT, OP_POP, OP_NIL, OP_RET}},
		{"1 <= 2;", []Opcode{OP_CONST, OP_CONST, OP_LE, OP_POP, OP_NIL, OP_RET}},
		{"1 > 2;", []Opcode{OP_CONST, OP_CONST, OP_LE, OP_NOT, OP_POP, OP_NIL, OP_RET}},
		{"1 >= 2;", []Opcode{OP_CONST, OP_CONST, OP_LT, OP_NOT, OP_POP, OP_NIL, OP_RET}},
		{"1 != 2;", []Opcode{OP_CONST, OP_CONST, OP_EQ, OP_NOT, OP_POP, OP_NIL, OP_RET}},
		{"1 == 2;", []Opcode{OP_CONST, OP_CONST, OP_EQ, OP_POP, OP_NIL, OP_RET}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			chunk := compileChunk(t, tt.input)
			if got := opcodes(t, chunk); !opsEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileGlobals(t *testing.T) {
	chunk := compileChunk(t, "var a = 1; print a; a = 2;")

	want := []Opcode{
		OP_CONST, OP_DEF, // var a = 1;
		OP_GLD, OP_PRINT, // print a;
		OP_CONST, OP_GST, OP_POP, // a = 2;
		OP_NIL, OP_RET,
	}
	if got := opcodes(t, chunk); !opsEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCompileLocalsUseSlots(t *testing.T) {
	chunk := compileChunk(t, "{ var a = 1; print a; a = 2; }")

	want := []Opcode{
		OP_CONST,        // initializer
		OP_LD, OP_PRINT, // print a;
		OP_CONST, OP_ST, OP_POP, // a = 2;
		OP_POP, // scope exit pops the local
		OP_NIL, OP_RET,
	}
	if got := opcodes(t, chunk); !opsEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCompileScopePops(t *testing.T) {
	chunk := compileChunk(t, "{ var a = 1; var b = 2; var c = 3; }")

	pops := 0
	for _, op := range opcodes(t, chunk) {
		if op == OP_POP {
			pops++
		}
	}
	if pops != 3 {
		t.Errorf("block exit emitted %d pops, want 3", pops)
	}
}

func TestCompileJumpTargets(t *testing.T) {
	chunk := compileChunk(t, "if (true) print 1; else print 2;")

	// Every jump lands inside the chunk and moves forward
	for offset := 0; offset < chunk.Len(); {
		op := Opcode(chunk.Code[offset])
		if op == OP_JMP || op == OP_JMPF {
			target := offset + 3 + int(chunk.ReadShort(offset+1))
			if target > chunk.Len() {
				t.Errorf("%s at %d jumps past the end (%d)", OpcodeNames[op], offset, target)
			}
		}
		offset = instructionSize(t, chunk, offset)
	}
}

func TestCompileFunctionConstant(t *testing.T) {
	chunk := compileChunk(t, "fun f(a, b) { return a + b; }")

	var fn *ObjFunction
	for _, c := range chunk.Constants {
		if c.IsObj() {
			if f, ok := c.Obj.(*ObjFunction); ok {
				fn = f
			}
		}
	}
	if fn == nil {
		t.Fatalf("no function constant in the script chunk")
	}
	if fn.Arity != 2 {
		t.Errorf("arity %d, want 2", fn.Arity)
	}
	if fn.Name == nil || fn.Name.Chars != "f" {
		t.Errorf("function name not recorded")
	}

	// Body addresses parameters as slots 1 and 2
	want := []Opcode{OP_LD, OP_LD, OP_ADD, OP_RET, OP_NIL, OP_RET}
	if got := opcodes(t, fn.Chunk); !opsEqual(got, want) {
		t.Errorf("body %v, want %v", got, want)
	}
	if fn.Chunk.Code[1] != 1 || fn.Chunk.Code[3] != 2 {
		t.Errorf("parameters got slots %d and %d", fn.Chunk.Code[1], fn.Chunk.Code[3])
	}
}

func TestCompileNameDedup(t *testing.T) {
	chunk := compileChunk(t, "var a = 1; print a; print a; print a;")

	// The global's name occupies one pool slot however often it is used
	names := 0
	for _, c := range chunk.Constants {
		if c.IsObj() {
			if s, ok := c.Obj.(*ObjString); ok && s.Chars == "a" {
				names++
			}
		}
	}
	if names != 1 {
		t.Errorf("name 'a' appears %d times in the pool", names)
	}
}

func TestDisassemble(t *testing.T) {
	chunk := compileChunk(t, "print 1 + 2;")
	listing := Disassemble(chunk, "test")

	for _, want := range []string{"== test ==", "CONST", "ADD", "PRINT", "RET"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing lacks %q:\n%s", want, listing)
		}
	}
	if strings.Contains(listing, "Unknown opcode") {
		t.Errorf("listing contains unknown opcodes:\n%s", listing)
	}
}
