package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lox.vm")

const (
	// FramesMax bounds call depth.
	FramesMax = 64

	// StackMax is the value stack capacity: one slot bank per frame.
	StackMax = FramesMax * 256
)

// Result is the outcome of one interpretation.
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

// Frame is one activation record: the running function, its saved
// instruction pointer, and the stack index of its slot 0 (the callee
// itself; arguments follow).
type Frame struct {
	function *ObjFunction
	ip       int
	base     int
}

// VM executes chunks. It owns its value and frame stacks; the heap and
// globals table may be shared with clones.
type VM struct {
	id string

	stack []Value
	top   int

	frames     []Frame
	frameCount int

	heap    *Heap
	globals *Table
	owner   bool

	out    io.Writer
	errOut io.Writer

	trace  bool
	disasm bool

	start time.Time
}

// New creates a VM with a fresh heap, globals and strings table, and
// the clock builtin installed.
func New() *VM {
	vm := &VM{
		id:      uuid.NewString(),
		stack:   make([]Value, StackMax),
		frames:  make([]Frame, FramesMax),
		heap:    NewHeap(),
		globals: NewTable(),
		owner:   true,
		out:     os.Stdout,
		errOut:  os.Stderr,
		start:   time.Now(),
	}
	vm.resetStack()

	vm.DefineNative("clock", clockNative)
	return vm
}

// Clone creates a child VM sharing this VM's heap, globals and interned
// strings but with its own value and frame stacks. Concurrent mutation
// of the shared state is not synchronized; callers serialize. Teardown
// of the shared heap belongs to the creator.
func (vm *VM) Clone() *VM {
	clone := &VM{
		id:      uuid.NewString(),
		stack:   make([]Value, StackMax),
		frames:  make([]Frame, FramesMax),
		heap:    vm.heap,
		globals: vm.globals,
		owner:   false,
		out:     vm.out,
		errOut:  vm.errOut,
		start:   vm.start,
	}
	clone.resetStack()
	log.Debugf("vm %s cloned as %s", vm.id, clone.id)
	return clone
}

// Close releases the VM. Only the heap's owner tears shared state down.
func (vm *VM) Close() {
	if vm.owner {
		vm.heap.Release()
	}
	vm.resetStack()
}

// ID returns the VM's unique identifier.
func (vm *VM) ID() string {
	return vm.id
}

// SetOutput redirects the print statement's output.
func (vm *VM) SetOutput(w io.Writer) {
	vm.out = w
}

// SetErrorOutput redirects error reports and diagnostics.
func (vm *VM) SetErrorOutput(w io.Writer) {
	vm.errOut = w
}

// SetTrace toggles per-instruction trace logging.
func (vm *VM) SetTrace(enabled bool) {
	vm.trace = enabled
}

// SetDisasm toggles dumping compiled chunks before execution.
func (vm *VM) SetDisasm(enabled bool) {
	vm.disasm = enabled
}

// Interpret compiles and runs source under the given name.
func (vm *VM) Interpret(name, source string) Result {
	fn, err := Compile(vm.heap, &Source{Name: name, Text: source}, vm.errOut)
	if err != nil {
		return CompileError
	}

	if vm.disasm {
		fmt.Fprint(vm.errOut, Disassemble(fn.Chunk, name))
	}

	script := ObjVal(fn)
	vm.push(script)
	if !vm.call(script, 0) {
		return RuntimeError
	}

	return vm.execute()
}

// DoFile loads, compiles and runs a script file.
func (vm *VM) DoFile(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(vm.errOut, "Could not open file \"%s\".\n", path)
		return CompileError
	}
	return vm.Interpret(path, string(data))
}

// --- embedding surface ---

// Push exposes the value stack to hosts.
func (vm *VM) Push(v Value) {
	vm.push(v)
}

// Pop exposes the value stack to hosts.
func (vm *VM) Pop() Value {
	return vm.pop()
}

// SetGlobal binds a value under a global name.
func (vm *VM) SetGlobal(name string, value Value) {
	vm.globals.Set(vm.heap.Intern(name), value)
}

// DefineNative binds a host function under a global name.
func (vm *VM) DefineNative(name string, fn NativeFn) {
	vm.SetGlobal(name, ObjVal(vm.heap.NewNative(name, fn)))
}

// Intern exposes the heap's string interner to hosts.
func (vm *VM) Intern(chars string) *ObjString {
	return vm.heap.Intern(chars)
}

// --- stack ---

func (vm *VM) resetStack() {
	vm.top = 0
	vm.frameCount = 0
}

func (vm *VM) push(v Value) {
	vm.stack[vm.top] = v
	vm.top++
}

func (vm *VM) pop() Value {
	vm.top--
	return vm.stack[vm.top]
}

func (vm *VM) popN(n int) {
	vm.top -= n
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.top-1-distance]
}

// --- calls ---

// call dispatches on the callee: functions get a frame, natives run
// synchronously in place.
func (vm *VM) call(callee Value, argc int) bool {
	if callee.IsObj() {
		switch fn := callee.Obj.(type) {
		case *ObjFunction:
			return vm.prepareCall(fn, argc)
		case *ObjNative:
			result := fn.Fn(vm, argc, vm.stack[vm.top-argc:vm.top])
			vm.top -= argc + 1
			vm.push(result)
			return true
		}
	}

	vm.runtimeError("Can only call functions and classes.")
	return false
}

func (vm *VM) prepareCall(fn *ObjFunction, argc int) bool {
	if argc != fn.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argc)
		return false
	}

	if vm.frameCount == FramesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.function = fn
	frame.ip = 0
	frame.base = vm.top - argc - 1
	return true
}

// --- errors ---

// runtimeError reports the message and a stack trace anchored to each
// frame's source position, then clears the stacks. The faulting
// frame's ip must already be stored.
func (vm *VM) runtimeError(format string, args ...interface{}) {
	fmt.Fprintf(vm.errOut, "Error: "+format+"\n", args...)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.function
		// The ip sits on the next instruction to execute
		offset := frame.ip - 1
		chunk := fn.Chunk
		fmt.Fprintf(vm.errOut, "[%s:%d:%d] in ",
			chunk.Source.Name, chunk.Line(offset), chunk.Column(offset))
		if fn.Name == nil {
			fmt.Fprintf(vm.errOut, "script\n")
		} else {
			fmt.Fprintf(vm.errOut, "%s()\n", fn.Name.Chars)
		}
	}

	vm.resetStack()
}

// --- natives ---

// clockNative returns seconds since the VM started.
func clockNative(vm *VM, argc int, args []Value) Value {
	return NumVal(time.Since(vm.start).Seconds())
}
