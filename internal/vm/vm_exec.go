package vm

import (
	"fmt"
	"strings"
)

// execute is the dispatch loop. The hot registers - current frame,
// instruction pointer, slot base and constant pool - are cached in
// locals and rematerialized whenever the frame changes.
func (vm *VM) execute() Result {
	var frame *Frame
	var code []byte
	var consts []Value
	var ip int
	var base int

	loadFrame := func() {
		frame = &vm.frames[vm.frameCount-1]
		code = frame.function.Chunk.Code
		consts = frame.function.Chunk.Constants
		ip = frame.ip
		base = frame.base
	}

	storeFrame := func() {
		frame.ip = ip
	}

	readByte := func() byte {
		b := code[ip]
		ip++
		return b
	}

	readShort := func() uint16 {
		ip += 2
		return uint16(code[ip-2])<<8 | uint16(code[ip-1])
	}

	readString := func(idx int) *ObjString {
		return consts[idx].Obj.(*ObjString)
	}

	fail := func(format string, args ...interface{}) Result {
		storeFrame()
		vm.runtimeError(format, args...)
		return RuntimeError
	}

	loadFrame()

	for {
		if vm.trace {
			var sb strings.Builder
			disassembleInstruction(&sb, frame.function.Chunk, ip)
			log.Debugf("vm %s: %s", vm.id, strings.TrimRight(sb.String(), "\n"))
		}

		op := Opcode(readByte())

		switch op {
		case OP_NIL:
			vm.push(NilVal())

		case OP_TRUE:
			vm.push(BoolVal(true))

		case OP_FALSE:
			vm.push(BoolVal(false))

		case OP_CONST:
			vm.push(consts[readByte()])

		case OP_CONST_LONG:
			vm.push(consts[readShort()])

		case OP_POP:
			vm.pop()

		case OP_PRINT:
			count := int(readByte())
			for i := count - 1; i >= 0; i-- {
				fmt.Fprint(vm.out, vm.peek(i).String())
				if i > 0 {
					fmt.Fprint(vm.out, "\t")
				}
			}
			fmt.Fprintln(vm.out)
			vm.popN(count)

		case OP_DEF, OP_DEF_LONG:
			var name *ObjString
			if op == OP_DEF {
				name = readString(int(readByte()))
			} else {
				name = readString(int(readShort()))
			}
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case OP_GLD, OP_GLD_LONG:
			var name *ObjString
			if op == OP_GLD {
				name = readString(int(readByte()))
			} else {
				name = readString(int(readShort()))
			}
			value, ok := vm.globals.Get(name)
			if !ok {
				return fail("Undefined variable '%s'.", name.Chars)
			}
			vm.push(value)

		case OP_GST, OP_GST_LONG:
			var name *ObjString
			if op == OP_GST {
				name = readString(int(readByte()))
			} else {
				name = readString(int(readShort()))
			}
			if !vm.globals.Has(name) {
				return fail("Undefined variable '%s'.", name.Chars)
			}
			vm.globals.Set(name, vm.peek(0))

		case OP_LD:
			vm.push(vm.stack[base+int(readByte())])

		case OP_ST:
			vm.stack[base+int(readByte())] = vm.peek(0)

		case OP_JMP:
			offset := readShort()
			ip += int(offset)

		case OP_JMPF:
			offset := readShort()
			if vm.peek(0).IsFalsey() {
				ip += int(offset)
			}

		case OP_CALL:
			argc := int(readByte())
			storeFrame()
			if !vm.call(vm.peek(argc), argc) {
				return RuntimeError
			}
			loadFrame()

		case OP_RET:
			result := vm.pop()
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return OK
			}
			vm.top = frame.base
			vm.push(result)
			loadFrame()

		case OP_NOT:
			vm.push(BoolVal(vm.pop().IsFalsey()))

		case OP_NEG:
			switch v := vm.peek(0); v.Type {
			case ValBool:
				vm.pop()
				if v.AsBool() {
					vm.push(NumVal(-1))
				} else {
					vm.push(NumVal(0))
				}
			case ValNum:
				vm.pop()
				vm.push(NumVal(-v.AsNum()))
			default:
				return fail("Operands must be a number/boolean.")
			}

		case OP_EQ:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(a.Equals(b)))

		case OP_LT:
			b, bok := numOperand(vm.peek(0))
			a, aok := numOperand(vm.peek(1))
			if !aok || !bok {
				return fail("Operands must be two numbers/booleans.")
			}
			vm.popN(2)
			vm.push(BoolVal(a < b))

		case OP_LE:
			b, bok := numOperand(vm.peek(0))
			a, aok := numOperand(vm.peek(1))
			if !aok || !bok {
				return fail("Operands must be two numbers/booleans.")
			}
			vm.popN(2)
			vm.push(BoolVal(a <= b))

		case OP_ADD:
			if vm.peek(0).IsString() && vm.peek(1).IsString() {
				vm.concatenate()
				break
			}
			b, bok := numOperand(vm.peek(0))
			a, aok := numOperand(vm.peek(1))
			if !aok || !bok {
				return fail("Operands must be two numbers/booleans/strings.")
			}
			vm.popN(2)
			vm.push(NumVal(a + b))

		case OP_SUB:
			b, bok := numOperand(vm.peek(0))
			a, aok := numOperand(vm.peek(1))
			if !aok || !bok {
				return fail("Operands must be two numbers/booleans.")
			}
			vm.popN(2)
			vm.push(NumVal(a - b))

		case OP_MUL:
			b, bok := numOperand(vm.peek(0))
			a, aok := numOperand(vm.peek(1))
			if !aok || !bok {
				return fail("Operands must be two numbers/booleans.")
			}
			vm.popN(2)
			vm.push(NumVal(a * b))

		case OP_DIV:
			// Division by zero follows IEEE: Inf or NaN, never a trap
			b, bok := numOperand(vm.peek(0))
			a, aok := numOperand(vm.peek(1))
			if !aok || !bok {
				return fail("Operands must be two numbers/booleans.")
			}
			vm.popN(2)
			vm.push(NumVal(a / b))

		case OP_MAP:
			count := int(readByte())
			m := vm.heap.NewMap()
			for i := count - 1; i >= 0; i-- {
				m.Hash.Set(NumVal(float64(i)).Raw(), vm.peek(i))
			}
			vm.popN(count)
			vm.push(ObjVal(m))

		case OP_GET:
			if !vm.peek(0).IsMap() {
				return fail("Operands must be a map.")
			}
			m := vm.peek(0).Obj.(*ObjMap)
			name := readString(int(readByte()))
			value := NilVal()
			if v, ok := m.Fields.Get(name); ok {
				value = v
			}
			vm.pop()
			vm.push(value)

		case OP_SET:
			if !vm.peek(1).IsMap() {
				return fail("Operands must be a map.")
			}
			m := vm.peek(1).Obj.(*ObjMap)
			name := readString(int(readByte()))
			value := vm.peek(0)
			m.Fields.Set(name, value)
			vm.popN(2)
			vm.push(value)

		case OP_GETI:
			if !vm.peek(1).IsMap() {
				return fail("Operands must be a map.")
			}
			m := vm.peek(1).Obj.(*ObjMap)
			key := vm.peek(0)
			switch {
			case key.IsNum():
				value := NilVal()
				if v, ok := m.Hash.Get(key.Raw()); ok {
					value = v
				}
				vm.popN(2)
				vm.push(value)
			case key.IsString():
				value := NilVal()
				if v, ok := m.Fields.Get(key.Obj.(*ObjString)); ok {
					value = v
				}
				vm.popN(2)
				vm.push(value)
			default:
				return fail("Operands must be a number or string.")
			}

		case OP_SETI:
			if !vm.peek(2).IsMap() {
				return fail("Operands must be a map.")
			}
			m := vm.peek(2).Obj.(*ObjMap)
			key := vm.peek(1)
			switch {
			case key.IsNum():
				value := vm.pop()
				m.Hash.Set(key.Raw(), value)
				vm.popN(2)
				vm.push(value)
			case key.IsString():
				value := vm.pop()
				m.Fields.Set(key.Obj.(*ObjString), value)
				vm.popN(2)
				vm.push(value)
			default:
				return fail("Operands must be a number or string.")
			}

		default:
			return fail("Bad opcode, got %d!", byte(op))
		}
	}
}

// numOperand coerces a binary operand: numbers pass through, bools
// become 0/1, anything else refuses.
func numOperand(v Value) (float64, bool) {
	switch v.Type {
	case ValNum:
		return v.AsNum(), true
	case ValBool:
		if v.Data != 0 {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// concatenate joins the two strings on top of the stack. The result
// goes through the interner like every other string.
func (vm *VM) concatenate() {
	b := vm.pop().Obj.(*ObjString)
	a := vm.pop().Obj.(*ObjString)
	vm.push(ObjVal(vm.heap.Intern(a.Chars + b.Chars)))
}
