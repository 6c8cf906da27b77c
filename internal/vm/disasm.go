package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the chunk.
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}

	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	if offset > 0 && chunk.Line(offset) == chunk.Line(offset-1) {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.Line(offset)))
	}

	op := Opcode(chunk.Code[offset])

	switch op {
	case OP_CONST, OP_DEF, OP_GLD, OP_GST, OP_GET, OP_SET:
		return constantInstruction(sb, op, chunk, offset)

	case OP_CONST_LONG, OP_DEF_LONG, OP_GLD_LONG, OP_GST_LONG:
		return constantLongInstruction(sb, op, chunk, offset)

	case OP_PRINT, OP_LD, OP_ST, OP_CALL, OP_MAP:
		return byteInstruction(sb, op, chunk, offset)

	case OP_JMP, OP_JMPF:
		return jumpInstruction(sb, op, chunk, offset)

	case OP_NIL, OP_TRUE, OP_FALSE, OP_POP, OP_RET, OP_NOT, OP_NEG,
		OP_EQ, OP_LT, OP_LE, OP_ADD, OP_SUB, OP_MUL, OP_DIV,
		OP_GETI, OP_SETI:
		return simpleInstruction(sb, op, offset)

	default:
		sb.WriteString(fmt.Sprintf("Unknown opcode %d\n", byte(op)))
		return offset + 1
	}
}

func simpleInstruction(sb *strings.Builder, op Opcode, offset int) int {
	sb.WriteString(OpcodeNames[op])
	sb.WriteString("\n")
	return offset + 1
}

func byteInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) int {
	operand := chunk.Code[offset+1]
	sb.WriteString(fmt.Sprintf("%-16s %4d\n", OpcodeNames[op], operand))
	return offset + 2
}

func constantInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) int {
	constant := int(chunk.Code[offset+1])
	sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n",
		OpcodeNames[op], constant, chunk.Constants[constant].String()))
	return offset + 2
}

func constantLongInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) int {
	constant := int(chunk.ReadShort(offset + 1))
	sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n",
		OpcodeNames[op], constant, chunk.Constants[constant].String()))
	return offset + 3
}

func jumpInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) int {
	jump := int(chunk.ReadShort(offset + 1))
	sb.WriteString(fmt.Sprintf("%-16s %4d -> %d\n",
		OpcodeNames[op], offset, offset+3+jump))
	return offset + 3
}
