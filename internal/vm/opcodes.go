// Package vm implements the bytecode compiler and virtual machine for lox.
package vm

// Opcode represents a single VM instruction.
type Opcode byte

// The _LONG variant of an opcode must follow its short form directly:
// the emitter upgrades by adding 1 when a constant index exceeds one byte.
const (
	// Literals
	OP_NIL Opcode = iota
	OP_TRUE
	OP_FALSE
	OP_CONST      // Push constant (1-byte index)
	OP_CONST_LONG // Push constant (2-byte big-endian index)

	// Stack
	OP_POP
	OP_PRINT // Pop N values, print tab-separated

	// Globals
	OP_DEF // Define global by name constant
	OP_DEF_LONG
	OP_GLD // Get global
	OP_GLD_LONG
	OP_GST // Set global
	OP_GST_LONG

	// Locals
	OP_LD // Get local by slot
	OP_ST // Set local by slot (no pop)

	// Control flow (forward only)
	OP_JMP
	OP_JMPF // Jump if top of stack is falsey (no pop)

	// Functions
	OP_CALL
	OP_RET

	// Unary
	OP_NOT
	OP_NEG

	// Binary
	OP_EQ
	OP_LT
	OP_LE
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV

	// Maps
	OP_MAP  // Build map from N stacked values
	OP_GET  // Field access by name constant
	OP_SET  // Field assignment by name constant
	OP_GETI // Subscript access, key on stack
	OP_SETI // Subscript assignment, key and value on stack
)

// OpcodeNames maps opcodes to their string names (for the disassembler
// and trace output).
var OpcodeNames = map[Opcode]string{
	OP_NIL:        "NIL",
	OP_TRUE:       "TRUE",
	OP_FALSE:      "FALSE",
	OP_CONST:      "CONST",
	OP_CONST_LONG: "CONST_LONG",

	OP_POP:   "POP",
	OP_PRINT: "PRINT",

	OP_DEF:      "DEF",
	OP_DEF_LONG: "DEF_LONG",
	OP_GLD:      "GLD",
	OP_GLD_LONG: "GLD_LONG",
	OP_GST:      "GST",
	OP_GST_LONG: "GST_LONG",

	OP_LD: "LD",
	OP_ST: "ST",

	OP_JMP:  "JMP",
	OP_JMPF: "JMPF",

	OP_CALL: "CALL",
	OP_RET:  "RET",

	OP_NOT: "NOT",
	OP_NEG: "NEG",

	OP_EQ:  "EQ",
	OP_LT:  "LT",
	OP_LE:  "LE",
	OP_ADD: "ADD",
	OP_SUB: "SUB",
	OP_MUL: "MUL",
	OP_DIV: "DIV",

	OP_MAP:  "MAP",
	OP_GET:  "GET",
	OP_SET:  "SET",
	OP_GETI: "GETI",
	OP_SETI: "SETI",
}
