package vm

import "github.com/wy3/lox/internal/lexer"

// beginScope starts a new lexical scope.
func (p *Parser) beginScope() {
	p.compiler.scopeDepth++
}

// endScope closes the current scope, popping every local it declared.
func (p *Parser) endScope() {
	c := p.compiler
	c.scopeDepth--

	for c.localCount > 0 && c.locals[c.localCount-1].Depth > c.scopeDepth {
		p.emitOp(OP_POP)
		c.localCount--
	}
}

// parseVariable consumes a variable name. Locals get a slot and no
// constant; globals get their name interned into the pool.
func (p *Parser) parseVariable(message string) int {
	p.consume(lexer.IDENTIFIER, message)

	p.declareVariable()
	if p.compiler.scopeDepth > 0 {
		return 0
	}

	return p.identifierConstant(&p.previous)
}

// declareVariable registers a new local in the current scope. Globals
// are late-bound by name and need no declaration.
func (p *Parser) declareVariable() {
	c := p.compiler
	if c.scopeDepth == 0 {
		return
	}

	name := p.previous.Lexeme
	for i := c.localCount - 1; i >= 0; i-- {
		local := &c.locals[i]
		if local.Depth != -1 && local.Depth < c.scopeDepth {
			break
		}
		if local.Name == name {
			p.error("Variable with this name already declared in this scope.")
		}
	}

	p.addLocal(name)
}

// addLocal appends a local at depth -1: declared but not yet usable.
func (p *Parser) addLocal(name string) {
	c := p.compiler
	if c.localCount == maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	c.locals[c.localCount] = Local{Name: name, Depth: -1}
	c.localCount++
}

// markInitialized makes the just-declared local visible.
func (p *Parser) markInitialized() {
	c := p.compiler
	if c.scopeDepth == 0 {
		return
	}
	c.locals[c.localCount-1].Depth = c.scopeDepth
}

// defineVariable completes a declaration: locals become visible,
// globals get a DEF with their name constant.
func (p *Parser) defineVariable(global int) {
	if p.compiler.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitConstOp(OP_DEF, global)
}

// resolveLocal finds a local's slot by name, innermost first. A hit at
// depth -1 means the initializer mentions the variable it defines.
func (p *Parser) resolveLocal(c *Compiler, name string) int {
	for i := c.localCount - 1; i >= 0; i-- {
		local := &c.locals[i]
		if local.Name == name {
			if local.Depth == -1 {
				p.error("Cannot read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// identifierConstant interns the token's lexeme and returns its pool
// index, deduplicated so repeated names share one slot.
func (p *Parser) identifierConstant(tok *lexer.Token) int {
	return p.makeConstant(ObjVal(p.heap.Intern(tok.Lexeme)), true)
}

// --- emit helpers ---

func (p *Parser) emitByte(b byte) {
	p.currentChunk().Emit(b, p.previous.Line, p.previous.Column)
}

func (p *Parser) emitBytes(b1, b2 byte) {
	p.emitByte(b1)
	p.emitByte(b2)
}

func (p *Parser) emitOp(op Opcode) {
	p.emitByte(byte(op))
}

func (p *Parser) emitReturn() {
	p.emitOp(OP_NIL)
	p.emitOp(OP_RET)
}

func (p *Parser) currentChunk() *Chunk {
	return p.compiler.function.Chunk
}

// makeConstant adds a value to the pool, bounding the index to the
// 16-bit operand space.
func (p *Parser) makeConstant(value Value, dedup bool) int {
	constant := p.currentChunk().AddConstant(value, dedup)
	if constant > 0xffff {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return constant
}

// emitConstOp emits op with a 1-byte operand when the index fits,
// upgrading to the adjacent _LONG opcode with a 2-byte big-endian
// operand otherwise. Valid for OP_CONST, OP_DEF, OP_GLD and OP_GST.
func (p *Parser) emitConstOp(op Opcode, index int) {
	if index <= 0xff {
		p.emitBytes(byte(op), byte(index))
		return
	}
	p.emitOp(op + 1)
	p.emitBytes(byte(index>>8), byte(index))
}

// emitNameOp emits a map access opcode with its 1-byte name operand.
// GET and SET have no long form.
func (p *Parser) emitNameOp(op Opcode, index int) {
	if index > 0xff {
		p.error("Too many constants in one chunk.")
		return
	}
	p.emitBytes(byte(op), byte(index))
}

func (p *Parser) emitConstant(value Value) {
	p.emitConstOp(OP_CONST, p.makeConstant(value, false))
}

// emitJump emits a jump with a placeholder offset and returns the
// offset's position for patching.
func (p *Parser) emitJump(op Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return p.currentChunk().Len() - 2
}

// patchJump back-fills a jump to land just past the current end of
// code. Offsets are unsigned and forward-only.
func (p *Parser) patchJump(offset int) {
	jump := p.currentChunk().Len() - offset - 2

	if jump > 0xffff {
		p.error("Too much code to jump over.")
	}

	p.currentChunk().Code[offset] = byte(jump >> 8)
	p.currentChunk().Code[offset+1] = byte(jump)
}
