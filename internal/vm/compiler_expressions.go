package vm

import (
	"strconv"

	"github.com/wy3/lox/internal/lexer"
)

func grouping(p *Parser, canAssign bool) {
	p.expression()
	p.consume(lexer.RIGHT_PAREN, "Expect ')' after expression.")
}

func number(p *Parser, canAssign bool) {
	n, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(NumVal(n))
}

func stringLiteral(p *Parser, canAssign bool) {
	// Strip the surrounding quotes; the lexeme has no escapes.
	chars := p.previous.Lexeme[1 : len(p.previous.Lexeme)-1]
	p.emitConstant(ObjVal(p.heap.Intern(chars)))
}

func literal(p *Parser, canAssign bool) {
	switch p.previous.Type {
	case lexer.FALSE:
		p.emitOp(OP_FALSE)
	case lexer.NIL:
		p.emitOp(OP_NIL)
	case lexer.TRUE:
		p.emitOp(OP_TRUE)
	}
}

func variable(p *Parser, canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

// namedVariable compiles a read or, when '=' follows an assignable
// position, a write. Locals address their slot directly; globals go
// through the name constant.
func (p *Parser) namedVariable(name lexer.Token, canAssign bool) {
	slot := p.resolveLocal(p.compiler, name.Lexeme)

	if canAssign && p.match(lexer.EQUAL) {
		p.expression()
		if slot != -1 {
			p.emitBytes(byte(OP_ST), byte(slot))
		} else {
			p.emitConstOp(OP_GST, p.identifierConstant(&name))
		}
		return
	}

	if slot != -1 {
		p.emitBytes(byte(OP_LD), byte(slot))
	} else {
		p.emitConstOp(OP_GLD, p.identifierConstant(&name))
	}
}

func unary(p *Parser, canAssign bool) {
	operator := p.previous.Type

	p.parsePrecedence(PREC_UNARY)

	switch operator {
	case lexer.BANG:
		p.emitOp(OP_NOT)
	case lexer.MINUS:
		p.emitOp(OP_NEG)
	}
}

// binary compiles the right operand one level above the operator's
// own precedence, then emits it. The missing comparison opcodes are
// synthesized from their complements.
func binary(p *Parser, canAssign bool) {
	operator := p.previous.Type
	rule := rules[operator]
	p.parsePrecedence(rule.precedence + 1)

	switch operator {
	case lexer.BANG_EQUAL:
		p.emitOp(OP_EQ)
		p.emitOp(OP_NOT)
	case lexer.EQUAL_EQUAL:
		p.emitOp(OP_EQ)
	case lexer.GREATER:
		p.emitOp(OP_LE)
		p.emitOp(OP_NOT)
	case lexer.GREATER_EQUAL:
		p.emitOp(OP_LT)
		p.emitOp(OP_NOT)
	case lexer.LESS:
		p.emitOp(OP_LT)
	case lexer.LESS_EQUAL:
		p.emitOp(OP_LE)
	case lexer.PLUS:
		p.emitOp(OP_ADD)
	case lexer.MINUS:
		p.emitOp(OP_SUB)
	case lexer.STAR:
		p.emitOp(OP_MUL)
	case lexer.SLASH:
		p.emitOp(OP_DIV)
	}
}

// and short-circuits: if the left side is falsey it stays on the
// stack as the result and the right side is skipped.
func and(p *Parser, canAssign bool) {
	endJump := p.emitJump(OP_JMPF)

	p.emitOp(OP_POP)
	p.parsePrecedence(PREC_AND)

	p.patchJump(endJump)
}

// or short-circuits the other way: a truthy left side jumps over the
// right operand.
func or(p *Parser, canAssign bool) {
	elseJump := p.emitJump(OP_JMPF)
	endJump := p.emitJump(OP_JMP)

	p.patchJump(elseJump)
	p.emitOp(OP_POP)

	p.parsePrecedence(PREC_OR)
	p.patchJump(endJump)
}

func call(p *Parser, canAssign bool) {
	argc := p.argumentList()
	p.emitBytes(byte(OP_CALL), argc)
}

func (p *Parser) argumentList() byte {
	var argc int
	if !p.check(lexer.RIGHT_PAREN) {
		for {
			p.expression()
			argc++
			if argc > 255 {
				p.error("Cannot have more than 255 arguments.")
			}
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	p.consume(lexer.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argc)
}

// dot compiles field access or assignment on a map.
func dot(p *Parser, canAssign bool) {
	p.consume(lexer.IDENTIFIER, "Expect property name after '.'.")
	name := p.identifierConstant(&p.previous)

	if canAssign && p.match(lexer.EQUAL) {
		p.expression()
		p.emitNameOp(OP_SET, name)
	} else {
		p.emitNameOp(OP_GET, name)
	}
}

// index compiles subscript access; the key's type is dispatched at
// runtime.
func index(p *Parser, canAssign bool) {
	p.expression()
	p.consume(lexer.RIGHT_BRACKET, "Expect ']' after subscript.")

	if canAssign && p.match(lexer.EQUAL) {
		p.expression()
		p.emitOp(OP_SETI)
	} else {
		p.emitOp(OP_GETI)
	}
}

// mapLiteral compiles '{ e0, e1, ... }' into MAP N over the stacked
// elements.
func mapLiteral(p *Parser, canAssign bool) {
	count := 0
	if !p.check(lexer.RIGHT_BRACE) {
		for {
			p.expression()
			count++
			if count > 255 {
				p.error("Too many elements in one map literal.")
			}
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	p.consume(lexer.RIGHT_BRACE, "Expect '}' after map elements.")
	p.emitBytes(byte(OP_MAP), byte(count))
}
