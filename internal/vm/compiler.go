package vm

import (
	"errors"
	"fmt"
	"io"

	"github.com/wy3/lox/internal/lexer"
)

// ErrCompile is returned when compilation fails. Diagnostics have
// already been written to the parser's error writer by then.
var ErrCompile = errors.New("compile error")

// Precedence levels, lowest to highest. Binary operators parse their
// right operand one level up, making them left-associative.
type Precedence uint8

const (
	PREC_NONE       Precedence = iota
	PREC_ASSIGNMENT            // =
	PREC_OR                    // or
	PREC_AND                   // and
	PREC_EQUALITY              // == !=
	PREC_COMPARISON            // < > <= >=
	PREC_TERM                  // + -
	PREC_FACTOR                // * /
	PREC_UNARY                 // ! -
	PREC_CALL                  // . () []
	PREC_PRIMARY
)

type FunctionType uint8

const (
	TYPE_SCRIPT FunctionType = iota
	TYPE_FUNCTION
)

// maxLocals bounds the local slots of one function; slot operands are
// a single byte.
const maxLocals = 256

// Local tracks one declared local at compile time. Depth -1 means
// declared but not yet initialized.
type Local struct {
	Name  string
	Depth int
}

// Compiler holds the per-function state of the emitter. Nested
// function declarations push a fresh Compiler linked through
// enclosing.
type Compiler struct {
	enclosing  *Compiler
	function   *ObjFunction
	funcType   FunctionType
	locals     [maxLocals]Local
	localCount int
	scopeDepth int
}

// Parser drives the single-pass compile: it pulls tokens from the
// lexer and emits bytecode directly, with no intermediate tree.
type Parser struct {
	heap     *Heap
	lex      *lexer.Lexer
	source   *Source
	compiler *Compiler

	current  lexer.Token
	previous lexer.Token

	hadError  bool
	panicMode bool
	errOut    io.Writer
}

// parseFn is one handler in the rule table. canAssign is true only
// when the expression sits low enough for '=' to bind to it.
type parseFn func(p *Parser, canAssign bool)

// ParseRule pairs the prefix and infix handlers of a token kind with
// the precedence its infix form binds at.
type ParseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is indexed by token type. Populated in init to break the
// reference cycle between the table and the handlers that consult it.
var rules [lexer.TokenTypeCount]ParseRule

func init() {
	rules[lexer.LEFT_PAREN] = ParseRule{grouping, call, PREC_CALL}
	rules[lexer.LEFT_BRACE] = ParseRule{mapLiteral, nil, PREC_NONE}
	rules[lexer.LEFT_BRACKET] = ParseRule{nil, index, PREC_CALL}
	rules[lexer.DOT] = ParseRule{nil, dot, PREC_CALL}
	rules[lexer.MINUS] = ParseRule{unary, binary, PREC_TERM}
	rules[lexer.PLUS] = ParseRule{nil, binary, PREC_TERM}
	rules[lexer.SLASH] = ParseRule{nil, binary, PREC_FACTOR}
	rules[lexer.STAR] = ParseRule{nil, binary, PREC_FACTOR}
	rules[lexer.BANG] = ParseRule{unary, nil, PREC_NONE}
	rules[lexer.BANG_EQUAL] = ParseRule{nil, binary, PREC_EQUALITY}
	rules[lexer.EQUAL_EQUAL] = ParseRule{nil, binary, PREC_EQUALITY}
	rules[lexer.GREATER] = ParseRule{nil, binary, PREC_COMPARISON}
	rules[lexer.GREATER_EQUAL] = ParseRule{nil, binary, PREC_COMPARISON}
	rules[lexer.LESS] = ParseRule{nil, binary, PREC_COMPARISON}
	rules[lexer.LESS_EQUAL] = ParseRule{nil, binary, PREC_COMPARISON}
	rules[lexer.IDENTIFIER] = ParseRule{variable, nil, PREC_NONE}
	rules[lexer.STRING] = ParseRule{stringLiteral, nil, PREC_NONE}
	rules[lexer.NUMBER] = ParseRule{number, nil, PREC_NONE}
	rules[lexer.AND] = ParseRule{nil, and, PREC_AND}
	rules[lexer.OR] = ParseRule{nil, or, PREC_OR}
	rules[lexer.FALSE] = ParseRule{literal, nil, PREC_NONE}
	rules[lexer.NIL] = ParseRule{literal, nil, PREC_NONE}
	rules[lexer.TRUE] = ParseRule{literal, nil, PREC_NONE}
}

// Compile turns source text into the top-level script function. On any
// parse error the whole program is still scanned for further
// diagnostics, and ErrCompile is returned.
func Compile(heap *Heap, source *Source, errOut io.Writer) (*ObjFunction, error) {
	p := &Parser{
		heap:   heap,
		lex:    lexer.New(source.Text),
		source: source,
		errOut: errOut,
	}

	p.initCompiler(&Compiler{}, TYPE_SCRIPT)

	p.advance()
	for !p.match(lexer.EOF) {
		p.declaration()
	}

	fn := p.endCompiler()
	if p.hadError {
		return nil, ErrCompile
	}
	return fn, nil
}

func (p *Parser) initCompiler(c *Compiler, funcType FunctionType) {
	c.enclosing = p.compiler
	c.function = p.heap.NewFunction(p.source)
	c.funcType = funcType
	if funcType != TYPE_SCRIPT {
		c.function.Name = p.heap.Intern(p.previous.Lexeme)
	}

	// Slot 0 belongs to the callee itself
	c.locals[0] = Local{Name: "", Depth: 0}
	c.localCount = 1

	p.compiler = c
}

func (p *Parser) endCompiler() *ObjFunction {
	p.emitReturn()
	fn := p.compiler.function
	p.compiler = p.compiler.enclosing
	return fn
}

// --- token plumbing ---

func (p *Parser) advance() {
	p.previous = p.current

	for {
		p.current = p.lex.Scan()
		if p.current.Type != lexer.ERROR {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) consume(t lexer.TokenType, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.current.Type == t
}

func (p *Parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

// --- error reporting ---

func (p *Parser) errorAt(tok *lexer.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	fmt.Fprintf(p.errOut, "[line %d] Error", tok.Line)
	if tok.Type == lexer.EOF {
		fmt.Fprintf(p.errOut, " at end")
	} else if tok.Type != lexer.ERROR {
		fmt.Fprintf(p.errOut, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(p.errOut, ": %s\n", message)

	p.hadError = true
}

func (p *Parser) error(message string) {
	p.errorAt(&p.previous, message)
}

func (p *Parser) errorAtCurrent(message string) {
	p.errorAt(&p.current, message)
}

// synchronize discards tokens until a statement boundary so one
// mistake does not cascade into a wall of diagnostics.
func (p *Parser) synchronize() {
	p.panicMode = false

	for p.current.Type != lexer.EOF {
		if p.previous.Type == lexer.SEMICOLON {
			return
		}
		switch p.current.Type {
		case lexer.CLASS, lexer.FUN, lexer.VAR, lexer.FOR,
			lexer.IF, lexer.WHILE, lexer.PRINT, lexer.RETURN:
			return
		}
		p.advance()
	}
}

// --- declarations and statements ---

func (p *Parser) declaration() {
	switch {
	case p.match(lexer.FUN):
		p.funDeclaration()
	case p.match(lexer.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(lexer.PRINT):
		p.printStatement()
	case p.match(lexer.IF):
		p.ifStatement()
	case p.match(lexer.RETURN):
		p.returnStatement()
	case p.match(lexer.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(lexer.EQUAL) {
		p.expression()
	} else {
		p.emitOp(OP_NIL)
	}
	p.consume(lexer.SEMICOLON, "Expect ';' after variable declaration.")

	p.defineVariable(global)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TYPE_FUNCTION)
	p.defineVariable(global)
}

func (p *Parser) function(funcType FunctionType) {
	p.initCompiler(&Compiler{}, funcType)
	p.beginScope()

	p.consume(lexer.LEFT_PAREN, "Expect '(' after function name.")
	if !p.check(lexer.RIGHT_PAREN) {
		for {
			p.compiler.function.Arity++
			if p.compiler.function.Arity > 255 {
				p.errorAtCurrent("Cannot have more than 255 parameters.")
			}
			param := p.parseVariable("Expect parameter name.")
			p.defineVariable(param)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	p.consume(lexer.RIGHT_PAREN, "Expect ')' after parameters.")

	p.consume(lexer.LEFT_BRACE, "Expect '{' before function body.")
	p.block()

	fn := p.endCompiler()
	p.emitConstOp(OP_CONST, p.makeConstant(ObjVal(fn), false))
}

func (p *Parser) printStatement() {
	count := 0
	for {
		p.expression()
		count++
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if count > 255 {
		p.error("Too many values in one print statement.")
	}
	p.consume(lexer.SEMICOLON, "Expect ';' after value.")
	p.emitBytes(byte(OP_PRINT), byte(count))
}

func (p *Parser) ifStatement() {
	p.consume(lexer.LEFT_PAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(lexer.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(OP_JMPF)
	p.emitOp(OP_POP)
	p.statement()

	elseJump := p.emitJump(OP_JMP)

	p.patchJump(thenJump)
	p.emitOp(OP_POP)

	if p.match(lexer.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) returnStatement() {
	if p.compiler.funcType == TYPE_SCRIPT {
		p.error("Cannot return from top-level code.")
	}

	if p.match(lexer.SEMICOLON) {
		p.emitReturn()
		return
	}

	p.expression()
	p.consume(lexer.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(OP_RET)
}

func (p *Parser) block() {
	for !p.check(lexer.RIGHT_BRACE) && !p.check(lexer.EOF) {
		p.declaration()
	}
	p.consume(lexer.RIGHT_BRACE, "Expect '}' after block.")
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(lexer.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(OP_POP)
}

// --- the Pratt driver ---

func (p *Parser) expression() {
	p.parsePrecedence(PREC_ASSIGNMENT)
}

func (p *Parser) parsePrecedence(prec Precedence) {
	p.advance()

	prefix := rules[p.previous.Type].prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= PREC_ASSIGNMENT
	prefix(p, canAssign)

	for prec <= rules[p.current.Type].precedence {
		p.advance()
		rules[p.previous.Type].infix(p, canAssign)
	}

	if canAssign && p.match(lexer.EQUAL) {
		p.error("Invalid assignment target.")
	}
}
