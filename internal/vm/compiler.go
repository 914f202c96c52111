package vm

import (
	"fmt"
	"strconv"

	"github.com/pebblelang/pebble/internal/lexer"
	"github.com/pebblelang/pebble/internal/token"
)

// FunctionType distinguishes the implicit top-level script from a nested
// `fun` body.
type FunctionType int

const (
	TypeScript FunctionType = iota
	TypeFunction
)

const maxLocals = 256
const maxUpvalues = 256
const maxConstants = 256

// Local tracks one block-scoped variable slot during compilation.
// Depth == -1 marks "declared but uninitialized" — the guard against a
// local reading itself in its own initializer.
type Local struct {
	Name       string
	Depth      int
	IsCaptured bool
}

// Upvalue records how a nested function resolved a free variable: either
// by capturing a local slot of its immediately enclosing function, or by
// forwarding an upvalue the enclosing function already captured.
type Upvalue struct {
	Index   uint8
	IsLocal bool
}

// parser holds the single shared token stream and diagnostic state for an
// entire compilation; every Compiler in the nested-function chain reads
// from the same parser.
type parser struct {
	vm  *VM
	lx  *lexer.Lexer
	cur token.Token
	prv token.Token

	hadError  bool
	panicMode bool
	errors    []string
}

// Compiler compiles one function's body — top-level script or nested
// `fun` — directly to bytecode in a single pass, with no intermediate
// AST. enclosing chains to the Compiler for the lexically surrounding
// function, which upvalue resolution walks.
type Compiler struct {
	p         *parser
	enclosing *Compiler

	function *ObjFunction
	funcType FunctionType

	locals     []Local
	scopeDepth int

	upvalues []Upvalue
}

// Compile compiles source to a top-level ObjFunction. On any compile
// error it returns (nil, errors) with every diagnostic collected during
// the pass — returned for the caller to print, rather than printed
// directly, so embedding is possible without hijacking stderr.
func Compile(vm *VM, source string) (*ObjFunction, []string) {
	p := &parser{vm: vm, lx: lexer.New(source)}
	c := newCompiler(p, nil, TypeScript)

	vm.compiler = c
	defer func() { vm.compiler = nil }()

	p.advance()
	for !p.match(token.EOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	if p.hadError {
		return nil, p.errors
	}
	return fn, nil
}

func newCompiler(p *parser, enclosing *Compiler, funcType FunctionType) *Compiler {
	c := &Compiler{p: p, enclosing: enclosing, funcType: funcType}
	c.function = p.vm.gc.NewFunction()
	c.locals = append(c.locals, Local{Name: "", Depth: 0}) // slot 0: implicit receiver/callee
	if funcType == TypeFunction {
		c.function.Name = p.vm.gc.NewString(p.prv.Lexeme)
	}
	return c
}

// --- parser plumbing -------------------------------------------------

func (p *parser) advance() {
	p.prv = p.cur
	for {
		p.cur = p.lx.NextToken()
		if p.cur.Kind != token.ERROR {
			break
		}
		p.errorAtCurrent(p.cur.Lexeme)
	}
}

func (p *parser) check(kind token.Kind) bool {
	return p.cur.Kind == kind
}

func (p *parser) match(kind token.Kind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(kind token.Kind, message string) {
	if p.cur.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) errorAtCurrent(message string) {
	p.errorAt(p.cur, message)
}

func (p *parser) error(message string) {
	p.errorAt(p.prv, message)
}

// errorAt formats "[line N] Error [at 'tok'|at end]: message" and enters
// panic mode so cascading diagnostics from the same statement are
// suppressed until synchronize resets at a statement boundary.
func (p *parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = " at end"
	} else if tok.Kind == token.ERROR {
		where = ""
	}

	p.errors = append(p.errors, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, message))
	p.hadError = true
}

func (p *parser) synchronize() {
	p.panicMode = false

	for p.cur.Kind != token.EOF {
		if p.prv.Kind == token.SEMICOLON {
			return
		}
		switch p.cur.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- bytecode emission -------------------------------------------------

func (c *Compiler) chunk() *Chunk { return c.function.Chunk }

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.p.prv.Line)
}

func (c *Compiler) emitOp(op OpCode) {
	c.chunk().WriteOp(op, c.p.prv.Line)
}

func (c *Compiler) emitOpByte(op OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OP_LOOP)
	offset := c.chunk().Len() - loopStart + 2
	if offset > 65535 {
		c.p.error("Too much code to jump over")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitJump(op OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk().Len() - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := c.chunk().Len() - offset - 2
	if jump > 65535 {
		c.p.error("Too much code to jump over")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitReturn() {
	c.emitOp(OP_NIL)
	c.emitOp(OP_RETURN)
}

func (c *Compiler) makeConstant(v Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > maxConstants-1 {
		c.p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v Value) {
	c.emitOpByte(OP_CONSTANT, c.makeConstant(v))
}

func (c *Compiler) endCompiler() *ObjFunction {
	c.emitReturn()
	fn := c.function
	fn.UpvalueCount = len(c.upvalues)
	return fn
}

// --- scopes & locals -----------------------------------------------

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.IsCaptured {
			c.emitOp(OP_CLOSE_UPVALUE)
		} else {
			c.emitOp(OP_POP)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func identifierConstant(c *Compiler, name string) byte {
	return c.makeConstant(ObjVal(c.p.vm.gc.NewString(name)))
}

func identifiersEqual(a, b string) bool { return a == b }

func (c *Compiler) addLocal(name string) {
	if len(c.locals) >= maxLocals {
		c.p.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, Local{Name: name, Depth: -1})
}

func (c *Compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.p.prv.Lexeme
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if local.Depth != -1 && local.Depth < c.scopeDepth {
			break
		}
		if identifiersEqual(local.Name, name) {
			c.p.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(message string) byte {
	c.p.consume(token.IDENTIFIER, message)
	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return identifierConstant(c, c.p.prv.Lexeme)
}

func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].Depth = c.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(OP_DEFINE_GLOBAL, global)
}

func resolveLocal(c *Compiler, name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if identifiersEqual(c.locals[i].Name, name) {
			if c.locals[i].Depth == -1 {
				c.p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func addUpvalue(c *Compiler, index uint8, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		c.p.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, Upvalue{Index: index, IsLocal: isLocal})
	return len(c.upvalues) - 1
}

// resolveUpvalue recurses into the enclosing compiler: check its locals
// first (marking any hit captured), else its own upvalues, else the
// name is a global.
func resolveUpvalue(c *Compiler, name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := resolveLocal(c.enclosing, name); local != -1 {
		c.enclosing.locals[local].IsCaptured = true
		return addUpvalue(c, uint8(local), true)
	}
	if up := resolveUpvalue(c.enclosing, name); up != -1 {
		return addUpvalue(c, uint8(up), false)
	}
	return -1
}

func parseNumber(lexeme string) float64 {
	n, _ := strconv.ParseFloat(lexeme, 64)
	return n
}
