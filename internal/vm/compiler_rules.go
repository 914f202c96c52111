package vm

import "github.com/pebblelang/pebble/internal/token"

// Precedence orders the Pratt parser's binding power, lowest to highest:
// ASSIGNMENT < OR < AND < EQUALITY < COMPARISON < TERM < FACTOR < UNARY <
// CALL < SUBSCRIPT < PRIMARY.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecSubscript
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LEFT_PAREN:    {prefix: grouping, infix: call, precedence: PrecCall},
		token.LEFT_BRACKET:  {prefix: listLiteral, infix: subscript, precedence: PrecSubscript},
		token.DOT:           {infix: dot, precedence: PrecCall},
		token.MINUS:         {prefix: unary, infix: binary, precedence: PrecTerm},
		token.PLUS:          {infix: binary, precedence: PrecTerm},
		token.SLASH:         {infix: binary, precedence: PrecFactor},
		token.STAR:          {infix: binary, precedence: PrecFactor},
		token.BANG:          {prefix: unary},
		token.BANG_EQUAL:    {infix: binary, precedence: PrecEquality},
		token.EQUAL_EQUAL:   {infix: binary, precedence: PrecEquality},
		token.GREATER:       {infix: binary, precedence: PrecComparison},
		token.GREATER_EQUAL: {infix: binary, precedence: PrecComparison},
		token.LESS:          {infix: binary, precedence: PrecComparison},
		token.LESS_EQUAL:    {infix: binary, precedence: PrecComparison},
		token.IDENTIFIER:    {prefix: variable},
		token.STRING:        {prefix: stringLit},
		token.NUMBER:        {prefix: number},
		token.AND:           {infix: and_, precedence: PrecAnd},
		token.OR:            {infix: or_, precedence: PrecOr},
		token.FALSE:         {prefix: literal},
		token.NIL:           {prefix: literal},
		token.TRUE:          {prefix: literal},
	}
}

func getRule(kind token.Kind) parseRule {
	return rules[kind]
}

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt parser's core loop: consume one prefix
// production, then keep folding infix productions whose precedence binds
// at least as tightly as prec. canAssign is threaded down so '=' is only
// honored at assignment precedence or looser, rejecting e.g. `a + b = c`.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.p.advance()
	prefixRule := getRule(c.p.prv.Kind).prefix
	if prefixRule == nil {
		c.p.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefixRule(c, canAssign)

	for prec <= getRule(c.p.cur.Kind).precedence {
		c.p.advance()
		infixRule := getRule(c.p.prv.Kind).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.p.match(token.EQUAL) {
		c.p.error("Invalid assignment target.")
	}
}

func number(c *Compiler, canAssign bool) {
	c.emitConstant(NumberVal(parseNumber(c.p.prv.Lexeme)))
}

func stringLit(c *Compiler, canAssign bool) {
	lex := c.p.prv.Lexeme
	c.emitConstant(ObjVal(c.p.vm.gc.NewString(lex[1 : len(lex)-1])))
}

func literal(c *Compiler, canAssign bool) {
	switch c.p.prv.Kind {
	case token.FALSE:
		c.emitOp(OP_FALSE)
	case token.NIL:
		c.emitOp(OP_NIL)
	case token.TRUE:
		c.emitOp(OP_TRUE)
	}
}

func grouping(c *Compiler, canAssign bool) {
	c.expression()
	c.p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, canAssign bool) {
	opType := c.p.prv.Kind
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.MINUS:
		c.emitOp(OP_NEGATE)
	case token.BANG:
		c.emitOp(OP_NOT)
	}
}

func binary(c *Compiler, canAssign bool) {
	opType := c.p.prv.Kind
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.PLUS:
		c.emitOp(OP_ADD)
	case token.MINUS:
		c.emitOp(OP_SUBTRACT)
	case token.STAR:
		c.emitOp(OP_MULTIPLY)
	case token.SLASH:
		c.emitOp(OP_DIVIDE)
	case token.BANG_EQUAL:
		c.emitOp(OP_EQUAL)
		c.emitOp(OP_NOT)
	case token.EQUAL_EQUAL:
		c.emitOp(OP_EQUAL)
	case token.GREATER:
		c.emitOp(OP_GREATER)
	case token.GREATER_EQUAL:
		c.emitOp(OP_LESS)
		c.emitOp(OP_NOT)
	case token.LESS:
		c.emitOp(OP_LESS)
	case token.LESS_EQUAL:
		c.emitOp(OP_GREATER)
		c.emitOp(OP_NOT)
	}
}

// and_ and or_ short-circuit by jumping around the right operand rather
// than emitting a boolean-combining opcode.
func and_(c *Compiler, canAssign bool) {
	endJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emitOp(OP_POP)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, canAssign bool) {
	elseJump := c.emitJump(OP_JUMP_IF_FALSE)
	endJump := c.emitJump(OP_JUMP)
	c.patchJump(elseJump)
	c.emitOp(OP_POP)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.p.prv.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp OpCode
	arg := resolveLocal(c, name)
	if arg != -1 {
		getOp, setOp = OP_GET_LOCAL, OP_SET_LOCAL
	} else if arg = resolveUpvalue(c, name); arg != -1 {
		getOp, setOp = OP_GET_UPVALUE, OP_SET_UPVALUE
	} else {
		arg = int(identifierConstant(c, name))
		getOp, setOp = OP_GET_GLOBAL, OP_SET_GLOBAL
	}

	if canAssign && c.p.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func call(c *Compiler, canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(OP_CALL, argCount)
}

func (c *Compiler) argumentList() byte {
	var argCount int
	if !c.p.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			if argCount == 255 {
				c.p.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argCount)
}

func dot(c *Compiler, canAssign bool) {
	c.p.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := identifierConstant(c, c.p.prv.Lexeme)

	if canAssign && c.p.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(OP_SET_PROPERTY, name)
	} else {
		c.emitOpByte(OP_GET_PROPERTY, name)
	}
}

// listLiteral compiles `[a, b, c]`, trailing comma allowed, to
// LIST_INIT n.
func listLiteral(c *Compiler, canAssign bool) {
	var count int
	if !c.p.check(token.RIGHT_BRACKET) {
		for {
			if c.p.check(token.RIGHT_BRACKET) {
				break
			}
			c.expression()
			if count == 255 {
				c.p.error("Too many elements in list literal.")
			}
			count++
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RIGHT_BRACKET, "Expect ']' after list elements.")
	c.emitOpByte(OP_LIST_INIT, byte(count))
}

func subscript(c *Compiler, canAssign bool) {
	c.expression()
	c.p.consume(token.RIGHT_BRACKET, "Expect ']' after index.")

	if canAssign && c.p.match(token.EQUAL) {
		c.expression()
		c.emitOp(OP_LIST_SETIDX)
	} else {
		c.emitOp(OP_LIST_GETIDX)
	}
}

// --- declarations & statements ---------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.p.match(token.CLASS):
		c.classDeclaration()
	case c.p.match(token.FUN):
		c.funDeclaration()
	case c.p.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.p.panicMode {
		c.p.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.p.consume(token.IDENTIFIER, "Expect class name.")
	name := c.p.prv.Lexeme
	nameConstant := identifierConstant(c, name)
	c.declareVariable()

	c.emitOpByte(OP_CLASS, nameConstant)
	c.defineVariable(nameConstant)

	c.p.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	// Methods are not wired; a class body is accepted only empty.
	c.p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.compileFunction(TypeFunction)
	c.defineVariable(global)
}

// compileFunction compiles a nested function body in its own Compiler, then
// emits OP_CLOSURE plus the captured-upvalue descriptor pairs into the
// enclosing compiler's chunk.
func (c *Compiler) compileFunction(funcType FunctionType) {
	inner := newCompiler(c.p, c, funcType)
	inner.beginScope()

	c.p.vm.compiler = inner
	defer func() { c.p.vm.compiler = c }()

	c.p.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !c.p.check(token.RIGHT_PAREN) {
		for {
			inner.function.Arity++
			if inner.function.Arity > 255 {
				c.p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConstant := inner.parseVariable("Expect parameter name.")
			inner.defineVariable(paramConstant)
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	c.p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	inner.block()

	fn := inner.endCompiler()
	c.emitOpByte(OP_CLOSURE, c.makeConstant(ObjVal(fn)))
	for _, uv := range inner.upvalues {
		if uv.IsLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.Index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.p.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(OP_NIL)
	}
	c.p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.p.match(token.PRINT):
		c.printStatement()
	case c.p.match(token.IF):
		c.ifStatement()
	case c.p.match(token.WHILE):
		c.whileStatement()
	case c.p.match(token.FOR):
		c.forStatement()
	case c.p.match(token.RETURN):
		c.returnStatement()
	case c.p.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.p.check(token.RIGHT_BRACE) && !c.p.check(token.EOF) {
		c.declaration()
	}
	c.p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.p.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(OP_PRINT)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.p.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OP_POP)
}

func (c *Compiler) ifStatement() {
	c.p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emitOp(OP_POP)
	c.statement()

	elseJump := c.emitJump(OP_JUMP)
	c.patchJump(thenJump)
	c.emitOp(OP_POP)

	if c.p.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk().Len()
	c.p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emitOp(OP_POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OP_POP)
}

// forStatement desugars the three-clause form to a while-loop shape with
// the increment clause jumped over on first entry and looped back into
// after the body: one JUMP over the increment the first time through,
// one LOOP from the body back to the increment, and the condition's own
// LOOP now targets the increment instead of re-entering at the top.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case c.p.match(token.SEMICOLON):
		// no initializer
	case c.p.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().Len()
	exitJump := -1
	if !c.p.match(token.SEMICOLON) {
		c.expression()
		c.p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OP_JUMP_IF_FALSE)
		c.emitOp(OP_POP)
	}

	if !c.p.check(token.RIGHT_PAREN) {
		bodyJump := c.emitJump(OP_JUMP)
		incrementStart := c.chunk().Len()
		c.expression()
		c.emitOp(OP_POP)
		c.p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OP_POP)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.funcType == TypeScript {
		c.p.error("Can't return from top-level code.")
	}

	if c.p.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	c.expression()
	c.p.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(OP_RETURN)
}
