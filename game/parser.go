package game

// Parser parses .game tokens into a Cinematic AST.
//
// The grammar is LL(1) with Pratt-style precedence climbing for
// expressions. Parse fails on the first grammar violation;
// ParseWithRecovery records errors and skips to sync points instead.
type Parser struct {
	tokens  []Token
	current int
	errors  []*SourceError
}

// NewParser creates a new parser for the given tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a complete .game file.
func (p *Parser) Parse() (*Cinematic, error) {
	// Imports come before the cinematic block
	var imports []ImportDecl
	for p.check(TokenImport) {
		imp, err := p.parseImport()
		if err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	cin, err := p.parseCinematic()
	if err != nil {
		return nil, err
	}
	cin.Imports = imports
	return cin, nil
}

// ParseWithRecovery parses without bailing on the first error: each
// failed block is recorded and skipped, and a partial AST is returned
// alongside every error found.
func (p *Parser) ParseWithRecovery() (*Cinematic, []*SourceError) {
	p.errors = p.errors[:0]

	var imports []ImportDecl
	for p.check(TokenImport) {
		imp, err := p.parseImport()
		if err != nil {
			p.errors = append(p.errors, err)
			p.skipToSyncPoint()
			continue
		}
		imports = append(imports, imp)
	}

	cin, err := p.parseCinematicRecovery()
	if err != nil {
		p.errors = append(p.errors, err)
		return &Cinematic{}, p.takeErrors()
	}
	cin.Imports = imports
	return cin, p.takeErrors()
}

func (p *Parser) takeErrors() []*SourceError {
	errs := p.errors
	p.errors = nil
	return errs
}

func (p *Parser) parseCinematic() (*Cinematic, error) {
	if err := p.expect(TokenCinematic); err != nil {
		return nil, err
	}

	cin := &Cinematic{}
	if p.check(TokenStringLiteral) {
		cin.Name = stringValue(p.advance())
	}

	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("'}'")
		}
		switch p.peek().Kind {
		case TokenLayer:
			layer, err := p.parseLayer()
			if err != nil {
				return nil, err
			}
			cin.Layers = append(cin.Layers, layer)
		case TokenLens:
			lens, err := p.parseLens()
			if err != nil {
				return nil, err
			}
			cin.Lenses = append(cin.Lenses, lens)
		case TokenArc:
			arc, err := p.parseArc()
			if err != nil {
				return nil, err
			}
			cin.Arc = arc
		case TokenReact:
			react, err := p.parseReact()
			if err != nil {
				return nil, err
			}
			cin.React = react
		case TokenResonate:
			res, err := p.parseResonance()
			if err != nil {
				return nil, err
			}
			cin.Resonance = res
		case TokenDefine:
			def, err := p.parseDefine()
			if err != nil {
				return nil, err
			}
			cin.Defines = append(cin.Defines, def)
		case TokenIdent:
			prop, err := p.parseProperty()
			if err != nil {
				return nil, err
			}
			cin.Properties = append(cin.Properties, prop)
		default:
			return nil, NewUnexpectedToken(
				"layer, lens, arc, react, resonate, define, or property", p.peek())
		}
	}

	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return cin, nil
}

// parseCinematicRecovery is parseCinematic with per-block error recovery.
func (p *Parser) parseCinematicRecovery() (*Cinematic, *SourceError) {
	if err := p.expect(TokenCinematic); err != nil {
		return nil, err
	}

	cin := &Cinematic{}
	if p.check(TokenStringLiteral) {
		cin.Name = stringValue(p.advance())
	}

	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			p.errors = append(p.errors, NewUnexpectedEOF("'}'"))
			break
		}
		switch p.peek().Kind {
		case TokenLayer:
			tryParseBlock(p, (*Parser).parseLayer, func(l *Layer) {
				cin.Layers = append(cin.Layers, l)
			})
		case TokenLens:
			tryParseBlock(p, (*Parser).parseLens, func(l *Lens) {
				cin.Lenses = append(cin.Lenses, l)
			})
		case TokenArc:
			tryParseBlock(p, (*Parser).parseArc, func(a *ArcBlock) {
				cin.Arc = a
			})
		case TokenReact:
			tryParseBlock(p, (*Parser).parseReact, func(r *ReactBlock) {
				cin.React = r
			})
		case TokenResonate:
			tryParseBlock(p, (*Parser).parseResonance, func(r *ResonanceBlock) {
				cin.Resonance = r
			})
		case TokenDefine:
			tryParseBlock(p, (*Parser).parseDefine, func(d *DefineBlock) {
				cin.Defines = append(cin.Defines, d)
			})
		case TokenIdent:
			tryParseBlock(p, (*Parser).parsePropertyPtr, func(prop *Property) {
				cin.Properties = append(cin.Properties, *prop)
			})
		default:
			p.errors = append(p.errors, NewUnexpectedToken(
				"layer, lens, arc, react, resonate, define, or property", p.peek()))
			p.skipToSyncPoint()
		}
	}

	if p.check(TokenRightBrace) {
		p.advance()
	}
	return cin, nil
}

// tryParseBlock runs one block parser; on failure it records the error
// and skips to the next sync point, consuming the failed block's close
// brace when the failed parse had already consumed its open brace.
func tryParseBlock[T any](p *Parser, parse func(*Parser) (T, error), apply func(T)) {
	start := p.current
	result, err := parse(p)
	if err == nil {
		apply(result)
		return
	}
	if se, ok := err.(*SourceError); ok {
		p.errors = append(p.errors, se)
	} else {
		p.errors = append(p.errors, Errorf("%s", err.Error()))
	}

	consumedLBrace := false
	for _, t := range p.tokens[start:p.current] {
		if t.Kind == TokenLeftBrace {
			consumedLBrace = true
			break
		}
	}

	// Always advance at least one token to avoid infinite loops.
	if p.current <= start {
		p.current = start + 1
	}
	p.skipToSyncPoint()

	if consumedLBrace && p.check(TokenRightBrace) {
		p.advance()
	}
}

// skipToSyncPoint skips tokens until a closing brace at depth 0 or a
// block keyword at depth 0. The sync token itself is not consumed.
func (p *Parser) skipToSyncPoint() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenLeftBrace:
			depth++
			p.advance()
		case TokenRightBrace:
			if depth <= 0 {
				return
			}
			depth--
			p.advance()
		case TokenLayer, TokenArc, TokenReact, TokenResonate, TokenDefine, TokenLens, TokenImport:
			if depth <= 0 {
				return
			}
			p.advance()
		default:
			p.advance()
		}
	}
}

// parseImport parses `import "path" expose name1, name2` (or `expose ALL`).
func (p *Parser) parseImport() (ImportDecl, *SourceError) {
	if err := p.expect(TokenImport); err != nil {
		return ImportDecl{}, err
	}
	if !p.check(TokenStringLiteral) {
		return ImportDecl{}, Errorf("expected string path after 'import'")
	}
	path := stringValue(p.advance())

	if err := p.expect(TokenExpose); err != nil {
		return ImportDecl{}, err
	}

	var names []string
	if p.check(TokenAll) {
		p.advance()
		names = append(names, "ALL")
	} else {
		for {
			if p.isAtEnd() {
				return ImportDecl{}, NewUnexpectedEOF("identifier in expose list")
			}
			if !p.check(TokenIdent) {
				return ImportDecl{}, Errorf("expected identifier in expose list")
			}
			names = append(names, p.advance().Lexeme)
			if !p.check(TokenComma) {
				break
			}
			p.advance()
		}
	}

	return ImportDecl{Path: path, Names: names}, nil
}

// ── Layer ──────────────────────────────────────────────────────────────

func (p *Parser) parseLayer() (*Layer, error) {
	if err := p.expect(TokenLayer); err != nil {
		return nil, err
	}

	layer := &Layer{BlendMode: BlendAdditive, BlendOpacity: 1.0}
	if p.check(TokenIdent) {
		layer.Name = p.advance().Lexeme
	}

	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("'}'")
		}
		if !p.check(TokenIdent) {
			return nil, NewUnexpectedToken("property or 'fn:'", p.peek())
		}

		if p.peek().Lexeme == "fn" {
			p.advance() // consume 'fn'
			if err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			chain, err := p.parsePipeChain()
			if err != nil {
				return nil, err
			}
			layer.Chain = chain
		} else {
			name := p.advance().Lexeme
			if err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			value, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if p.check(TokenTilde) {
				p.advance()
				signal, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				layer.Params = append(layer.Params, ParamDecl{
					Name:       name,
					Base:       value,
					Modulation: signal,
				})
			} else {
				layer.Properties = append(layer.Properties, Property{Name: name, Value: value})
			}
		}
	}

	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}

	extractBlend(layer)
	return layer, nil
}

// extractBlend pulls a blend() stage out of the chain: it is layer
// metadata, not a pipeline stage.
func extractBlend(layer *Layer) {
	if layer.Chain == nil {
		return
	}
	kept := layer.Chain.Stages[:0]
	for _, stage := range layer.Chain.Stages {
		if stage.Name != "blend" {
			kept = append(kept, stage)
			continue
		}
		for _, arg := range stage.Args {
			switch arg.Name {
			case "mode":
				if id, ok := arg.Value.(*Ident); ok {
					switch id.Name {
					case "multiply":
						layer.BlendMode = BlendMultiply
					case "screen":
						layer.BlendMode = BlendScreen
					case "overlay":
						layer.BlendMode = BlendOverlay
					case "normal":
						layer.BlendMode = BlendNormal
					default:
						layer.BlendMode = BlendAdditive
					}
				}
			case "opacity":
				if n, ok := arg.Value.(*NumberLit); ok {
					layer.BlendOpacity = n.Value
				}
			}
		}
	}
	layer.Chain.Stages = kept
}

// ── Lens ───────────────────────────────────────────────────────────────

func (p *Parser) parseLens() (*Lens, error) {
	if err := p.expect(TokenLens); err != nil {
		return nil, err
	}

	lens := &Lens{}
	if p.check(TokenIdent) {
		lens.Name = p.advance().Lexeme
	}

	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("'}'")
		}
		if !p.check(TokenIdent) {
			return nil, NewUnexpectedToken("property", p.peek())
		}

		if p.peek().Lexeme == "post" {
			p.advance() // consume 'post'
			if err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			if err := p.expect(TokenLeftBracket); err != nil {
				return nil, err
			}
			for !p.check(TokenRightBracket) {
				call, err := p.parseFnCall()
				if err != nil {
					return nil, err
				}
				lens.Post = append(lens.Post, call)
				if p.check(TokenComma) {
					p.advance()
				}
			}
			if err := p.expect(TokenRightBracket); err != nil {
				return nil, err
			}
		} else {
			prop, err := p.parseProperty()
			if err != nil {
				return nil, err
			}
			lens.Properties = append(lens.Properties, prop)
		}
	}

	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return lens, nil
}

// ── Arc ────────────────────────────────────────────────────────────────

func (p *Parser) parseArc() (*ArcBlock, error) {
	if err := p.expect(TokenArc); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	arc := &ArcBlock{}
	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("'}'")
		}
		m, err := p.parseMoment()
		if err != nil {
			return nil, err
		}
		arc.Moments = append(arc.Moments, m)
	}

	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return arc, nil
}

func (p *Parser) parseMoment() (Moment, error) {
	// Timestamp: INT : INT (minutes:seconds)
	if !p.check(TokenIntLiteral) {
		if p.isAtEnd() {
			return Moment{}, NewUnexpectedEOF("timestamp")
		}
		return Moment{}, NewUnexpectedToken("timestamp (e.g. 0:00)", p.peek())
	}
	minutes := intValue(p.advance())

	if err := p.expect(TokenColon); err != nil {
		return Moment{}, err
	}

	if !p.check(TokenIntLiteral) {
		if p.isAtEnd() {
			return Moment{}, NewUnexpectedEOF("seconds")
		}
		return Moment{}, NewUnexpectedToken("seconds", p.peek())
	}
	seconds := intValue(p.advance())

	m := Moment{TimeSeconds: float64(minutes*60 + seconds)}

	if p.check(TokenStringLiteral) {
		m.Name = stringValue(p.advance())
	}

	if err := p.expect(TokenLeftBrace); err != nil {
		return Moment{}, err
	}

	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return Moment{}, NewUnexpectedEOF("'}'")
		}
		tr, err := p.parseTransition()
		if err != nil {
			return Moment{}, err
		}
		m.Transitions = append(m.Transitions, tr)
	}

	if err := p.expect(TokenRightBrace); err != nil {
		return Moment{}, err
	}
	return m, nil
}

func (p *Parser) parseTransition() (Transition, error) {
	// target(.field): value  OR  target(.field) -> value ease(fn) over Ns
	if !p.check(TokenIdent) {
		if p.isAtEnd() {
			return Transition{}, NewUnexpectedEOF("identifier")
		}
		return Transition{}, NewUnexpectedToken("identifier", p.peek())
	}
	target := p.advance().Lexeme
	if p.check(TokenDot) {
		p.advance()
		if !p.check(TokenIdent) {
			if p.isAtEnd() {
				return Transition{}, NewUnexpectedEOF("identifier")
			}
			return Transition{}, NewUnexpectedToken("identifier", p.peek())
		}
		target = target + "." + p.advance().Lexeme
	}

	tr := Transition{Target: target, IsAnimated: p.check(TokenArrow)}
	if tr.IsAnimated {
		p.advance() // consume ->
	} else if err := p.expect(TokenColon); err != nil {
		return Transition{}, err
	}

	value, err := p.parseExpr(0)
	if err != nil {
		return Transition{}, err
	}
	tr.Value = value

	if p.check(TokenEase) {
		p.advance()
		if err := p.expect(TokenLeftParen); err != nil {
			return Transition{}, err
		}
		if !p.check(TokenIdent) {
			if p.isAtEnd() {
				return Transition{}, NewUnexpectedEOF("easing name")
			}
			return Transition{}, NewUnexpectedToken("easing name", p.peek())
		}
		tr.Easing = p.advance().Lexeme
		if err := p.expect(TokenRightParen); err != nil {
			return Transition{}, err
		}
	}

	if p.check(TokenOver) {
		p.advance()
		dur, err := p.parseNumber()
		if err != nil {
			return Transition{}, err
		}
		// Consume the 's' unit suffix if present
		if p.check(TokenIdent) && p.peek().Lexeme == "s" {
			p.advance()
		}
		tr.Duration = &dur
	}

	return tr, nil
}

// ── React ──────────────────────────────────────────────────────────────

func (p *Parser) parseReact() (*ReactBlock, error) {
	if err := p.expect(TokenReact); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	react := &ReactBlock{}
	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("'}'")
		}

		signal, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenArrow); err != nil {
			return nil, err
		}
		action, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		react.Reactions = append(react.Reactions, Reaction{Signal: signal, Action: action})
	}

	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return react, nil
}

// ── Resonate ───────────────────────────────────────────────────────────

func (p *Parser) parseResonance() (*ResonanceBlock, error) {
	if err := p.expect(TokenResonate); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	res := &ResonanceBlock{}
	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("'}'")
		}
		if !p.check(TokenIdent) {
			return nil, NewUnexpectedToken("identifier", p.peek())
		}

		// Target: "param" or dotted "layer.param"
		target := p.advance().Lexeme
		for p.check(TokenDot) {
			p.advance()
			if !p.check(TokenIdent) {
				if p.isAtEnd() {
					return nil, NewUnexpectedEOF("identifier")
				}
				return nil, NewUnexpectedToken("identifier", p.peek())
			}
			target = target + "." + p.advance().Lexeme
		}

		if target == "damping" && p.check(TokenColon) {
			p.advance()
			expr, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if d, ok := extractNumber(expr); ok {
				res.Damping = &d
			}
			continue
		}

		switch {
		case p.check(TokenTilde):
			p.advance()
			source, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			res.Bindings = append(res.Bindings, ResonanceBinding{Target: target, Source: source})
		case p.check(TokenColon):
			// "param: value" is tolerated and ignored
			p.advance()
			if _, err := p.parseExpr(0); err != nil {
				return nil, err
			}
		}
	}

	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return res, nil
}

// extractNumber pulls a numeric constant out of a literal or negated literal.
func extractNumber(e Expr) (float64, bool) {
	switch v := e.(type) {
	case *NumberLit:
		return v.Value, true
	case *NegateExpr:
		if n, ok := v.X.(*NumberLit); ok {
			return -n.Value, true
		}
	}
	return 0, false
}

// ── Define ─────────────────────────────────────────────────────────────

func (p *Parser) parseDefine() (*DefineBlock, error) {
	if err := p.expect(TokenDefine); err != nil {
		return nil, err
	}
	if !p.check(TokenIdent) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("identifier")
		}
		return nil, NewUnexpectedToken("identifier", p.peek())
	}
	def := &DefineBlock{Name: p.advance().Lexeme}

	if err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	for !p.check(TokenRightParen) {
		if p.isAtEnd() {
			return nil, NewUnexpectedEOF("')'")
		}
		if !p.check(TokenIdent) {
			return nil, NewUnexpectedToken("identifier", p.peek())
		}
		def.Params = append(def.Params, p.advance().Lexeme)
		if p.check(TokenComma) {
			p.advance()
		}
	}
	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	body, err := p.parsePipeChain()
	if err != nil {
		return nil, err
	}
	def.Body = *body
	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return def, nil
}

// ── Properties ─────────────────────────────────────────────────────────

func (p *Parser) parseProperty() (Property, error) {
	if !p.check(TokenIdent) {
		if p.isAtEnd() {
			return Property{}, NewUnexpectedEOF("identifier")
		}
		return Property{}, NewUnexpectedToken("identifier", p.peek())
	}
	name := p.advance().Lexeme
	if err := p.expect(TokenColon); err != nil {
		return Property{}, err
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return Property{}, err
	}
	return Property{Name: name, Value: value}, nil
}

func (p *Parser) parsePropertyPtr() (*Property, error) {
	prop, err := p.parseProperty()
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

// ── Pipe chains ────────────────────────────────────────────────────────

func (p *Parser) parsePipeChain() (*PipeChain, error) {
	first, err := p.parseFnCall()
	if err != nil {
		return nil, err
	}
	chain := &PipeChain{Stages: []FnCall{first}}

	for p.check(TokenPipe) {
		p.advance() // consume |
		stage, err := p.parseFnCall()
		if err != nil {
			return nil, err
		}
		chain.Stages = append(chain.Stages, stage)
	}
	return chain, nil
}

func (p *Parser) parseFnCall() (FnCall, error) {
	if !p.check(TokenIdent) {
		if p.isAtEnd() {
			return FnCall{}, NewUnexpectedEOF("identifier")
		}
		return FnCall{}, NewUnexpectedToken("identifier", p.peek())
	}
	name := p.advance().Lexeme
	return p.parseFnCallWithName(name)
}

// parseFnCallWithName parses the argument list once the name is consumed.
// Named arguments are detected by one-token lookahead: an identifier
// immediately followed by ':'.
func (p *Parser) parseFnCallWithName(name string) (FnCall, error) {
	if err := p.expect(TokenLeftParen); err != nil {
		return FnCall{}, err
	}

	call := FnCall{Name: name}
	for !p.check(TokenRightParen) {
		if p.isAtEnd() {
			return FnCall{}, NewUnexpectedEOF("')'")
		}

		if p.check(TokenIdent) && p.checkNext(TokenColon) {
			argName := p.advance().Lexeme
			p.advance() // consume ':'
			value, err := p.parseExpr(0)
			if err != nil {
				return FnCall{}, err
			}
			call.Args = append(call.Args, Arg{Name: argName, Value: value})
		} else {
			value, err := p.parseExpr(0)
			if err != nil {
				return FnCall{}, err
			}
			call.Args = append(call.Args, Arg{Value: value})
		}

		if p.check(TokenComma) {
			p.advance()
		}
	}

	if err := p.expect(TokenRightParen); err != nil {
		return FnCall{}, err
	}
	return call, nil
}

// ── Expressions (Pratt precedence climbing) ────────────────────────────

func (p *Parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		var op BinOp
		switch p.peekKind() {
		case TokenPlus:
			op = OpAdd
		case TokenMinus:
			op = OpSub
		case TokenStar:
			op = OpMul
		case TokenSlash:
			op = OpDiv
		case TokenGreater:
			op = OpGt
		case TokenLess:
			op = OpLt
		default:
			goto ternary
		}

		if op.Precedence() <= minPrec {
			break
		}

		p.advance() // consume operator
		right, err := p.parseExpr(op.Precedence())
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

ternary:
	// Ternary binds loosest of all; parsed only at the top level.
	if minPrec == 0 && p.check(TokenQuestion) {
		p.advance()
		ifTrue, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		ifFalse, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		left = &TernaryExpr{Cond: left, Then: ifTrue, Else: ifFalse}
	}

	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.check(TokenMinus) {
		p.advance()
		expr, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &NegateExpr{X: expr}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	if p.isAtEnd() {
		return nil, NewUnexpectedEOF("expression")
	}

	switch p.peekKind() {
	case TokenFloatLiteral, TokenIntLiteral:
		return &NumberLit{Value: numberValue(p.advance())}, nil

	case TokenStringLiteral:
		return &StringLit{Value: stringValue(p.advance())}, nil

	case TokenIdent, TokenArc, TokenReact, TokenResonate:
		// Block keywords double as identifiers in expression position
		// (`arc.pause_toggle` in react actions).
		name := p.advance().Lexeme

		if p.check(TokenLeftParen) {
			call, err := p.parseFnCallWithName(name)
			if err != nil {
				return nil, err
			}
			args := make([]Expr, 0, len(call.Args))
			names := make([]string, 0, len(call.Args))
			for _, a := range call.Args {
				args = append(args, a.Value)
				names = append(names, a.Name)
			}
			return &CallExpr{Name: call.Name, Args: args, ArgNames: names}, nil
		}

		if p.check(TokenDot) {
			var expr Expr = &Ident{Name: name}
			for p.check(TokenDot) {
				p.advance()
				if !p.check(TokenIdent) && !p.check(TokenArc) {
					if p.isAtEnd() {
						return nil, NewUnexpectedEOF("identifier")
					}
					return nil, NewUnexpectedToken("identifier", p.peek())
				}
				expr = &FieldAccess{Object: expr, Field: p.advance().Lexeme}
			}
			return expr, nil
		}

		return &Ident{Name: name}, nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenLeftBracket:
		p.advance()
		arr := &ArrayLit{}
		for !p.check(TokenRightBracket) {
			if p.isAtEnd() {
				return nil, NewUnexpectedEOF("']'")
			}
			elem, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, elem)
			if p.check(TokenComma) {
				p.advance()
			}
		}
		if err := p.expect(TokenRightBracket); err != nil {
			return nil, err
		}
		return arr, nil

	default:
		return nil, NewUnexpectedToken("expression", p.peek())
	}
}

func (p *Parser) parseNumber() (float64, error) {
	if p.check(TokenFloatLiteral) || p.check(TokenIntLiteral) {
		return numberValue(p.advance()), nil
	}
	if p.isAtEnd() {
		return 0, NewUnexpectedEOF("number")
	}
	return 0, NewUnexpectedToken("number", p.peek())
}

// ── Helpers ────────────────────────────────────────────────────────────

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	p.current++
	return tok
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekKind() TokenKind {
	if p.isAtEnd() {
		return TokenEOF
	}
	return p.tokens[p.current].Kind
}

func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens)
}

func (p *Parser) check(kind TokenKind) bool {
	return !p.isAtEnd() && p.tokens[p.current].Kind == kind
}

func (p *Parser) checkNext(kind TokenKind) bool {
	return p.current+1 < len(p.tokens) && p.tokens[p.current+1].Kind == kind
}

func (p *Parser) expect(kind TokenKind) *SourceError {
	if p.check(kind) {
		p.current++
		return nil
	}
	if p.isAtEnd() {
		return NewUnexpectedEOF("'" + kind.String() + "'")
	}
	return NewUnexpectedToken("'"+kind.String()+"'", p.peek())
}
