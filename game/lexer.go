package game

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes .game source code.
type Lexer struct {
	source string
	pos    int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 6 characters of source.
	estTokens := len(source) / 6
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		tokens: make([]Token, 0, estTokens),
	}
}

// Lex tokenizes source and returns the token stream (without a trailing
// EOF token). Lexing is fatal on the first unrecognized byte sequence.
func Lex(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	r := l.advance()

	switch r {
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case '|':
		l.addToken(TokenPipe)
	case '~':
		l.addToken(TokenTilde)
	case ':':
		l.addToken(TokenColon)
	case ',':
		l.addToken(TokenComma)
	case '.':
		l.addToken(TokenDot)
	case '+':
		l.addToken(TokenPlus)
	case '*':
		l.addToken(TokenStar)
	case '/':
		l.addToken(TokenSlash)
	case '>':
		l.addToken(TokenGreater)
	case '<':
		l.addToken(TokenLess)
	case '?':
		l.addToken(TokenQuestion)
	case '-':
		if l.match('>') {
			l.addToken(TokenArrow)
		} else {
			l.addToken(TokenMinus)
		}
	case '#':
		// Line comment
		for l.peek() != '\n' && !l.isAtEnd() {
			l.advance()
		}
	case '"':
		return l.stringLiteral()
	case ' ', '\t', '\r', '\n':
		// Ignore whitespace

	default:
		switch {
		case isDigit(r):
			l.number()
		case isAlpha(r) || r == '_':
			l.identifier()
		default:
			frag := l.source[l.start:l.pos]
			return NewUnrecognizedToken(frag, Span{Start: l.start, End: l.pos})
		}
	}

	return nil
}

func (l *Lexer) stringLiteral() error {
	for l.peek() != '"' && !l.isAtEnd() {
		l.advance()
	}
	if l.isAtEnd() {
		frag := l.source[l.start:l.pos]
		return NewUnrecognizedToken(frag, Span{Start: l.start, End: l.pos})
	}
	l.advance() // closing quote
	l.addToken(TokenStringLiteral)
	return nil
}

func (l *Lexer) number() {
	for isDigit(l.peek()) {
		l.advance()
	}

	// Floats require digits on both sides of the dot: `0.3` is a float,
	// `5.` is an integer followed by a member access.
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // consume '.'
		for isDigit(l.peek()) {
			l.advance()
		}
		l.addToken(TokenFloatLiteral)
		return
	}

	l.addToken(TokenIntLiteral)
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	text := l.source[l.start:l.pos]
	l.addToken(lookupKeyword(text))
}

// Keywords are deliberately sparse: function names, property keys, and
// color names stay ordinary identifiers so new builtins need no lexer
// changes.
var keywords = map[string]TokenKind{
	"cinematic": TokenCinematic,
	"layer":     TokenLayer,
	"lens":      TokenLens,
	"arc":       TokenArc,
	"react":     TokenReact,
	"resonate":  TokenResonate,
	"define":    TokenDefine,
	"import":    TokenImport,
	"expose":    TokenExpose,
	"ease":      TokenEase,
	"over":      TokenOver,
	"ALL":       TokenAll,
}

func lookupKeyword(text string) TokenKind {
	if kind, ok := keywords[text]; ok {
		return kind
	}
	return TokenIdent
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Start:  l.start,
		End:    l.pos,
	})
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
