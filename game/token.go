// Package game provides parsing for .game cinematic source files.
package game

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenStringLiteral

	// Operators
	TokenPipe    // |
	TokenTilde   // ~
	TokenArrow   // ->
	TokenColon   // :
	TokenComma   // ,
	TokenDot     // .
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenGreater // >
	TokenLess    // <
	TokenQuestion // ?

	// Delimiters
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenCinematic
	TokenLayer
	TokenLens
	TokenArc
	TokenReact
	TokenResonate
	TokenDefine
	TokenImport
	TokenExpose
	TokenEase
	TokenOver
	TokenAll
)

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "Error"
	case TokenIdent:
		return "Ident"
	case TokenIntLiteral:
		return "IntLiteral"
	case TokenFloatLiteral:
		return "FloatLiteral"
	case TokenStringLiteral:
		return "StringLiteral"
	case TokenPipe:
		return "|"
	case TokenTilde:
		return "~"
	case TokenArrow:
		return "->"
	case TokenColon:
		return ":"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenGreater:
		return ">"
	case TokenLess:
		return "<"
	case TokenQuestion:
		return "?"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenLeftBracket:
		return "["
	case TokenRightBracket:
		return "]"
	case TokenCinematic:
		return "cinematic"
	case TokenLayer:
		return "layer"
	case TokenLens:
		return "lens"
	case TokenArc:
		return "arc"
	case TokenReact:
		return "react"
	case TokenResonate:
		return "resonate"
	case TokenDefine:
		return "define"
	case TokenImport:
		return "import"
	case TokenExpose:
		return "expose"
	case TokenEase:
		return "ease"
	case TokenOver:
		return "over"
	case TokenAll:
		return "ALL"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token with its byte span in the source.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Start  int // byte offset of the first character
	End    int // byte offset one past the last character
}

// Span returns the token's byte span.
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.End}
}

// Describe returns a human-readable description for error messages.
// Literal tokens include their text; structural tokens print as symbols.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenIdent:
		return "identifier '" + t.Lexeme + "'"
	case TokenIntLiteral, TokenFloatLiteral:
		return "number '" + t.Lexeme + "'"
	case TokenStringLiteral:
		return "string " + t.Lexeme
	default:
		return "'" + t.Kind.String() + "'"
	}
}

// Span is a half-open byte-offset range into the source.
type Span struct {
	Start int
	End   int
}
