package game

import "strconv"

// stringValue returns the contents of a string literal token without
// its surrounding quotes.
func stringValue(tok Token) string {
	s := tok.Lexeme
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// intValue parses an integer literal token.
func intValue(tok Token) int {
	n, _ := strconv.Atoi(tok.Lexeme)
	return n
}

// numberValue parses an integer or float literal token.
func numberValue(tok Token) float64 {
	f, _ := strconv.ParseFloat(tok.Lexeme, 64)
	return f
}
