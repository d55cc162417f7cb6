package dsl

import (
	"strings"
	"unicode"
)

// Lexer converts raw DSL text into a flat token sequence with line/column
// provenance. A Lexer holds cursor state for the duration of one Tokenize
// call and is not safe for concurrent use; Tokenize fully resets the state
// at entry, so sequential reuse of one instance is fine.
type Lexer struct {
	source []rune
	pos    int
	line   int
	column int
	tokens []Token
}

// NewLexer creates a lexer.
func NewLexer() *Lexer {
	return &Lexer{}
}

// Tokenize scans the whole source and returns the token sequence terminated
// by an EOF token. The first character matching no lexical rule aborts with
// a lexical error carrying its exact line and column; no partial token list
// is returned.
func (l *Lexer) Tokenize(source string) ([]Token, error) {
	l.source = []rune(source)
	l.pos = 0
	l.line = 1
	l.column = 1
	l.tokens = nil

	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		if ch == '\n' {
			l.pos++
			l.line++
			l.column = 1
			continue
		}
		if unicode.IsSpace(ch) {
			l.pos++
			l.column++
			continue
		}

		if ch == '/' && l.peekAt(1) == '/' {
			l.readLineComment()
			continue
		}
		if ch == '/' && l.peekAt(1) == '*' {
			if err := l.readBlockComment(); err != nil {
				return nil, err
			}
			continue
		}

		if ch == '-' && l.peekAt(1) == '>' {
			l.emit(TokenArrow, "->", 2)
			continue
		}

		if sym, ok := symbolTokens[ch]; ok {
			l.emit(sym, string(ch), 1)
			continue
		}

		if ch == '"' {
			if err := l.readString(); err != nil {
				return nil, err
			}
			continue
		}

		if isDigit(ch) {
			l.readNumber()
			continue
		}

		if isIdentStart(ch) {
			l.readIdentifier()
			continue
		}

		return nil, lexErrorf(l.line, l.column, "unexpected character %q", string(ch))
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Column: l.column})
	return l.tokens, nil
}

var symbolTokens = map[rune]TokenType{
	'{': TokenLBrace,
	'}': TokenRBrace,
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	':': TokenColon,
	',': TokenComma,
}

// peekAt looks ahead without consuming; returns 0 past the end.
func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset < len(l.source) {
		return l.source[l.pos+offset]
	}
	return 0
}

// emit appends a token of width runes starting at the current position.
func (l *Lexer) emit(t TokenType, literal string, width int) {
	l.tokens = append(l.tokens, Token{Type: t, Literal: literal, Line: l.line, Column: l.column})
	l.pos += width
	l.column += width
}

// readLineComment consumes // up to (not including) the newline.
func (l *Lexer) readLineComment() {
	start := l.pos
	line, column := l.line, l.column
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.pos++
		l.column++
	}
	l.tokens = append(l.tokens, Token{
		Type:    TokenComment,
		Literal: string(l.source[start:l.pos]),
		Line:    line,
		Column:  column,
	})
}

// readBlockComment consumes /* ... */, tracking newlines inside.
func (l *Lexer) readBlockComment() error {
	start := l.pos
	line, column := l.line, l.column
	l.pos += 2
	l.column += 2
	for l.pos < len(l.source) {
		if l.source[l.pos] == '*' && l.peekAt(1) == '/' {
			l.pos += 2
			l.column += 2
			l.tokens = append(l.tokens, Token{
				Type:    TokenComment,
				Literal: string(l.source[start:l.pos]),
				Line:    line,
				Column:  column,
			})
			return nil
		}
		if l.source[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
	return lexErrorf(line, column, "unterminated block comment")
}

// readString consumes a double-quoted string literal. Escape sequences are
// decoded here and re-encoded by the generator, so the in-memory value is
// always the logical string. Unescaped newlines are legal inside a literal
// and counted for line/column bookkeeping.
func (l *Lexer) readString() error {
	line, column := l.line, l.column
	l.pos++ // opening quote
	l.column++

	var sb strings.Builder
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		switch ch {
		case '"':
			l.pos++
			l.column++
			l.tokens = append(l.tokens, Token{
				Type:    TokenString,
				Literal: sb.String(),
				Line:    line,
				Column:  column,
			})
			return nil
		case '\\':
			if l.pos+1 >= len(l.source) {
				return lexErrorf(line, column, "unterminated string literal")
			}
			sb.WriteRune(decodeEscape(l.source[l.pos+1]))
			l.pos += 2
			l.column += 2
		case '\n':
			sb.WriteRune(ch)
			l.pos++
			l.line++
			l.column = 1
		default:
			sb.WriteRune(ch)
			l.pos++
			l.column++
		}
	}
	return lexErrorf(line, column, "unterminated string literal")
}

// decodeEscape maps the character after a backslash to its value. Unknown
// escapes yield the character itself.
func decodeEscape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return ch
	}
}

// readNumber consumes digits with an optional fractional part.
func (l *Lexer) readNumber() {
	start := l.pos
	line, column := l.line, l.column
	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.pos++
		l.column++
	}
	if l.pos < len(l.source) && l.source[l.pos] == '.' && isDigit(l.peekAt(1)) {
		l.pos++
		l.column++
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.pos++
			l.column++
		}
	}
	l.tokens = append(l.tokens, Token{
		Type:    TokenNumber,
		Literal: string(l.source[start:l.pos]),
		Line:    line,
		Column:  column,
	})
}

// readIdentifier consumes an identifier and classifies it against the
// keyword table; true/false become boolean literals.
func (l *Lexer) readIdentifier() {
	start := l.pos
	line, column := l.line, l.column
	for l.pos < len(l.source) && isIdentPart(l.source[l.pos]) {
		l.pos++
		l.column++
	}
	literal := string(l.source[start:l.pos])

	t := TokenIdentifier
	if literal == "true" || literal == "false" {
		t = TokenBoolean
	} else if kw, ok := keywords[literal]; ok {
		t = kw
	}
	l.tokens = append(l.tokens, Token{Type: t, Literal: literal, Line: line, Column: column})
}

func isDigit(ch rune) bool      { return ch >= '0' && ch <= '9' }
func isIdentStart(ch rune) bool { return unicode.IsLetter(ch) || ch == '_' }
func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
