package dsl

import "fmt"

// ErrorCode classifies a DSL hard failure.
type ErrorCode string

const (
	// ErrLexical means the lexer hit a character matching no lexical rule
	ErrLexical ErrorCode = "LEXICAL_ERROR"
	// ErrSyntax means the token stream did not match the grammar
	ErrSyntax ErrorCode = "SYNTAX_ERROR"
	// ErrUnresolvedReference means a name did not resolve to any node/track
	ErrUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
)

// Error is a structured DSL error with code, message and source location.
// Lexing, parsing and resolution are all-or-nothing: the first Error aborts
// the whole operation and no partial workflow is returned.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Line    int       `json:"line,omitempty"`
	Column  int       `json:"column,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

func lexErrorf(line, column int, format string, args ...any) *Error {
	return &Error{
		Code:    ErrLexical,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
	}
}

func syntaxErrorf(tok Token, format string, args ...any) *Error {
	return &Error{
		Code:    ErrSyntax,
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

func resolveErrorf(format string, args ...any) *Error {
	return &Error{
		Code:    ErrUnresolvedReference,
		Message: fmt.Sprintf(format, args...),
	}
}
