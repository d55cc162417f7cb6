package dsl

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	// TokenEOF terminates every token stream
	TokenEOF TokenType = iota
	// TokenComment is a // line comment or /* */ block comment. Comments
	// are kept in the stream so the parser can skip them anywhere a
	// comment is legal, including inside brace-delimited blocks.
	TokenComment
	// TokenString is a double-quoted string literal, escapes decoded
	TokenString
	// TokenNumber is a decimal number literal
	TokenNumber
	// TokenBoolean is true or false
	TokenBoolean
	// TokenIdentifier is a bare identifier that is not a keyword
	TokenIdentifier

	// Symbols
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
	TokenColon    // :
	TokenComma    // ,
	TokenArrow    // ->

	// Keywords
	TokenWorkflow
	TokenTrack
	TokenTask
	TokenDecision
	TokenSync
	TokenStart
	TokenEnd
	TokenDependencies
	TokenResources
	TokenParameters
	TokenCondition
	TokenThen
	TokenWhen
	TokenDefault
	TokenDescription
	TokenVersion
	// TokenTypeKw is the 'type' keyword (named with a Kw suffix to keep
	// clear of the TokenType type itself)
	TokenTypeKw
	TokenWaitForAll
	TokenTimeout
)

// keywords maps identifier spellings to their keyword token types. true and
// false lex as TokenBoolean rather than keywords.
var keywords = map[string]TokenType{
	"workflow":     TokenWorkflow,
	"track":        TokenTrack,
	"task":         TokenTask,
	"decision":     TokenDecision,
	"sync":         TokenSync,
	"start":        TokenStart,
	"end":          TokenEnd,
	"dependencies": TokenDependencies,
	"resources":    TokenResources,
	"parameters":   TokenParameters,
	"condition":    TokenCondition,
	"then":         TokenThen,
	"when":         TokenWhen,
	"default":      TokenDefault,
	"description":  TokenDescription,
	"version":      TokenVersion,
	"type":         TokenTypeKw,
	"wait_for_all": TokenWaitForAll,
	"timeout":      TokenTimeout,
}

var tokenNames = map[TokenType]string{
	TokenEOF:          "end of input",
	TokenComment:      "comment",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenBoolean:      "boolean",
	TokenIdentifier:   "identifier",
	TokenLBrace:       "'{'",
	TokenRBrace:       "'}'",
	TokenLParen:       "'('",
	TokenRParen:       "')'",
	TokenLBracket:     "'['",
	TokenRBracket:     "']'",
	TokenColon:        "':'",
	TokenComma:        "','",
	TokenArrow:        "'->'",
	TokenWorkflow:     "'workflow'",
	TokenTrack:        "'track'",
	TokenTask:         "'task'",
	TokenDecision:     "'decision'",
	TokenSync:         "'sync'",
	TokenStart:        "'start'",
	TokenEnd:          "'end'",
	TokenDependencies: "'dependencies'",
	TokenResources:    "'resources'",
	TokenParameters:   "'parameters'",
	TokenCondition:    "'condition'",
	TokenThen:         "'then'",
	TokenWhen:         "'when'",
	TokenDefault:      "'default'",
	TokenDescription:  "'description'",
	TokenVersion:      "'version'",
	TokenTypeKw:       "'type'",
	TokenWaitForAll:   "'wait_for_all'",
	TokenTimeout:      "'timeout'",
}

// String returns a human-readable name for error messages.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a single lexical unit with its source position. Tokens are
// immutable once created.
type Token struct {
	// Type is the lexical class
	Type TokenType
	// Literal is the token text; for strings the decoded value
	Literal string
	// Line is the 1-based source line of the first character
	Line int
	// Column is the 1-based source column of the first character
	Column int
}

// IsNodeKeyword reports whether the token opens a node declaration.
func (t Token) IsNodeKeyword() bool {
	switch t.Type {
	case TokenStart, TokenEnd, TokenTask, TokenDecision, TokenSync:
		return true
	default:
		return false
	}
}
