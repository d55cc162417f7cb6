package dsl

import (
	"strconv"
	"strings"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// Parser consumes a token sequence with a recursive-descent grammar and
// produces a workflow graph. Cross-references written as names in the source
// (track membership, dependency endpoints, decision targets) stay pending
// until the whole document is parsed, because forward references are legal;
// resolution is the final phase of Parse.
//
// A Parser holds cursor state for one Parse call and is not safe for
// concurrent use; Parse fully resets the state at entry.
type Parser struct {
	tokens  []Token
	pos     int
	wf      *workflow.Workflow
	pending pendingRefs
}

// pendingRefs accumulates the name references to resolve after parsing.
type pendingRefs struct {
	// nodeTracks maps node id -> track name
	nodeTracks map[string]string
	// branchTargets records decision condition target names
	branchTargets []branchRef
	// decisionDefaults maps decision node id -> default target name
	decisionDefaults map[string]string
	// dependencies records endpoint names per dependency id
	dependencies []depRef
}

type branchRef struct {
	nodeID     string
	branch     int
	targetName string
}

type depRef struct {
	depID      string
	sourceName string
	targetName string
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse is a convenience wrapper around a fresh Parser.
func Parse(source string) (*workflow.Workflow, error) {
	return NewParser().Parse(source)
}

// Parse tokenizes the source, parses it into a workflow graph and resolves
// every name reference to a node/track id. Parsing is all-or-nothing: any
// grammar mismatch or unresolved name aborts with a single descriptive
// error and no partial workflow.
func (p *Parser) Parse(source string) (*workflow.Workflow, error) {
	tokens, err := NewLexer().Tokenize(source)
	if err != nil {
		return nil, err
	}

	p.tokens = tokens
	p.pos = 0
	p.wf = nil
	p.pending = pendingRefs{
		nodeTracks:       make(map[string]string),
		decisionDefaults: make(map[string]string),
	}

	wf, err := p.parseWorkflow()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, syntaxErrorf(tok, "expected end of input, got %s", describeToken(tok))
	}
	if err := p.resolve(wf); err != nil {
		return nil, err
	}
	return wf, nil
}

// --- Cursor helpers ---

// current returns the token under the cursor, skipping comments.
func (p *Parser) current() Token {
	for p.pos < len(p.tokens)-1 && p.tokens[p.pos].Type == TokenComment {
		p.pos++
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current non-comment token.
func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it has the wanted type, or fails
// with its location and an expectation message.
func (p *Parser) expect(t TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != t {
		return tok, syntaxErrorf(tok, "expected %s, got %s", t, describeToken(tok))
	}
	return p.advance(), nil
}

// match consumes the current token when it has the wanted type.
func (p *Parser) match(t TokenType) bool {
	if p.current().Type == t {
		p.advance()
		return true
	}
	return false
}

func describeToken(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return strconv.Quote(tok.Literal)
	default:
		if tok.Literal != "" {
			return "'" + tok.Literal + "'"
		}
		return tok.Type.String()
	}
}

// --- Productions ---

// parseWorkflow parses:
//
//	workflow STRING '{' (description|version|track|node|dependencies)* '}'
func (p *Parser) parseWorkflow() (*workflow.Workflow, error) {
	if _, err := p.expect(TokenWorkflow); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokenString)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}

	wf := workflow.New(nameTok.Literal)
	p.wf = wf

	for {
		tok := p.current()
		switch {
		case tok.Type == TokenRBrace:
			p.advance()
			return wf, nil
		case tok.Type == TokenDescription:
			p.advance()
			desc, err := p.expect(TokenString)
			if err != nil {
				return nil, err
			}
			wf.Description = desc.Literal
		case tok.Type == TokenVersion:
			p.advance()
			ver, err := p.expect(TokenString)
			if err != nil {
				return nil, err
			}
			wf.Version = ver.Literal
		case tok.Type == TokenTrack:
			if err := p.parseTrack(); err != nil {
				return nil, err
			}
		case tok.IsNodeKeyword():
			if err := p.parseNode(); err != nil {
				return nil, err
			}
		case tok.Type == TokenDependencies:
			if err := p.parseDependencies(); err != nil {
				return nil, err
			}
		default:
			return nil, syntaxErrorf(tok, "expected workflow element, got %s", describeToken(tok))
		}
	}
}

// parseTrack parses: track STRING '{' description? '}'
func (p *Parser) parseTrack() error {
	p.advance() // track keyword
	nameTok, err := p.expect(TokenString)
	if err != nil {
		return err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}

	track := &workflow.Track{ID: workflow.NewID(), Name: nameTok.Literal}
	for {
		tok := p.current()
		switch tok.Type {
		case TokenRBrace:
			p.advance()
			p.wf.AddTrack(track)
			return nil
		case TokenDescription:
			p.advance()
			desc, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			track.Description = desc.Literal
		default:
			return syntaxErrorf(tok, "unexpected %s in track %q", describeToken(tok), track.Name)
		}
	}
}

var nodeTypes = map[TokenType]workflow.NodeType{
	TokenStart:    workflow.NodeTypeStart,
	TokenEnd:      workflow.NodeTypeEnd,
	TokenTask:     workflow.NodeTypeTask,
	TokenDecision: workflow.NodeTypeDecision,
	TokenSync:     workflow.NodeTypeSync,
}

// parseNode parses a node declaration. The node keyword selects the variant
// and wrong-variant properties are rejected here, at parse time.
func (p *Parser) parseNode() error {
	kw := p.advance()
	nodeType := nodeTypes[kw.Type]

	nameTok, err := p.expect(TokenString)
	if err != nil {
		return err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}

	node := &workflow.Node{
		ID:   workflow.NewID(),
		Type: nodeType,
		Name: nameTok.Literal,
	}
	switch nodeType {
	case workflow.NodeTypeTask:
		node.Task = &workflow.TaskConfig{}
	case workflow.NodeTypeDecision:
		node.Decision = &workflow.DecisionConfig{}
	case workflow.NodeTypeSync:
		node.Sync = &workflow.SyncConfig{}
	}

	for {
		tok := p.current()
		switch tok.Type {
		case TokenRBrace:
			p.advance()
			p.wf.AddNode(node)
			return nil

		case TokenDescription:
			p.advance()
			desc, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			node.Description = desc.Literal

		case TokenTrack:
			p.advance()
			trackTok, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			p.pending.nodeTracks[node.ID] = trackTok.Literal

		case TokenTypeKw:
			if node.Task == nil {
				return syntaxErrorf(tok, "'type' is only valid on task nodes, not %s %q", node.Type, node.Name)
			}
			p.advance()
			typeTok, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			node.Task.TaskType = typeTok.Literal

		case TokenParameters:
			if node.Task == nil {
				return syntaxErrorf(tok, "'parameters' is only valid on task nodes, not %s %q", node.Type, node.Name)
			}
			p.advance()
			params, err := p.parseObject()
			if err != nil {
				return err
			}
			node.Task.Parameters = params

		case TokenResources:
			p.advance()
			resources, err := p.parseResources()
			if err != nil {
				return err
			}
			node.Resources = resources

		case TokenCondition:
			if node.Decision == nil {
				return syntaxErrorf(tok, "'condition' is only valid on decision nodes, not %s %q", node.Type, node.Name)
			}
			p.advance()
			exprTok, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			cond, err := parseConditionExpr(exprTok)
			if err != nil {
				return err
			}
			if _, err := p.expect(TokenThen); err != nil {
				return err
			}
			targetTok, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			p.pending.branchTargets = append(p.pending.branchTargets, branchRef{
				nodeID:     node.ID,
				branch:     len(node.Decision.Branches),
				targetName: targetTok.Literal,
			})
			node.Decision.Branches = append(node.Decision.Branches, workflow.DecisionBranch{Condition: cond})

		case TokenDefault:
			if node.Decision == nil {
				return syntaxErrorf(tok, "'default' is only valid on decision nodes, not %s %q", node.Type, node.Name)
			}
			p.advance()
			targetTok, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			p.pending.decisionDefaults[node.ID] = targetTok.Literal

		case TokenWaitForAll:
			if node.Sync == nil {
				return syntaxErrorf(tok, "'wait_for_all' is only valid on sync nodes, not %s %q", node.Type, node.Name)
			}
			p.advance()
			boolTok, err := p.expect(TokenBoolean)
			if err != nil {
				return err
			}
			node.Sync.WaitForAll = boolTok.Literal == "true"

		case TokenTimeout:
			if node.Task == nil && node.Sync == nil {
				return syntaxErrorf(tok, "'timeout' is only valid on task and sync nodes, not %s %q", node.Type, node.Name)
			}
			p.advance()
			numTok, err := p.expect(TokenNumber)
			if err != nil {
				return err
			}
			timeout, err := strconv.ParseFloat(numTok.Literal, 64)
			if err != nil {
				return syntaxErrorf(numTok, "invalid number %q", numTok.Literal)
			}
			if node.Task != nil {
				node.Task.Timeout = timeout
			} else {
				node.Sync.Timeout = timeout
			}

		default:
			return syntaxErrorf(tok, "unexpected %s in %s %q", describeToken(tok), node.Type, node.Name)
		}
	}
}

// parseResources parses: resources '{' (key ':' NUMBER ','?)* '}'
// Keys cpu, memory and gpu map to their resource kinds; any other key is a
// custom resource.
func (p *Parser) parseResources() ([]workflow.ResourceRequirement, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	var resources []workflow.ResourceRequirement
	for {
		tok := p.current()
		if tok.Type == TokenRBrace {
			p.advance()
			return resources, nil
		}
		key, err := p.expectKey()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		numTok, err := p.expect(TokenNumber)
		if err != nil {
			return nil, err
		}
		amount, err := strconv.ParseFloat(numTok.Literal, 64)
		if err != nil {
			return nil, syntaxErrorf(numTok, "invalid number %q", numTok.Literal)
		}

		req := workflow.ResourceRequirement{Amount: amount}
		switch key {
		case "cpu":
			req.Kind = workflow.ResourceCPU
		case "memory":
			req.Kind = workflow.ResourceMemory
		case "gpu":
			req.Kind = workflow.ResourceGPU
		default:
			req.Kind = workflow.ResourceCustom
			req.CustomKind = key
		}
		resources = append(resources, req)
		p.match(TokenComma)
	}
}

// parseDependencies parses:
//
//	dependencies '{' (STRING '->' STRING (when STRING | default)?)* '}'
func (p *Parser) parseDependencies() error {
	p.advance() // dependencies keyword
	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}
	for {
		tok := p.current()
		if tok.Type == TokenRBrace {
			p.advance()
			return nil
		}
		sourceTok, err := p.expect(TokenString)
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenArrow); err != nil {
			return err
		}
		targetTok, err := p.expect(TokenString)
		if err != nil {
			return err
		}

		dep := &workflow.Dependency{
			ID:   workflow.NewID(),
			Type: workflow.DependencySequential,
		}
		switch p.current().Type {
		case TokenWhen:
			p.advance()
			exprTok, err := p.expect(TokenString)
			if err != nil {
				return err
			}
			cond, err := parseConditionExpr(exprTok)
			if err != nil {
				return err
			}
			dep.Type = workflow.DependencyConditional
			dep.Condition = &cond
		case TokenDefault:
			p.advance()
			dep.Type = workflow.DependencyConditional
		}

		p.wf.AddDependency(dep)
		p.pending.dependencies = append(p.pending.dependencies, depRef{
			depID:      dep.ID,
			sourceName: sourceTok.Literal,
			targetName: targetTok.Literal,
		})
	}
}

// expectKey accepts an identifier, a string or a keyword spelling as an
// object or resource key.
func (p *Parser) expectKey() (string, error) {
	tok := p.current()
	switch {
	case tok.Type == TokenIdentifier || tok.Type == TokenString || tok.Type == TokenBoolean:
		p.advance()
		return tok.Literal, nil
	case isKeywordToken(tok.Type):
		p.advance()
		return tok.Literal, nil
	default:
		return "", syntaxErrorf(tok, "expected key, got %s", describeToken(tok))
	}
}

func isKeywordToken(t TokenType) bool {
	return t >= TokenWorkflow && t <= TokenTimeout
}

// parseObject parses a JSON-like object using the DSL's own tokens:
//
//	'{' (key ':' value ','?)* '}'
func (p *Parser) parseObject() (map[string]any, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	obj := make(map[string]any)
	for {
		tok := p.current()
		if tok.Type == TokenRBrace {
			p.advance()
			return obj, nil
		}
		key, err := p.expectKey()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj[key] = value
		p.match(TokenComma)
	}
}

// parseArray parses: '[' (value ','?)* ']'
func (p *Parser) parseArray() ([]any, error) {
	if _, err := p.expect(TokenLBracket); err != nil {
		return nil, err
	}
	arr := []any{}
	for {
		tok := p.current()
		if tok.Type == TokenRBracket {
			p.advance()
			return arr, nil
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
		p.match(TokenComma)
	}
}

// parseValue parses string | number | boolean | array | object.
func (p *Parser) parseValue() (any, error) {
	tok := p.current()
	switch tok.Type {
	case TokenString:
		p.advance()
		return tok.Literal, nil
	case TokenNumber:
		p.advance()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, syntaxErrorf(tok, "invalid number %q", tok.Literal)
		}
		return f, nil
	case TokenBoolean:
		p.advance()
		return tok.Literal == "true", nil
	case TokenLBracket:
		return p.parseArray()
	case TokenLBrace:
		return p.parseObject()
	default:
		return nil, syntaxErrorf(tok, "expected value, got %s", describeToken(tok))
	}
}

// conditionOperators accepts both symbolic and word operator spellings.
var conditionOperators = map[string]workflow.Operator{
	"==":               workflow.OpEquals,
	"!=":               workflow.OpNotEquals,
	">":                workflow.OpGreaterThan,
	"<":                workflow.OpLessThan,
	">=":               workflow.OpGreaterOrEqual,
	"<=":               workflow.OpLessOrEqual,
	"equals":           workflow.OpEquals,
	"not_equals":       workflow.OpNotEquals,
	"greater_than":     workflow.OpGreaterThan,
	"less_than":        workflow.OpLessThan,
	"greater_or_equal": workflow.OpGreaterOrEqual,
	"less_or_equal":    workflow.OpLessOrEqual,
	"contains":         workflow.OpContains,
	"not_contains":     workflow.OpNotContains,
	"starts_with":      workflow.OpStartsWith,
	"ends_with":        workflow.OpEndsWith,
	"regex":            workflow.OpRegex,
}

// parseConditionExpr parses a condition string of the exact form
// "<key> <operator> <value>" (three whitespace-separated fields). The value
// is typed by sniffing: true/false -> bool, decimal number -> float64,
// anything else -> string (surrounding quotes stripped).
func parseConditionExpr(tok Token) (workflow.Condition, error) {
	parts := strings.Fields(tok.Literal)
	if len(parts) != 3 {
		return workflow.Condition{}, syntaxErrorf(tok,
			"condition %q must have the form \"<key> <operator> <value>\"", tok.Literal)
	}
	op, ok := conditionOperators[parts[1]]
	if !ok {
		return workflow.Condition{}, syntaxErrorf(tok, "unknown condition operator %q", parts[1])
	}
	return workflow.Condition{
		Key:      parts[0],
		Operator: op,
		Value:    sniffValue(parts[2]),
	}, nil
}

// sniffValue types a condition right-hand side from its literal text.
func sniffValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
