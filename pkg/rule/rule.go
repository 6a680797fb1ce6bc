// Package rule compiles small boolean expressions into model.Predicate values
// so declarative form documents can express hideIf/readonlyIf conditions.
//
// Supported syntax:
//   - truthiness: `archived`, `!archived`
//   - comparisons: `status == "closed"`, `count != 0`, `total >= 10`
//   - composition: `a && (b || !c)`
//
// Identifiers resolve against the draft with dot-path traversal. The prefixes
// `auth.`, `user.`, `record.` and `extras.` read from the external context.
package rule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formview/pkg/model"
)

type scope struct {
	draft model.Draft
	ext   model.ExternalContext
}

type evalFunc func(s scope) (bool, error)

// Compile parses rule and returns the equivalent predicate. An empty rule
// compiles to a predicate that is always false.
func Compile(rule string) (model.Predicate, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return func(model.Draft, model.ExternalContext) (bool, error) { return false, nil }, nil
	}

	tokens, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	eval, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("rule: unexpected %q in %q", p.peek().text, trimmed)
	}

	return func(draft model.Draft, ext model.ExternalContext) (bool, error) {
		return eval(scope{draft: draft, ext: ext})
	}, nil
}

// MustCompile panics when rule does not parse. Useful for static wiring.
func MustCompile(rule string) model.Predicate {
	pred, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return pred
}

type kind int

const (
	kIdent kind = iota
	kString
	kNumber
	kBool
	kNull
	kOp
	kNot
	kAnd
	kOr
	kLParen
	kRParen
)

type token struct {
	kind kind
	text string
}

var comparisons = []string{"==", "!=", ">=", "<=", ">", "<"}

func lex(input string) ([]token, error) {
	var out []token
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			out = append(out, token{kLParen, "("})
			i++
		case ch == ')':
			out = append(out, token{kRParen, ")"})
			i++
		case strings.HasPrefix(input[i:], "&&"):
			out = append(out, token{kAnd, "&&"})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			out = append(out, token{kOr, "||"})
			i += 2
		case ch == '"' || ch == '\'':
			end := i + 1
			for end < len(input) && input[end] != ch {
				if input[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(input) {
				return nil, errors.New("rule: unterminated string literal")
			}
			raw := input[i+1 : end]
			if ch == '\'' {
				raw = strings.ReplaceAll(raw, `"`, `\"`)
				raw = strings.ReplaceAll(raw, `\'`, `'`)
			}
			value, err := strconv.Unquote(`"` + raw + `"`)
			if err != nil {
				return nil, fmt.Errorf("rule: invalid string literal: %w", err)
			}
			out = append(out, token{kString, value})
			i = end + 1
		default:
			if op := matchComparison(input[i:]); op != "" {
				out = append(out, token{kOp, op})
				i += len(op)
				continue
			}
			if ch == '!' {
				out = append(out, token{kNot, "!"})
				i++
				continue
			}
			if ch == '=' || ch == '&' || ch == '|' {
				return nil, fmt.Errorf("rule: unexpected %q at offset %d", ch, i)
			}
			start := i
			for i < len(input) && !strings.ContainsRune(" \t\n\r()!=<>&|\"'", rune(input[i])) {
				i++
			}
			out = append(out, classify(input[start:i]))
		}
	}
	return out, nil
}

func matchComparison(s string) string {
	for _, op := range comparisons {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func classify(word string) token {
	switch strings.ToLower(word) {
	case "true", "false":
		return token{kBool, strings.ToLower(word)}
	case "null", "nil":
		return token{kNull, "null"}
	}
	if first := word[0]; (first >= '0' && first <= '9') || first == '-' || first == '+' || first == '.' {
		if _, err := strconv.ParseFloat(word, 64); err == nil {
			return token{kNumber, word}
		}
	}
	return token{kIdent, word}
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) accept(k kind) (token, bool) {
	if p.done() || p.tokens[p.pos].kind != k {
		return token{}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) parseOr() (evalFunc, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kOr); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(s scope) (bool, error) {
			ok, err := l(s)
			if err != nil || ok {
				return ok, err
			}
			return r(s)
		}
	}
}

func (p *parser) parseAnd() (evalFunc, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kAnd); !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(s scope) (bool, error) {
			ok, err := l(s)
			if err != nil || !ok {
				return false, err
			}
			return r(s)
		}
	}
}

func (p *parser) parseUnary() (evalFunc, error) {
	if _, ok := p.accept(kNot); ok {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(s scope) (bool, error) {
			ok, err := inner(s)
			return !ok, err
		}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (evalFunc, error) {
	if _, ok := p.accept(kLParen); ok {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(kRParen); !ok {
			return nil, errors.New("rule: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := p.accept(kIdent)
	if !ok {
		if p.done() {
			return nil, errors.New("rule: unexpected end of expression")
		}
		return nil, fmt.Errorf("rule: expected identifier, got %q", p.peek().text)
	}

	op, ok := p.accept(kOp)
	if !ok {
		path := ident.text
		return func(s scope) (bool, error) {
			value, _ := s.lookup(path)
			return truthy(value), nil
		}, nil
	}

	if p.done() {
		return nil, fmt.Errorf("rule: missing operand after %q", op.text)
	}
	lit := p.tokens[p.pos]
	p.pos++
	return compare(ident.text, op.text, lit)
}

func compare(path, op string, lit token) (evalFunc, error) {
	switch lit.kind {
	case kNull:
		if op != "==" && op != "!=" {
			return nil, fmt.Errorf("rule: operator %q not supported for null", op)
		}
		return func(s scope) (bool, error) {
			value, _ := s.lookup(path)
			return (value == nil) == (op == "=="), nil
		}, nil
	case kBool:
		if op != "==" && op != "!=" {
			return nil, fmt.Errorf("rule: operator %q not supported for booleans", op)
		}
		want := lit.text == "true"
		return func(s scope) (bool, error) {
			value, _ := s.lookup(path)
			return (asBool(value) == want) == (op == "=="), nil
		}, nil
	case kNumber:
		want, err := strconv.ParseFloat(lit.text, 64)
		if err != nil {
			return nil, fmt.Errorf("rule: invalid number %q", lit.text)
		}
		return func(s scope) (bool, error) {
			value, _ := s.lookup(path)
			got, _ := asNumber(value)
			return compareOrdered(got, want, op), nil
		}, nil
	case kString, kIdent:
		want := lit.text
		return func(s scope) (bool, error) {
			value, _ := s.lookup(path)
			return compareOrdered(asString(value), want, op), nil
		}, nil
	default:
		return nil, fmt.Errorf("rule: expected literal, got %q", lit.text)
	}
}

func compareOrdered[T float64 | string](got, want T, op string) bool {
	switch op {
	case "==":
		return got == want
	case "!=":
		return got != want
	case ">":
		return got > want
	case ">=":
		return got >= want
	case "<":
		return got < want
	case "<=":
		return got <= want
	default:
		return false
	}
}
