// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"
)

type requestKey struct{}

// ContextWithRequest stores r in ctx so conditions can inspect the current request.
func ContextWithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFromContext returns the request stored by ContextWithRequest.
func RequestFromContext(ctx context.Context) (*http.Request, bool) {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	return r, ok && r != nil
}

// Not negates c.
func Not(c Condition) Condition {
	return func(ctx context.Context) (bool, error) {
		ok, err := c(ctx)
		return !ok, err
	}
}

// All is true when every condition is true. Evaluation stops at the first false.
func All(conds ...Condition) Condition {
	return func(ctx context.Context) (bool, error) {
		for _, c := range conds {
			ok, err := c(ctx)
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	}
}

// Any is true when at least one condition is true. Evaluation stops at the first true.
func Any(conds ...Condition) Condition {
	return func(ctx context.Context) (bool, error) {
		for _, c := range conds {
			ok, err := c(ctx)
			if err != nil || ok {
				return ok, err
			}
		}

		return false, nil
	}
}

func constant(v bool) Condition {
	return func(context.Context) (bool, error) { return v, nil }
}

// ParseCondition compiles a condition expression over named predicates.
// The grammar only admits predicate names from named, the literals true and
// false, the operators !, && and ||, and parentheses:
//
//	expr    = or
//	or      = and { "||" and }
//	and     = unary { "&&" unary }
//	unary   = "!" unary | primary
//	primary = name | "true" | "false" | "(" expr ")"
//
// Unknown names and syntax errors return a ConfigError.
func ParseCondition(expr string, named map[string]Condition) (Condition, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, &ConfigError{Index: -1, Err: fmt.Errorf("condition %q: %w", expr, err)}
	}
	p := &condParser{toks: toks, named: named}
	c, err := p.parseOr()
	if err == nil && p.pos < len(p.toks) {
		err = fmt.Errorf("unexpected %q", p.toks[p.pos])
	}
	if err != nil {
		return nil, &ConfigError{Index: -1, Err: fmt.Errorf("condition %q: %w", expr, err)}
	}

	return c, nil
}

func tokenize(s string) ([]string, error) {
	var toks []string
	for i := 0; i < len(s); {
		r := rune(s[i])
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == ')' || r == '!':
			toks = append(toks, string(r))
			i++
		case strings.HasPrefix(s[i:], "&&") || strings.HasPrefix(s[i:], "||"):
			toks = append(toks, s[i:i+2])
			i += 2
		case isNameRune(r):
			j := i
			for j < len(s) && isNameRune(rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty expression")
	}

	return toks, nil
}

func isNameRune(r rune) bool {
	return r == '_' || r == '.' || r == '-' || r == ':' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

type condParser struct {
	toks  []string
	pos   int
	named map[string]Condition
}

func (p *condParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}

	return ""
}

func (p *condParser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []Condition{left}
	for p.peek() == "||" {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}

	return Any(terms...), nil
}

func (p *condParser) parseAnd() (Condition, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	terms := []Condition{left}
	for p.peek() == "&&" {
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}

	return All(terms...), nil
}

func (p *condParser) parseUnary() (Condition, error) {
	if p.peek() == "!" {
		p.pos++
		c, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return Not(c), nil
	}

	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (Condition, error) {
	tok := p.peek()
	switch tok {
	case "":
		return nil, fmt.Errorf("unexpected end of expression")
	case "(":
		p.pos++
		c, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++

		return c, nil
	case "true", "false":
		p.pos++
		return constant(tok == "true"), nil
	case ")", "&&", "||":
		return nil, fmt.Errorf("unexpected %q", tok)
	}
	c, ok := p.named[tok]
	if !ok || c == nil {
		return nil, fmt.Errorf("unknown condition %q", tok)
	}
	p.pos++

	return c, nil
}
