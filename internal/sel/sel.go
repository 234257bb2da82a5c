// Package sel implements the Selector Expression Language: a small boolean
// expression grammar over stream attributes, used by the filter pipeline's
// excluded/required/included/ranked/preferred stages. Deliberately kept
// small per spec, as no pack example carries a dedicated expression-
// language library — a hand-rolled recursive-descent parser is the
// pragmatic fit here.
package sel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/streamforge/resolver/internal/models"
)

// Pin is the side-channel directive a selector may emit for a matching stream.
type Pin int

const (
	PinNone Pin = iota
	PinTop
	PinBottom
)

// Expr is a parsed, evaluatable selector.
type Expr interface {
	Eval(ctx EvalContext) bool
}

// EvalContext exposes everything a predicate can read.
type EvalContext struct {
	Stream   *models.ParsedStream
	AllStreams []*models.ParsedStream
	SeadexBest   map[string]struct{}
	SeadexAll    map[string]struct{}
}

// Parse compiles a SEL expression string into an Expr. Grammar:
//
//	expr    := or
//	or      := and ("or" and)*
//	and     := unary ("and" unary)*
//	unary   := "not" unary | atom
//	atom    := "(" or ")" | predicate
//	predicate := ident "(" args? ")" | ident ":" value
func Parse(src string) (Expr, error) {
	p := &parser{tokens: tokenize(src)}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("sel: unexpected trailing input at %q", p.tokens[p.pos])
	}
	return e, nil
}

// ParsePin extracts a trailing pin(top|bottom) directive, if present,
// returning the remaining expression text and the pin kind.
func ParsePin(src string) (string, Pin) {
	trimmed := strings.TrimSpace(src)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasSuffix(lower, "pin(top)"):
		return strings.TrimSpace(trimmed[:len(trimmed)-len("pin(top)")]), PinTop
	case strings.HasSuffix(lower, "pin(bottom)"):
		return strings.TrimSpace(trimmed[:len(trimmed)-len("pin(bottom)")]), PinBottom
	}
	return src, PinNone
}

func tokenize(src string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	inQuote := false
	for _, r := range src {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case inQuote:
			cur.WriteRune(r)
		case r == '(' || r == ')' || r == ',':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for strings.EqualFold(p.peek(), "and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if strings.EqualFold(p.peek(), "not") {
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{e}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Expr, error) {
	if p.peek() == "(" {
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("sel: expected ')'")
		}
		p.next()
		return e, nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (Expr, error) {
	name := p.next()
	if name == "" {
		return nil, fmt.Errorf("sel: expected predicate")
	}
	var args []string
	if p.peek() == "(" {
		p.next()
		for p.peek() != ")" {
			if p.peek() == "" {
				return nil, fmt.Errorf("sel: unterminated argument list for %q", name)
			}
			args = append(args, strings.Trim(p.next(), `"`))
			if p.peek() == "," {
				p.next()
			}
		}
		p.next() // consume ")"
	}
	return predicateExpr{name: strings.ToLower(name), args: args}, nil
}

type orExpr struct{ l, r Expr }

func (e orExpr) Eval(ctx EvalContext) bool { return e.l.Eval(ctx) || e.r.Eval(ctx) }

type andExpr struct{ l, r Expr }

func (e andExpr) Eval(ctx EvalContext) bool { return e.l.Eval(ctx) && e.r.Eval(ctx) }

type notExpr struct{ e Expr }

func (e notExpr) Eval(ctx EvalContext) bool { return !e.e.Eval(ctx) }

// predicateExpr evaluates one of the built-in predicates named in §4.9:
// addon, service, releasegroup, resolution, filename (regex), hash,
// seadex(), uncached(streams).
type predicateExpr struct {
	name string
	args []string
}

func (e predicateExpr) Eval(ctx EvalContext) bool {
	s := ctx.Stream
	if s == nil {
		return false
	}
	switch e.name {
	case "addon":
		return len(e.args) > 0 && s.AddonInstanceID == e.args[0]
	case "service":
		return s.Service != nil && len(e.args) > 0 && s.Service.ID == e.args[0]
	case "releasegroup":
		return s.ParsedFile != nil && len(e.args) > 0 && strings.EqualFold(s.ParsedFile.ReleaseGroup, e.args[0])
	case "resolution":
		return s.ParsedFile != nil && len(e.args) > 0 && strings.EqualFold(s.ParsedFile.Resolution, e.args[0])
	case "filename":
		if len(e.args) == 0 {
			return false
		}
		re, err := regexp.Compile(e.args[0])
		if err != nil {
			return false
		}
		return re.MatchString(s.Filename)
	case "hash":
		return len(e.args) > 0 && strings.EqualFold(s.InfoHash, e.args[0])
	case "seadex":
		if s.InfoHash == "" {
			return false
		}
		if ctx.SeadexBest != nil {
			if _, ok := ctx.SeadexBest[s.InfoHash]; ok {
				return true
			}
		}
		if ctx.SeadexAll != nil {
			_, ok := ctx.SeadexAll[s.InfoHash]
			return ok
		}
		return false
	case "uncached":
		return s.Service == nil || !s.Service.Cached
	case "cached":
		return s.Service != nil && s.Service.Cached
	case "library":
		return s.Service != nil && s.Service.Library
	case "seeders":
		if len(e.args) == 0 {
			return false
		}
		n, err := strconv.Atoi(e.args[0])
		return err == nil && s.Seeders >= n
	default:
		return false
	}
}
