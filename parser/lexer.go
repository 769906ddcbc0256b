// Package parser is a hand-written recursive-descent lexer and parser
// producing frontend/ast trees. Parser generation is out of scope; this
// package plays the role a generated parser would, kept deliberately
// small since only its output shape (an ast.File) is specified.
package parser

import (
	"fmt"
	"go/token"
	"strconv"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tInt
	tString
	tKeyword
	tSymbol
)

type lexToken struct {
	kind  tokenKind
	text  string
	ival  int64
	start token.Pos
	end   token.Pos
}

var keywords = map[string]bool{
	"val": true, "data": true, "and": true, "abstract": true, "interface": true,
	"let": true, "rec": true, "in": true, "fun": true, "if": true, "then": true,
	"else": true, "match": true, "with": true, "give": true, "to": true,
	"take": true, "from": true, "owns": true, "fail": true, "open": true,
	"forall": true, "exists": true, "duplicable": true, "exclusive": true,
	"mutable": true, "adopts": true, "true": true, "false": true, "term": true,
	"type": true, "perm": true, "dynamic": true, "unknown": true, "empty": true,
}

// lexer tokenizes src, assigning 1-based byte offsets as token.Pos the
// way go/scanner does, so ast.Range values are directly comparable
// positions within the fset the caller registered this file under.
type lexer struct {
	src    string
	pos    int
	base   token.Pos
	tokens []lexToken
}

func lex(base token.Pos, src string) ([]lexToken, error) {
	l := &lexer{src: src, base: base}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.kind == tEOF {
			break
		}
	}
	return l.tokens, nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '\''
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (l *lexer) next() (lexToken, error) {
	l.skipTrivia()
	start := l.base + token.Pos(l.pos)
	if l.pos >= len(l.src) {
		return lexToken{kind: tEOF, start: start, end: start}, nil
	}
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		begin := l.pos
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[begin:l.pos]
		end := l.base + token.Pos(l.pos)
		if keywords[text] {
			return lexToken{kind: tKeyword, text: text, start: start, end: end}, nil
		}
		return lexToken{kind: tIdent, text: text, start: start, end: end}, nil

	case isDigit(c):
		begin := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[begin:l.pos]
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return lexToken{}, fmt.Errorf("invalid integer literal %q: %w", text, err)
		}
		return lexToken{kind: tInt, text: text, ival: v, start: start, end: l.base + token.Pos(l.pos)}, nil

	case c == '"':
		begin := l.pos
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] != '"' {
			if l.src[l.pos] == '\\' {
				l.pos++
			}
			l.pos++
		}
		if l.pos >= len(l.src) {
			return lexToken{}, fmt.Errorf("unterminated string literal")
		}
		text := l.src[begin+1 : l.pos]
		l.pos++
		return lexToken{kind: tString, text: text, start: start, end: l.base + token.Pos(l.pos)}, nil

	default:
		for _, sym := range multiCharSymbols {
			if hasPrefixAt(l.src, l.pos, sym) {
				l.pos += len(sym)
				return lexToken{kind: tSymbol, text: sym, start: start, end: l.base + token.Pos(l.pos)}, nil
			}
		}
		l.pos++
		return lexToken{kind: tSymbol, text: string(c), start: start, end: l.base + token.Pos(l.pos)}, nil
	}
}

// multiCharSymbols must be checked longest-first so "->" isn't lexed as
// "-" followed by ">".
var multiCharSymbols = []string{"->", "<-", "=>", "::"}

func hasPrefixAt(s string, pos int, prefix string) bool {
	return pos+len(prefix) <= len(s) && s[pos:pos+len(prefix)] == prefix
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}
