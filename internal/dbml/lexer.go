// Package dbml reads DBML text into the schema model.
//
// It understands the subset of DBML needed to describe tables, fields, indexes, notes and
// references. Project, Enum, TableGroup and other top-level blocks are skipped.
package dbml

import (
	"fmt"
	"strings"

	"github.com/tordrt/erdschema/internal/errors"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tNewline
	tIdent
	tString
	tQuoted
	tExpr
	tNumber
	tPunct
)

type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
	line  int
}

type lexer struct {
	src    string
	pos    int
	line   int
	tokens []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src, line: 1}
	if err := l.run(); err != nil {
		return nil, err
	}
	l.tokens = append(l.tokens, token{kind: tEOF, start: len(src), end: len(src), line: l.line})
	return l.tokens, nil
}

func (l *lexer) emit(kind tokenKind, text string, start int) {
	l.tokens = append(l.tokens, token{kind: kind, text: text, start: start, end: l.pos, line: l.line})
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrTypeInput, "dbml:%d: %s", l.line, fmt.Sprintf(format, args...))
}

func (l *lexer) run() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		start := l.pos

		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '\n':
			l.pos++
			l.emit(tNewline, "\n", start)
			l.line++
		case strings.HasPrefix(l.src[l.pos:], "//"):
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorf("unterminated comment")
			}
			body := l.src[l.pos : l.pos+2+end+2]
			l.pos += len(body)
			if n := strings.Count(body, "\n"); n > 0 {
				l.emit(tNewline, "\n", start)
				l.line += n
			}
		case strings.HasPrefix(l.src[l.pos:], "'''"):
			end := strings.Index(l.src[l.pos+3:], "'''")
			if end < 0 {
				return l.errorf("unterminated multi-line string")
			}
			body := l.src[l.pos+3 : l.pos+3+end]
			l.pos += 3 + end + 3
			l.emit(tString, strings.TrimSpace(body), start)
			l.line += strings.Count(body, "\n")
		case c == '\'':
			text, err := l.readQuoted('\'')
			if err != nil {
				return err
			}
			l.emit(tString, text, start)
		case c == '"':
			text, err := l.readQuoted('"')
			if err != nil {
				return err
			}
			l.emit(tQuoted, text, start)
		case c == '`':
			end := strings.IndexByte(l.src[l.pos+1:], '`')
			if end < 0 {
				return l.errorf("unterminated expression")
			}
			text := l.src[l.pos+1 : l.pos+1+end]
			l.pos += end + 2
			l.emit(tExpr, text, start)
		case isDigit(c):
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
			if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
				l.pos++
				for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
					l.pos++
				}
			}
			l.emit(tNumber, l.src[start:l.pos], start)
		case isIdentStart(c) || c == '#':
			l.pos++
			for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
				l.pos++
			}
			l.emit(tIdent, l.src[start:l.pos], start)
		case c == '<' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
			l.pos += 2
			l.emit(tPunct, "<>", start)
		case strings.IndexByte("{}[]():,.<>-~*", c) >= 0:
			l.pos++
			l.emit(tPunct, string(c), start)
		default:
			return l.errorf("unexpected character %q", c)
		}
	}
	return nil
}

// readQuoted reads a quoted string starting at the opening quote, resolving escapes
func (l *lexer) readQuoted(quote byte) (string, error) {
	var b strings.Builder
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.src):
			next := l.src[l.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(next)
			}
			l.pos += 2
		case c == quote:
			l.pos++
			return b.String(), nil
		case c == '\n':
			return "", l.errorf("unterminated string")
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", l.errorf("unterminated string")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
