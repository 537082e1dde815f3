package synth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dbask/dbask/core"
)

type tokenKind int

const (
	tokWord   tokenKind = iota // keyword or bare identifier
	tokQuoted                  // quoted identifier
	tokString
	tokNumber
	tokSymbol
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// is reports whether t is the bare keyword kw.
func (t token) is(kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

func (t token) isSymbol(s string) bool {
	return t.kind == tokSymbol && t.text == s
}

func (t token) isIdent() bool {
	return t.kind == tokWord || t.kind == tokQuoted
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of statement"
	}
	return fmt.Sprintf("%q at offset %d", t.text, t.pos)
}

var errComment = errors.New("comments are not allowed")

// lex splits sql into tokens using the quoting rules of the dialect. The
// returned slice always ends with a tokEOF token.
func lex(sql string, dialect core.Dialect) ([]token, error) {
	var toks []token
	pos := 0

	for pos < len(sql) {
		tok, next, err := lexOne(sql, pos, dialect)
		if err != nil {
			return nil, err
		}
		if tok != nil {
			toks = append(toks, *tok)
		}
		pos = next
	}

	return append(toks, token{kind: tokEOF, pos: len(sql)}), nil
}

// lexOne reads the token at pos and returns the position after it. Whitespace
// yields no token.
func lexOne(sql string, pos int, dialect core.Dialect) (*token, int, error) {
	r, size := utf8.DecodeRuneInString(sql[pos:])

	switch {
	case unicode.IsSpace(r):
		return nil, pos + size, nil
	case strings.HasPrefix(sql[pos:], "--"), strings.HasPrefix(sql[pos:], "/*"), r == '#':
		return nil, 0, errComment
	case dialect.IsStringQuote(r):
		text, next, err := readQuoted(sql, pos, r, dialect.BackslashEscapes())
		if err != nil {
			return nil, 0, err
		}
		return &token{kind: tokString, text: text, pos: pos}, next, nil
	case isIdentStart(r):
		word, next := readBareword(sql, pos)
		// N'...' is a national character literal
		if strings.EqualFold(word, "n") && next < len(sql) && sql[next] == '\'' {
			text, after, err := readQuoted(sql, next, '\'', dialect.BackslashEscapes())
			if err != nil {
				return nil, 0, err
			}
			return &token{kind: tokString, text: text, pos: pos}, after, nil
		}
		return &token{kind: tokWord, text: word, pos: pos}, next, nil
	case r >= '0' && r <= '9':
		num, next := readNumber(sql, pos)
		return &token{kind: tokNumber, text: num, pos: pos}, next, nil
	}

	if closing, ok := dialect.IdentifierQuote(r); ok {
		text, next, err := readQuoted(sql, pos, closing, false)
		if err != nil {
			return nil, 0, err
		}
		if text == "" {
			return nil, 0, fmt.Errorf("empty quoted identifier at offset %d", pos)
		}
		return &token{kind: tokQuoted, text: text, pos: pos}, next, nil
	}

	for _, sym := range []string{"<=", ">=", "<>", "!="} {
		if strings.HasPrefix(sql[pos:], sym) {
			return &token{kind: tokSymbol, text: sym, pos: pos}, pos + len(sym), nil
		}
	}
	if strings.ContainsRune("(),.*=<>;-", r) {
		return &token{kind: tokSymbol, text: string(r), pos: pos}, pos + size, nil
	}

	return nil, 0, fmt.Errorf("unexpected character %q at offset %d", r, pos)
}

// readQuoted reads from the opening quote at pos up to the closing quote.
// A doubled closing quote stands for itself.
func readQuoted(sql string, pos int, closing rune, backslash bool) (string, int, error) {
	start := pos
	_, size := utf8.DecodeRuneInString(sql[pos:])
	pos += size

	var b strings.Builder
	for pos < len(sql) {
		r, size := utf8.DecodeRuneInString(sql[pos:])
		pos += size

		if backslash && r == '\\' && pos < len(sql) {
			next, nsize := utf8.DecodeRuneInString(sql[pos:])
			b.WriteRune(next)
			pos += nsize
			continue
		}

		if r == closing {
			if next, nsize := utf8.DecodeRuneInString(sql[pos:]); pos < len(sql) && next == closing {
				b.WriteRune(closing)
				pos += nsize
				continue
			}
			return b.String(), pos, nil
		}

		b.WriteRune(r)
	}

	return "", 0, fmt.Errorf("unterminated quote starting at offset %d", start)
}

func readBareword(sql string, pos int) (string, int) {
	start := pos
	for pos < len(sql) {
		r, size := utf8.DecodeRuneInString(sql[pos:])
		if !isIdentChar(r) {
			break
		}
		pos += size
	}
	return sql[start:pos], pos
}

func readNumber(sql string, pos int) (string, int) {
	start := pos
	seenDot := false
	for pos < len(sql) {
		c := sql[pos]
		if c == '.' && !seenDot && pos+1 < len(sql) && sql[pos+1] >= '0' && sql[pos+1] <= '9' {
			seenDot = true
			pos++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		pos++
	}
	return sql[start:pos], pos
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '$'
}
