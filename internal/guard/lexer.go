package guard

import (
	"errors"
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokQuotedIdent
	tokNumber
	tokSymbol
)

// token is one lexical unit of a statement. start/end are byte offsets into the
// source; depth is the parenthesis nesting level the token sits at.
type token struct {
	kind  tokenKind
	text  string
	value string
	start int
	end   int
	depth int
}

func (t token) isWord(upper string) bool {
	return t.kind == tokWord && t.value == upper
}

func (t token) isSymbol(s string) bool {
	return t.kind == tokSymbol && t.text == s
}

var (
	errComment   = errors.New("comments are not allowed")
	errDollar    = errors.New("dollar quoting and positional parameters are not allowed")
	errBackslash = errors.New("backslash escapes are not allowed")
)

// lex splits src into tokens. Words carry their upper-cased form in value,
// strings and quoted identifiers carry their unescaped contents.
func lex(src string) ([]token, error) {
	var (
		out   []token
		depth int
		i     int
	)
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '-' && i+1 < len(src) && src[i+1] == '-',
			c == '/' && i+1 < len(src) && src[i+1] == '*':
			return nil, errComment

		case c == '$':
			return nil, errDollar

		case c == '\\':
			return nil, errBackslash

		case c == '\'':
			val, end, err := scanQuoted(src, i, '\'')
			if err != nil {
				return nil, err
			}
			// in E'...' a backslash escapes the quote, so pairing would differ from the server's
			if strings.IndexByte(src[i:end], '\\') >= 0 {
				return nil, errBackslash
			}
			out = append(out, token{kind: tokString, text: src[i:end], value: val, start: i, end: end, depth: depth})
			i = end

		case c == '"' || c == '`':
			val, end, err := scanQuoted(src, i, c)
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokQuotedIdent, text: src[i:end], value: val, start: i, end: end, depth: depth})
			i = end

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || src[j] == '.' || src[j] == 'e' || src[j] == 'E' ||
				((src[j] == '+' || src[j] == '-') && (src[j-1] == 'e' || src[j-1] == 'E'))) {
				j++
			}
			out = append(out, token{kind: tokNumber, text: src[i:j], value: src[i:j], start: i, end: j, depth: depth})
			i = j

		case isWordStart(c):
			j := i + 1
			for j < len(src) && isWordPart(src[j]) {
				j++
			}
			out = append(out, token{kind: tokWord, text: src[i:j], value: strings.ToUpper(src[i:j]), start: i, end: j, depth: depth})
			i = j

		case c == '(':
			out = append(out, token{kind: tokSymbol, text: "(", start: i, end: i + 1, depth: depth})
			depth++
			i++

		case c == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parenthesis at offset %d", i)
			}
			out = append(out, token{kind: tokSymbol, text: ")", start: i, end: i + 1, depth: depth})
			i++

		default:
			j := i + 1
			if j < len(src) {
				switch src[i : j+1] {
				case "<=", ">=", "<>", "!=", "||", "==":
					j++
				}
			}
			out = append(out, token{kind: tokSymbol, text: src[i:j], start: i, end: j, depth: depth})
			i = j
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced parenthesis")
	}
	return out, nil
}

// scanQuoted reads a quoted run starting at src[start] == q. A doubled quote
// inside the run stands for one literal quote.
func scanQuoted(src string, start int, q byte) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		if src[i] == q {
			if i+1 < len(src) && src[i+1] == q {
				b.WriteByte(q)
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(src[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated quote starting at offset %d", start)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isWordPart(c byte) bool {
	return isWordStart(c) || isDigit(c)
}
