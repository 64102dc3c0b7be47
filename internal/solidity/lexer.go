package solidity

import (
	"fmt"
	"strings"
)

// TokenKind classifies a lexical token. Keywords are lexed as TokIdent and
// recognised by the parser from their text.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokNumber
	TokString
	TokOp
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "identifier"
	case TokNumber:
		return "number"
	case TokString:
		return "string"
	case TokOp:
		return "operator"
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexeme. Lo and Hi are byte offsets into the source, Hi
// exclusive. For strings Text holds the decoded value and Prefix holds
// "unicode" or "hex" when present.
type Token struct {
	Kind   TokenKind
	Text   string
	Prefix string
	Lo, Hi int
}

// operators sorted longest first so the lexer can match greedily.
var operators = []string{
	">>>=",
	">>>", "<<=", ">>=",
	"**", "==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "|=", "&=", "^=", "<<", ">>", "=>", "->",
	"(", ")", "{", "}", "[", "]", ";", ",", ".", "?", ":", "=",
	"+", "-", "*", "/", "%", "!", "~", "<", ">", "&", "|", "^", "@",
}

// Lex splits src into tokens, dropping whitespace and comments. The returned
// slice always ends with an EOF token.
func Lex(src string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case strings.HasPrefix(src[i:], "//"):
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				i = len(src)
			} else {
				i += j + 1
			}
		case strings.HasPrefix(src[i:], "/*"):
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return nil, &SyntaxError{Offset: i, Msg: "unterminated block comment"}
			}
			i += j + 4
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := src[i:j]
			if (word == "unicode" || word == "hex") && j < len(src) && (src[j] == '"' || src[j] == '\'') {
				val, end, err := lexString(src, j)
				if err != nil {
					return nil, err
				}
				toks = append(toks, Token{Kind: TokString, Text: val, Prefix: word, Lo: i, Hi: end})
				i = end
				continue
			}
			toks = append(toks, Token{Kind: TokIdent, Text: word, Lo: i, Hi: j})
			i = j
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := lexNumber(src, i)
			toks = append(toks, Token{Kind: TokNumber, Text: src[i:j], Lo: i, Hi: j})
			i = j
		case c == '"' || c == '\'':
			val, end, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokString, Text: val, Lo: i, Hi: end})
			i = end
		default:
			matched := ""
			for _, op := range operators {
				if strings.HasPrefix(src[i:], op) {
					matched = op
					break
				}
			}
			if matched == "" {
				return nil, &SyntaxError{Offset: i, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, Token{Kind: TokOp, Text: matched, Lo: i, Hi: i + len(matched)})
			i += len(matched)
		}
	}
	toks = append(toks, Token{Kind: TokEOF, Lo: len(src), Hi: len(src)})
	return toks, nil
}

func lexNumber(src string, i int) int {
	if strings.HasPrefix(src[i:], "0x") || strings.HasPrefix(src[i:], "0X") {
		j := i + 2
		for j < len(src) && (isHex(src[j]) || src[j] == '_') {
			j++
		}
		return j
	}
	j := i
	for j < len(src) && (isDigit(src[j]) || src[j] == '_') {
		j++
	}
	if j < len(src) && src[j] == '.' && j+1 < len(src) && isDigit(src[j+1]) {
		j++
		for j < len(src) && (isDigit(src[j]) || src[j] == '_') {
			j++
		}
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '-' || src[k] == '+') {
			k++
		}
		if k < len(src) && isDigit(src[k]) {
			for k < len(src) && (isDigit(src[k]) || src[k] == '_') {
				k++
			}
			j = k
		}
	}
	return j
}

// lexString reads a quoted literal starting at src[i] and returns its decoded
// value and the offset just past the closing quote.
func lexString(src string, i int) (string, int, error) {
	quote := src[i]
	var b strings.Builder
	j := i + 1
	for j < len(src) {
		c := src[j]
		switch {
		case c == quote:
			return b.String(), j + 1, nil
		case c == '\n':
			return "", 0, &SyntaxError{Offset: i, Msg: "newline in string literal"}
		case c == '\\' && j+1 < len(src):
			j++
			switch src[j] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\n':
			default:
				b.WriteByte('\\')
				b.WriteByte(src[j])
			}
			j++
		default:
			b.WriteByte(c)
			j++
		}
	}
	return "", 0, &SyntaxError{Offset: i, Msg: "unterminated string literal"}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
