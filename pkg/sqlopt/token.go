package sqlopt

import (
	"fmt"
	"strings"
)

// TokenType classifies a lexed SQL token.
type TokenType int

const (
	TokenWord        TokenType = iota // identifiers and keywords
	TokenNumber                       // numeric literals
	TokenString                       // '...' literals, quotes included
	TokenQuotedIdent                  // "..." identifiers, quotes included
	TokenSymbol                       // operators and punctuation
)

// Token is one lexed unit of a SQL statement. Text preserves the original
// spelling; Upper is the uppercase form used for keyword comparison.
type Token struct {
	Type  TokenType
	Text  string
	Upper string
}

func word(text string) Token {
	return Token{Type: TokenWord, Text: text, Upper: strings.ToUpper(text)}
}

func symbol(text string) Token {
	return Token{Type: TokenSymbol, Text: text, Upper: text}
}

// Is reports whether the token is a word or symbol matching the given
// uppercase form.
func (t Token) Is(upper string) bool {
	return t.Upper == upper
}

// multi-character operators, longest first
var multiCharOps = []string{"<=", ">=", "<>", "!=", "||"}

// Lex splits a SQL statement into tokens, skipping whitespace and comments.
// It fails on unterminated string literals, quoted identifiers or block
// comments; anything else lexes.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	i := 0
	n := len(input)

	for i < n {
		c := input[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '\'':
			end, err := scanQuoted(input, i, '\'')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Type: TokenString, Text: input[i:end], Upper: input[i:end]})
			i = end

		case c == '"':
			end, err := scanQuoted(input, i, '"')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Type: TokenQuotedIdent, Text: input[i:end], Upper: input[i:end]})
			i = end

		case c == '-' && i+1 < n && input[i+1] == '-':
			for i < n && input[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && input[i+1] == '*':
			end := strings.Index(input[i+2:], "*/")
			if end == -1 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i += 2 + end + 2

		case isWordStart(c):
			start := i
			for i < n && isWordChar(input[i]) {
				i++
			}
			tokens = append(tokens, word(input[start:i]))

		case c >= '0' && c <= '9':
			start := i
			for i < n && isNumberChar(input[i]) {
				i++
			}
			tokens = append(tokens, Token{Type: TokenNumber, Text: input[start:i], Upper: input[start:i]})

		default:
			matched := false
			for _, op := range multiCharOps {
				if strings.HasPrefix(input[i:], op) {
					tokens = append(tokens, symbol(op))
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				tokens = append(tokens, symbol(string(c)))
				i++
			}
		}
	}

	return tokens, nil
}

// scanQuoted consumes a quoted region starting at input[start] and returns
// the index just past the closing quote. Doubled quotes ('' or "") are
// treated as escapes.
func scanQuoted(input string, start int, quote byte) (int, error) {
	i := start + 1
	n := len(input)
	for i < n {
		if input[i] == quote {
			if i+1 < n && input[i+1] == quote {
				i += 2
				continue
			}
			return i + 1, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated quote starting at offset %d", start)
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9') || c == '$'
}

func isNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.'
}

// render reassembles tokens into SQL text with canonical spacing. Rendering
// only happens after a rule has rewritten the statement; untouched
// statements are returned verbatim by the optimizer.
func render(tokens []Token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 && needsSpace(tokens[i-1], t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// keywords that read better with a space before an opening paren
var spacedBeforeParen = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"ON": true, "IN": true, "NOT": true, "EXISTS": true, "BETWEEN": true,
	"LIKE": true, "THEN": true, "ELSE": true, "WHEN": true, "AS": true,
	"BY": true, "VALUES": true, "JOIN": true, "UNION": true, "ALL": true,
	"DISTINCT": true,
}

func needsSpace(prev, cur Token) bool {
	switch {
	case cur.Text == "," || cur.Text == ")" || cur.Text == ".":
		return false
	case prev.Text == "." || prev.Text == "(":
		return false
	case cur.Text == "(":
		// no space for function calls: COUNT(*), SUM(amount)
		return !(prev.Type == TokenWord && !spacedBeforeParen[prev.Upper])
	case cur.Text == ";":
		return false
	default:
		return true
	}
}
