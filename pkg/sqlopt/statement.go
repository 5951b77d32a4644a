package sqlopt

import (
	"fmt"
	"strings"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
)

// TableRef is one entry of a FROM clause.
type TableRef struct {
	Name       string // table name, empty for subqueries
	Alias      string // alias if present, else Name
	IsSubquery bool
	JoinType   string // "", "JOIN", "LEFT JOIN", "CROSS JOIN", ...
}

// Statement is the clause-level decomposition of a SELECT statement.
// Rules operate on clause token slices; the surrounding text (semicolon,
// wrapping parentheses) is tracked so rendering can reproduce it.
type Statement struct {
	Select  []Token
	From    []Token
	Where   []Token
	GroupBy []Token
	Having  []Token
	OrderBy []Token
	Limit   []Token
	Offset  []Token

	// Opaque forms: rules leave these statements alone.
	IsCTE    bool // starts with WITH
	Compound bool // top-level UNION/INTERSECT/EXCEPT

	// Tail holds everything from the first compound operator onward.
	Tail []Token

	OuterParens       int  // statement fully wrapped in N redundant paren pairs
	TrailingSemicolon bool // input ended with ;

	all []Token // complete token list inside outer parens, without semicolon
}

// clause keywords that terminate the previous clause at depth 0
var clauseKeywords = map[string]bool{
	"FROM": true, "WHERE": true, "GROUP": true, "HAVING": true,
	"ORDER": true, "LIMIT": true, "OFFSET": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true,
}

// Parse decomposes a lexed statement into clauses. It fails only when the
// input is not a SELECT-family statement (SELECT or WITH, optionally
// parenthesized); malformed clause content parses into whatever clause it
// sits in and rules simply decline to touch it.
func Parse(tokens []Token) (*Statement, error) {
	stmt := &Statement{}

	// trailing semicolon
	if len(tokens) > 0 && tokens[len(tokens)-1].Is(";") {
		stmt.TrailingSemicolon = true
		tokens = tokens[:len(tokens)-1]
	}

	// fully wrapping parentheses
	for wrapped(tokens) {
		stmt.OuterParens++
		tokens = tokens[1 : len(tokens)-1]
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty statement", apperrors.ErrUnparseable)
	}

	switch tokens[0].Upper {
	case "WITH":
		stmt.IsCTE = true
		stmt.all = tokens
		return stmt, nil
	case "SELECT":
		// fall through to clause split
	default:
		return nil, fmt.Errorf("%w: statement starts with %q", apperrors.ErrUnparseable, tokens[0].Text)
	}

	stmt.all = tokens
	splitClauses(stmt, tokens)
	return stmt, nil
}

// wrapped reports whether tokens form "( ... )" with the parens matching
// each other.
func wrapped(tokens []Token) bool {
	if len(tokens) < 2 || !tokens[0].Is("(") || !tokens[len(tokens)-1].Is(")") {
		return false
	}
	depth := 0
	for i, t := range tokens {
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 && i != len(tokens)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func splitClauses(stmt *Statement, tokens []Token) {
	current := "SELECT"
	start := 1 // skip the SELECT keyword itself
	depth := 0

	flush := func(end int) {
		seg := tokens[start:end]
		switch current {
		case "SELECT":
			stmt.Select = seg
		case "FROM":
			stmt.From = seg
		case "WHERE":
			stmt.Where = seg
		case "GROUP":
			stmt.GroupBy = seg
		case "HAVING":
			stmt.Having = seg
		case "ORDER":
			stmt.OrderBy = seg
		case "LIMIT":
			stmt.Limit = seg
		case "OFFSET":
			stmt.Offset = seg
		}
	}

	for i := 1; i < len(tokens); i++ {
		t := tokens[i]
		switch t.Text {
		case "(":
			depth++
			continue
		case ")":
			depth--
			continue
		}
		if depth != 0 || t.Type != TokenWord || !clauseKeywords[t.Upper] {
			continue
		}

		if t.Upper == "UNION" || t.Upper == "INTERSECT" || t.Upper == "EXCEPT" {
			flush(i)
			stmt.Compound = true
			stmt.Tail = tokens[i:]
			return
		}

		flush(i)
		current = t.Upper
		start = i + 1
		// GROUP BY / ORDER BY: skip the BY keyword
		if (t.Upper == "GROUP" || t.Upper == "ORDER") &&
			start < len(tokens) && tokens[start].Is("BY") {
			start++
		}
	}
	flush(len(tokens))
}

// Render reassembles the statement. Used only after a rule has modified a
// clause.
func (s *Statement) Render() string {
	var b strings.Builder

	for i := 0; i < s.OuterParens; i++ {
		b.WriteByte('(')
	}

	if s.IsCTE {
		b.WriteString(render(s.all))
	} else {
		b.WriteString("SELECT ")
		b.WriteString(render(s.Select))
		writeClause(&b, "FROM", s.From)
		writeClause(&b, "WHERE", s.Where)
		writeClause(&b, "GROUP BY", s.GroupBy)
		writeClause(&b, "HAVING", s.Having)
		writeClause(&b, "ORDER BY", s.OrderBy)
		writeClause(&b, "LIMIT", s.Limit)
		writeClause(&b, "OFFSET", s.Offset)
		if s.Compound {
			b.WriteByte(' ')
			b.WriteString(render(s.Tail))
		}
	}

	for i := 0; i < s.OuterParens; i++ {
		b.WriteByte(')')
	}
	if s.TrailingSemicolon {
		b.WriteByte(';')
	}
	return b.String()
}

func writeClause(b *strings.Builder, keyword string, tokens []Token) {
	if len(tokens) == 0 {
		return
	}
	b.WriteByte(' ')
	b.WriteString(keyword)
	b.WriteByte(' ')
	b.WriteString(render(tokens))
}

// join type modifier words that may precede JOIN
var joinModifiers = map[string]bool{
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"OUTER": true, "CROSS": true, "NATURAL": true,
}

// TableRefs parses the FROM clause into table references. Subqueries come
// back with IsSubquery set and no name.
func (s *Statement) TableRefs() []TableRef {
	var refs []TableRef
	tokens := s.From
	depth := 0
	i := 0

	joinType := ""
	for i < len(tokens) {
		t := tokens[i]

		if t.Is("(") {
			// subquery or parenthesized join; skip to matching paren
			level := 0
			j := i
			for ; j < len(tokens); j++ {
				if tokens[j].Is("(") {
					level++
				} else if tokens[j].Is(")") {
					level--
					if level == 0 {
						break
					}
				}
			}
			ref := TableRef{IsSubquery: true, JoinType: joinType}
			i = j + 1
			// optional alias
			if i < len(tokens) && tokens[i].Is("AS") {
				i++
			}
			if i < len(tokens) && tokens[i].Type == TokenWord && !reservedFromWord(tokens[i].Upper) {
				ref.Alias = tokens[i].Text
				i++
			}
			refs = append(refs, ref)
			joinType = ""
			continue
		}

		if depth == 0 && t.Type == TokenWord {
			switch {
			case t.Upper == "JOIN":
				joinType = strings.TrimSpace(joinType + " JOIN")
				i++
				continue
			case joinModifiers[t.Upper]:
				if joinType == "" {
					joinType = t.Upper
				} else {
					joinType += " " + t.Upper
				}
				i++
				continue
			case t.Upper == "ON":
				// skip the join condition
				for i < len(tokens) {
					tt := tokens[i]
					if tt.Is("(") {
						depth++
					} else if tt.Is(")") {
						depth--
					}
					if depth == 0 && tt.Type == TokenWord &&
						(tt.Upper == "JOIN" || joinModifiers[tt.Upper]) {
						break
					}
					if depth == 0 && tt.Is(",") {
						break
					}
					i++
				}
				continue
			case t.Upper == "USING":
				i++
				continue
			}

			// table name [AS] [alias]
			ref := TableRef{Name: t.Text, Alias: t.Text, JoinType: joinType}
			joinType = ""
			i++
			if i < len(tokens) && tokens[i].Is("AS") {
				i++
			}
			if i < len(tokens) && tokens[i].Type == TokenWord && !reservedFromWord(tokens[i].Upper) {
				ref.Alias = tokens[i].Text
				i++
			}
			refs = append(refs, ref)
			continue
		}

		if t.Is(",") {
			joinType = ""
		}
		i++
	}

	return refs
}

// words that cannot be a table alias in a FROM clause
func reservedFromWord(upper string) bool {
	return upper == "ON" || upper == "USING" || upper == "JOIN" ||
		joinModifiers[upper] || clauseKeywords[upper]
}

// HasOuterJoin reports whether the FROM clause contains LEFT/RIGHT/FULL
// OUTER joins, which make WHERE conjunct reordering unsafe to reason about.
func (s *Statement) HasOuterJoin() bool {
	for _, ref := range s.TableRefs() {
		jt := ref.JoinType
		if strings.Contains(jt, "LEFT") || strings.Contains(jt, "RIGHT") ||
			strings.Contains(jt, "FULL") || strings.Contains(jt, "OUTER") {
			return true
		}
	}
	return false
}

// WhereConjuncts splits the WHERE clause at depth-0 ANDs. The AND that
// closes a BETWEEN ... AND ... range is part of that predicate, not a
// separator. The second return is false when the clause is not a pure
// conjunction (a depth-0 OR, or a depth-0 CASE whose internal ANDs this
// splitter cannot attribute), in which case reordering or per-conjunct
// analysis is off the table.
func (s *Statement) WhereConjuncts() ([][]Token, bool) {
	if len(s.Where) == 0 {
		return nil, true
	}

	var conjuncts [][]Token
	depth := 0
	openBetweens := 0
	start := 0
	for i, t := range s.Where {
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
		case depth == 0 && t.Type == TokenWord && t.Upper == "CASE":
			return nil, false
		case depth == 0 && t.Type == TokenWord && t.Upper == "BETWEEN":
			openBetweens++
		case depth == 0 && t.Type == TokenWord && t.Upper == "OR":
			return nil, false
		case depth == 0 && t.Type == TokenWord && t.Upper == "AND":
			if openBetweens > 0 {
				openBetweens--
				continue
			}
			conjuncts = append(conjuncts, s.Where[start:i])
			start = i + 1
		}
	}
	conjuncts = append(conjuncts, s.Where[start:])
	return conjuncts, true
}

// joinWithAnd rebuilds a WHERE clause from conjuncts.
func joinWithAnd(conjuncts [][]Token) []Token {
	var out []Token
	for i, c := range conjuncts {
		if i > 0 {
			out = append(out, word("AND"))
		}
		out = append(out, c...)
	}
	return out
}
