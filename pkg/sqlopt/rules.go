package sqlopt

import (
	"fmt"
	"strings"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// ruleResult reports what one rule did to the statement.
type ruleResult struct {
	applied  bool
	warnings []string
}

// rule is one independent rewrite/detector step. Rules mutate the statement
// in place; a rule that cannot rewrite safely returns a zero result.
type rule func(stmt *Statement, schema *models.SchemaDescription, rowLimit int) ruleResult

// aggregate function names recognized by the aggregation check
var aggregateFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"TOTAL": true, "GROUP_CONCAT": true, "STRING_AGG": true,
}

// volatile functions whose position in a WHERE clause is observable,
// making conjunct reordering unsafe
var volatileFuncs = map[string]bool{
	"RANDOM": true, "RANDOMBLOB": true, "CHANGES": true,
	"TOTAL_CHANGES": true, "LAST_INSERT_ROWID": true,
}

// explicitColumnsRule rewrites SELECT * to the schema's column list for the
// referenced table(s). Declines when any FROM entry is a subquery or an
// unknown table, so it never invents column names.
func explicitColumnsRule(stmt *Statement, schema *models.SchemaDescription, _ int) ruleResult {
	if stmt.IsCTE || stmt.Compound || schema.IsEmpty() {
		return ruleResult{}
	}
	if len(stmt.Select) != 1 || !stmt.Select[0].Is("*") {
		return ruleResult{}
	}

	refs := stmt.TableRefs()
	if len(refs) == 0 {
		return ruleResult{}
	}
	for _, ref := range refs {
		if ref.IsSubquery || schema.Table(ref.Name) == nil {
			return ruleResult{}
		}
	}

	qualify := len(refs) > 1
	var cols []Token
	for _, ref := range refs {
		for _, name := range schema.ColumnNames(ref.Name) {
			if len(cols) > 0 {
				cols = append(cols, symbol(","))
			}
			if qualify {
				cols = append(cols, word(ref.Alias), symbol("."), word(name))
			} else {
				cols = append(cols, word(name))
			}
		}
	}

	stmt.Select = cols
	return ruleResult{applied: true}
}

// indexHintRule warns about filter predicates on columns without an obvious
// index. Primary key columns are the only index signal the schema carries,
// so everything else filtered by a conjunct draws a warning. Never rewrites.
func indexHintRule(stmt *Statement, schema *models.SchemaDescription, _ int) ruleResult {
	if stmt.IsCTE || schema.IsEmpty() {
		return ruleResult{}
	}
	conjuncts, conjunctive := stmt.WhereConjuncts()
	if !conjunctive {
		return ruleResult{}
	}

	refs := stmt.TableRefs()
	var warnings []string
	seen := map[string]bool{}

	for _, conjunct := range conjuncts {
		for _, col := range referencedColumns(conjunct, refs, schema) {
			if col.info.IsPrimaryKey || seen[col.key()] {
				continue
			}
			seen[col.key()] = true
			warnings = append(warnings,
				fmt.Sprintf("column %s filtered without index", col.key()))
		}
	}

	return ruleResult{warnings: warnings}
}

// joinOrderRule moves single-table WHERE conjuncts ahead of multi-table
// join conjuncts. Only pure conjunctions over inner joins are touched, and
// volatile functions freeze the clause entirely.
func joinOrderRule(stmt *Statement, schema *models.SchemaDescription, _ int) ruleResult {
	if stmt.IsCTE || stmt.Compound {
		return ruleResult{}
	}
	refs := stmt.TableRefs()
	if len(refs) < 2 || stmt.HasOuterJoin() {
		return ruleResult{}
	}
	conjuncts, conjunctive := stmt.WhereConjuncts()
	if !conjunctive || len(conjuncts) < 2 {
		return ruleResult{}
	}
	for _, c := range conjuncts {
		if containsVolatileCall(c) {
			return ruleResult{}
		}
	}

	var single, multi [][]Token
	for _, c := range conjuncts {
		if conjunctTableCount(c, refs, schema) <= 1 {
			single = append(single, c)
		} else {
			multi = append(multi, c)
		}
	}
	if len(single) == 0 || len(multi) == 0 {
		return ruleResult{}
	}

	reordered := append(append([][]Token{}, single...), multi...)
	if sameOrder(conjuncts, reordered) {
		return ruleResult{}
	}

	stmt.Where = joinWithAnd(reordered)
	return ruleResult{applied: true}
}

// redundantClauseRule deduplicates ORDER BY / GROUP BY entries and strips
// parentheses wrapping the whole statement. No semantic change.
func redundantClauseRule(stmt *Statement, _ *models.SchemaDescription, _ int) ruleResult {
	applied := false

	if stmt.OuterParens > 0 {
		stmt.OuterParens = 0
		applied = true
	}
	if stmt.IsCTE {
		return ruleResult{applied: applied}
	}

	if deduped, changed := dedupeList(stmt.GroupBy); changed {
		stmt.GroupBy = deduped
		applied = true
	}
	if deduped, changed := dedupeList(stmt.OrderBy); changed {
		stmt.OrderBy = deduped
		applied = true
	}

	return ruleResult{applied: applied}
}

// limitSafetyRule appends LIMIT <cap> to plain SELECT statements without
// one. Changes result semantics, so it both applies and warns.
func limitSafetyRule(stmt *Statement, _ *models.SchemaDescription, rowLimit int) ruleResult {
	if stmt.IsCTE || stmt.Compound {
		return ruleResult{}
	}
	if len(stmt.Limit) > 0 || len(stmt.Offset) > 0 {
		return ruleResult{}
	}
	if len(stmt.GroupBy) > 0 || len(stmt.Having) > 0 || selectsAggregate(stmt.Select) {
		return ruleResult{}
	}

	stmt.Limit = []Token{{Type: TokenNumber, Text: fmt.Sprintf("%d", rowLimit), Upper: fmt.Sprintf("%d", rowLimit)}}
	return ruleResult{
		applied:  true,
		warnings: []string{fmt.Sprintf("no LIMIT clause; appended LIMIT %d", rowLimit)},
	}
}

// selectsAggregate reports whether the select list calls an aggregate
// function at paren depth 0.
func selectsAggregate(selectTokens []Token) bool {
	depth := 0
	for i, t := range selectTokens {
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
		case depth == 0 && t.Type == TokenWord && aggregateFuncs[t.Upper]:
			if i+1 < len(selectTokens) && selectTokens[i+1].Is("(") {
				return true
			}
		}
	}
	return false
}

func containsVolatileCall(tokens []Token) bool {
	for i, t := range tokens {
		if t.Type == TokenWord && volatileFuncs[t.Upper] {
			if i+1 < len(tokens) && tokens[i+1].Is("(") {
				return true
			}
		}
	}
	return false
}

// columnRef is a column mention resolved against the schema.
type columnRef struct {
	table string
	info  models.ColumnInfo
}

func (c columnRef) key() string {
	return c.table + "." + c.info.Name
}

// referencedColumns resolves column mentions in a token run: qualified
// alias.column mentions via the FROM refs, bare names via a unique match
// across the referenced tables. Function call names are skipped.
func referencedColumns(tokens []Token, refs []TableRef, schema *models.SchemaDescription) []columnRef {
	aliasToTable := map[string]string{}
	for _, ref := range refs {
		if !ref.IsSubquery {
			aliasToTable[strings.ToLower(ref.Alias)] = ref.Name
		}
	}

	var cols []columnRef
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Type != TokenWord {
			continue
		}
		// function call
		if i+1 < len(tokens) && tokens[i+1].Is("(") {
			continue
		}
		// qualified: alias.column
		if i+2 < len(tokens) && tokens[i+1].Is(".") && tokens[i+2].Type == TokenWord {
			table, ok := aliasToTable[strings.ToLower(t.Text)]
			if ok {
				if col := lookupColumn(schema, table, tokens[i+2].Text); col != nil {
					cols = append(cols, columnRef{table: table, info: *col})
				}
			}
			i += 2
			continue
		}
		// skip the column part of a qualification already handled
		if i > 0 && tokens[i-1].Is(".") {
			continue
		}
		// bare name: unique match across referenced tables
		var matches []columnRef
		for _, ref := range refs {
			if ref.IsSubquery {
				continue
			}
			if col := lookupColumn(schema, ref.Name, t.Text); col != nil {
				matches = append(matches, columnRef{table: ref.Name, info: *col})
			}
		}
		if len(matches) == 1 {
			cols = append(cols, matches[0])
		}
	}
	return cols
}

func lookupColumn(schema *models.SchemaDescription, table, column string) *models.ColumnInfo {
	t := schema.Table(table)
	if t == nil {
		return nil
	}
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, column) {
			return &t.Columns[i]
		}
	}
	return nil
}

// conjunctTableCount counts distinct tables referenced by one conjunct.
func conjunctTableCount(tokens []Token, refs []TableRef, schema *models.SchemaDescription) int {
	tables := map[string]bool{}
	for _, col := range referencedColumns(tokens, refs, schema) {
		tables[strings.ToLower(col.table)] = true
	}
	return len(tables)
}

// dedupeList removes duplicate comma-separated entries, comparing the
// normalized uppercase form of each entry.
func dedupeList(tokens []Token) ([]Token, bool) {
	if len(tokens) == 0 {
		return tokens, false
	}

	var entries [][]Token
	depth := 0
	start := 0
	for i, t := range tokens {
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
		case depth == 0 && t.Is(","):
			entries = append(entries, tokens[start:i])
			start = i + 1
		}
	}
	entries = append(entries, tokens[start:])

	seen := map[string]bool{}
	var kept [][]Token
	for _, e := range entries {
		key := normalizeEntry(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, e)
	}
	if len(kept) == len(entries) {
		return tokens, false
	}

	var out []Token
	for i, e := range kept {
		if i > 0 {
			out = append(out, symbol(","))
		}
		out = append(out, e...)
	}
	return out, true
}

func normalizeEntry(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Upper)
	}
	key := strings.Join(parts, " ")
	// ASC is the default direction; "price" and "price ASC" are the same entry
	return strings.TrimSuffix(key, " ASC")
}

func sameOrder(a, b [][]Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if normalizeEntry(a[i]) != normalizeEntry(b[i]) {
			return false
		}
	}
	return true
}
