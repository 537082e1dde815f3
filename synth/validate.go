package synth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dbask/dbask/core"
)

// Rule names the grammar policy rule a candidate broke.
type Rule string

const (
	RuleEmpty             Rule = "empty"
	RuleGrammar           Rule = "grammar"
	RuleForbiddenKeyword  Rule = "forbidden_keyword"
	RuleSingleSelect      Rule = "single_select"
	RuleUnknownIdentifier Rule = "unknown_identifier"
	RuleSum               Rule = "sum"
	RuleCount             Rule = "count"
	RuleRowLimit          Rule = "row_limit"
)

// ValidationError is returned for a rejected candidate. It matches
// core.ErrInvalidSQL with errors.Is.
type ValidationError struct {
	Rule   Rule
	Reason string
	SQL    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", core.ErrInvalidSQL, e.Rule, e.Reason)
}

func (e *ValidationError) Unwrap() error { return core.ErrInvalidSQL }

func reject(rule Rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// ValidatedSQL is a query that passed Validate. The zero value is not a valid query.
type ValidatedSQL struct {
	sql     string
	dialect core.Dialect
}

func (v ValidatedSQL) String() string { return v.sql }

func (v ValidatedSQL) Dialect() core.Dialect { return v.dialect }

// IsZero reports whether v was not produced by Validate.
func (v ValidatedSQL) IsZero() bool { return v.sql == "" }

// Policy is what a candidate is checked against.
type Policy struct {
	Table   string
	Schema  core.Schema
	Dialect core.Dialect
	Intent  Intent
}

// forbiddenKeywords may not appear as bare words anywhere in a candidate.
var forbiddenKeywords = map[string]bool{
	"GROUP": true, "HAVING": true, "JOIN": true, "UNION": true, "INTERSECT": true, "EXCEPT": true,
	"INSERT": true, "UPDATE": true, "DELETE": true, "ALL": true, "INTO": true,
	"DROP": true, "CREATE": true, "ALTER": true, "TRUNCATE": true, "MERGE": true, "REPLACE": true,
	"GRANT": true, "REVOKE": true, "EXEC": true, "EXECUTE": true, "CALL": true, "PRAGMA": true,
	"ATTACH": true, "DETACH": true, "WITH": true,
}

// reserved words cannot be used as implicit aliases.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true, "NOT": true,
	"ORDER": true, "BY": true, "ASC": true, "DESC": true, "LIMIT": true, "TOP": true,
	"DISTINCT": true, "AS": true, "IN": true, "IS": true, "NULL": true, "LIKE": true,
	"BETWEEN": true, "OFFSET": true, "COUNT": true, "SUM": true,
}

var numericType = regexp.MustCompile(`(?i)^(unsigned\s+)?((tiny|small|medium|big)?int(eger)?\d*|numeric|decimal|dec|real|float\d*|double( precision)?|money|smallmoney|number|(big|small)?serial\d*)\b`)

// IsNumericType reports whether a catalog data type holds numbers.
func IsNumericType(typ string) bool {
	return numericType.MatchString(strings.TrimSpace(typ))
}

// Validate checks a candidate against the grammar policy and returns it as a
// ValidatedSQL. A trailing semicolon is dropped.
func Validate(candidate string, policy Policy) (ValidatedSQL, error) {
	sql := strings.TrimSpace(candidate)
	sql = strings.TrimSpace(strings.TrimSuffix(sql, ";"))

	v, err := validate(sql, policy)
	if err != nil {
		err.SQL = candidate
		return ValidatedSQL{}, err
	}
	return v, nil
}

func validate(sql string, policy Policy) (ValidatedSQL, *ValidationError) {
	if !policy.Dialect.Valid() {
		return ValidatedSQL{}, reject(RuleGrammar, "unsupported dialect %q", policy.Dialect)
	}
	if sql == "" {
		return ValidatedSQL{}, reject(RuleEmpty, "no query")
	}

	toks, err := lex(sql, policy.Dialect)
	if err != nil {
		return ValidatedSQL{}, reject(RuleGrammar, "%s", err)
	}

	selects := 0
	for _, t := range toks {
		if t.kind != tokWord {
			continue
		}
		upper := strings.ToUpper(t.text)
		if forbiddenKeywords[upper] {
			return ValidatedSQL{}, reject(RuleForbiddenKeyword, "%s is not allowed", upper)
		}
		if upper == "SELECT" {
			selects++
		}
	}
	if selects != 1 {
		return ValidatedSQL{}, reject(RuleSingleSelect, "expected exactly one SELECT, found %d", selects)
	}

	p := newParser(toks, policy)
	if err := p.parseStatement(); err != nil {
		return ValidatedSQL{}, err
	}
	if err := p.checkUsage(); err != nil {
		return ValidatedSQL{}, err
	}

	return ValidatedSQL{sql: sql, dialect: policy.Dialect}, nil
}

// parser is a recursive descent parser for the accepted SELECT subset. It
// records what the statement uses so the intent rules can be checked after.
type parser struct {
	toks   []token
	pos    int
	policy Policy

	columns map[string]core.Column
	aliases map[string]bool

	sums   []core.Column
	counts int
	top    bool
	limit  bool
}

func newParser(toks []token, policy Policy) *parser {
	columns := make(map[string]core.Column, len(policy.Schema))
	for _, c := range policy.Schema {
		columns[strings.ToLower(c.Name)] = c
	}

	return &parser{
		toks:    toks,
		policy:  policy,
		columns: columns,
		aliases: make(map[string]bool),
	}
}

func (p *parser) peek() token { return p.toks[p.pos] }

// peekAt looks n tokens ahead, stopping at the end of the statement.
func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// accept consumes the keyword kw if it is next.
func (p *parser) accept(kw string) bool {
	if p.peek().is(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptSymbol(s string) bool {
	if p.peek().isSymbol(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kw string) *ValidationError {
	if !p.accept(kw) {
		return reject(RuleGrammar, "expected %s, got %s", kw, p.peek())
	}
	return nil
}

func (p *parser) expectSymbol(s string) *ValidationError {
	if !p.acceptSymbol(s) {
		return reject(RuleGrammar, "expected %q, got %s", s, p.peek())
	}
	return nil
}

// statement := SELECT [DISTINCT] [TOP n] items FROM table [WHERE conds] [ORDER BY order] [LIMIT n]
func (p *parser) parseStatement() *ValidationError {
	if err := p.expect("SELECT"); err != nil {
		return err
	}
	p.accept("DISTINCT")

	if p.accept("TOP") {
		p.top = true
		parens := p.acceptSymbol("(")
		if err := p.parseCount("TOP"); err != nil {
			return err
		}
		if parens {
			if err := p.expectSymbol(")"); err != nil {
				return err
			}
		}
	}

	if err := p.parseItems(); err != nil {
		return err
	}

	if err := p.expect("FROM"); err != nil {
		return err
	}
	if err := p.parseTable(); err != nil {
		return err
	}

	if p.accept("WHERE") {
		if err := p.parseConditions(); err != nil {
			return err
		}
	}

	if p.accept("ORDER") {
		if err := p.expect("BY"); err != nil {
			return err
		}
		if err := p.parseOrder(); err != nil {
			return err
		}
	}

	if p.accept("LIMIT") {
		p.limit = true
		if err := p.parseCount("LIMIT"); err != nil {
			return err
		}
	}

	if t := p.peek(); t.kind != tokEOF {
		return reject(RuleGrammar, "unexpected %s", t)
	}

	return nil
}

// parseCount reads the positive row count of TOP or LIMIT.
func (p *parser) parseCount(clause string) *ValidationError {
	t := p.next()
	if t.kind != tokNumber {
		return reject(RuleGrammar, "%s needs a row count, got %s", clause, t)
	}
	n, err := strconv.ParseUint(t.text, 10, 64)
	if err != nil || n == 0 {
		return reject(RuleGrammar, "%s row count must be a positive integer, got %s", clause, t)
	}
	return nil
}

func (p *parser) parseItems() *ValidationError {
	if p.acceptSymbol("*") {
		return nil
	}

	for {
		if err := p.parseItem(); err != nil {
			return err
		}
		if !p.acceptSymbol(",") {
			return nil
		}
	}
}

// item := (COUNT(...) | SUM(...) | column) [[AS] alias]
func (p *parser) parseItem() *ValidationError {
	t := p.peek()
	isCall := p.peekAt(1).isSymbol("(")

	switch {
	case t.is("COUNT") && isCall:
		p.pos += 2
		if err := p.parseCountArg(); err != nil {
			return err
		}
	case t.is("SUM") && isCall:
		p.pos += 2
		p.accept("DISTINCT")
		col, err := p.parseColumn()
		if err != nil {
			return err
		}
		p.sums = append(p.sums, col)
		if err := p.expectSymbol(")"); err != nil {
			return err
		}
	case isCall:
		return reject(RuleGrammar, "function %s is not allowed", t)
	default:
		if _, err := p.parseColumn(); err != nil {
			return err
		}
	}

	return p.parseAlias()
}

func (p *parser) parseCountArg() *ValidationError {
	p.counts++

	if !p.acceptSymbol("*") {
		p.accept("DISTINCT")
		if _, err := p.parseColumn(); err != nil {
			return err
		}
	}
	return p.expectSymbol(")")
}

func (p *parser) parseAlias() *ValidationError {
	explicit := p.accept("AS")

	t := p.peek()
	switch {
	case t.kind == tokQuoted, t.kind == tokWord && !reserved[strings.ToUpper(t.text)]:
		p.pos++
		p.aliases[strings.ToLower(t.text)] = true
		return nil
	case t.kind == tokString && explicit:
		// AS 'label' is accepted by every supported dialect
		p.pos++
		p.aliases[strings.ToLower(t.text)] = true
		return nil
	case explicit:
		return reject(RuleGrammar, "expected alias after AS, got %s", t)
	}
	return nil
}

// parseName reads an optionally qualified identifier.
func (p *parser) parseName() ([]token, *ValidationError) {
	t := p.next()
	if !t.isIdent() {
		return nil, reject(RuleGrammar, "expected identifier, got %s", t)
	}
	parts := []token{t}

	for p.acceptSymbol(".") {
		t = p.next()
		if !t.isIdent() {
			return nil, reject(RuleGrammar, "expected identifier after \".\", got %s", t)
		}
		parts = append(parts, t)
	}

	return parts, nil
}

func joinName(parts []token) string {
	texts := make([]string, len(parts))
	for i, t := range parts {
		texts[i] = t.text
	}
	return strings.Join(texts, ".")
}

func (p *parser) parseTable() *ValidationError {
	parts, err := p.parseName()
	if err != nil {
		return err
	}

	if got := joinName(parts); !strings.EqualFold(got, p.policy.Table) {
		return reject(RuleUnknownIdentifier, "table %q is not %q", got, p.policy.Table)
	}
	return nil
}

// parseColumn reads a known column, optionally qualified with the table name.
func (p *parser) parseColumn() (core.Column, *ValidationError) {
	parts, err := p.parseName()
	if err != nil {
		return core.Column{}, err
	}

	last := parts[len(parts)-1]
	if len(parts) > 1 {
		qualifier := joinName(parts[:len(parts)-1])
		if !p.isTableQualifier(qualifier) {
			return core.Column{}, reject(RuleUnknownIdentifier, "qualifier %q is not table %q", qualifier, p.policy.Table)
		}
	}

	col, ok := p.columns[strings.ToLower(last.text)]
	// PostgreSQL keeps the case of quoted identifiers
	if ok && last.kind == tokQuoted && p.policy.Dialect == core.DialectPostgreSQL {
		ok = col.Name == last.text
	}
	if !ok {
		return core.Column{}, reject(RuleUnknownIdentifier, "column %q is not in table %q", last.text, p.policy.Table)
	}
	return col, nil
}

func (p *parser) isTableQualifier(q string) bool {
	if strings.EqualFold(q, p.policy.Table) {
		return true
	}
	// "daily.kwh" for table "public.daily"
	i := strings.LastIndex(p.policy.Table, ".")
	return i >= 0 && strings.EqualFold(q, p.policy.Table[i+1:])
}

func (p *parser) parseConditions() *ValidationError {
	for {
		if err := p.parseCondition(); err != nil {
			return err
		}
		if p.peek().is("OR") {
			return reject(RuleGrammar, "conditions may only be joined with AND")
		}
		if !p.accept("AND") {
			return nil
		}
	}
}

// cond := "(" cond ")" | operand predicate
func (p *parser) parseCondition() *ValidationError {
	if p.acceptSymbol("(") {
		if err := p.parseCondition(); err != nil {
			return err
		}
		return p.expectSymbol(")")
	}

	if err := p.parseOperand(); err != nil {
		return err
	}

	negated := p.accept("NOT")

	t := p.next()
	switch {
	case t.kind == tokSymbol && isComparison(t.text) && !negated:
		return p.parseOperand()
	case t.is("LIKE"):
		return p.parseLiteral()
	case t.is("IN"):
		return p.parseInList()
	case t.is("BETWEEN"):
		if err := p.parseOperand(); err != nil {
			return err
		}
		if err := p.expect("AND"); err != nil {
			return err
		}
		return p.parseOperand()
	case t.is("IS") && !negated:
		p.accept("NOT")
		return p.expect("NULL")
	}

	return reject(RuleGrammar, "expected a comparison, got %s", t)
}

func isComparison(s string) bool {
	switch s {
	case "=", "!=", "<>", "<", ">", "<=", ">=":
		return true
	}
	return false
}

// operand := column | literal
func (p *parser) parseOperand() *ValidationError {
	if p.peek().isIdent() && !isLiteralWord(p.peek()) {
		_, err := p.parseColumn()
		return err
	}
	return p.parseLiteral()
}

func isLiteralWord(t token) bool {
	return t.is("NULL") || t.is("TRUE") || t.is("FALSE")
}

func (p *parser) parseLiteral() *ValidationError {
	t := p.next()

	switch {
	case t.kind == tokString, t.kind == tokNumber, isLiteralWord(t):
		return nil
	case t.isSymbol("-"):
		if n := p.next(); n.kind != tokNumber {
			return reject(RuleGrammar, "expected a number after \"-\", got %s", n)
		}
		return nil
	}

	return reject(RuleGrammar, "expected a literal, got %s", t)
}

func (p *parser) parseInList() *ValidationError {
	if err := p.expectSymbol("("); err != nil {
		return err
	}
	for {
		if err := p.parseLiteral(); err != nil {
			return err
		}
		if !p.acceptSymbol(",") {
			break
		}
	}
	return p.expectSymbol(")")
}

// order := (column | alias) [ASC | DESC] ("," ...)*
func (p *parser) parseOrder() *ValidationError {
	for {
		t := p.peek()
		switch {
		case t.isIdent() && p.aliases[strings.ToLower(t.text)] && !p.peekAt(1).isSymbol("."):
			p.pos++
		default:
			if _, err := p.parseColumn(); err != nil {
				return err
			}
		}

		if !p.accept("ASC") {
			p.accept("DESC")
		}

		if !p.acceptSymbol(",") {
			return nil
		}
	}
}

// checkUsage applies the rules that depend on column types and question intent.
func (p *parser) checkUsage() *ValidationError {
	for _, col := range p.sums {
		if !IsNumericType(col.Type) {
			return reject(RuleSum, "SUM over column %q of non numeric type %q", col.Name, col.Type)
		}
	}
	if len(p.sums) > 0 && !p.policy.Intent.Sum {
		return reject(RuleSum, "SUM used but the question does not ask for a total")
	}

	if p.counts > 0 && !p.policy.Intent.Count {
		return reject(RuleCount, "COUNT used but the question does not ask for a count")
	}

	if p.top && p.limit {
		return reject(RuleRowLimit, "TOP and LIMIT used together")
	}
	if p.top || p.limit {
		used := "LIMIT"
		if p.top {
			used = "TOP"
		}
		if want := p.policy.Dialect.RowLimit().Keyword(); used != want {
			return reject(RuleRowLimit, "%s is not available in %s, use %s", used, p.policy.Dialect, want)
		}
		if !p.policy.Intent.TopN {
			return reject(RuleRowLimit, "%s used but the question does not ask for top results", used)
		}
	}

	return nil
}
