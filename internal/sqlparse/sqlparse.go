// Package sqlparse parses the subset of CREATE TABLE syntax needed to
// recover a table's primary key, column list and defaults directly from the
// SQL text stored in sqlite_master, without a general SQL parser.
package sqlparse

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidSQL is returned when the outer parenthesised column list of a
// CREATE TABLE statement is missing or unbalanced.
var ErrInvalidSQL = errors.New("sqlparse: invalid CREATE TABLE syntax")

// Column is one column definition from a CREATE TABLE statement.
type Column struct {
	Name    string
	Type    string // the raw constraint/type text following the column name
	Default any    // nil, int64, float64, bool, or string
}

// Schema is the result of parsing a CREATE TABLE statement.
type Schema struct {
	PrimaryKey       string // empty if there is no single-column primary key
	Columns          []Column
	TableConstraints []string
}

// Parse extracts (primary_key, columns, table_constraints) from a CREATE
// TABLE statement per spec §4.2.
func Parse(sql string) (Schema, error) {
	body, err := outerParenList(sql)
	if err != nil {
		return Schema{}, err
	}
	items := splitTopLevel(body)

	var sch Schema
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if isTableConstraint(item) {
			sch.TableConstraints = append(sch.TableConstraints, item)
			continue
		}
		name, rest := firstToken(item)
		col := Column{Name: stripQuotes(name), Type: strings.TrimSpace(rest)}
		col.Default = parseDefault(rest)
		sch.Columns = append(sch.Columns, col)
		if containsFold(rest, "PRIMARY KEY") {
			sch.PrimaryKey = col.Name
		}
	}

	if sch.PrimaryKey == "" {
		for _, tc := range sch.TableConstraints {
			if pk := tablePrimaryKey(tc); pk != "" {
				sch.PrimaryKey = pk
				break
			}
		}
	}
	return sch, nil
}

// outerParenList returns the text between the outermost balanced
// parentheses of sql, i.e. the column-definition list of a CREATE TABLE
// statement.
func outerParenList(sql string) (string, error) {
	start := strings.IndexByte(sql, '(')
	if start < 0 {
		return "", errors.Wrap(ErrInvalidSQL, "no opening paren")
	}
	depth := 0
	inSingle, inDouble, inBacktick := false, false, false
	for i := start; i < len(sql); i++ {
		c := sql[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case inBacktick:
			if c == '`' {
				inBacktick = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '`':
			inBacktick = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return sql[start+1 : i], nil
			}
		}
	}
	return "", errors.Wrap(ErrInvalidSQL, "unbalanced parens")
}

// splitTopLevel splits body by top-level commas, respecting nested
// parentheses, quoted strings (single, double, backtick; escapes remain
// literal) and -- line comments.
func splitTopLevel(body string) []string {
	var items []string
	var cur strings.Builder
	depth := 0
	inSingle, inDouble, inBacktick, inComment := false, false, false, false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inComment {
			cur.WriteByte(c)
			if c == '\n' {
				inComment = false
			}
			continue
		}
		switch {
		case inSingle:
			cur.WriteByte(c)
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			cur.WriteByte(c)
			if c == '"' {
				inDouble = false
			}
		case inBacktick:
			cur.WriteByte(c)
			if c == '`' {
				inBacktick = false
			}
		case c == '\'':
			inSingle = true
			cur.WriteByte(c)
		case c == '"':
			inDouble = true
			cur.WriteByte(c)
		case c == '`':
			inBacktick = true
			cur.WriteByte(c)
		case c == '-' && i+1 < len(body) && body[i+1] == '-':
			inComment = true
			cur.WriteByte(c)
		case c == '(':
			depth++
			cur.WriteByte(c)
		case c == ')':
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			items = append(items, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		items = append(items, cur.String())
	}
	return items
}

var tableConstraintKeywords = []string{"CONSTRAINT", "UNIQUE", "CHECK", "FOREIGN", "PRIMARY"}

func isTableConstraint(item string) bool {
	first, _ := firstToken(item)
	for _, kw := range tableConstraintKeywords {
		if strings.EqualFold(first, kw) {
			return true
		}
	}
	return false
}

// firstToken splits item into its first whitespace-delimited token and the
// remainder.
func firstToken(item string) (token, rest string) {
	item = strings.TrimSpace(item)
	idx := strings.IndexFunc(item, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if idx < 0 {
		return item, ""
	}
	return item[:idx], strings.TrimSpace(item[idx:])
}

// tablePrimaryKey parses a table constraint known to start with PRIMARY and
// returns the single column name it names, or "" if the key is compound or
// the constraint isn't a simple column list.
func tablePrimaryKey(tc string) string {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(tc)), "PRIMARY") {
		return ""
	}
	start := strings.IndexByte(tc, '(')
	end := strings.LastIndexByte(tc, ')')
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	inner := tc[start+1 : end]
	parts := splitTopLevel(inner)
	if len(parts) != 1 {
		return ""
	}
	name := strings.TrimSpace(parts[0])
	// Strip any trailing ASC/DESC/collation the single entry might carry.
	name, _ = firstToken(name)
	return stripQuotes(name)
}

// parseDefault locates DEFAULT <expr> within a column's constraint text and
// converts <expr> to a literal value per spec §4.2.
func parseDefault(constraintText string) any {
	upper := strings.ToUpper(constraintText)
	idx := indexWord(upper, "DEFAULT")
	if idx < 0 {
		return nil
	}
	rest := strings.TrimSpace(constraintText[idx+len("DEFAULT"):])
	if rest == "" {
		return nil
	}
	expr := nextToken(rest)
	return literalFromExpr(expr)
}

// indexWord finds keyword as a standalone word (not a substring of a longer
// identifier) within s (s must already be uppercased; keyword must be
// uppercase).
func indexWord(s, keyword string) int {
	from := 0
	for {
		i := strings.Index(s[from:], keyword)
		if i < 0 {
			return -1
		}
		i += from
		before := byte(' ')
		if i > 0 {
			before = s[i-1]
		}
		after := byte(' ')
		if i+len(keyword) < len(s) {
			after = s[i+len(keyword)]
		}
		if !isIdentByte(before) && !isIdentByte(after) {
			return i
		}
		from = i + len(keyword)
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// nextToken returns the next "token" of s: a parenthesised group (balanced),
// a quoted string, or a bare word up to the next top-level comma/whitespace
// or end of string.
func nextToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch s[0] {
	case '(':
		depth := 0
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return s[:i+1]
				}
			}
		}
		return s
	case '\'', '"':
		q := s[0]
		for i := 1; i < len(s); i++ {
			if s[i] == q {
				return s[:i+1]
			}
		}
		return s
	default:
		idx := strings.IndexAny(s, " \t\n\r,)")
		if idx < 0 {
			return s
		}
		return s[:idx]
	}
}

// literalFromExpr converts a DEFAULT expression to a Go literal value,
// stripping one layer of surrounding parentheses first.
func literalFromExpr(expr string) any {
	expr = strings.TrimSpace(expr)
	if len(expr) >= 2 && expr[0] == '(' && expr[len(expr)-1] == ')' {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	if expr == "" {
		return nil
	}
	if i, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return f
	}
	switch strings.ToUpper(expr) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	if len(expr) >= 2 {
		if (expr[0] == '\'' && expr[len(expr)-1] == '\'') || (expr[0] == '"' && expr[len(expr)-1] == '"') {
			return expr[1 : len(expr)-1]
		}
	}
	return nil
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"':
			return s[1 : len(s)-1]
		case s[0] == '`' && s[len(s)-1] == '`':
			return s[1 : len(s)-1]
		case s[0] == '\'' && s[len(s)-1] == '\'':
			return s[1 : len(s)-1]
		case s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return s
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(substr))
}
