package schema

import (
	"regexp"
	"strings"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// Best-effort structural extraction from SQL DDL. This is a statement scan,
// not a validating parser: statements that do not parse are skipped and
// counted, never fatal.

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)

	createTableRe = regexp.MustCompile(`(?is)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?["'` + "`" + `]?(\w+)["'` + "`" + `]?\s*\((.*)\)[^)]*$`)
	columnDefRe   = regexp.MustCompile(`(?i)^["'` + "`" + `]?(\w+)["'` + "`" + `]?\s+(\w+(?:\s*\(\s*\d+(?:\s*,\s*\d+)?\s*\))?)`)
	referencesRe  = regexp.MustCompile(`(?i)REFERENCES\s+["'` + "`" + `]?(\w+)["'` + "`" + `]?\s*(?:\(\s*(\w+)\s*\))?`)
	tableFKRe     = regexp.MustCompile(`(?i)^FOREIGN\s+KEY\s*\(\s*(\w+)\s*\)\s*REFERENCES\s+["'` + "`" + `]?(\w+)["'` + "`" + `]?`)
	alterFKRe     = regexp.MustCompile(`(?i)^\s*ALTER\s+TABLE\s+["'` + "`" + `]?(\w+)["'` + "`" + `]?\s+ADD\s+CONSTRAINT\s+\w+\s+FOREIGN\s+KEY\s*\(\s*(\w+)\s*\)\s*REFERENCES\s+["'` + "`" + `]?(\w+)["'` + "`" + `]?`)
)

func (n *Normalizer) normalizeSQL(content string) (*entity.SchemaDocument, error) {
	statements := splitStatements(content)

	var tables []entity.SchemaTable
	index := make(map[string]int)
	skipped := 0

	for _, stmt := range statements {
		if table, ok := parseCreateTable(stmt); ok {
			index[strings.ToLower(table.Name)] = len(tables)
			tables = append(tables, table)
			continue
		}
		if owner, rel, ok := parseAlterTableFK(stmt); ok {
			if ti, found := index[strings.ToLower(owner)]; found {
				tables[ti].Relationships = append(tables[ti].Relationships, rel)
			} else {
				skipped++
			}
			continue
		}
		skipped++
	}

	if len(tables) == 0 {
		return nil, entity.ErrEmptySchema
	}

	markResolved(tables)

	return &entity.SchemaDocument{
		Tables:            tables,
		RootPath:          "sql",
		SkippedStatements: skipped,
	}, nil
}

func splitStatements(content string) []string {
	content = blockCommentRe.ReplaceAllString(content, "")
	content = lineCommentRe.ReplaceAllString(content, "")

	var statements []string
	for _, stmt := range strings.Split(content, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

func parseCreateTable(stmt string) (entity.SchemaTable, bool) {
	m := createTableRe.FindStringSubmatch(stmt)
	if m == nil {
		return entity.SchemaTable{}, false
	}

	table := entity.SchemaTable{Name: m[1]}
	body := trimToBalanced(m[2])

	for _, def := range splitTopLevel(body) {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		upper := strings.ToUpper(def)
		switch {
		case strings.HasPrefix(upper, "FOREIGN KEY"):
			if fk := tableFKRe.FindStringSubmatch(def); fk != nil {
				table.Relationships = append(table.Relationships, entity.SchemaRelationship{
					TargetTable: fk[2],
					ViaField:    fk[1],
				})
			}
			continue
		case strings.HasPrefix(upper, "PRIMARY KEY"),
			strings.HasPrefix(upper, "UNIQUE"),
			strings.HasPrefix(upper, "CONSTRAINT"),
			strings.HasPrefix(upper, "CHECK"),
			strings.HasPrefix(upper, "INDEX"),
			strings.HasPrefix(upper, "KEY"):
			// Table-level constraints without a referenced table
			continue
		}

		col := columnDefRe.FindStringSubmatch(def)
		if col == nil {
			continue
		}

		nullable := !strings.Contains(upper, "NOT NULL")
		field := entity.SchemaField{
			Name:       col[1],
			Type:       strings.ToLower(col[2]),
			Nullable:   &nullable,
			PrimaryKey: strings.Contains(upper, "PRIMARY KEY"),
		}
		table.Fields = append(table.Fields, field)

		if ref := referencesRe.FindStringSubmatch(def); ref != nil {
			table.Relationships = append(table.Relationships, entity.SchemaRelationship{
				TargetTable: ref[1],
				ViaField:    col[1],
			})
		}
	}

	if len(table.Fields) == 0 {
		return entity.SchemaTable{}, false
	}
	return table, true
}

func parseAlterTableFK(stmt string) (string, entity.SchemaRelationship, bool) {
	m := alterFKRe.FindStringSubmatch(stmt)
	if m == nil {
		return "", entity.SchemaRelationship{}, false
	}
	return m[1], entity.SchemaRelationship{TargetTable: m[3], ViaField: m[2]}, true
}

// splitTopLevel splits column definitions on commas outside parentheses, so
// DECIMAL(10,2) and composite keys stay intact.
func splitTopLevel(body string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, body[start:])
	return parts
}

// trimToBalanced drops anything past the paren that closes the column list,
// e.g. trailing engine options captured by the greedy statement match.
func trimToBalanced(body string) string {
	depth := 1
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return body[:i]
			}
		}
	}
	return body
}
