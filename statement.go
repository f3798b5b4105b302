package sqlpen

import "strings"

// SplitStatements breaks raw SQL text into individual statements.
// The input is split on ";" and blank segments are discarded; statement
// order is preserved. The split is lexical: a semicolon inside a string
// or comment literal also terminates a statement. Callers that need
// such statements must submit them one at a time.
func SplitStatements(raw string) []string {
	parts := strings.Split(raw, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

// isQueryShaped reports whether a statement is expected to produce rows.
// SELECT and WITH prefixes are the only query shapes the store returns
// result sets for; everything else is treated as a command.
func isQueryShaped(stmt string) bool {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")
}
