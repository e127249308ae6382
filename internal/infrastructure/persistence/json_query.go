package persistence

import (
	"strings"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"gorm.io/gorm"
)

const dialectSQLite = "sqlite"

// jsonText returns an SQL expression extracting the value at path from a JSON
// column as text, together with its bind arguments.
func jsonText(db *gorm.DB, column, path string) (string, []any) {
	segments := shared.PathSegments(path)
	if db.Dialector.Name() == dialectSQLite {
		var b strings.Builder
		b.WriteString("$")
		for _, s := range segments {
			b.WriteString(`."`)
			b.WriteString(strings.ReplaceAll(s, `"`, `\"`))
			b.WriteString(`"`)
		}
		return "CAST(json_extract(" + column + ", ?) AS TEXT)", []any{b.String()}
	}

	placeholders := make([]string, len(segments))
	args := make([]any, len(segments))
	for i, s := range segments {
		placeholders[i] = "?"
		args[i] = s
	}
	return "jsonb_extract_path_text(" + column + ", " + strings.Join(placeholders, ", ") + ")", args
}

// jsonNumber wraps a JSON text expression in a numeric cast
func jsonNumber(db *gorm.DB, expr string) string {
	if db.Dialector.Name() == dialectSQLite {
		return "CAST(" + expr + " AS REAL)"
	}
	return "CAST(" + expr + " AS NUMERIC)"
}

// likePattern builds a case-insensitive contains pattern, escaping LIKE wildcards
func likePattern(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return "%" + value + "%"
}

// likeCondition is a case-insensitive contains match on expr
func likeCondition(expr string, args []any, value string) condition {
	return condition{
		sql:  "LOWER(" + expr + ") LIKE ? ESCAPE '\\'",
		args: append(append([]any{}, args...), likePattern(value)),
	}
}

// condition is a fragment of a WHERE clause with its arguments
type condition struct {
	sql  string
	args []any
}

// joinConditions combines conditions with AND or OR
func joinConditions(conds []condition, op string) condition {
	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		parts = append(parts, "("+c.sql+")")
		args = append(args, c.args...)
	}
	return condition{sql: strings.Join(parts, " "+op+" "), args: args}
}
