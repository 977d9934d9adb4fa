package dbx

import (
	"strconv"
	"strings"
)

// Assignment is one "column = value" pair of an UPDATE statement. Column
// names come from code, never from request data.
type Assignment struct {
	Column string
	Value  any
}

// SetClause renders assignments as "a = $1, b = $2" starting at placeholder
// first, and returns the matching argument list.
func SetClause(assignments []Assignment, first int) (string, []any) {
	parts := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments))
	for i, a := range assignments {
		parts = append(parts, a.Column+" = $"+strconv.Itoa(first+i))
		args = append(args, a.Value)
	}
	return strings.Join(parts, ", "), args
}
