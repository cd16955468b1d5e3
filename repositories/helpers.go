package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// placeholders returns "($n, $n+1, ...)" for one row of a multi-row insert.
func placeholders(start, count int) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < count; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(start + i))
	}
	sb.WriteByte(')')
	return sb.String()
}
