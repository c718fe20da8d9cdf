package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

// Schema reads the employee table's columns and picks its identity column.
func (s *Store) Schema(ctx context.Context) (query.Schema, error) {
	var q string
	switch s.opts.Driver {
	case DriverSQLite:
		q = `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
	default:
		q = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_name = ? ORDER BY ordinal_position`
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(q), s.opts.Table)
	if err != nil {
		return query.Schema{}, fmt.Errorf("load schema of %s: %w", s.opts.Table, err)
	}
	defer rows.Close()

	var cols []query.Column
	for rows.Next() {
		var c query.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return query.Schema{}, fmt.Errorf("scan column: %w", err)
		}
		c.Type = strings.ToUpper(c.Type)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return query.Schema{}, err
	}
	if len(cols) == 0 {
		return query.Schema{}, fmt.Errorf("table %s not found or has no columns", s.opts.Table)
	}

	sc := query.Schema{Table: s.opts.Table, Columns: cols}
	if s.opts.IDColumn != "" {
		if !sc.HasColumn(s.opts.IDColumn) {
			return query.Schema{}, fmt.Errorf("configured id column %q is not in table %s", s.opts.IDColumn, s.opts.Table)
		}
		sc.IDColumn = s.opts.IDColumn
	} else {
		sc.IDColumn = DetectIDColumn(cols)
	}
	return sc, nil
}

// DetectIDColumn guesses which column holds the employee identifier:
// a name mentioning "emp" together with "id" or "number", then the
// well-known EmployeeNumber and EmpID, then the first column.
func DetectIDColumn(cols []query.Column) string {
	for _, c := range cols {
		n := strings.ToLower(c.Name)
		if strings.Contains(n, "emp") && (strings.Contains(n, "id") || strings.Contains(n, "number")) {
			return c.Name
		}
	}
	for _, want := range []string{"EmployeeNumber", "EmpID"} {
		for _, c := range cols {
			if c.Name == want {
				return c.Name
			}
		}
	}
	if len(cols) > 0 {
		return cols[0].Name
	}
	return ""
}
