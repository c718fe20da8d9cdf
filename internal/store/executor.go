package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

// Execute runs an accepted statement. Rejected verdicts and mutations from
// callers who may not mutate come back as ERROR results without touching
// storage. Nothing is retried.
func (s *Store) Execute(ctx context.Context, v query.Verdict, role query.Role) query.ExecutionResult {
	stmt := v.Statement

	if !v.Accepted {
		return query.Refused(v)
	}

	if stmt.Kind.Mutating() && !query.MayMutate(role) {
		s.log.Warn("mutation refused",
			zap.String("role", string(role)),
			zap.String("statement", stmt.Text),
		)
		res := query.Failure(query.ErrPermission, "Permission denied. Only HR can modify employee data.", query.Suggestion(query.ErrPermission))
		res.Statement = stmt.Text
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StatementTimeout)
	defer cancel()

	conn, err := s.db.Connx(ctx)
	if err != nil {
		s.log.Error("acquire connection", zap.Error(err))
		return failure(stmt, err)
	}
	defer conn.Close()

	var res query.ExecutionResult
	if stmt.Kind == query.KindRead {
		res = s.read(ctx, conn, stmt)
	} else {
		res = s.mutate(ctx, conn, stmt)
	}

	if res.Failed() {
		s.log.Info("statement failed",
			zap.String("error_kind", string(res.ErrorKind)),
			zap.String("message", res.Message),
			zap.String("statement", stmt.Text),
		)
	} else {
		s.log.Debug("statement executed",
			zap.String("outcome", string(res.Outcome)),
			zap.Int("rows", res.RowCount),
			zap.Int64("affected", res.AffectedCount),
		)
	}
	return res
}

// read runs stmt inside a read-only transaction on postgres, where a
// parameterless query goes over the simple protocol and would run every
// statement in the text.
func (s *Store) read(ctx context.Context, conn *sqlx.Conn, stmt query.Statement) query.ExecutionResult {
	var q sqlx.QueryerContext = conn
	if s.opts.Driver == DriverPostgres {
		tx, err := conn.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
		if err != nil {
			return failure(stmt, err)
		}
		defer tx.Rollback()
		q = tx
	}

	rows, err := q.QueryxContext(ctx, stmt.Text)
	if err != nil {
		return failure(stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return failure(stmt, err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return failure(stmt, err)
	}

	out := []query.Record{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return failure(stmt, err)
		}
		rec := make(query.Record, len(cols))
		for i, c := range cols {
			rec[c] = normalize(vals[i], types[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return failure(stmt, err)
	}

	res := query.ExecutionResult{
		Outcome:   query.OutcomeRows,
		Columns:   cols,
		Rows:      out,
		RowCount:  len(out),
		Statement: stmt.Text,
	}
	if len(out) == 0 {
		res.Message = "No results found"
	} else {
		res.Message = fmt.Sprintf("%d row(s) found", len(out))
	}
	return res
}

func (s *Store) mutate(ctx context.Context, conn *sqlx.Conn, stmt query.Statement) query.ExecutionResult {
	r, err := conn.ExecContext(ctx, stmt.Text)
	if err != nil {
		return failure(stmt, err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return failure(stmt, err)
	}

	op := stmt.Kind.Keyword()
	return query.ExecutionResult{
		Outcome:       query.OutcomeMutation,
		AffectedCount: n,
		Message:       fmt.Sprintf("%s successful: %d row(s) affected.", op, n),
		Statement:     stmt.Text,
	}
}

// normalize turns driver values into something JSON-friendly. Fractional
// numbers are rounded to two decimals.
func normalize(v any, ct *sql.ColumnType) any {
	switch x := v.(type) {
	case float64:
		return round2(x)
	case float32:
		return round2(float64(x))
	case []byte:
		if isDecimal(ct) {
			if f, err := strconv.ParseFloat(string(x), 64); err == nil {
				return round2(f)
			}
		}
		return string(x)
	case string:
		if isDecimal(ct) {
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return round2(f)
			}
		}
		return x
	}
	return v
}

func isDecimal(ct *sql.ColumnType) bool {
	if ct == nil {
		return false
	}
	name := strings.ToUpper(ct.DatabaseTypeName())
	return strings.HasPrefix(name, "NUMERIC") || strings.HasPrefix(name, "DECIMAL")
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
