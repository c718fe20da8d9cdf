package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

func TestDetectIDColumn(t *testing.T) {
	cols := func(names ...string) []query.Column {
		var out []query.Column
		for _, n := range names {
			out = append(out, query.Column{Name: n})
		}
		return out
	}

	assert.Equal(t, "employee_id", DetectIDColumn(cols("name", "employee_id")))
	assert.Equal(t, "EmployeeNumber", DetectIDColumn(cols("Age", "EmployeeNumber")))
	assert.Equal(t, "EmpID", DetectIDColumn(cols("Name", "EmpID")))
	assert.Equal(t, "code", DetectIDColumn(cols("code", "name")))
	assert.Equal(t, "", DetectIDColumn(nil))
}

func TestSchema_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(sqlx.NewDb(db, "postgres"), Options{Driver: DriverPostgres, Table: "employees", StatementTimeout: time.Second}, zap.NewNop())

	mock.ExpectQuery(`information_schema\.columns\s+WHERE table_name = \$1`).
		WithArgs("employees").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("employee_id", "text").
			AddRow("monthly_income", "numeric"))

	sc, err := s.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "employees", sc.Table)
	assert.Equal(t, "employee_id", sc.IDColumn)
	assert.Equal(t, []query.Column{{Name: "employee_id", Type: "TEXT"}, {Name: "monthly_income", Type: "NUMERIC"}}, sc.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchema_IDColumnOverride(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(sqlx.NewDb(db, "postgres"), Options{Driver: DriverPostgres, IDColumn: "badge"}, zap.NewNop())

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"column_name", "data_type"}).AddRow("employee_id", "text").AddRow("badge", "text")
	}
	mock.ExpectQuery("information_schema").WillReturnRows(rows())
	sc, err := s.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "badge", sc.IDColumn)

	s.opts.IDColumn = "missing"
	mock.ExpectQuery("information_schema").WillReturnRows(rows())
	_, err = s.Schema(context.Background())
	assert.Error(t, err)
}

func TestSchema_MissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(sqlx.NewDb(db, "postgres"), Options{Driver: DriverPostgres}, zap.NewNop())
	mock.ExpectQuery("information_schema").WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	_, err = s.Schema(context.Background())
	assert.ErrorContains(t, err, "not found")
}
