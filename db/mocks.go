package db

import (
	"context"
	"reflect"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/test"
)

// MockConn stands in for a pool or transaction. Unset rows come back as pgx.ErrNoRows.
type MockConn struct {
	QueryFunc    func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...interface{}) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	BeginFunc    func(ctx context.Context) (pgx.Tx, error)
	*test.CallWatcher
}

func NewMockConn() MockConn {
	return MockConn{
		QueryFunc: func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
			return nil, pgx.ErrNoRows
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...interface{}) pgx.Row { return NoRow() },
		ExecFunc: func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
			return pgconn.CommandTag("INSERT 0 1"), nil
		},
		BeginFunc:   func(ctx context.Context) (pgx.Tx, error) { return nil, nil },
		CallWatcher: test.NewCallWatcher(),
	}
}

func (c *MockConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.AddCall(ctx, sql, args)
	return c.QueryFunc(ctx, sql, args...)
}

func (c *MockConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	c.AddCall(ctx, sql, args)
	return c.QueryRowFunc(ctx, sql, args...)
}

func (c *MockConn) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.AddCall(ctx, sql, args)
	return c.ExecFunc(ctx, sql, args...)
}

func (c *MockConn) Begin(ctx context.Context) (pgx.Tx, error) {
	c.AddCall(ctx)
	return c.BeginFunc(ctx)
}

// Statements returns the arguments of every Exec whose sql contains fragment, in call order.
func (c *MockConn) Statements(fragment string) [][]interface{} {
	out := make([][]interface{}, 0)
	for _, call := range c.GetCall("Exec") {
		if sql, ok := call[1].(string); ok && strings.Contains(sql, fragment) {
			out = append(out, call[2].([]interface{}))
		}
	}
	return out
}

// MockRow is a single result row. Values are copied into the scan targets in column order.
type MockRow struct {
	values []interface{}
	err    error
}

func NewMockRow(values ...interface{}) MockRow {
	return MockRow{values: values}
}

func NoRow() MockRow {
	return ErrRow(pgx.ErrNoRows)
}

// ErrRow fails every Scan with err.
func ErrRow(err error) MockRow {
	return MockRow{err: err}
}

func (r MockRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.Errorf("scan wants %d columns, row has %d", len(dest), len(r.values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r.values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(r.values[i])
		if !v.Type().AssignableTo(target.Type()) {
			return errors.Errorf("column %d: cannot scan %s into %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}

type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	MockConn
	*test.CallWatcher
}

func NewMockTransaction() *MockTransaction {
	return &MockTransaction{
		MockConn:     NewMockConn(),
		CommitFunc:   func(ctx context.Context) error { return nil },
		RollbackFunc: func(ctx context.Context) error { return nil },
		CallWatcher:  test.NewCallWatcher(),
	}
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.AddCall(ctx)
	return t.CommitFunc(ctx)
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	t.AddCall(ctx)
	return t.RollbackFunc(ctx)
}
