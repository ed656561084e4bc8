package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
)

// Connection 数据库连接，进程内共享一个实例，由调用方注入到 Model
type Connection interface {
	// Prepare 预编译语句，语句中使用 :name 形式的命名参数
	Prepare(ctx context.Context, text string) (Statement, error)
	// Close 关闭连接
	Close() error
}

// Statement 预编译语句
type Statement interface {
	// Execute 绑定参数并执行
	Execute(ctx context.Context, params map[string]any) error
	// RowCount 查询语句返回的行数，或者写语句影响的行数
	RowCount() int64
	// FetchOne 取下一行，没有更多数据时返回 false
	FetchOne() (map[string]any, bool)
	// FetchAll 取剩余的所有行
	FetchAll() []map[string]any
	// LastInsertID 最近一次插入生成的自增 id
	LastInsertID() (int64, error)
	// Close 释放语句
	Close() error
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// stmt 基于 database/sql 的 Statement 实现，SQL 和 Gorm 共用
type stmt struct {
	stmt    *sql.Stmt
	text    string
	names   []string
	isQuery bool

	rows     []map[string]any
	cursor   int
	affected int64
	result   sql.Result
}

func prepare(ctx context.Context, p preparer, text string, style PlaceholderStyle) (*stmt, error) {
	positional, names := parseNamed(text, style)
	s, err := p.PrepareContext(ctx, positional)
	if err != nil {
		return nil, errors.Wrapf(err, "prepare [%s]", text)
	}
	return &stmt{
		stmt:    s,
		text:    text,
		names:   names,
		isQuery: isQuery(text),
	}, nil
}

func (s *stmt) Execute(ctx context.Context, params map[string]any) error {
	args, err := bindArgs(s.names, params)
	if err != nil {
		return err
	}

	s.rows, s.cursor, s.affected, s.result = nil, 0, 0, nil
	if !s.isQuery {
		res, err := s.stmt.ExecContext(ctx, args...)
		if err != nil {
			return errors.Wrapf(err, "exec [%s]", s.text)
		}
		s.result = res
		if n, err := res.RowsAffected(); err == nil {
			s.affected = n
		}
		return nil
	}

	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return errors.Wrapf(err, "query [%s]", s.text)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return errors.Wrapf(err, "scan [%s]", s.text)
		}
		s.rows = append(s.rows, row)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrapf(err, "iterate [%s]", s.text)
	}
	s.affected = int64(len(s.rows))
	return nil
}

func (s *stmt) RowCount() int64 {
	return s.affected
}

func (s *stmt) FetchOne() (map[string]any, bool) {
	if s.cursor >= len(s.rows) {
		return nil, false
	}
	row := s.rows[s.cursor]
	s.cursor++
	return row, true
}

func (s *stmt) FetchAll() []map[string]any {
	if s.cursor >= len(s.rows) {
		return []map[string]any{}
	}
	rows := s.rows[s.cursor:]
	s.cursor = len(s.rows)
	return rows
}

func (s *stmt) LastInsertID() (int64, error) {
	if s.result == nil {
		return 0, errors.New("statement has not inserted any row")
	}
	id, err := s.result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "last insert id")
	}
	return id, nil
}

func (s *stmt) Close() error {
	return s.stmt.Close()
}

// scanRow 扫描当前行，[]byte 转换为 string
func scanRow(rows *sql.Rows) (map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	data := make(map[string]any, len(columns))
	for i, col := range columns {
		if b, ok := values[i].([]byte); ok {
			data[col] = string(b)
			continue
		}
		data[col] = values[i]
	}
	return data, nil
}

func isQuery(text string) bool {
	text = strings.TrimLeft(text, " \t\r\n(")
	end := strings.IndexAny(text, " \t\r\n(")
	if end < 0 {
		end = len(text)
	}
	switch strings.ToUpper(text[:end]) {
	case "SELECT", "WITH", "PRAGMA", "SHOW", "EXPLAIN", "VALUES", "DESCRIBE":
		return true
	}
	return false
}
