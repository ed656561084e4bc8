package rdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hatlonely/rdbx/rdb/database"
	"github.com/pkg/errors"
)

// Executor 按实体描述执行 INSERT/UPDATE/DELETE，不做日志，错误由调用方处理
type Executor struct {
	desc *Descriptor
	conn database.Connection
	now  func() time.Time
}

func NewExecutor(desc *Descriptor, conn database.Connection) *Executor {
	return &Executor{desc: desc, conn: conn, now: time.Now}
}

// SetClock 替换时间戳使用的时钟
func (e *Executor) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

func (e *Executor) timestamp() Value {
	return String(e.now().Format(TimeLayout))
}

// Create 插入一条记录，返回新记录的主键
// 配置了 KeyGenerator 时主键由生成器提供，否则取驱动的自增 id，为 0 时返回 Null
func (e *Executor) Create(ctx context.Context, columns map[string]Value) (Value, error) {
	values := copyColumns(columns)
	if e.desc.timestamps {
		now := e.timestamp()
		if e.desc.createdAtField != "" {
			values[e.desc.createdAtField] = now
		}
		if e.desc.updatedAtField != "" {
			values[e.desc.updatedAtField] = now
		}
	}

	var key Value
	if e.desc.keyGenerator != nil {
		key = e.desc.keyGenerator.NextKey()
		if key.IsEmpty() {
			return Null(), newExecutionError(e.desc.name, "create", "", errors.New("key generator returned an empty key"))
		}
		values[e.desc.primaryKey] = key
	}

	names, err := sortedColumns(values)
	if err != nil {
		return Null(), newExecutionError(e.desc.name, "create", "", err)
	}

	var text string
	params := make(map[string]Value, len(names))
	if len(names) == 0 {
		text = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", e.desc.table)
	} else {
		placeholders := make([]string, 0, len(names))
		for _, name := range names {
			placeholders = append(placeholders, ":c_"+name)
			params["c_"+name] = values[name]
		}
		text = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", e.desc.table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	}

	st, err := e.run(ctx, "create", text, params)
	if err != nil {
		return Null(), err
	}
	defer st.Close()

	if e.desc.keyGenerator != nil {
		return key, nil
	}
	id, err := st.LastInsertID()
	if err != nil {
		return Null(), newExecutionError(e.desc.name, "create", text, err)
	}
	if id == 0 {
		return Null(), nil
	}
	return Int(id), nil
}

// Update 更新匹配 terms 的记录，返回是否有记录被修改
func (e *Executor) Update(ctx context.Context, columns map[string]Value, terms string, params map[string]Value) (bool, error) {
	values := copyColumns(columns)
	delete(values, e.desc.primaryKey)
	if e.desc.timestamps && e.desc.updatedAtField != "" {
		values[e.desc.updatedAtField] = e.timestamp()
	}

	names, err := sortedColumns(values)
	if err != nil {
		return false, newExecutionError(e.desc.name, "update", "", err)
	}
	if len(names) == 0 {
		return false, nil
	}

	bound := make(map[string]Value, len(names)+len(params))
	for k, v := range params {
		bound[k] = v
	}
	assignments := make([]string, 0, len(names))
	for _, name := range names {
		assignments = append(assignments, fmt.Sprintf("%s = :c_%s", name, name))
		bound["c_"+name] = values[name]
	}

	text := fmt.Sprintf("UPDATE %s SET %s", e.desc.table, strings.Join(assignments, ", "))
	if terms != "" {
		text += " WHERE " + terms
	}
	return e.affect(ctx, "update", text, bound)
}

// Delete 删除匹配 terms 的记录，terms 为空时返回错误而不是清空整张表
func (e *Executor) Delete(ctx context.Context, terms string, params map[string]Value) (bool, error) {
	if strings.TrimSpace(terms) == "" {
		return false, newExecutionError(e.desc.name, "delete", "", errors.New("delete without terms"))
	}
	text := fmt.Sprintf("DELETE FROM %s WHERE %s", e.desc.table, terms)
	return e.affect(ctx, "delete", text, params)
}

func (e *Executor) affect(ctx context.Context, op string, text string, params map[string]Value) (bool, error) {
	st, err := e.run(ctx, op, text, params)
	if err != nil {
		return false, err
	}
	defer st.Close()
	return st.RowCount() > 0, nil
}

func (e *Executor) run(ctx context.Context, op string, text string, params map[string]Value) (database.Statement, error) {
	return execute(ctx, e.conn, e.desc.name, op, text, params)
}

// execute 准备并执行语句，调用方负责关闭返回的 Statement
func execute(ctx context.Context, conn database.Connection, entity string, op string, text string, params map[string]Value) (database.Statement, error) {
	st, err := conn.Prepare(ctx, text)
	if err != nil {
		return nil, newExecutionError(entity, op, text, err)
	}
	if err := st.Execute(ctx, toDriverParams(params)); err != nil {
		st.Close()
		return nil, newExecutionError(entity, op, text, err)
	}
	return st, nil
}

func copyColumns(columns map[string]Value) map[string]Value {
	values := make(map[string]Value, len(columns)+3)
	for k, v := range columns {
		values[k] = v
	}
	return values
}

func sortedColumns(values map[string]Value) ([]string, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		if err := validateIdentifier("column", name); err != nil {
			return nil, err
		}
		if strings.Contains(name, ".") {
			return nil, errors.Errorf("column %q must not be qualified", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
