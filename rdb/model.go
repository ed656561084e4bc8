package rdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/rdbx/log"
	"github.com/hatlonely/rdbx/log/logger"
	"github.com/hatlonely/rdbx/rdb/database"
	"github.com/hatlonely/rdbx/rdb/message"
	"github.com/hatlonely/rdbx/rdb/query"
	"github.com/pkg/errors"
)

// Model 一条记录及其查询构造器
//
// 具体实体通过内嵌 *Model 并提供自己的 Descriptor 获得查询、保存和删除能力：
//
//	var productDescriptor = rdb.MustNewDescriptor("products", []string{"name", "price"})
//
//	type Product struct{ *rdb.Model }
//
//	func NewProduct(conn database.Connection) *Product {
//		return &Product{rdb.NewModel(productDescriptor, conn)}
//	}
//
// Model 不是并发安全的
type Model struct {
	desc     *Descriptor
	conn     database.Connection
	executor *Executor
	logger   logger.Logger
	now      func() time.Time

	attrs   Attributes
	stmt    statement
	fail    error
	message *message.Message
}

type ModelOption func(*Model)

// WithLogger 失败日志的输出，默认为 log.Default()
func WithLogger(l logger.Logger) ModelOption {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock 写入时间戳使用的时钟
func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithAttributes 初始字段值
func WithAttributes(values map[string]any) ModelOption {
	return func(m *Model) {
		for k, v := range values {
			m.attrs.Set(k, v)
		}
	}
}

func NewModel(desc *Descriptor, conn database.Connection, opts ...ModelOption) *Model {
	m := &Model{
		desc:   desc,
		conn:   conn,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("entity", desc.name)
	m.executor = NewExecutor(desc, conn)
	m.executor.SetClock(m.now)
	return m
}

// record 由结果行构造的新实例，共享描述、连接和日志
func (m *Model) record(row map[string]any) *Model {
	r := &Model{
		desc:     m.desc,
		conn:     m.conn,
		executor: m.executor,
		logger:   m.logger,
		now:      m.now,
	}
	for k, v := range row {
		r.attrs.Set(k, v)
	}
	return r
}

func (m *Model) Descriptor() *Descriptor {
	return m.desc
}

// Find 以 terms 作为 WHERE 条件设置查询，params 形如 key=value&key2=value2
// 参数解析失败不会立即返回，而是在执行时作为失败记录
func (m *Model) Find(terms string, params string, columns ...string) *Model {
	m.stmt.base = selectBase(m.desc.table, terms, columns)
	m.stmt.terms = terms
	m.stmt.params = nil
	m.stmt.err = nil

	raw, err := ParseParams(params)
	if err != nil {
		m.stmt.err = err
		return m
	}
	bound, err := m.desc.bindParams(terms, raw)
	if err != nil {
		m.stmt.err = err
		return m
	}
	m.stmt.params = bound
	return m
}

// Where 以查询表达式设置 WHERE 条件
func (m *Model) Where(q query.Query, columns ...string) *Model {
	m.stmt.params = nil
	m.stmt.err = nil

	text, args, err := q.ToSQL()
	if err != nil {
		m.stmt.base = selectBase(m.desc.table, "", columns)
		m.stmt.terms = ""
		m.stmt.err = err
		return m
	}
	terms, params, err := namePlaceholders(text, args, "w")
	if err != nil {
		m.stmt.base = selectBase(m.desc.table, "", columns)
		m.stmt.terms = ""
		m.stmt.err = err
		return m
	}
	m.stmt.base = selectBase(m.desc.table, terms, columns)
	m.stmt.terms = terms
	m.stmt.params = params
	return m
}

// FindByID 按主键查询单条记录，没有匹配时返回 nil
func (m *Model) FindByID(ctx context.Context, id any, columns ...string) *Model {
	value := ValueOf(id)
	if ft, ok := m.desc.FieldType(m.desc.primaryKey); ok && value.Kind() == KindString {
		if converted, err := convertParam(value.AsString(), ft); err == nil {
			value = converted
		}
	}
	terms := m.desc.primaryKey + " = :id"
	m.stmt.base = selectBase(m.desc.table, terms, columns)
	m.stmt.terms = terms
	m.stmt.params = map[string]Value{"id": value}
	m.stmt.err = nil
	return m.Fetch(ctx)
}

func (m *Model) Group(column string) *Model {
	m.stmt.group = " GROUP BY " + column
	return m
}

func (m *Model) Order(expr string) *Model {
	m.stmt.order = " ORDER BY " + expr
	return m
}

func (m *Model) Limit(n int) *Model {
	m.stmt.limit = " LIMIT " + strconv.Itoa(n)
	return m
}

func (m *Model) Offset(n int) *Model {
	m.stmt.offset = " OFFSET " + strconv.Itoa(n)
	return m
}

// pending 当前查询，没有调用过 Find 时查询全部列
func (m *Model) pending() *statement {
	if m.stmt.base == "" {
		m.stmt.base = selectBase(m.desc.table, "", nil)
	}
	return &m.stmt
}

// Statement 返回 Fetch 将要执行的语句
func (m *Model) Statement() string {
	return m.pending().text()
}

// query 执行查询，调用方负责关闭返回的 Statement
func (m *Model) query(ctx context.Context, op string, text string, s *statement) (database.Statement, error) {
	if s.err != nil {
		return nil, newExecutionError(m.desc.name, op, text, s.err)
	}
	return execute(ctx, m.conn, m.desc.name, op, text, s.params)
}

// Count 当前条件下的记录数，忽略 group/order/limit/offset，失败返回 0
func (m *Model) Count(ctx context.Context) int {
	s := m.pending()
	text := s.countText()
	st, err := m.query(ctx, "count", text, s)
	if err != nil {
		m.capture(ctx, "count", err)
		return 0
	}
	defer st.Close()

	row, ok := st.FetchOne()
	if !ok {
		return 0
	}
	n, _ := ValueOf(row["total"]).AsInt()
	return int(n)
}

// Fetch 返回第一条记录，没有记录或者执行失败都返回 nil，失败原因见 Fail
func (m *Model) Fetch(ctx context.Context) *Model {
	r, err := m.first(ctx, "fetch")
	if err != nil {
		return nil
	}
	return r
}

// First 同 Fetch，但区分没有记录（ErrRecordNotFound）和执行失败
func (m *Model) First(ctx context.Context) (*Model, error) {
	return m.first(ctx, "first")
}

func (m *Model) first(ctx context.Context, op string) (*Model, error) {
	s := m.pending()
	st, err := m.query(ctx, op, s.text(), s)
	if err != nil {
		m.capture(ctx, op, err)
		return nil, err
	}
	defer st.Close()

	row, ok := st.FetchOne()
	if !ok {
		return nil, errors.WithStack(ErrRecordNotFound)
	}
	return m.record(row), nil
}

// FetchAll 按结果顺序返回全部记录，没有记录返回空切片，执行失败返回 nil
func (m *Model) FetchAll(ctx context.Context) []*Model {
	s := m.pending()
	st, err := m.query(ctx, "fetchAll", s.text(), s)
	if err != nil {
		m.capture(ctx, "fetchAll", err)
		return nil
	}
	defer st.Close()

	rows := st.FetchAll()
	records := make([]*Model, 0, len(rows))
	for _, row := range rows {
		records = append(records, m.record(row))
	}
	return records
}

// Save 保存记录：主键为空时插入，否则按主键更新，成功后从数据库重新加载字段
// 必填字段为空时不执行任何语句
func (m *Model) Save(ctx context.Context) bool {
	if missing := m.missingRequired(); len(missing) > 0 {
		m.message = message.Warning("fill in the required fields: " + strings.Join(missing, ", "))
		m.capture(ctx, "save", errors.WithStack(&ValidationError{Entity: m.desc.name, Fields: missing}))
		return false
	}

	pk := m.desc.primaryKey
	columns := m.attrs.Snapshot()
	id := columns[pk]
	delete(columns, pk)

	if !blankKey(id) {
		if _, err := m.executor.Update(ctx, columns, pk+" = :id", map[string]Value{"id": id}); err != nil {
			m.saveFailed(ctx, err)
			return false
		}
	} else {
		created, err := m.executor.Create(ctx, columns)
		if err != nil {
			m.saveFailed(ctx, err)
			return false
		}
		id = created
	}

	if id.IsEmpty() {
		return false
	}

	row, err := m.reload(ctx, id)
	if err != nil {
		m.saveFailed(ctx, err)
		return false
	}
	m.attrs = Attributes{}
	for k, v := range row {
		m.attrs.Set(k, v)
	}
	return true
}

func (m *Model) saveFailed(ctx context.Context, err error) {
	m.message = message.Error("the record could not be saved")
	m.capture(ctx, "save", err)
}

// reload 使用独立的语句按主键查询，不影响调用方设置的查询
func (m *Model) reload(ctx context.Context, id Value) (map[string]any, error) {
	terms := m.desc.primaryKey + " = :id"
	s := &statement{
		base:   selectBase(m.desc.table, terms, nil),
		terms:  terms,
		params: map[string]Value{"id": id},
	}
	st, err := m.query(ctx, "reload", s.text(), s)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	row, ok := st.FetchOne()
	if !ok {
		return nil, errors.Wrapf(ErrRecordNotFound, "%s %s = %s", m.desc.table, m.desc.primaryKey, id)
	}
	return row, nil
}

// blankKey 主键为空、零值或者字符串 "0" 时视为新记录
func blankKey(id Value) bool {
	return id.IsEmpty() || (id.Kind() == KindString && strings.TrimSpace(id.AsString()) == "0")
}

func (m *Model) missingRequired() []string {
	var missing []string
	for _, name := range m.desc.required {
		if m.attrs.Get(name).IsEmpty() {
			missing = append(missing, name)
		}
	}
	return missing
}

// Destroy 按主键删除记录，返回是否删除了记录，主键为空时直接返回 false
func (m *Model) Destroy(ctx context.Context) bool {
	id := m.attrs.Get(m.desc.primaryKey)
	if blankKey(id) {
		return false
	}
	deleted, err := m.executor.Delete(ctx, m.desc.primaryKey+" = :id", map[string]Value{"id": id})
	if err != nil {
		m.message = message.Error("the record could not be deleted")
		m.capture(ctx, "destroy", err)
		return false
	}
	return deleted
}

// capture 记录失败原因并输出带文件和行号的错误日志
func (m *Model) capture(ctx context.Context, op string, err error) {
	m.fail = err
	file, line := Location(err)
	m.logger.ErrorContext(ctx, fmt.Sprintf("Line: %d - File: %s - %s", line, file, err.Error()), "op", op)
}

func (m *Model) Get(name string) Value {
	return m.attrs.Get(name)
}

func (m *Model) Set(name string, value any) *Model {
	m.attrs.Set(name, value)
	return m
}

// Has 字段是否存在，值为 Null 的字段也算存在
func (m *Model) Has(name string) bool {
	return m.attrs.Has(name)
}

func (m *Model) Unset(name string) *Model {
	m.attrs.Unset(name)
	return m
}

func (m *Model) Data() *Attributes {
	return &m.attrs
}

// Scan 将字段值写入结构体，列名取 rdb tag
func (m *Model) Scan(dest any) error {
	return valuesToStruct(&m.attrs, dest)
}

// Fill 用结构体字段设置字段值
func (m *Model) Fill(src any) error {
	values, err := structToValues(src)
	if err != nil {
		return err
	}
	for k, v := range values {
		m.attrs.Set(k, v)
	}
	return nil
}

// Fail 最近一次失败的原因，成功的操作不会清除它
func (m *Model) Fail() error {
	return m.fail
}

// Message 最近一次面向用户的反馈
func (m *Model) Message() *message.Message {
	return m.message
}

// SetMessage 设置面向用户的反馈
func (m *Model) SetMessage(msg *message.Message) {
	m.message = msg
}
