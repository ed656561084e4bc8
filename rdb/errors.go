package rdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrRecordNotFound 没有匹配的记录，Fetch/FindByID 不把它当作失败
	ErrRecordNotFound = errors.New("record not found")

	// ErrMissingPrimaryKey 记录没有主键值
	ErrMissingPrimaryKey = errors.New("missing primary key")
)

// ValidationError 必填字段缺失或为空，不会触达数据库
type ValidationError struct {
	Entity string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: required fields are empty: %s", e.Entity, strings.Join(e.Fields, ", "))
}

// ExecutionError 连接层在 prepare/execute/fetch 阶段返回的错误
type ExecutionError struct {
	Entity    string
	Op        string
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Entity, e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Location 返回错误产生处的文件和行号，取最内层带调用栈的错误
// 包初始化时创建的哨兵错误没有调用现场，跳过它们，使用包装处的位置
func Location(err error) (string, int) {
	file, line := "unknown", 0
	for e := err; e != nil; {
		if st, ok := e.(stackTracer); ok && len(st.StackTrace()) > 0 {
			if f, l, ok := frameLocation(st.StackTrace()[0]); ok {
				file, line = f, l
			}
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return file, line
}

func frameLocation(frame errors.Frame) (string, int, bool) {
	name := fmt.Sprintf("%n", frame)
	if name == "init" || strings.HasPrefix(name, "init.") {
		return "", 0, false
	}
	file := fmt.Sprintf("%+s", frame)
	if i := strings.LastIndex(file, "\n\t"); i >= 0 {
		file = file[i+2:]
	}
	line, _ := strconv.Atoi(fmt.Sprintf("%d", frame))
	if file == "<autogenerated>" || line <= 0 {
		return "", 0, false
	}
	return file, line, true
}

func (e *ExecutionError) Location() (string, int) {
	return Location(e)
}

func newExecutionError(entity, op, statement string, err error) *ExecutionError {
	return &ExecutionError{
		Entity:    entity,
		Op:        op,
		Statement: statement,
		Err:       errors.WithStack(err),
	}
}
