package rdb

import (
	"fmt"
	"strings"
)

// statement 尚未执行的查询：基础 SELECT 加上 group/order/limit/offset 片段
// 每个片段只保留最后一次设置的值
type statement struct {
	base   string
	terms  string
	group  string
	order  string
	limit  string
	offset string
	params map[string]Value
	err    error // Find 阶段的参数解析错误，执行时报告
}

func selectBase(table string, terms string, columns []string) string {
	cols := "*"
	if len(columns) > 0 {
		cols = strings.Join(columns, ", ")
	}
	if terms == "" {
		return fmt.Sprintf("SELECT %s FROM %s", cols, table)
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", cols, table, terms)
}

func (s *statement) text() string {
	return s.base + s.group + s.order + s.limit + s.offset
}

func (s *statement) countText() string {
	return fmt.Sprintf("SELECT COUNT(*) AS total FROM (%s) counted", s.base)
}
