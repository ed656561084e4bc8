// Package query 结构化的 WHERE 条件，生成带 ? 占位符的 SQL 片段
package query

import (
	"regexp"

	"github.com/pkg/errors"
)

// QueryType 查询类型
type QueryType string

const (
	QueryTypeBool     QueryType = "bool"
	QueryTypeTerm     QueryType = "term"
	QueryTypeTerms    QueryType = "terms"
	QueryTypeMatch    QueryType = "match"
	QueryTypeRange    QueryType = "range"
	QueryTypeExists   QueryType = "exists"
	QueryTypeWildcard QueryType = "wildcard"
	QueryTypePrefix   QueryType = "prefix"
)

// Query 查询节点接口
type Query interface {
	Type() QueryType
	// ToSQL 返回条件片段和按顺序对应 ? 的参数
	ToSQL() (string, []interface{}, error)
}

var fieldPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// checkField 字段名直接拼接进语句，只允许标识符
func checkField(field string) error {
	if !fieldPattern.MatchString(field) {
		return errors.Errorf("invalid field name %q", field)
	}
	return nil
}

func Term(field string, value interface{}) *TermQuery {
	return &TermQuery{Field: field, Value: value}
}

func Terms(field string, values ...interface{}) *TermsQuery {
	return &TermsQuery{Field: field, Values: values}
}

func Match(field string, value interface{}) *MatchQuery {
	return &MatchQuery{Field: field, Value: value}
}

func Prefix(field string, value string) *PrefixQuery {
	return &PrefixQuery{Field: field, Value: value}
}

func Wildcard(field string, value string) *WildcardQuery {
	return &WildcardQuery{Field: field, Value: value}
}

func Exists(field string) *ExistsQuery {
	return &ExistsQuery{Field: field}
}

// Between 闭区间 [gte, lte]
func Between(field string, gte interface{}, lte interface{}) *RangeQuery {
	return &RangeQuery{Field: field, Gte: gte, Lte: lte}
}

func And(queries ...Query) *BoolQuery {
	return &BoolQuery{Must: queries}
}

func Or(queries ...Query) *BoolQuery {
	return &BoolQuery{Should: queries}
}

func Not(queries ...Query) *BoolQuery {
	return &BoolQuery{MustNot: queries}
}
