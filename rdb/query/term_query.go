package query

import (
	"fmt"
	"strings"
)

// TermQuery 精确匹配查询，Value 为 nil 时匹配 IS NULL
type TermQuery struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

func (q *TermQuery) Type() QueryType {
	return QueryTypeTerm
}

func (q *TermQuery) ToSQL() (string, []interface{}, error) {
	if err := checkField(q.Field); err != nil {
		return "", nil, err
	}
	if q.Value == nil {
		return fmt.Sprintf("%s IS NULL", q.Field), nil, nil
	}
	return fmt.Sprintf("%s = ?", q.Field), []interface{}{q.Value}, nil
}

// TermsQuery 匹配任意一个值，值列表为空时不匹配任何记录
type TermsQuery struct {
	Field  string        `json:"field"`
	Values []interface{} `json:"values"`
}

func (q *TermsQuery) Type() QueryType {
	return QueryTypeTerms
}

func (q *TermsQuery) ToSQL() (string, []interface{}, error) {
	if err := checkField(q.Field); err != nil {
		return "", nil, err
	}
	if len(q.Values) == 0 {
		return "1=0", nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.Values)), ", ")
	return fmt.Sprintf("%s IN (%s)", q.Field, placeholders), append([]interface{}(nil), q.Values...), nil
}
