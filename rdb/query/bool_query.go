package query

import (
	"fmt"
	"strings"
)

// BoolQuery 布尔组合查询
// Must 和 Filter 全部满足，Should 至少满足 MinShouldMatch 个（默认 1 个），MustNot 全部不满足
type BoolQuery struct {
	Must           []Query `json:"must,omitempty"`
	Should         []Query `json:"should,omitempty"`
	MustNot        []Query `json:"must_not,omitempty"`
	Filter         []Query `json:"filter,omitempty"`
	MinShouldMatch *int    `json:"minimum_should_match,omitempty"`
}

func (q *BoolQuery) Type() QueryType {
	return QueryTypeBool
}

func compile(queries []Query) ([]string, []interface{}, error) {
	conditions := make([]string, 0, len(queries))
	var args []interface{}
	for _, query := range queries {
		sql, queryArgs, err := query.ToSQL()
		if err != nil {
			return nil, nil, err
		}
		conditions = append(conditions, sql)
		args = append(args, queryArgs...)
	}
	return conditions, args, nil
}

func (q *BoolQuery) ToSQL() (string, []interface{}, error) {
	var conditions []string
	var args []interface{}

	for _, group := range [][]Query{q.Must, q.Filter} {
		sqls, groupArgs, err := compile(group)
		if err != nil {
			return "", nil, err
		}
		if len(sqls) > 0 {
			conditions = append(conditions, "("+strings.Join(sqls, " AND ")+")")
			args = append(args, groupArgs...)
		}
	}

	should, shouldArgs, err := compile(q.Should)
	if err != nil {
		return "", nil, err
	}
	if len(should) > 0 {
		if q.MinShouldMatch != nil && *q.MinShouldMatch != 1 {
			cases := make([]string, len(should))
			for i, condition := range should {
				cases[i] = fmt.Sprintf("CASE WHEN (%s) THEN 1 ELSE 0 END", condition)
			}
			conditions = append(conditions, fmt.Sprintf("(%s) >= %d", strings.Join(cases, " + "), *q.MinShouldMatch))
		} else {
			conditions = append(conditions, "("+strings.Join(should, " OR ")+")")
		}
		args = append(args, shouldArgs...)
	}

	mustNot, mustNotArgs, err := compile(q.MustNot)
	if err != nil {
		return "", nil, err
	}
	if len(mustNot) > 0 {
		for i, condition := range mustNot {
			mustNot[i] = "NOT (" + condition + ")"
		}
		conditions = append(conditions, "("+strings.Join(mustNot, " AND ")+")")
		args = append(args, mustNotArgs...)
	}

	if len(conditions) == 0 {
		return "1=1", nil, nil
	}
	return strings.Join(conditions, " AND "), args, nil
}
