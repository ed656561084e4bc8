package query

import (
	"fmt"
	"strings"
)

// 各数据库都支持的 LIKE 转义字符
const escapeChar = "!"

var likeEscaper = strings.NewReplacer(escapeChar, escapeChar+escapeChar, "%", escapeChar+"%", "_", escapeChar+"_")

func like(field string, pattern string) (string, []interface{}, error) {
	if err := checkField(field); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s LIKE ? ESCAPE '%s'", field, escapeChar), []interface{}{pattern}, nil
}

// MatchQuery 包含匹配，LIKE %value%
type MatchQuery struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

func (q *MatchQuery) Type() QueryType {
	return QueryTypeMatch
}

func (q *MatchQuery) ToSQL() (string, []interface{}, error) {
	return like(q.Field, "%"+likeEscaper.Replace(fmt.Sprint(q.Value))+"%")
}

// PrefixQuery 前缀匹配，LIKE value%
type PrefixQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (q *PrefixQuery) Type() QueryType {
	return QueryTypePrefix
}

func (q *PrefixQuery) ToSQL() (string, []interface{}, error) {
	return like(q.Field, likeEscaper.Replace(q.Value)+"%")
}

// WildcardQuery 通配符匹配，* 匹配任意个字符，? 匹配单个字符
type WildcardQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (q *WildcardQuery) Type() QueryType {
	return QueryTypeWildcard
}

func (q *WildcardQuery) ToSQL() (string, []interface{}, error) {
	pattern := strings.NewReplacer("*", "%", "?", "_").Replace(likeEscaper.Replace(q.Value))
	return like(q.Field, pattern)
}
