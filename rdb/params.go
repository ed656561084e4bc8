package rdb

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseParams 解析 key=value&key2=value2 形式的绑定参数，重复的 key 以最后一个为准
func ParseParams(params string) (map[string]string, error) {
	result := map[string]string{}
	if params == "" {
		return result, nil
	}
	values, err := url.ParseQuery(params)
	if err != nil {
		return nil, errors.Wrapf(err, "parse params %q", params)
	}
	for k, vs := range values {
		if len(vs) > 0 {
			result[k] = vs[len(vs)-1]
		}
	}
	return result, nil
}

// 匹配 column op :param，用于找到参数对应的字段
var comparisonPattern = regexp.MustCompile(`(?i)([a-zA-Z_][a-zA-Z0-9_.]*)\s*(=|<>|!=|<=|>=|<|>|\s+like\s+|\s+not\s+like\s+)\s*:([a-zA-Z_][a-zA-Z0-9_]*)`)

// paramColumns 返回参数名到字段名的映射
func paramColumns(terms string) map[string]string {
	result := map[string]string{}
	for _, m := range comparisonPattern.FindAllStringSubmatch(terms, -1) {
		column := m[1]
		if i := strings.LastIndex(column, "."); i >= 0 {
			column = column[i+1:]
		}
		result[m[3]] = column
	}
	return result
}

// bindParams 按字段声明的类型转换字符串参数，未声明类型的字段按字符串绑定
func (d *Descriptor) bindParams(terms string, raw map[string]string) (map[string]Value, error) {
	columns := paramColumns(terms)
	bound := make(map[string]Value, len(raw))
	for name, text := range raw {
		ft, ok := d.FieldType(columns[name])
		if !ok {
			bound[name] = String(text)
			continue
		}
		v, err := convertParam(text, ft)
		if err != nil {
			return nil, errors.Wrapf(err, "bind parameter %s=%s to %s column %s", name, text, ft, columns[name])
		}
		bound[name] = v
	}
	return bound, nil
}

func convertParam(text string, ft FieldType) (Value, error) {
	switch ft {
	case FieldTypeInt:
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Null(), err
		}
		return Int(i), nil
	case FieldTypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return Null(), err
		}
		return Float(f), nil
	case FieldTypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return Null(), err
		}
		return Bool(b), nil
	}
	return String(text), nil
}

// namePlaceholders 将 ? 占位符改写为 :prefix1, :prefix2 ...，跳过字符串字面量
func namePlaceholders(text string, args []any, prefix string) (string, map[string]Value, error) {
	var b strings.Builder
	params := make(map[string]Value, len(args))
	n := 0
	var quote rune
	for _, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			if n >= len(args) {
				return "", nil, errors.Errorf("placeholder %d has no argument", n+1)
			}
			n++
			name := prefix + strconv.Itoa(n)
			params[name] = ValueOf(args[n-1])
			b.WriteString(":" + name)
			continue
		}
		b.WriteRune(r)
	}
	if n != len(args) {
		return "", nil, errors.Errorf("%d arguments for %d placeholders", len(args), n)
	}
	return b.String(), params, nil
}

func toDriverParams(params map[string]Value) map[string]any {
	m := make(map[string]any, len(params))
	for k, v := range params {
		m[k] = v.Interface()
	}
	return m
}
