package database

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PlaceholderStyle 驱动使用的位置参数格式
type PlaceholderStyle int

const (
	// Question mysql、sqlite 使用 ?
	Question PlaceholderStyle = iota
	// Dollar postgres 使用 $1, $2 ...
	Dollar
)

// ErrMissingParam 语句中的命名参数没有提供值
var ErrMissingParam = errors.New("missing parameter")

// BindNamed 将 :name 形式的命名参数改写为位置参数并按顺序给出参数值
// 字符串字面量、引号标识符中的 :name 以及 :: 类型转换不做处理
func BindNamed(text string, params map[string]any, style PlaceholderStyle) (string, []any, error) {
	positional, names := parseNamed(text, style)
	args, err := bindArgs(names, params)
	if err != nil {
		return "", nil, err
	}
	return positional, args, nil
}

func bindArgs(names []string, params map[string]any) ([]any, error) {
	args := make([]any, 0, len(names))
	for _, name := range names {
		v, ok := params[name]
		if !ok {
			return nil, errors.Wrapf(ErrMissingParam, ":%s", name)
		}
		args = append(args, v)
	}
	return args, nil
}

func parseNamed(text string, style PlaceholderStyle) (string, []string) {
	var b strings.Builder
	var names []string
	runes := []rune(text)
	var quote rune

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		switch {
		case r == '\'' || r == '"' || r == '`':
			quote = r
			b.WriteRune(r)
		case r == ':' && i+1 < len(runes) && runes[i+1] == ':':
			b.WriteString("::")
			i++
		case r == ':' && i+1 < len(runes) && isNameStart(runes[i+1]):
			j := i + 1
			for j < len(runes) && isNamePart(runes[j]) {
				j++
			}
			names = append(names, string(runes[i+1:j]))
			if style == Dollar {
				b.WriteString("$" + strconv.Itoa(len(names)))
			} else {
				b.WriteByte('?')
			}
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), names
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNamePart(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9')
}
