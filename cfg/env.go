package cfg

import (
	"os"
	"strings"
	"unicode"
)

// applyEnv 用环境变量覆盖已存在的配置项
// 变量名为前缀加上路径各段的大写蛇形形式，如 PREFIX_CONNECTION_OPTIONS_MAX_CONNS
func applyEnv(m map[string]interface{}, prefix string) {
	for key, value := range m {
		name := prefix + "_" + envName(key)
		if child, ok := asMap(value); ok {
			applyEnv(child, name)
			continue
		}
		if v, ok := os.LookupEnv(name); ok {
			m[key] = v
		}
	}
}

func envName(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
