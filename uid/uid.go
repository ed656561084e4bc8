// Package uid 整数和字符串 ID 生成器，可用作记录的主键
package uid

import (
	"github.com/hatlonely/rdbx/ref"
	"github.com/hatlonely/rdbx/uid/intgen"
	"github.com/hatlonely/rdbx/uid/strgen"
)

func NewIntGeneratorWithOptions(options *ref.TypeOptions) (intgen.IntGenerator, error) {
	return intgen.NewIntGeneratorWithOptions(options)
}

func NewStrGeneratorWithOptions(options *ref.TypeOptions) (strgen.StrGenerator, error) {
	return strgen.NewStrGeneratorWithOptions(options)
}

// NewIntGenerator 默认的 snowflake 生成器
func NewIntGenerator() intgen.IntGenerator {
	g, _ := intgen.NewSnowflakeGeneratorWithOptions(nil)
	return g
}

// NewStrGenerator 默认的 uuid v4 生成器，不带连字符
func NewStrGenerator() strgen.StrGenerator {
	g, _ := strgen.NewUUIDGeneratorWithOptions(nil)
	return g
}
