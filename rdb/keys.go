package rdb

import (
	"github.com/hatlonely/rdbx/uid/intgen"
	"github.com/hatlonely/rdbx/uid/strgen"
)

// KeyGenerator 为新记录生成主键
type KeyGenerator interface {
	NextKey() Value
}

// KeyGeneratorFunc 函数形式的 KeyGenerator
type KeyGeneratorFunc func() Value

func (f KeyGeneratorFunc) NextKey() Value { return f() }

// IntKeys 使用整数生成器（如 snowflake）生成主键
func IntKeys(gen intgen.IntGenerator) KeyGenerator {
	return KeyGeneratorFunc(func() Value { return Int(gen.Generate()) })
}

// StrKeys 使用字符串生成器（如 uuid）生成主键
func StrKeys(gen strgen.StrGenerator) KeyGenerator {
	return KeyGeneratorFunc(func() Value { return String(gen.Generate()) })
}
