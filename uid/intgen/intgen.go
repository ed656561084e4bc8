package intgen

import (
	"github.com/hatlonely/rdbx/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[SnowflakeGenerator](NewSnowflakeGeneratorWithOptions)
	ref.MustRegisterT[RedisGenerator](NewRedisGeneratorWithOptions)
}

// IntGenerator 生成 64 位整数 ID
type IntGenerator interface {
	Generate() int64
}

// NewIntGeneratorWithOptions 按类型配置创建整数生成器
// Namespace 为 github.com/hatlonely/rdbx/uid/intgen，Type 为 SnowflakeGenerator 或 RedisGenerator
func NewIntGeneratorWithOptions(options *ref.TypeOptions) (IntGenerator, error) {
	generator, err := ref.NewWithOptions(options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}
	g, ok := generator.(IntGenerator)
	if !ok {
		return nil, errors.Errorf("%T is not an IntGenerator", generator)
	}
	return g, nil
}
