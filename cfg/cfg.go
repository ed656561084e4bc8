// Package cfg 从 json/yaml/toml/ini 文件加载配置到结构体
//
// 字段名取 cfg tag，默认值取 def tag，校验规则取 validate tag：
//
//	type Options struct {
//		Connection *ref.TypeOptions `cfg:"connection" validate:"required"`
//		Timeout    time.Duration    `cfg:"timeout" def:"3s"`
//	}
package cfg

import (
	"os"

	"github.com/hatlonely/rdbx/cfg/validator"
	"github.com/pkg/errors"
)

type options struct {
	envPrefix string
}

type Option func(*options)

// WithEnvPrefix 加载后用带前缀的环境变量覆盖配置项
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// Load 按扩展名解码配置文件并写入 object
func Load(path string, object interface{}, opts ...Option) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s failed", path)
	}
	return errors.WithMessagef(LoadBytes(data, format, object, opts...), "load %s", path)
}

// LoadBytes 解码配置内容并写入 object
func LoadBytes(data []byte, format Format, object interface{}, opts ...Option) error {
	m, err := LoadMap(data, format, opts...)
	if err != nil {
		return err
	}
	return m.ConvertTo(object)
}

// LoadMap 解码配置内容并应用环境变量，不转换为结构体
func LoadMap(data []byte, format Format, opts ...Option) (Map, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	m, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	if o.envPrefix != "" {
		applyEnv(m, o.envPrefix)
	}
	return m, nil
}

// ValidateStruct 校验结构体的 validate tag
func ValidateStruct(object interface{}) error {
	return validator.ValidateStruct(object)
}
