package cfg

import (
	"reflect"
	"strings"

	"github.com/hatlonely/rdbx/cfg/validator"
	"github.com/pkg/errors"
)

// Map 解码后的配置树，实现 ref.Convertable
type Map map[string]interface{}

// Get 按 a.b.c 形式的路径取值，不存在返回 nil
func (m Map) Get(key string) interface{} {
	var current interface{} = map[string]interface{}(m)
	for _, part := range strings.Split(key, ".") {
		node, ok := asMap(current)
		if !ok {
			return nil
		}
		current, ok = node[part]
		if !ok {
			return nil
		}
	}
	return current
}

// Sub 子树，不存在或者不是对象时返回空 Map
func (m Map) Sub(key string) Map {
	node, ok := asMap(m.Get(key))
	if !ok {
		return Map{}
	}
	return Map(node)
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Map:
		return t, true
	}
	return nil, false
}

// ConvertTo 写入 object 指向的结构体，然后设置默认值并校验
func (m Map) ConvertTo(object interface{}) error {
	rv := reflect.ValueOf(object)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("object must be a non-nil pointer, got %T", object)
	}
	if err := convert(map[string]interface{}(m), rv.Elem()); err != nil {
		return errors.WithMessagef(err, "convert to %T failed", object)
	}
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "set defaults failed")
	}
	if err := validator.ValidateStruct(object); err != nil {
		return errors.Wrap(err, "validate failed")
	}
	return nil
}
