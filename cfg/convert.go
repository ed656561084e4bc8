package cfg

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var timeType = reflect.TypeOf(time.Time{})

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// convert 将解码后的通用数据写入 dst
// 结构体字段名取 cfg tag，大小写不敏感；interface{} 字段收到对象时保存为 Map，供 ref 进一步转换
func convert(src interface{}, dst reflect.Value) error {
	if src == nil {
		return nil
	}
	if n, ok := src.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			src = i
		} else if f, err := n.Float64(); err == nil {
			src = f
		} else {
			src = n.String()
		}
	}
	if m, ok := src.(Map); ok {
		src = map[string]interface{}(m)
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convert(src, dst.Elem())
	}

	sv := reflect.ValueOf(src)

	switch {
	case dst.Type() == durationType:
		return convertDuration(sv, dst)
	case dst.Type() == timeType:
		return convertTime(sv, dst)
	}

	switch dst.Kind() {
	case reflect.Interface:
		if m, ok := src.(map[string]interface{}); ok {
			src = Map(m)
		}
		v := reflect.ValueOf(src)
		if !v.Type().AssignableTo(dst.Type()) {
			return errors.Errorf("cannot assign %T to %v", src, dst.Type())
		}
		dst.Set(v)
		return nil
	case reflect.Struct:
		return convertStruct(sv, dst)
	case reflect.Map:
		return convertMap(sv, dst)
	case reflect.Slice:
		return convertSlice(sv, dst)
	case reflect.String:
		switch sv.Kind() {
		case reflect.Map, reflect.Slice, reflect.Struct:
			return errors.Errorf("cannot convert %T to string", src)
		}
		dst.SetString(fmt.Sprint(src))
		return nil
	case reflect.Bool:
		if sv.Kind() == reflect.String {
			b, err := strconv.ParseBool(strings.TrimSpace(sv.String()))
			if err != nil {
				return errors.Wrapf(err, "invalid bool %q", sv.String())
			}
			dst.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if sv.Kind() == reflect.String {
			return convertNumber(strings.TrimSpace(sv.String()), dst)
		}
		if isNumber(sv.Kind()) {
			dst.Set(sv.Convert(dst.Type()))
			return nil
		}
	}

	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	return errors.Errorf("cannot convert %T to %v", src, dst.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convertNumber(text string, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, dst.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "invalid float %q", text)
		}
		dst.SetFloat(f)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(text, 0, dst.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "invalid uint %q", text)
		}
		dst.SetUint(u)
	default:
		i, err := strconv.ParseInt(text, 0, dst.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "invalid int %q", text)
		}
		dst.SetInt(i)
	}
	return nil
}

// convertDuration 字符串按 time.ParseDuration 解析，整数视为纳秒，浮点数视为秒
func convertDuration(src reflect.Value, dst reflect.Value) error {
	switch src.Kind() {
	case reflect.String:
		d, err := time.ParseDuration(strings.TrimSpace(src.String()))
		if err != nil {
			return errors.Wrapf(err, "invalid duration %q", src.String())
		}
		dst.SetInt(int64(d))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(src.Int())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetInt(int64(src.Uint()))
		return nil
	case reflect.Float32, reflect.Float64:
		dst.SetInt(int64(src.Float() * float64(time.Second)))
		return nil
	}
	return errors.Errorf("cannot convert %v to time.Duration", src.Type())
}

func convertTime(src reflect.Value, dst reflect.Value) error {
	if src.Type() == timeType {
		dst.Set(src)
		return nil
	}
	if src.Kind() == reflect.String {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, src.String()); err == nil {
				dst.Set(reflect.ValueOf(t))
				return nil
			}
		}
		return errors.Errorf("invalid time %q", src.String())
	}
	if src.Kind() >= reflect.Int && src.Kind() <= reflect.Int64 {
		dst.Set(reflect.ValueOf(time.Unix(src.Int(), 0)))
		return nil
	}
	return errors.Errorf("cannot convert %v to time.Time", src.Type())
}

func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("cfg")
	if tag == "-" {
		return "", false
	}
	if name := strings.Split(tag, ",")[0]; name != "" {
		return name, true
	}
	return field.Name, true
}

func lookupKey(src reflect.Value, name string) (reflect.Value, bool) {
	if v := src.MapIndex(reflect.ValueOf(name)); v.IsValid() {
		return v, true
	}
	for _, key := range src.MapKeys() {
		if strings.EqualFold(key.String(), name) {
			return src.MapIndex(key), true
		}
	}
	return reflect.Value{}, false
}

func convertStruct(src reflect.Value, dst reflect.Value) error {
	if src.Kind() != reflect.Map || src.Type().Key().Kind() != reflect.String {
		return errors.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
	}

	rt := dst.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !dst.Field(i).CanSet() {
			continue
		}
		name, ok := fieldName(field)
		if !ok {
			continue
		}
		value, ok := lookupKey(src, name)
		if !ok {
			continue
		}
		if err := convert(value.Interface(), dst.Field(i)); err != nil {
			return errors.WithMessagef(err, "field %s", name)
		}
	}
	return nil
}

func convertMap(src reflect.Value, dst reflect.Value) error {
	if src.Kind() != reflect.Map {
		return errors.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
	}
	for _, key := range src.MapKeys() {
		k := reflect.New(dst.Type().Key()).Elem()
		if err := convert(key.Interface(), k); err != nil {
			return errors.WithMessagef(err, "key %v", key.Interface())
		}
		v := reflect.New(dst.Type().Elem()).Elem()
		if err := convert(src.MapIndex(key).Interface(), v); err != nil {
			return errors.WithMessagef(err, "key %v", key.Interface())
		}
		dst.SetMapIndex(k, v)
	}
	return nil
}

// convertSlice 字符串按逗号拆分，便于从环境变量和 ini 设置列表
func convertSlice(src reflect.Value, dst reflect.Value) error {
	if src.Kind() == reflect.String {
		parts := strings.Split(src.String(), ",")
		items := make([]interface{}, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		src = reflect.ValueOf(items)
	}
	if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
		return errors.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
	}

	slice := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
	for i := 0; i < src.Len(); i++ {
		if err := convert(src.Index(i).Interface(), slice.Index(i)); err != nil {
			return errors.WithMessagef(err, "index %d", i)
		}
	}
	dst.Set(slice)
	return nil
}
