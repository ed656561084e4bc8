package rdb

import (
	"reflect"
	"time"

	"github.com/pkg/errors"
)

var timeType = reflect.TypeOf(time.Time{})

// structToValues 按 rdb tag 将结构体字段转换为列值，未打 tag 的字段使用蛇形字段名
func structToValues(v any) (map[string]Value, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, errors.New("src is a nil pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.Errorf("src must be a struct, got %T", v)
	}

	result := make(map[string]Value)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("rdb")
		if !field.IsExported() || tag == "-" {
			continue
		}
		def, _ := parseFieldTag(field, tag)
		result[def.Name] = ValueOf(rv.Field(i).Interface())
	}
	return result, nil
}

// valuesToStruct 将列值写入结构体，Null 和不存在的列保持字段原值
func valuesToStruct(a *Attributes, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("dest must be a pointer to struct, got %T", dest)
	}

	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("rdb")
		if !field.IsExported() || tag == "-" {
			continue
		}
		def, _ := parseFieldTag(field, tag)
		value, ok := a.Lookup(def.Name)
		if !ok || value.IsNull() {
			continue
		}
		if err := setFieldValue(rv.Field(i), value); err != nil {
			return errors.WithMessagef(err, "set field %s from column %s", field.Name, def.Name)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value Value) error {
	if field.Kind() == reflect.Ptr {
		p := reflect.New(field.Type().Elem())
		if err := setFieldValue(p.Elem(), value); err != nil {
			return err
		}
		field.Set(p)
		return nil
	}

	if field.Type() == timeType {
		t, err := parseTime(value.AsString())
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value.AsString())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := value.AsInt(); ok {
			field.SetInt(i)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := value.AsInt(); ok && i >= 0 {
			field.SetUint(uint64(i))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		if f, ok := value.AsFloat(); ok {
			field.SetFloat(f)
			return nil
		}
	case reflect.Bool:
		if b, ok := value.AsBool(); ok {
			field.SetBool(b)
			return nil
		}
	case reflect.Interface:
		if field.NumMethod() == 0 {
			field.Set(reflect.ValueOf(value.Interface()))
			return nil
		}
	}

	raw := reflect.ValueOf(value.Interface())
	if raw.Type().ConvertibleTo(field.Type()) {
		field.Set(raw.Convert(field.Type()))
		return nil
	}
	return errors.Errorf("cannot convert %s value %s to %v", value.Kind(), value, field.Type())
}

func parseTime(text string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("cannot parse %q as time", text)
}
