package validator

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validate 进程内共享的校验器，validator.Validate 会缓存结构体信息
func Validate() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct 校验结构体的 validate tag，nil 指针和非结构体直接通过
func ValidateStruct(object interface{}) error {
	rv := reflect.ValueOf(object)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil
	}
	if rv.Type().PkgPath() == "time" && rv.Type().Name() == "Time" {
		return nil
	}
	return Validate().Struct(rv.Interface())
}
