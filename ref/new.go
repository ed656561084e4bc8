package ref

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeOptions 通过命名空间和类型名描述一个可构造对象
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type"`
	Options   any    `cfg:"options"`
}

// Convertable 可以转换为构造函数参数类型的配置数据，如 cfg.Map
type Convertable interface {
	// ConvertTo object 为指向目标对象的指针
	ConvertTo(object interface{}) error
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type constructor struct {
	fn        reflect.Value
	paramType reflect.Type
	withError bool
}

// newConstructor 构造函数必须形如 func() T、func(O) T、func() (T, error) 或 func(O) (T, error)
func newConstructor(fn any) (*constructor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %T", fn)
	}

	t := v.Type()
	if t.NumIn() > 1 {
		return nil, fmt.Errorf("constructor must have 0 or 1 input parameters, got %d", t.NumIn())
	}
	if t.NumOut() != 1 && t.NumOut() != 2 {
		return nil, fmt.Errorf("constructor must have 1 or 2 return values, got %d", t.NumOut())
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("second return value must be error, got %v", t.Out(1))
	}

	c := &constructor{fn: v, withError: t.NumOut() == 2}
	if t.NumIn() == 1 {
		c.paramType = t.In(0)
	}
	return c, nil
}

func (c *constructor) new(options any) (any, error) {
	var args []reflect.Value
	if c.paramType != nil {
		arg, err := c.argument(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	out := c.fn.Call(args)
	if c.withError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// argument 将 options 转换为构造函数参数，类型不匹配时返回错误
func (c *constructor) argument(options any) (reflect.Value, error) {
	if options == nil {
		return reflect.Value{}, fmt.Errorf("constructor requires options of type %v but got nil", c.paramType)
	}

	if convertable, ok := options.(Convertable); ok {
		if c.paramType.Kind() == reflect.Ptr {
			target := reflect.New(c.paramType.Elem())
			if err := convertable.ConvertTo(target.Interface()); err != nil {
				return reflect.Value{}, fmt.Errorf("convert options to %v: %w", c.paramType, err)
			}
			return target, nil
		}
		target := reflect.New(c.paramType)
		if err := convertable.ConvertTo(target.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("convert options to %v: %w", c.paramType, err)
		}
		return target.Elem(), nil
	}

	v := reflect.ValueOf(options)
	switch {
	case v.Type().AssignableTo(c.paramType):
		return v, nil
	case v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Type().AssignableTo(c.paramType):
		return v.Elem(), nil
	case c.paramType.Kind() == reflect.Ptr && v.Type().AssignableTo(c.paramType.Elem()):
		p := reflect.New(c.paramType.Elem())
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, fmt.Errorf("options type %T is not assignable to %v", options, c.paramType)
}

var constructors sync.Map

func key(namespace string, typ string) string {
	return namespace + ":" + typ
}

// Register 注册构造函数，同一个函数重复注册被忽略，不同函数注册到同一个名字返回错误
func Register(namespace string, typ string, fn any) error {
	c, err := newConstructor(fn)
	if err != nil {
		return fmt.Errorf("register %s:%s: %w", namespace, typ, err)
	}

	existing, loaded := constructors.LoadOrStore(key(namespace, typ), c)
	if loaded && existing.(*constructor).fn.Pointer() != c.fn.Pointer() {
		return fmt.Errorf("constructor for %s:%s already registered with different function", namespace, typ)
	}
	return nil
}

// RegisterT 以 T 的包路径和类型名作为命名空间和类型注册
func RegisterT[T any](fn any) error {
	namespace, typ, err := nameOf[T]()
	if err != nil {
		return err
	}
	return Register(namespace, typ, fn)
}

func MustRegister(namespace string, typ string, fn any) {
	if err := Register(namespace, typ, fn); err != nil {
		panic(err)
	}
}

func MustRegisterT[T any](fn any) {
	if err := RegisterT[T](fn); err != nil {
		panic(err)
	}
}

func nameOf[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", fmt.Errorf("cannot determine package path or type name for %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}

// New 调用注册的构造函数创建对象
func New(namespace string, typ string, options any) (any, error) {
	v, ok := constructors.Load(key(namespace, typ))
	if !ok {
		return nil, fmt.Errorf("constructor not found for %s:%s", namespace, typ)
	}
	return v.(*constructor).new(options)
}

// NewT 以 T 的包路径和类型名查找构造函数
func NewT[T any](options any) (T, error) {
	var zero T
	namespace, typ, err := nameOf[T]()
	if err != nil {
		return zero, err
	}
	obj, err := New(namespace, typ, options)
	if err != nil {
		return zero, err
	}
	result, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("created object %T is not of type %T", obj, zero)
	}
	return result, nil
}

// NewWithOptions 按 TypeOptions 创建对象
func NewWithOptions(options *TypeOptions) (any, error) {
	if options == nil {
		return nil, fmt.Errorf("type options is nil")
	}
	return New(options.Namespace, options.Type, options.Options)
}
