package rdb

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"
)

// FieldType 字段类型
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
	FieldTypeDate   FieldType = "date"
	FieldTypeJSON   FieldType = "json"
)

// FieldDefinition 字段定义
type FieldDefinition struct {
	Name     string
	Type     FieldType
	Required bool
	Default  any
	Size     int // 字段长度，如 VARCHAR(255)
}

// Descriptor 实体描述：表名、主键、必填字段、时间戳策略，创建后不可修改
type Descriptor struct {
	name           string
	table          string
	primaryKey     string
	required       []string
	timestamps     bool
	createdAtField string
	updatedAtField string
	fields         []FieldDefinition
	keyGenerator   KeyGenerator

	fieldTypes map[string]FieldType
}

type DescriptorOption func(*Descriptor)

func WithPrimaryKey(column string) DescriptorOption {
	return func(d *Descriptor) { d.primaryKey = column }
}

func WithTimestamps(enabled bool) DescriptorOption {
	return func(d *Descriptor) { d.timestamps = enabled }
}

func WithTimestampFields(createdAt, updatedAt string) DescriptorOption {
	return func(d *Descriptor) {
		d.createdAtField = createdAt
		d.updatedAtField = updatedAt
	}
}

// WithFields 声明字段类型，查询参数绑定时按类型转换
func WithFields(fields ...FieldDefinition) DescriptorOption {
	return func(d *Descriptor) { d.fields = append(d.fields, fields...) }
}

func WithName(name string) DescriptorOption {
	return func(d *Descriptor) { d.name = name }
}

// WithKeyGenerator 插入时由生成器提供主键，而不是依赖数据库自增
func WithKeyGenerator(gen KeyGenerator) DescriptorOption {
	return func(d *Descriptor) { d.keyGenerator = gen }
}

// NewDescriptor 创建实体描述，主键默认 id，默认开启时间戳
func NewDescriptor(table string, required []string, opts ...DescriptorOption) (*Descriptor, error) {
	d := &Descriptor{
		table:          table,
		primaryKey:     "id",
		required:       append([]string(nil), required...),
		timestamps:     true,
		createdAtField: "created_at",
		updatedAtField: "updated_at",
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// MustNewDescriptor 同 NewDescriptor，出错时 panic，用于包级变量初始化
func MustNewDescriptor(table string, required []string, opts ...DescriptorOption) *Descriptor {
	d, err := NewDescriptor(table, required, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

func validateIdentifier(kind string, name string) error {
	if name == "" {
		return errors.Errorf("%s is empty", kind)
	}
	if len(name) > 128 {
		return errors.Errorf("%s %q is longer than 128 characters", kind, name)
	}
	if !identifierPattern.MatchString(name) {
		return errors.Errorf("%s %q is not a valid identifier", kind, name)
	}
	return nil
}

func (d *Descriptor) init() error {
	if err := validateIdentifier("table", d.table); err != nil {
		return err
	}
	if err := validateIdentifier("primary key", d.primaryKey); err != nil {
		return err
	}
	if d.name == "" {
		d.name = d.table
	}
	d.fieldTypes = make(map[string]FieldType, len(d.fields))
	for _, f := range d.fields {
		d.fieldTypes[f.Name] = f.Type
	}
	return nil
}

func (d *Descriptor) Name() string { return d.name }

func (d *Descriptor) Table() string { return d.table }

func (d *Descriptor) PrimaryKey() string { return d.primaryKey }

// Required 必填字段，返回副本
func (d *Descriptor) Required() []string {
	return append([]string(nil), d.required...)
}

func (d *Descriptor) Timestamps() bool { return d.timestamps }

// TimestampFields 创建时间和更新时间字段，为空表示不写入
func (d *Descriptor) TimestampFields() (string, string) {
	return d.createdAtField, d.updatedAtField
}

// Fields 声明的字段，返回副本
func (d *Descriptor) Fields() []FieldDefinition {
	return append([]FieldDefinition(nil), d.fields...)
}

func (d *Descriptor) KeyGenerator() KeyGenerator { return d.keyGenerator }

// FieldType 返回声明的字段类型
func (d *Descriptor) FieldType(column string) (FieldType, bool) {
	t, ok := d.fieldTypes[column]
	return t, ok
}

// TableNamer 实现该接口的结构体使用自定义表名
type TableNamer interface {
	TableName() string
}

// DescriptorFromStruct 从结构体构建实体描述
// 支持的 tag 格式：
// - `rdb:"column_name,type=float,size=255,required,primary"`
// - `table:"table_name"` 用于指定表名
// 未指定表名时使用类型名的蛇形复数形式，如 OrderItem -> order_items
func DescriptorFromStruct(v any, opts ...DescriptorOption) (*Descriptor, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.Errorf("expected struct, got %T", v)
	}
	rt := rv.Type()

	table := ""
	if namer, ok := v.(TableNamer); ok {
		table = namer.TableName()
	}

	var fields []FieldDefinition
	var required []string
	primary := ""
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if tag := field.Tag.Get("table"); tag != "" && table == "" {
			table = tag
		}
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("rdb")
		if tag == "-" {
			continue
		}
		def, isPrimary := parseFieldTag(field, tag)
		fields = append(fields, def)
		if def.Required {
			required = append(required, def.Name)
		}
		if isPrimary {
			primary = def.Name
		}
	}
	if table == "" {
		table = inflection.Plural(toSnakeCase(rt.Name()))
	}

	all := []DescriptorOption{WithFields(fields...), WithName(rt.Name())}
	if primary != "" {
		all = append(all, WithPrimaryKey(primary))
	}
	return NewDescriptor(table, required, append(all, opts...)...)
}

func parseFieldTag(field reflect.StructField, tag string) (FieldDefinition, bool) {
	def := FieldDefinition{
		Name: toSnakeCase(field.Name),
		Type: inferFieldType(field.Type),
	}
	isPrimary := false
	if tag == "" {
		return def, false
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" && !strings.Contains(parts[0], "=") {
		def.Name = parts[0]
		parts = parts[1:]
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, ok := strings.Cut(part, "="); ok {
			switch strings.TrimSpace(key) {
			case "type":
				def.Type = FieldType(strings.TrimSpace(value))
			case "size":
				if size, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
					def.Size = size
				}
			case "default":
				def.Default = parseDefaultValue(strings.TrimSpace(value), def.Type)
			}
			continue
		}
		switch part {
		case "required", "not_null":
			def.Required = true
		case "primary", "pk":
			isPrimary = true
		}
	}
	return def, isPrimary
}

func inferFieldType(t reflect.Type) FieldType {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return FieldTypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldTypeInt
	case reflect.Float32, reflect.Float64:
		return FieldTypeFloat
	case reflect.Bool:
		return FieldTypeBool
	}
	if t.String() == "time.Time" {
		return FieldTypeDate
	}
	return FieldTypeJSON
}

func parseDefaultValue(value string, fieldType FieldType) any {
	switch fieldType {
	case FieldTypeString:
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			return value[1 : len(value)-1]
		}
		return value
	case FieldTypeInt:
		i, _ := strconv.ParseInt(value, 10, 64)
		return i
	case FieldTypeFloat:
		f, _ := strconv.ParseFloat(value, 64)
		return f
	case FieldTypeBool:
		return value == "true" || value == "1"
	}
	return value
}

func toSnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
