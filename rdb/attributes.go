package rdb

import "sort"

// Attributes 一条记录在内存中的字段集合，零值可用
type Attributes struct {
	data map[string]Value
}

// NewAttributes 从 map 创建字段集合
func NewAttributes(m map[string]any) *Attributes {
	a := &Attributes{}
	for k, v := range m {
		a.Set(k, v)
	}
	return a
}

func (a *Attributes) Set(name string, value any) {
	if a.data == nil {
		a.data = make(map[string]Value)
	}
	a.data[name] = ValueOf(value)
}

// Get 未设置的字段返回 Null
func (a *Attributes) Get(name string) Value {
	if a == nil {
		return Null()
	}
	return a.data[name]
}

func (a *Attributes) Lookup(name string) (Value, bool) {
	if a == nil {
		return Null(), false
	}
	v, ok := a.data[name]
	return v, ok
}

func (a *Attributes) Has(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

func (a *Attributes) Unset(name string) {
	if a == nil {
		return
	}
	delete(a.data, name)
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.data)
}

// Keys 按字典序返回字段名
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, 0, len(a.data))
	for k := range a.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot 返回当前字段的拷贝，之后对 Attributes 的修改不会反映到快照中
func (a *Attributes) Snapshot() map[string]Value {
	snapshot := make(map[string]Value, a.Len())
	if a == nil {
		return snapshot
	}
	for k, v := range a.data {
		snapshot[k] = v
	}
	return snapshot
}

// Map 返回驱动可以直接使用的值
func (a *Attributes) Map() map[string]any {
	m := make(map[string]any, a.Len())
	if a == nil {
		return m
	}
	for k, v := range a.data {
		m[k] = v.Interface()
	}
	return m
}
