// Package message 面向用户的操作反馈，与记录的失败原因相互独立
package message

import (
	"encoding/json"
	"fmt"
	"html"
)

// Type 反馈类型
type Type string

const (
	TypeSuccess Type = "success"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Message 最近一次的反馈，零值表示没有反馈
type Message struct {
	typ  Type
	text string
}

func New(typ Type, text string) *Message {
	return &Message{typ: typ, text: text}
}

func Success(text string) *Message { return New(TypeSuccess, text) }
func Info(text string) *Message { return New(TypeInfo, text) }
func Warning(text string) *Message { return New(TypeWarning, text) }
func Error(text string) *Message { return New(TypeError, text) }

func (m *Message) Type() Type {
	if m == nil {
		return ""
	}
	return m.typ
}

func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	return m.text
}

func (m *Message) Empty() bool {
	return m == nil || m.text == ""
}

// String 形如 [warning] text
func (m *Message) String() string {
	if m.Empty() {
		return ""
	}
	return fmt.Sprintf("[%s] %s", m.typ, m.text)
}

// Render 渲染为可以直接嵌入页面的片段，文本会被转义
func (m *Message) Render() string {
	if m.Empty() {
		return ""
	}
	return fmt.Sprintf(`<div class="message message-%s">%s</div>`, m.typ, html.EscapeString(m.text))
}

func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Type   `json:"type"`
		Text string `json:"text"`
	}{m.Type(), m.Text()})
}
