package message

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMessage(t *testing.T) {
	Convey("反馈消息", t, func() {
		Convey("各类型", func() {
			So(Success("ok").Type(), ShouldEqual, TypeSuccess)
			So(Info("fyi").Type(), ShouldEqual, TypeInfo)
			So(Warning("careful").Type(), ShouldEqual, TypeWarning)
			So(Error("boom").Type(), ShouldEqual, TypeError)
		})

		Convey("文本与格式", func() {
			m := Warning("fill in the required fields: name")
			So(m.Text(), ShouldEqual, "fill in the required fields: name")
			So(m.String(), ShouldEqual, "[warning] fill in the required fields: name")
			So(m.Empty(), ShouldBeFalse)
		})

		Convey("渲染时转义", func() {
			So(Error("<b>x</b>").Render(), ShouldEqual,
				`<div class="message message-error">&lt;b&gt;x&lt;/b&gt;</div>`)
		})

		Convey("nil 消息", func() {
			var m *Message
			So(m.Empty(), ShouldBeTrue)
			So(m.String(), ShouldEqual, "")
			So(m.Render(), ShouldEqual, "")
			buf, err := json.Marshal(m)
			So(err, ShouldBeNil)
			So(string(buf), ShouldEqual, "null")
		})

		Convey("JSON", func() {
			buf, err := json.Marshal(Success("saved"))
			So(err, ShouldBeNil)
			So(string(buf), ShouldEqual, `{"type":"success","text":"saved"}`)
		})
	})
}
