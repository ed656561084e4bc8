package rdb

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAttributes(t *testing.T) {
	Convey("Attributes", t, func() {
		Convey("零值可用", func() {
			var a Attributes
			So(a.Get("name").IsNull(), ShouldBeTrue)
			So(a.Has("name"), ShouldBeFalse)
			So(a.Len(), ShouldEqual, 0)
			So(a.Snapshot(), ShouldBeEmpty)

			a.Set("name", "Pen")
			So(a.Get("name"), ShouldResemble, String("Pen"))
		})

		Convey("nil 指针", func() {
			var a *Attributes
			So(a.Get("name").IsNull(), ShouldBeTrue)
			So(a.Has("name"), ShouldBeFalse)
			So(a.Keys(), ShouldBeNil)
			So(a.Map(), ShouldBeEmpty)
			a.Unset("name")
		})

		Convey("Null 也算已设置", func() {
			a := NewAttributes(map[string]any{"category": nil})
			So(a.Has("category"), ShouldBeTrue)
			v, ok := a.Lookup("category")
			So(ok, ShouldBeTrue)
			So(v.IsNull(), ShouldBeTrue)
		})

		Convey("快照不受后续修改影响", func() {
			a := NewAttributes(map[string]any{"name": "Pen", "price": 1.5})
			snapshot := a.Snapshot()
			a.Set("name", "Book")
			a.Unset("price")
			So(snapshot["name"], ShouldResemble, String("Pen"))
			So(snapshot["price"], ShouldResemble, Float(1.5))
			So(a.Keys(), ShouldResemble, []string{"name"})
		})

		Convey("Keys 和 Map", func() {
			a := NewAttributes(map[string]any{"b": 2, "a": "x", "c": nil})
			So(a.Keys(), ShouldResemble, []string{"a", "b", "c"})
			So(a.Map(), ShouldResemble, map[string]any{"a": "x", "b": int64(2), "c": nil})
		})
	})
}
