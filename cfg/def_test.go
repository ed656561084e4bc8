package cfg

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type defaultsNested struct {
	Port int `def:"3306"`
}

type defaults struct {
	Host     string        `def:"localhost"`
	Enabled  bool          `def:"true"`
	Timeout  time.Duration `def:"3s"`
	Ratio    float32       `def:"0.25"`
	Size     uint16        `def:"512"`
	Hosts    []string      `def:"a, b"`
	Ports    []int         `def:"1,2"`
	Level    *string       `def:"info"`
	Nested   defaultsNested
	Optional *defaultsNested
	Set      string `def:"unused"`
}

func TestSetDefaults(t *testing.T) {
	Convey("SetDefaults", t, func() {
		Convey("零值字段", func() {
			d := &defaults{Set: "kept"}
			So(SetDefaults(d), ShouldBeNil)
			So(d.Host, ShouldEqual, "localhost")
			So(d.Enabled, ShouldBeTrue)
			So(d.Timeout, ShouldEqual, 3*time.Second)
			So(d.Ratio, ShouldEqual, float32(0.25))
			So(d.Size, ShouldEqual, uint16(512))
			So(d.Hosts, ShouldResemble, []string{"a", "b"})
			So(d.Ports, ShouldResemble, []int{1, 2})
			So(*d.Level, ShouldEqual, "info")
			So(d.Nested.Port, ShouldEqual, 3306)
			So(d.Optional, ShouldBeNil)
			So(d.Set, ShouldEqual, "kept")
		})

		Convey("非空指针递归", func() {
			d := &defaults{Optional: &defaultsNested{}}
			So(SetDefaults(d), ShouldBeNil)
			So(d.Optional.Port, ShouldEqual, 3306)
		})

		Convey("非法参数", func() {
			So(SetDefaults(nil), ShouldNotBeNil)
			So(SetDefaults(defaults{}), ShouldNotBeNil)
			So(SetDefaults(&struct {
				N int `def:"x"`
			}{}), ShouldNotBeNil)
		})
	})
}
