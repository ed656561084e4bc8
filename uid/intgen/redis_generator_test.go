package intgen

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hatlonely/rdbx/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRedisGenerator(t *testing.T) {
	Convey("RedisGenerator", t, func() {
		mr := miniredis.RunT(t)

		g, err := NewRedisGeneratorWithOptions(&RedisOptions{Addr: mr.Addr(), KeyName: "test:uid"})
		So(err, ShouldBeNil)
		defer g.Close()

		Convey("生成不重复的 ID", func() {
			seen := make(map[int64]struct{})
			for i := 0; i < 100; i++ {
				id, err := g.GenerateContext(context.Background())
				So(err, ShouldBeNil)
				seen[id] = struct{}{}
			}
			So(len(seen), ShouldEqual, 100)
		})

		Convey("高位为当前时间戳", func() {
			id := g.Generate()
			So(id>>sequenceBits, ShouldAlmostEqual, time.Now().UnixMilli(), 1000)
		})

		Convey("序列号的键会过期", func() {
			g.Generate()
			keys := mr.Keys()
			So(len(keys), ShouldBeGreaterThan, 0)
			So(mr.TTL(keys[0]), ShouldEqual, 2*time.Second)
		})

		Convey("redis 不可用", func() {
			mr.Close()
			_, err := g.GenerateContext(context.Background())
			So(err, ShouldNotBeNil)
			So(g.Generate(), ShouldBeGreaterThan, 0)
		})
	})
}

func TestNewIntGeneratorWithOptions(t *testing.T) {
	Convey("按类型配置创建", t, func() {
		mr := miniredis.RunT(t)

		g, err := NewIntGeneratorWithOptions(&ref.TypeOptions{
			Namespace: "github.com/hatlonely/rdbx/uid/intgen",
			Type:      "RedisGenerator",
			Options:   &RedisOptions{Addr: mr.Addr()},
		})
		So(err, ShouldBeNil)
		So(g.Generate(), ShouldBeGreaterThan, 0)

		g, err = NewIntGeneratorWithOptions(&ref.TypeOptions{
			Namespace: "github.com/hatlonely/rdbx/uid/intgen",
			Type:      "SnowflakeGenerator",
			Options:   &SnowflakeOptions{},
		})
		So(err, ShouldBeNil)
		So(g.Generate(), ShouldBeGreaterThan, 0)

		_, err = NewIntGeneratorWithOptions(&ref.TypeOptions{
			Namespace: "github.com/hatlonely/rdbx/uid/intgen",
			Type:      "Missing",
		})
		So(err, ShouldNotBeNil)
	})
}
