package intgen

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSnowflakeGenerator(t *testing.T) {
	Convey("SnowflakeGenerator", t, func() {
		Convey("指定机器 ID", func() {
			machineID := int64(123)
			g, err := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &machineID})
			So(err, ShouldBeNil)

			ts, mid, _ := Decompose(g.Generate())
			So(mid, ShouldEqual, int64(123))
			So(time.Since(ts), ShouldBeLessThan, time.Minute)
		})

		Convey("机器 ID 越界", func() {
			machineID := int64(maxMachineID + 1)
			_, err := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &machineID})
			So(err, ShouldNotBeNil)
		})

		Convey("递增", func() {
			g, err := NewSnowflakeGeneratorWithOptions(nil)
			So(err, ShouldBeNil)
			prev := g.Generate()
			increasing := true
			for i := 0; i < 10000; i++ {
				id := g.Generate()
				increasing = increasing && id > prev
				prev = id
			}
			So(increasing, ShouldBeTrue)
		})

		Convey("并发不重复", func() {
			g, _ := NewSnowflakeGeneratorWithOptions(nil)
			var mu sync.Mutex
			seen := make(map[int64]struct{})
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					local := make([]int64, 0, 2000)
					for j := 0; j < 2000; j++ {
						local = append(local, g.Generate())
					}
					mu.Lock()
					for _, id := range local {
						seen[id] = struct{}{}
					}
					mu.Unlock()
				}()
			}
			wg.Wait()
			So(len(seen), ShouldEqual, 16000)
		})
	})
}
