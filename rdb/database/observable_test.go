package database

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hatlonely/rdbx/cfg"
	"github.com/hatlonely/rdbx/log/logger"
	"github.com/hatlonely/rdbx/ref"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestSQL(t *testing.T) *SQL {
	conn, err := NewSQLWithOptions(&SQLOptions{Driver: "sqlite3", Database: ":memory:", MaxConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := conn.DB().Exec(usersDDL); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return conn
}

func TestObservableConnection(t *testing.T) {
	ctx := context.Background()

	Convey("ObservableConnection", t, func() {
		registry := prometheus.NewRegistry()
		obs, err := NewObservableConnection(newTestSQL(t), &ObservableConnectionOptions{
			EnableMetrics: true,
			EnableLogging: true,
			EnableTracing: true,
			Name:          "shop",
			Registerer:    registry,
		})
		So(err, ShouldBeNil)
		defer obs.Close()

		var buf bytes.Buffer
		l, err := logger.NewSLog(&buf, &logger.SLogOptions{Level: "debug", Format: "json"})
		So(err, ShouldBeNil)
		obs.logger = l

		counter := obs.metrics.operationCounter

		Convey("统计成功和失败的执行", func() {
			st, err := obs.Prepare(ctx, "INSERT INTO users (name) VALUES (:name)")
			So(err, ShouldBeNil)
			So(st.Execute(ctx, map[string]any{"name": "alice"}), ShouldBeNil)
			So(st.Execute(ctx, map[string]any{}), ShouldNotBeNil)
			So(st.Close(), ShouldBeNil)

			So(testutil.ToFloat64(counter.WithLabelValues("prepare", "insert", "success")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(counter.WithLabelValues("execute", "insert", "success")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(counter.WithLabelValues("execute", "insert", "error")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(obs.metrics.activeOperations.WithLabelValues("execute")), ShouldEqual, 0.0)

			So(buf.String(), ShouldContainSubstring, `"msg":"statement completed"`)
			So(buf.String(), ShouldContainSubstring, `"msg":"statement failed"`)
			So(buf.String(), ShouldContainSubstring, `"component":"shop"`)
		})

		Convey("prepare 失败", func() {
			_, err := obs.Prepare(ctx, "SELECT missing FROM users")
			So(err, ShouldNotBeNil)
			So(testutil.ToFloat64(counter.WithLabelValues("prepare", "select", "error")), ShouldEqual, 1.0)
		})

		Convey("查询语句透传结果", func() {
			st, err := obs.Prepare(ctx, "SELECT COUNT(*) AS total FROM users")
			So(err, ShouldBeNil)
			defer st.Close()
			So(st.Execute(ctx, nil), ShouldBeNil)
			row, ok := st.FetchOne()
			So(ok, ShouldBeTrue)
			So(row["total"], ShouldEqual, int64(0))
			So(st.RowCount(), ShouldEqual, int64(1))
		})

		Convey("重复注册复用已有指标", func() {
			metrics := NewObservableMetrics("shop", registry)
			So(metrics.operationCounter, ShouldEqual, counter)
		})
	})
}

func TestNewObservableConnectionWithOptions(t *testing.T) {
	Convey("NewObservableConnectionWithOptions", t, func() {
		Convey("通过配置创建底层连接和日志", func() {
			path := filepath.Join(t.TempDir(), "rdb.log")
			obs, err := NewObservableConnectionWithOptions(&ObservableConnectionOptions{
				Connection: &ref.TypeOptions{
					Namespace: Namespace,
					Type:      "SQL",
					Options:   &SQLOptions{Driver: "sqlite3", Database: ":memory:", MaxConns: 1},
				},
				Logger: &ref.TypeOptions{
					Namespace: "github.com/hatlonely/rdbx/log/logger",
					Type:      "SLog",
					Options: &logger.SLogOptions{
						Level:  "debug",
						Format: "text",
						Output: &ref.TypeOptions{
							Namespace: "github.com/hatlonely/rdbx/log/writer",
							Type:      "FileWriter",
							Options:   cfg.Map{"path": path},
						},
					},
				},
				EnableLogging: true,
				Registerer:    prometheus.NewRegistry(),
			})
			So(err, ShouldBeNil)
			defer obs.Close()
			So(obs.metrics, ShouldBeNil)
			So(obs.tracer, ShouldBeNil)

			st, err := obs.Prepare(context.Background(), "SELECT 1")
			So(err, ShouldBeNil)
			So(st.Execute(context.Background(), nil), ShouldBeNil)
			So(st.Close(), ShouldBeNil)

			content, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(content), ShouldContainSubstring, "statement completed")
		})

		Convey("底层连接配置错误", func() {
			_, err := NewObservableConnectionWithOptions(&ObservableConnectionOptions{
				Connection: &ref.TypeOptions{Namespace: Namespace, Type: "Unknown"},
			})
			So(err, ShouldNotBeNil)
		})

		Convey("连接为空", func() {
			_, err := NewObservableConnection(nil, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerbOf(t *testing.T) {
	Convey("verbOf", t, func() {
		So(verbOf("SELECT 1"), ShouldEqual, "select")
		So(verbOf("(select 1)"), ShouldEqual, "select")
		So(verbOf("  INSERT INTO t"), ShouldEqual, "insert")
		So(verbOf(""), ShouldEqual, "unknown")
	})
}
