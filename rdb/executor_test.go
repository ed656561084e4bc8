package rdb

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExecutor(t *testing.T) {
	ctx := context.Background()

	Convey("Executor", t, func() {
		sql := newTestSQL(t)
		conn := &recordingConnection{Connection: sql}
		e := NewExecutor(productDescriptor, conn)
		e.SetClock(func() time.Time { return fixedNow })

		Convey("Create 返回自增主键", func() {
			id, err := e.Create(ctx, map[string]Value{"name": String("Lamp"), "price": Float(30)})
			So(err, ShouldBeNil)
			So(id, ShouldResemble, Int(4))
			So(conn.prepared[0], ShouldEqual, "INSERT INTO products (created_at, name, price, updated_at) VALUES (:c_created_at, :c_name, :c_price, :c_updated_at)")

			var createdAt string
			So(sql.DB().QueryRow("SELECT created_at FROM products WHERE id = 4").Scan(&createdAt), ShouldBeNil)
			So(createdAt, ShouldEqual, "2024-01-02 03:04:05")
		})

		Convey("Create 不修改传入的字段", func() {
			columns := map[string]Value{"name": String("Lamp")}
			_, err := e.Create(ctx, columns)
			So(err, ShouldBeNil)
			So(len(columns), ShouldEqual, 1)
		})

		Convey("Create 没有字段时使用默认值", func() {
			desc := MustNewDescriptor("products", nil, WithTimestamps(false))
			id, err := NewExecutor(desc, conn).Create(ctx, nil)
			So(err, ShouldBeNil)
			So(id, ShouldResemble, Int(4))
			So(conn.prepared[0], ShouldEqual, "INSERT INTO products DEFAULT VALUES")
		})

		Convey("KeyGenerator 返回空主键", func() {
			desc := MustNewDescriptor("products", nil, WithKeyGenerator(KeyGeneratorFunc(Null)))
			_, err := NewExecutor(desc, conn).Create(ctx, map[string]Value{"name": String("Lamp")})
			So(err, ShouldNotBeNil)
			So(conn.prepared, ShouldBeEmpty)
		})

		Convey("非法字段名", func() {
			_, err := e.Create(ctx, map[string]Value{"name; DROP TABLE products": String("x")})
			So(err, ShouldNotBeNil)
			_, err = e.Create(ctx, map[string]Value{"products.name": String("x")})
			So(err, ShouldNotBeNil)
			So(conn.prepared, ShouldBeEmpty)
		})

		Convey("Update 不写主键", func() {
			ok, err := e.Update(ctx, map[string]Value{"id": Int(10), "price": Float(2)}, "id = :id", map[string]Value{"id": Int(1)})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(conn.prepared[0], ShouldEqual, "UPDATE products SET price = :c_price, updated_at = :c_updated_at WHERE id = :id")

			var price float64
			So(sql.DB().QueryRow("SELECT price FROM products WHERE id = 1").Scan(&price), ShouldBeNil)
			So(price, ShouldEqual, 2.0)
		})

		Convey("Update 参数名不会冲突", func() {
			ok, err := e.Update(ctx, map[string]Value{"name": String("Marker")}, "name = :name", map[string]Value{"name": String("Pen")})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("Update 没有匹配的记录", func() {
			ok, err := e.Update(ctx, map[string]Value{"price": Float(2)}, "id = :id", map[string]Value{"id": Int(100)})
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Update 没有字段", func() {
			desc := MustNewDescriptor("products", nil, WithTimestamps(false))
			ok, err := NewExecutor(desc, conn).Update(ctx, map[string]Value{"id": Int(1)}, "id = :id", map[string]Value{"id": Int(1)})
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(conn.prepared, ShouldBeEmpty)
		})

		Convey("Delete", func() {
			ok, err := e.Delete(ctx, "category = :c", map[string]Value{"c": String("office")})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			ok, err = e.Delete(ctx, "category = :c", map[string]Value{"c": String("office")})
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Delete 没有条件", func() {
			_, err := e.Delete(ctx, " ", nil)
			So(err, ShouldNotBeNil)
			So(conn.prepared, ShouldBeEmpty)
		})

		Convey("执行失败返回 ExecutionError", func() {
			_, err := e.Update(ctx, map[string]Value{"missing": Int(1)}, "id = :id", map[string]Value{"id": Int(1)})
			var execErr *ExecutionError
			So(errors.As(err, &execErr), ShouldBeTrue)
			So(execErr.Entity, ShouldEqual, "products")
			So(execErr.Op, ShouldEqual, "update")
			So(execErr.Statement, ShouldStartWith, "UPDATE products SET missing = :c_missing")
		})
	})
}
