package database

import (
	"github.com/hatlonely/rdbx/ref"
	"github.com/pkg/errors"
)

// Namespace 连接类型在 ref 中注册的命名空间
const Namespace = "github.com/hatlonely/rdbx/rdb/database"

func init() {
	ref.MustRegisterT[SQL](NewSQLWithOptions)
	ref.MustRegisterT[Gorm](NewGormWithOptions)
	ref.MustRegisterT[ObservableConnection](NewObservableConnectionWithOptions)
}

// NewConnectionWithOptions 根据类型配置创建连接
// Namespace 为 github.com/hatlonely/rdbx/rdb/database，Type 为 SQL、Gorm 或 ObservableConnection
func NewConnectionWithOptions(options *ref.TypeOptions) (Connection, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	conn, err := ref.New(options.Namespace, options.Type, options.Options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}
	if conn == nil {
		return nil, errors.New("connection is nil")
	}
	c, ok := conn.(Connection)
	if !ok {
		return nil, errors.Errorf("%T is not a Connection", conn)
	}
	return c, nil
}
