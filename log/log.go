package log

import (
	"sync/atomic"

	"github.com/hatlonely/rdbx/log/logger"
	"github.com/hatlonely/rdbx/ref"
	"github.com/pkg/errors"
)

var defaultLogger atomic.Value

func init() {
	ref.MustRegisterT[logger.SLog](logger.NewSLogWithOptions)

	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	defaultLogger.Store(holder{l})
}

type holder struct {
	logger.Logger
}

// Default 进程级默认日志，输出 text 格式到标准输出
func Default() logger.Logger {
	return defaultLogger.Load().(holder).Logger
}

// SetDefault 替换默认日志，nil 被忽略
func SetDefault(l logger.Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(holder{l})
}

// NewLoggerWithOptions 按类型配置创建日志
// 例如 Namespace 为 github.com/hatlonely/rdbx/log/logger，Type 为 SLog
func NewLoggerWithOptions(options *ref.TypeOptions) (logger.Logger, error) {
	obj, err := ref.NewWithOptions(options)
	if err != nil {
		return nil, errors.WithMessage(err, "create logger failed")
	}
	l, ok := obj.(logger.Logger)
	if !ok {
		return nil, errors.Errorf("%T does not implement Logger", obj)
	}
	return l, nil
}
