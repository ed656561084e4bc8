package writer

import (
	"io"
	"os"

	"github.com/hatlonely/rdbx/ref"
	"github.com/pkg/errors"
)

// Writer 日志输出器接口
type Writer interface {
	io.Writer
	io.Closer
}

func init() {
	ref.MustRegisterT[ConsoleWriter](NewConsoleWriterWithOptions)
	ref.MustRegisterT[FileWriter](NewFileWriterWithOptions)
	ref.MustRegisterT[MultiWriter](NewMultiWriterWithOptions)
}

// NewWriterWithOptions 按类型配置创建输出器
func NewWriterWithOptions(options *ref.TypeOptions) (Writer, error) {
	obj, err := ref.NewWithOptions(options)
	if err != nil {
		return nil, errors.WithMessage(err, "create writer failed")
	}
	w, ok := obj.(Writer)
	if !ok {
		return nil, errors.Errorf("%T does not implement Writer", obj)
	}
	return w, nil
}

type ConsoleWriterOptions struct {
	// 输出目标：stdout, stderr
	Target string `cfg:"target" def:"stdout" validate:"omitempty,oneof=stdout stderr"`
}

// ConsoleWriter 控制台输出器，Close 不关闭标准输出
type ConsoleWriter struct {
	w io.Writer
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	if options == nil || options.Target == "" || options.Target == "stdout" {
		return &ConsoleWriter{w: os.Stdout}, nil
	}
	if options.Target == "stderr" {
		return &ConsoleWriter{w: os.Stderr}, nil
	}
	return nil, errors.Errorf("unsupported target: %s", options.Target)
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

func (c *ConsoleWriter) Close() error {
	return nil
}
