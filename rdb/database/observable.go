package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hatlonely/rdbx/log"
	"github.com/hatlonely/rdbx/log/logger"
	"github.com/hatlonely/rdbx/ref"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableConnectionOptions struct {
	// Connection 被包装的底层连接配置
	Connection *ref.TypeOptions `cfg:"connection" validate:"required"`

	// Logger 日志记录器配置，为空时使用默认日志
	Logger *ref.TypeOptions `cfg:"logger"`

	// 布尔开关没有默认值，配置中显式写 false 不会被 def 覆盖
	EnableMetrics bool `cfg:"enableMetrics"`
	EnableLogging bool `cfg:"enableLogging"`
	EnableTracing bool `cfg:"enableTracing"`

	// Name 组件名称，作为指标名前缀、日志 component 字段和 span 属性
	Name string `cfg:"name" def:"rdb"`

	// Registerer 指标注册器，为空时使用 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer `cfg:"-"`
}

// ObservableMetrics 封装 prometheus 指标
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	activeOperations  *prometheus.GaugeVec
	rowsHistogram     *prometheus.HistogramVec
}

// NewObservableMetrics 创建并注册指标，同名指标已注册时复用已有的
func NewObservableMetrics(name string, registerer prometheus.Registerer) *ObservableMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &ObservableMetrics{
		operationCounter: register(registerer, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_statements_total",
				Help: "Total number of prepared and executed statements",
			},
			[]string{"operation", "verb", "status"},
		)),
		operationDuration: register(registerer, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_statement_duration_seconds",
				Help:    "Duration of statement operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation", "verb"},
		)),
		activeOperations: register(registerer, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: name + "_active_statements",
				Help: "Number of statements in flight",
			},
			[]string{"operation"},
		)),
		rowsHistogram: register(registerer, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_statement_rows",
				Help:    "Rows returned or affected per executed statement",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"verb"},
		)),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// ObservableConnection 装饰器，为任何 Connection 添加指标、日志和追踪
type ObservableConnection struct {
	conn Connection

	logger  logger.Logger
	metrics *ObservableMetrics
	tracer  trace.Tracer
	name    string
}

func NewObservableConnectionWithOptions(options *ObservableConnectionOptions) (*ObservableConnection, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	conn, err := NewConnectionWithOptions(options.Connection)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create underlying connection")
	}

	return NewObservableConnection(conn, options)
}

// NewObservableConnection 包装已有连接，options.Connection 被忽略
func NewObservableConnection(conn Connection, options *ObservableConnectionOptions) (*ObservableConnection, error) {
	if conn == nil {
		return nil, errors.New("connection is nil")
	}
	if options == nil {
		options = &ObservableConnectionOptions{EnableMetrics: true, EnableLogging: true}
	}
	name := options.Name
	if name == "" {
		name = "rdb"
	}

	obs := &ObservableConnection{conn: conn, name: name}

	if options.EnableLogging {
		l := log.Default()
		if options.Logger != nil {
			var err error
			l, err = log.NewLoggerWithOptions(options.Logger)
			if err != nil {
				return nil, errors.WithMessage(err, "failed to create logger")
			}
		}
		obs.logger = l.WithGroup("observableConnection")
	}
	if options.EnableMetrics {
		obs.metrics = NewObservableMetrics(name, options.Registerer)
	}
	if options.EnableTracing {
		obs.tracer = otel.Tracer(fmt.Sprintf("rdb.%s", name))
	}

	return obs, nil
}

// verbOf 语句的第一个关键字，如 select、insert
func verbOf(text string) string {
	fields := strings.Fields(strings.TrimLeft(text, "("))
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

func (obs *ObservableConnection) observe(ctx context.Context, operation string, text string, fn func(context.Context) (int64, error)) error {
	start := time.Now()
	verb := verbOf(text)

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("rdb.%s", operation),
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("db.operation", verb),
				attribute.String("db.statement", text),
			),
		)
		defer span.End()
	}

	if obs.metrics != nil {
		obs.metrics.activeOperations.WithLabelValues(operation).Inc()
		defer obs.metrics.activeOperations.WithLabelValues(operation).Dec()
	}

	rows, err := fn(ctx)
	duration := time.Since(start)

	if span != nil {
		span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.metrics.operationCounter.WithLabelValues(operation, verb, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation, verb).Observe(duration.Seconds())
		if operation == "execute" && err == nil {
			obs.metrics.rowsHistogram.WithLabelValues(verb).Observe(float64(rows))
		}
	}

	if obs.logger != nil {
		if err != nil {
			obs.logger.ErrorContext(ctx, "statement failed",
				"component", obs.name,
				"operation", operation,
				"statement", text,
				"durationMs", duration.Milliseconds(),
				"error", err.Error(),
			)
		} else {
			obs.logger.DebugContext(ctx, "statement completed",
				"component", obs.name,
				"operation", operation,
				"statement", text,
				"rows", rows,
				"durationMs", duration.Milliseconds(),
			)
		}
	}

	return err
}

func (obs *ObservableConnection) Prepare(ctx context.Context, text string) (Statement, error) {
	var st Statement
	err := obs.observe(ctx, "prepare", text, func(ctx context.Context) (int64, error) {
		var err error
		st, err = obs.conn.Prepare(ctx, text)
		return 0, err
	})
	if err != nil {
		return nil, err
	}
	return &observableStatement{Statement: st, obs: obs, text: text}, nil
}

func (obs *ObservableConnection) Close() error {
	return obs.conn.Close()
}

type observableStatement struct {
	Statement
	obs  *ObservableConnection
	text string
}

func (s *observableStatement) Execute(ctx context.Context, params map[string]any) error {
	return s.obs.observe(ctx, "execute", s.text, func(ctx context.Context) (int64, error) {
		err := s.Statement.Execute(ctx, params)
		return s.Statement.RowCount(), err
	})
}
