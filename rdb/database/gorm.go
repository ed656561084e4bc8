package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormOptions struct {
	// 驱动：mysql, sqlite
	Driver   string `cfg:"driver" def:"mysql" validate:"oneof=mysql sqlite"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
}

// Gorm 复用 gorm 的连接池，适合已经在使用 gorm 的应用
type Gorm struct {
	db *gorm.DB
}

func NewGormWithOptions(options *GormOptions) (*Gorm, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	var dialector gorm.Dialector
	switch options.Driver {
	case "mysql":
		dsn, err := buildDSN(&SQLOptions{
			Driver:   "mysql",
			DSN:      options.DSN,
			Host:     options.Host,
			Port:     options.Port,
			Database: options.Database,
			Username: options.Username,
			Password: options.Password,
			Charset:  options.Charset,
		})
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	case "sqlite":
		dsn := options.DSN
		if dsn == "" {
			dsn = options.Database
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported driver: %s", options.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open failed")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "gorm.DB failed")
	}
	if options.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(options.MaxIdle)
	}

	return NewGormWithDB(db), nil
}

// NewGormWithDB 复用应用已有的 *gorm.DB
func NewGormWithDB(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Prepare(ctx context.Context, text string) (Statement, error) {
	return prepare(ctx, g.db.WithContext(ctx).ConnPool, text, Question)
}

func (g *Gorm) DB() *gorm.DB {
	return g.db
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return errors.Wrap(err, "gorm.DB failed")
	}
	return sqlDB.Close()
}
