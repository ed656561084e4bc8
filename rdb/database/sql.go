package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

type SQLOptions struct {
	// 驱动：mysql, sqlite3 (cgo), sqlite (纯 Go), postgres (需调用方注册驱动)
	Driver   string `cfg:"driver" def:"mysql" validate:"oneof=mysql sqlite3 sqlite postgres pgx"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`

	ConnMaxLifetime time.Duration `cfg:"connMaxLifetime"`
}

// SQL 基于 database/sql 的连接
type SQL struct {
	db     *sql.DB
	driver string
	style  PlaceholderStyle
}

func NewSQLWithOptions(options *SQLOptions) (*SQL, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	dsn, err := buildDSN(options)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sql.Open %s failed", options.Driver)
	}

	if options.MaxConns > 0 {
		db.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		db.SetMaxIdleConns(options.MaxIdle)
	}
	if options.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(options.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping failed")
	}

	return NewSQLWithDB(db, options.Driver), nil
}

// NewSQLWithDB 复用已经打开的 *sql.DB
func NewSQLWithDB(db *sql.DB, driver string) *SQL {
	return &SQL{
		db:     db,
		driver: driver,
		style:  styleOf(driver),
	}
}

func buildDSN(options *SQLOptions) (string, error) {
	if options.DSN != "" {
		return options.DSN, nil
	}
	switch options.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset), nil
	case "sqlite3", "sqlite":
		return options.Database, nil
	case "postgres", "pgx":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			options.Host, options.Port, options.Username, options.Password, options.Database), nil
	}
	return "", errors.Errorf("unsupported driver: %s", options.Driver)
}

func styleOf(driver string) PlaceholderStyle {
	if driver == "postgres" || driver == "pgx" {
		return Dollar
	}
	return Question
}

func (s *SQL) Prepare(ctx context.Context, text string) (Statement, error) {
	return prepare(ctx, s.db, text, s.style)
}

func (s *SQL) Driver() string {
	return s.driver
}

// DB 底层连接池，用于建表等 Connection 之外的操作
func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Close() error {
	return s.db.Close()
}
