// Package dbconn constructs database connection pools per dialect and
// contains small execution helpers. Pools are built fresh per step
// invocation and are never shared across a plan.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dbferry/dbferry/pkg/typeconv"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

const maxConnLifetime = time.Minute * 3

type DBConfig struct {
	MaxOpenConnections int
	ConnectTimeout     time.Duration
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxOpenConnections: 4, // a step is a single logical flow; no fan-out
		ConnectTimeout:     10 * time.Second,
	}
}

// New opens and pings a pool for the given dialect. The input DSN is
// normalized so that values read from the source round-trip: UTC session
// time zone and, for MySQL, an empty sql_mode so historical values like
// zero dates can be copied.
func New(dialect typeconv.Dialect, inputDSN string, config *DBConfig) (*sql.DB, error) {
	var driver, dsn string
	var err error
	switch dialect {
	case typeconv.DialectMySQL:
		driver = "mysql"
		dsn, err = mysqlDSN(inputDSN)
	case typeconv.DialectPostgres:
		driver = "postgres"
		dsn, err = postgresDSN(inputDSN, config)
	default:
		return nil, fmt.Errorf("unsupported dialect: %q", dialect)
	}
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(config.MaxOpenConnections)
	db.SetConnMaxLifetime(maxConnLifetime)
	return db, nil
}

func mysqlDSN(dsn string) (string, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return "", err
	}
	ops := []string{
		// A user might have set their SQL mode even if the server has it
		// disabled. Unsetting it lets historical values (0000-00-00) copy.
		fmt.Sprintf("sql_mode=%s", url.QueryEscape(`""`)),
		fmt.Sprintf("time_zone=%s", url.QueryEscape(`"+00:00"`)),
		"parseTime=false",
		"interpolateParams=true",
		"allowNativePasswords=true",
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join(ops, "&"), nil
}

func postgresDSN(dsn string, config *DBConfig) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("postgres DSN must use postgres:// scheme, got %q", dsn)
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "prefer")
	}
	q.Set("timezone", "UTC")
	q.Set("connect_timeout", fmt.Sprint(int(config.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Exec is like db.Exec but only returns an error, which makes it a
// little easier to use in error handling.
func Exec(ctx context.Context, db *sql.DB, stmt string) error {
	_, err := db.ExecContext(ctx, stmt)
	return err
}

// CountRows returns the number of rows in a table.
func CountRows(ctx context.Context, db *sql.DB, dialect typeconv.Dialect, tableName string) (int64, error) {
	var count int64
	query := "SELECT COUNT(*) FROM " + dialect.QuoteTable(tableName)
	err := db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
