package transfer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dbferry/dbferry/pkg/sink"
	"github.com/dbferry/dbferry/pkg/statement"
	"github.com/dbferry/dbferry/pkg/typeconv"
	"github.com/go-ini/ini"
)

const (
	defaultMySQLPort    = 3306
	defaultPostgresPort = 5432
	defaultHost         = "127.0.0.1"
)

// Connection is one named [connection.NAME] section. The DSN may be
// given directly or composed from host/port/user/password/database.
type Connection struct {
	Name    string
	Dialect typeconv.Dialect
	Schema  string

	dsn, host, user, database string
	password                  *string
	port                      int
}

func (c *Connection) GetHost() string {
	if c == nil || c.host == "" {
		return defaultHost
	}
	return c.host
}

func (c *Connection) GetPort() int {
	if c == nil || c.port == 0 {
		if c != nil && c.Dialect == typeconv.DialectPostgres {
			return defaultPostgresPort
		}
		return defaultMySQLPort
	}
	return c.port
}

func (c *Connection) GetUser() string {
	if c == nil || c.user == "" {
		return "root"
	}
	return c.user
}

func (c *Connection) GetPassword() string {
	if c == nil || c.password == nil {
		return ""
	}
	return *c.password
}

func (c *Connection) GetDatabase() string {
	if c == nil {
		return ""
	}
	return c.database
}

// DSN returns the explicit dsn key when present, else composes one from
// the section's parts.
func (c *Connection) DSN() string {
	if c.dsn != "" {
		return c.dsn
	}
	if c.Dialect == typeconv.DialectPostgres {
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.GetUser(), c.GetPassword()),
			Host:   fmt.Sprintf("%s:%d", c.GetHost(), c.GetPort()),
			Path:   "/" + c.GetDatabase(),
		}
		return u.String()
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		c.GetUser(), c.GetPassword(), c.GetHost(), c.GetPort(), c.GetDatabase())
}

// DefaultSchema is where unqualified table names resolve: the section's
// schema key, else the database name (MySQL), else the dialect default.
func (c *Connection) DefaultSchema() string {
	if c.Schema != "" {
		return c.Schema
	}
	if c.Dialect == typeconv.DialectMySQL {
		return c.GetDatabase()
	}
	return ""
}

// Config is a parsed plan file: named connections plus steps in file
// order.
type Config struct {
	Connections map[string]*Connection
	Steps       []Step
}

// LoadConfig reads an ini plan file with [connection.NAME] and
// [step.NAME] sections.
func LoadConfig(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	config := &Config{Connections: make(map[string]*Connection)}

	var stepNames []string
	for _, section := range file.Sections() {
		switch {
		case strings.HasPrefix(section.Name(), "connection."):
			conn, err := parseConnection(section)
			if err != nil {
				return nil, err
			}
			config.Connections[conn.Name] = conn
		case strings.HasPrefix(section.Name(), "step."):
			stepNames = append(stepNames, section.Name())
		}
	}
	// Sections() preserves file order, so steps run in the order they
	// are written.
	for _, name := range stepNames {
		step, err := parseStep(file.Section(name), strings.TrimPrefix(name, "step."))
		if err != nil {
			return nil, err
		}
		config.Steps = append(config.Steps, step)
	}
	return config, nil
}

func parseConnection(section *ini.Section) (*Connection, error) {
	name := strings.TrimPrefix(section.Name(), "connection.")
	dialect, err := typeconv.ParseDialect(section.Key("dialect").String())
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", name, err)
	}
	conn := &Connection{
		Name:     name,
		Dialect:  dialect,
		Schema:   section.Key("schema").String(),
		dsn:      section.Key("dsn").String(),
		host:     section.Key("host").String(),
		user:     section.Key("user").String(),
		database: section.Key("database").String(),
		port:     section.Key("port").MustInt(),
	}
	if section.HasKey("password") {
		pw := section.Key("password").String()
		conn.password = &pw
	}
	return conn, nil
}

func parseStep(section *ini.Section, name string) (Step, error) {
	step := Step{
		StepKey:     name,
		SourceTable: section.Key("source").String(),
		TargetTable: section.Key("target").String(),
		SinkPath:    section.Key("sink_path").String(),
	}
	if raw := section.Key("mode").String(); raw != "" {
		mode, err := statement.ParseMode(raw)
		if err != nil {
			return step, fmt.Errorf("step %s: %w", name, err)
		}
		step.Mode = mode
	}
	if raw := section.Key("sink").String(); raw != "" {
		sinkType, err := sink.ParseType(raw)
		if err != nil {
			return step, fmt.Errorf("step %s: %w", name, err)
		}
		step.SinkType = sinkType
	}
	if raw := section.Key("key_columns").String(); raw != "" {
		for _, col := range strings.Split(raw, ",") {
			if col = strings.TrimSpace(col); col != "" {
				step.KeyColumns = append(step.KeyColumns, col)
			}
		}
	}
	return step, nil
}
