package database

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Config holds database connection settings.
type Config struct {
	// URL, when set, takes precedence over the discrete fields.
	URL            string `yaml:"url" envconfig:"PG_URL"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir replaces the embedded migrations with files on disk.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
	// ReadyTimeout bounds how long Connect waits for the server.
	ReadyTimeout time.Duration `yaml:"ready_timeout" envconfig:"DB_READY_TIMEOUT"`
}

// URLString returns a postgres:// URL usable by both lib/pq and golang-migrate.
func (c Config) URLString() string {
	if u := strings.TrimSpace(c.URL); u != "" {
		return u
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// Redacted describes the target for logs without credentials.
func (c Config) Redacted() string {
	u, err := url.Parse(c.URLString())
	if err != nil {
		return fmt.Sprintf("%s/%s", net.JoinHostPort(c.Host, c.Port), c.Name)
	}
	return u.Redacted()
}
