// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/pdiddy/docextract/pkg/types"
)

const (
	defaultPostgresPort = 5432
	defaultMySQLPort    = 3306
)

// driverName maps a configured backend to its registered database/sql driver.
func driverName(backend string) (string, error) {
	switch backend {
	case types.DriverSQLite:
		return "sqlite3", nil
	case types.DriverPostgres:
		return "pgx", nil
	case types.DriverMySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("unknown database driver %q", backend)
}

// dataSourceName builds the connection string for cfg.Driver.
func dataSourceName(cfg types.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case types.DriverSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite3: database path is empty")
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("creating database directory: %w", err)
			}
		}
		return cfg.Path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", nil

	case types.DriverPostgres:
		port := cfg.Port
		if port == 0 {
			port = defaultPostgresPort
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(hostOrLocal(cfg.Host), strconv.Itoa(port)),
			Path:   "/" + cfg.Name,
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		q := url.Values{}
		if secs := timeoutSeconds(cfg.ConnectTimeout); secs > 0 {
			q.Set("connect_timeout", strconv.Itoa(secs))
		}
		u.RawQuery = q.Encode()
		return u.String(), nil

	case types.DriverMySQL:
		port := cfg.Port
		if port == 0 {
			port = defaultMySQLPort
		}
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(hostOrLocal(cfg.Host), strconv.Itoa(port))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Timeout = cfg.ConnectTimeout
		return mc.FormatDSN(), nil
	}
	return "", fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func hostOrLocal(host string) string {
	if host == "" {
		return "localhost"
	}
	return host
}

// timeoutSeconds rounds d up to whole seconds, the unit libpq accepts.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
