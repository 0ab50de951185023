package sqlsource

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"retainsim/internal/errors"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)?$`)

// Open connects to the database named by a URL. mysql:// and mariadb:// URLs
// are converted to the MySQL driver format; postgres:// and postgresql:// go
// to lib/pq unchanged.
func Open(dsn string) (*sqlx.DB, error) {
	driver, native, err := resolveDSN(dsn)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	db, err := sqlx.Open(driver, native)
	if err != nil {
		return nil, errors.DatabaseError("failed to open "+driver+" connection", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// resolveDSN picks the driver for a URL and returns the DSN that driver expects
func resolveDSN(dsn string) (driver, native string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "mysql://"), strings.HasPrefix(dsn, "mariadb://"):
		native, err := toMySQLDSN(dsn)
		return "mysql", native, err
	case dsn == "":
		return "", "", fmt.Errorf("empty database url")
	}
	return "", "", fmt.Errorf("unsupported database url scheme: %s", redact(dsn))
}

// toMySQLDSN converts mariadb:// or mysql:// into the go-sql-driver format
func toMySQLDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user := ""
	pass := ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn (user/host/db)")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, db), nil
}

// redact drops credentials from a URL for error messages
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	u.User = url.User(u.User.Username())
	return u.String()
}

func validTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return errors.ConfigInvalid(fmt.Sprintf("invalid table name %q", name))
	}
	return nil
}
