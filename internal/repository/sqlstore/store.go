// Package sqlstore implements the repository over Postgres, or over SQLite
// for local runs and tests. Both dialects share every query; only the
// migrations differ.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/log"
	"github.com/gfdmit/tierboard/internal/repository"
	"github.com/gfdmit/tierboard/internal/repository/sqlstore/migrations"
)

type Store struct {
	db *sqlx.DB
	stores
}

var _ repository.Repository = (*Store)(nil)

func New(conf config.Database) (*Store, error) {
	dsn, databaseURL, err := dataSource(conf)
	if err != nil {
		return nil, err
	}

	if err := migrateUp(conf, databaseURL); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(conf.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open: %v", err)
	}
	if conf.Driver == config.DriverSQLite {
		// one writer at a time; transactions queue for the connection
		db.SetMaxOpenConns(1)
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %v", err)
	}

	return &Store{db: db, stores: stores{q: db}}, nil
}

func dataSource(conf config.Database) (dsn, databaseURL string, err error) {
	switch conf.Driver {
	case config.DriverPostgres:
		url := fmt.Sprintf(
			"postgresql://%v:%v@%v:%v/%v?sslmode=disable", conf.User, conf.Pass, conf.Host, conf.Port, conf.DB)
		return url, url, nil
	case config.DriverSQLite:
		if conf.SQLitePath == "" {
			return "", "", errors.New("sqlite path is required")
		}
		return conf.SQLitePath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
			"sqlite://" + conf.SQLitePath, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", conf.Driver)
	}
}

func migrateUp(conf config.Database, databaseURL string) error {
	var (
		m   *migrate.Migrate
		err error
	)
	if conf.Migrations != "" {
		m, err = migrate.New(fmt.Sprintf("file://%v", conf.Migrations), databaseURL)
	} else {
		src, srcErr := iofs.New(migrations.FS, conf.Driver)
		if srcErr != nil {
			return fmt.Errorf("iofs.New: %v", srcErr)
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, databaseURL)
	}
	if err != nil {
		return fmt.Errorf("migrate.New: %v", err)
	}
	defer m.Close()

	log.Info.Println("[MIGRATE] applying migrations...")
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error when migrating: %v", err)
		}
		log.Info.Println("[MIGRATE] nothing to migrate")
		return nil
	}
	log.Info.Println("[MIGRATE] migrated successfully!")
	return nil
}

// WithinTx runs fn against stores bound to one transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Stores) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(stores{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type stores struct {
	q sqlx.ExtContext
}

func (s stores) Users() repository.UserStore { return userStore{q: s.q} }
func (s stores) Boards() repository.BoardStore { return boardStore{q: s.q} }
func (s stores) Comments() repository.CommentStore { return commentStore{q: s.q} }
func (s stores) Likes() repository.LikeStore { return likeStore{q: s.q} }
func (s stores) Images() repository.ImageRecordStore { return imageStore{q: s.q} }
func (s stores) Counters() repository.CounterStore { return counterStore{q: s.q} }

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
