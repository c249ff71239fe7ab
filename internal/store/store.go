// Package store holds the named-blob sinks simulation saves are written to.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"studiosim/internal/db"
	"studiosim/internal/game"
)

var ErrInvalidName = errors.New("save name must be 1-64 letters, digits, '-' or '_'")

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// openSQLite is swapped in tests to observe the handle Open creates.
var openSQLite = db.OpenSQLite

type Store interface {
	game.BlobSink
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

const (
	KindFile     = "file"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

type Options struct {
	Kind        string
	DataDir     string
	SQLitePath  string
	DatabaseURL string
}

func ValidateName(name string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", game.ErrSaveNotFound, name)
}

// Open builds the store selected by opts.Kind.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindFile:
		return NewFileStore(opts.DataDir)
	case KindSQLite:
		sqlDB, err := openSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		st, err := NewSQLiteStore(ctx, sqlDB)
		if err != nil {
			return nil, err
		}
		return st, nil
	case KindPostgres:
		pool, err := db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st, err := NewPostgresStore(ctx, pool)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", opts.Kind)
	}
}
