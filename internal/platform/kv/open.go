package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/odyssey-erp/closeboard/internal/platform/cache"
	"github.com/odyssey-erp/closeboard/internal/platform/db"
)

// Backend kinds accepted by Open.
const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindRedis    = "redis"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Kinds lists every supported backend kind.
var Kinds = []string{KindMemory, KindFile, KindRedis, KindSQLite, KindPostgres}

// Options selects and configures a backend.
type Options struct {
	Kind       string
	Dir        string
	RedisAddr  string
	SQLitePath string
	PGDSN      string
	KeyPrefix  string
}

// Open builds the backend described by opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch opts.Kind {
	case KindMemory:
		backend = NewMemory()
	case KindFile, "":
		backend, err = NewFile(opts.Dir)
	case KindRedis:
		client, cerr := cache.New(ctx, opts.RedisAddr)
		if cerr != nil {
			return nil, cerr
		}
		backend = NewRedis(client)
	case KindSQLite:
		if dir := filepath.Dir(opts.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("kv: sqlite dir: %w", err)
			}
		}
		gdb, gerr := gorm.Open(sqlite.Open(opts.SQLitePath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if gerr != nil {
			return nil, fmt.Errorf("kv: open sqlite: %w", gerr)
		}
		backend, err = NewSQL(gdb)
	case KindPostgres:
		pool, perr := db.New(ctx, opts.PGDSN)
		if perr != nil {
			return nil, perr
		}
		backend, err = NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
		}
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	if opts.KeyPrefix != "" {
		return Prefixed{Prefix: opts.KeyPrefix, Backend: backend}, nil
	}
	return backend, nil
}
