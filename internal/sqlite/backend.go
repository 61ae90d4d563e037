// Package sqlite implements the SQLite storage backend for accounts.
// SQLite is the query engine; accounts.jsonl in DataDir is the source of
// truth, loaded on Attach and rewritten atomically after every change.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// dbFileName is the SQLite file created inside DataDir.
const dbFileName = "accounts.db"

// Backend implements types.Backend using SQLite as the query engine and
// accounts.jsonl as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite schema, and
// loads accounts.jsonl.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("%w: %s", types.ErrBackendUnknown, config.Backend)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of accounts.jsonl; start from a fresh schema.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := ensureJSONL(filepath.Join(dataDir, accountsJSONL)); err != nil {
		db.Close()
		return err
	}
	if err := loadAccountsJSONL(context.Background(), db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.attached = true
	return nil
}

// Detach releases all resources held by the backend. Idempotent.
// After Detach, all operations return ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Reload re-reads accounts.jsonl into the query engine. Use it when the
// file changes outside this process.
func (b *Backend) Reload(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(ctx); err != nil {
		return err
	}
	if err := loadAccountsJSONL(ctx, b.db, b.dataDir); err != nil {
		return fmt.Errorf("reload JSONL: %w", err)
	}
	return nil
}

// SourcePath returns the path of accounts.jsonl.
func (b *Backend) SourcePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return filepath.Join(b.dataDir, accountsJSONL)
}

// generateID returns a new UUID v7 for account IDs.
func generateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// checkAttached returns ErrDetached when the backend is not attached.
// The caller must hold b.mu.
func (b *Backend) checkAttached(ctx context.Context) error {
	if !b.attached {
		return types.ErrDetached
	}
	return ctx.Err()
}
