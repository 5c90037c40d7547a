// Package sqlite implements the SQLite storage backend: the element store
// that resolves link references and the object store holding one link blob
// per record field. SQLite is the query engine; the JSONL files in the data
// directory are the source of truth.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// File names in the data directory.
const (
	dbFileName          = "datafields.db"
	elementsJSONL       = "elements.jsonl"
	recordLinksJSONL    = "record_links.jsonl"
	defaultDataDirValue = "."
)

// Backend owns the SQLite connection and the JSONL files of a data
// directory.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	logger   *zap.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a detached backend; call Attach to open it.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the data directory: it creates the directory and missing
// JSONL files, rebuilds the SQLite database and loads the JSONL records
// into it.
// Returns types.ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = defaultDataDirValue
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := initJSONLFiles(dataDir); err != nil {
		return err
	}

	// The database is a cache of the JSONL files and is rebuilt on attach.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// One connection keeps per-connection pragmas in force and serializes
	// writers the way SQLite requires.
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	counts, err := loadAllJSONL(db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.attached = true

	b.logger.Debug("backend attached",
		zap.String("data_dir", dataDir),
		zap.Int("elements", counts.elements),
		zap.Int("record_links", counts.recordLinks),
		zap.Int("skipped", counts.skipped),
	)
	return nil
}

// Detach closes the database. It is idempotent; after Detach every store
// operation returns types.ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.logger.Debug("backend detached", zap.String("data_dir", b.dataDir))
	return nil
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// Elements returns the element store.
// Returns types.ErrDetached if the backend is not attached.
func (b *Backend) Elements() (*ElementStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return &ElementStore{backend: b}, nil
}

// Records returns the object store; link values pass through codec on
// their way in and out.
// Returns types.ErrDetached if the backend is not attached.
func (b *Backend) Records(codec LinkCodec) (*RecordStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return &RecordStore{backend: b, codec: codec}, nil
}

func (b *Backend) jsonlPath(name string) string {
	return filepath.Join(b.dataDir, name)
}

// initJSONLFiles creates empty JSONL files that do not exist yet.
func initJSONLFiles(dataDir string) error {
	for _, name := range []string{elementsJSONL, recordLinksJSONL} {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
	}
	return nil
}

// newRecordID generates a UUID v7 record id.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
