package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datafields/internal/linkfield"
	"github.com/mesh-intelligence/datafields/internal/observability"
	"github.com/mesh-intelligence/datafields/internal/paths"
	"github.com/mesh-intelligence/datafields/internal/resolver"
	"github.com/mesh-intelligence/datafields/pkg/sqlite"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

// session is an attached backend with the codec built on top of it. The
// caller must Close it.
type session struct {
	config   types.Config
	logger   *zap.Logger
	backend  *sqlite.Backend
	elements *sqlite.ElementStore
	resolver *resolver.Cached
	codec    *linkfield.Codec
	records  *sqlite.RecordStore
}

// resolveConfig loads the configuration and resolves the data directory
// from the global flags.
func resolveConfig(f *rootFlags) (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, err
	}
	dataDir, err := paths.ResolveDataDir(f.dataDir, cfg.DataDir)
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir
	return cfg, nil
}

// openSession attaches the SQLite backend and wires the element store,
// the cached resolver and the codec.
func openSession(f *rootFlags) (*session, error) {
	cfg, err := resolveConfig(f)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Log)
	if err != nil {
		return nil, sysError(fmt.Errorf("create logger: %w", err))
	}

	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}

	s := &session{config: cfg, logger: logger, backend: backend}
	if s.elements, err = backend.Elements(); err != nil {
		s.Close()
		return nil, sysError(err)
	}
	s.resolver = resolver.NewCached(s.elements, logger)
	if s.codec, err = linkfield.NewFromConfig(s.resolver, cfg, logger); err != nil {
		s.Close()
		return nil, err
	}
	if s.records, err = backend.Records(s.codec); err != nil {
		s.Close()
		return nil, sysError(err)
	}
	return s, nil
}

// Close detaches the backend and flushes the logger.
func (s *session) Close() error {
	err := s.backend.Detach()
	_ = s.logger.Sync()
	return err
}

// withSession runs fn on an open session and closes it afterwards.
func withSession(f *rootFlags, fn func(s *session) error) error {
	s, err := openSession(f)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.Close(); err != nil && runErr == nil {
		return sysError(fmt.Errorf("detach backend: %w", err))
	}
	return runErr
}
