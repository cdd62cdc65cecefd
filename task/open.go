package task

import (
	"fmt"

	"go.uber.org/zap"
)

// Backend names a repository implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// ValidBackends returns all valid backend values.
func ValidBackends() []Backend {
	return []Backend{BackendMemory, BackendFile, BackendSQLite}
}

// IsValid returns true if the backend is a known valid value.
func (b Backend) IsValid() bool {
	for _, valid := range ValidBackends() {
		if b == valid {
			return true
		}
	}
	return false
}

// OpenOptions configures OpenRepository.
type OpenOptions struct {
	// Backend selects the implementation. Defaults to BackendFile.
	Backend Backend

	// Path is the file or database location. Ignored by BackendMemory.
	Path string

	// Logger is passed to backends that log.
	Logger *zap.Logger
}

// OpenRepository constructs the repository selected by opts.
// Callers should Close the result if it implements Closer.
func OpenRepository(opts OpenOptions) (Repository, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendFile
	}
	switch backend {
	case BackendMemory:
		return NewMemoryRepository(), nil
	case BackendFile:
		return NewFileRepository(opts.Path, FileOptions{Logger: opts.Logger}), nil
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = "tasks.db"
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (must be one of memory, file, sqlite)", backend)
	}
}

// CloseRepository closes repo if it holds resources.
func CloseRepository(repo Repository) error {
	if c, ok := repo.(Closer); ok {
		return c.Close()
	}
	return nil
}
