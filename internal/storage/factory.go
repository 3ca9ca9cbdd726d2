package storage

import (
	"fmt"
	"io"
	"strings"

	"genevo/internal/model"
)

// Kinds lists the store backends NewStore accepts.
func Kinds() []string {
	return []string{"memory", "sqlite"}
}

func DefaultStoreKind() string {
	return "memory"
}

// NewStore builds the backend named by kind. An empty kind selects the
// default backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "":
		return NewStore(DefaultStoreKind(), sqlitePath)
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if strings.TrimSpace(sqlitePath) == "" {
			return nil, fmt.Errorf("%w: sqlite store needs a database path", model.ErrConfiguration)
		}
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("%w: unsupported store backend %q (known: %s)", model.ErrConfiguration, kind, strings.Join(Kinds(), ", "))
	}
}

// CloseStore releases backends that hold resources. Memory stores have
// nothing to release.
func CloseStore(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
