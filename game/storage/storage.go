package storage

import (
	"errors"
	"fmt"

	"github.com/wricardo/sumstack/game/engine"
)

// ErrNotFound is returned when no record is stored under a key
var ErrNotFound = errors.New("record not found")

// ErrUnknownKind is returned by Open for an unsupported store kind
var ErrUnknownKind = errors.New("unknown store kind")

// Store is a high-score backend that owns resources
type Store interface {
	engine.Storage
	Close() error
}

// Store kinds accepted by Open
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open builds the store selected by kind. For file stores path is a directory,
// for sqlite it is the database file.
func Open(kind, path string) (Store, error) {
	switch kind {
	case KindMemory:
		return NewMemoryStore(), nil
	case KindFile:
		return NewFileStore(path)
	case KindSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
