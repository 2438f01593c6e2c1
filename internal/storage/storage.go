// Package storage defines the contract every comment backend satisfies.
// Backends are interchangeable: the relational engine keys rows by an
// auto-incrementing primary key, the append-log engine by a content hash.
package storage

import (
	"fmt"

	"github.com/commentable-dev/commentable/internal/domain"
)

// Backend is the persistence port used by the comment service.
//
// Store persists a fully-formed comment and returns the backend-assigned
// row identifier. ReadAll returns every comment in the (apiKey, itemID)
// scope in the requested order; an absent scope yields an empty slice,
// not an error. DeleteByID is idempotent: deleting a row id that no
// longer exists reports success. CountAll spans all scopes and backs the
// liveness probe only.
type Backend interface {
	Store(apiKey string, c domain.Comment) (int64, error)
	ReadAll(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error)
	DeleteByID(rowID int64) error
	CountAll() (int64, error)
}

// Engine is the closed set of backend variants selectable at startup.
type Engine int

const (
	EngineRelational Engine = iota
	EngineAppendLog
)

// ParseEngine maps the configured engine name to its variant.
func ParseEngine(name string) (Engine, error) {
	switch name {
	case "relational":
		return EngineRelational, nil
	case "appendlog":
		return EngineAppendLog, nil
	default:
		return 0, fmt.Errorf("unknown storage engine %q", name)
	}
}
