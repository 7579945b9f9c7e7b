// Package store provides data persistence interfaces and implementations.
package store

import "context"

// Fixed record keys. Each record is a complete-overwrite JSON blob,
// mirroring the browser-storage model the frontend used to own.
const (
	RecordSettings = "app_settings"
	RecordSessions = "chat_sessions"
)

// Repository defines the interface for persisting durable client records.
type Repository interface {
	// GetRecord retrieves the blob stored under key. Returns (nil, nil)
	// if the record does not exist.
	GetRecord(ctx context.Context, key string) ([]byte, error)

	// PutRecord overwrites the blob stored under key.
	PutRecord(ctx context.Context, key string, blob []byte) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
