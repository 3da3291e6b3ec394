package domain

import "context"

// Source is one configured database instance. Adapters implement the dump
// and restore mechanics with the engine's native tooling.
type Source interface {
	ID() string
	Kind() string

	// Dump writes a point-in-time export into dir and returns the path of
	// the produced file or directory.
	Dump(ctx context.Context, dir string) (string, error)

	// Restore loads a previously extracted dump back into the database.
	Restore(ctx context.Context, dumpPath string) error

	Ping(ctx context.Context) error
}
