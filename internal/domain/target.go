package domain

import (
	"context"
	"time"
)

// RemoteFile is one entry of a target's artifact listing. The target owns
// the listing; it is never cached.
type RemoteFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Target durably stores artifact copies under logical names.
type Target interface {
	ID() string
	Kind() string
	Store(ctx context.Context, localPath string, remoteName string) error
	List(ctx context.Context) ([]RemoteFile, error)
	Delete(ctx context.Context, remoteName string) error
}

// Notifier receives status summaries instead of artifact bytes.
type Notifier interface {
	Notify(ctx context.Context, summary string) error
}
