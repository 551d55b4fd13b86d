package watcher

import "context"

// Watcher monitors the project's raw_audio tree and triggers pipeline
// runs when new media appears.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// RunFunc executes one full pipeline pass.
type RunFunc func(ctx context.Context) error
