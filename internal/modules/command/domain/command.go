package domain

import "context"

// Command is a reversible mutation. Execute runs it for the first time and
// captures whatever state Undo needs to reverse it exactly, original ids and
// timestamps included.
type Command interface {
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error
	Description() string
}

// Redoer is implemented by commands whose re-application differs from a fresh
// Execute, typically because redo must reuse the ids captured the first time
// instead of allocating new ones.
type Redoer interface {
	Redo(ctx context.Context) error
}
