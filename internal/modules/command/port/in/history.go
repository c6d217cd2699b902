package in

import "context"

// Usecase is the undo/redo surface. Undo and Redo return the description of
// the command they applied.
type Usecase interface {
	Undo(ctx context.Context) (string, error)
	Redo(ctx context.Context) (string, error)
	CanUndo() bool
	CanRedo() bool
	UndoDescriptions() []string
	RedoDescriptions() []string
	Clear()
}
