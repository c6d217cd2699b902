package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"iromo/internal/modules/command/domain"
	"iromo/internal/platform/events"
	"iromo/internal/platform/logging"
)

// Undo and Redo on an empty stack change nothing and report these sentinels.
// Callers treat them as information for the user, not as failures.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Engine owns the undo and redo stacks. Executing a command pushes it onto
// the undo stack and clears the redo stack; undo moves it to the redo stack
// and redo moves it back. When an undo or redo itself fails the command is
// pushed back where it came from so the stacks keep matching reality.
//
// Stacks live in memory only and do not survive the process.
type Engine struct {
	bus    *events.Bus
	logger *zap.Logger

	mu   sync.Mutex
	undo []domain.Command
	redo []domain.Command
}

func NewEngine(bus *events.Bus, logger *zap.Logger) *Engine {
	return &Engine{bus: bus, logger: logging.OrNop(logger)}
}

// Execute runs the command. Nothing is pushed when it fails.
func (e *Engine) Execute(ctx context.Context, cmd domain.Command) error {
	if err := cmd.Execute(ctx); err != nil {
		e.logger.Warn("command failed", zap.String("command", cmd.Description()), zap.Error(err))
		return err
	}
	e.mu.Lock()
	e.undo = append(e.undo, cmd)
	e.redo = nil
	e.mu.Unlock()
	e.logger.Debug("command executed", zap.String("command", cmd.Description()))
	return nil
}

// Undo reverses the most recent command and returns its description.
func (e *Engine) Undo(ctx context.Context) (string, error) {
	e.mu.Lock()
	if len(e.undo) == 0 {
		e.mu.Unlock()
		return "", ErrNothingToUndo
	}
	cmd := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.mu.Unlock()

	if err := cmd.Undo(ctx); err != nil {
		e.mu.Lock()
		e.undo = append(e.undo, cmd)
		e.mu.Unlock()
		e.logger.Warn("undo failed", zap.String("command", cmd.Description()), zap.Error(err))
		return "", err
	}

	e.mu.Lock()
	e.redo = append(e.redo, cmd)
	e.mu.Unlock()
	// Undo can rebuild whole subtrees; listeners refresh wholesale rather
	// than replaying the individual change events.
	e.publishBulkChange()
	return cmd.Description(), nil
}

// Redo re-applies the most recently undone command and returns its
// description. Commands implementing Redoer get their Redo called so
// captured ids are reused; all others re-run Execute.
func (e *Engine) Redo(ctx context.Context) (string, error) {
	e.mu.Lock()
	if len(e.redo) == 0 {
		e.mu.Unlock()
		return "", ErrNothingToRedo
	}
	cmd := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.mu.Unlock()

	var err error
	if r, ok := cmd.(domain.Redoer); ok {
		err = r.Redo(ctx)
	} else {
		err = cmd.Execute(ctx)
	}
	if err != nil {
		e.mu.Lock()
		e.redo = append(e.redo, cmd)
		e.mu.Unlock()
		e.logger.Warn("redo failed", zap.String("command", cmd.Description()), zap.Error(err))
		return "", err
	}

	e.mu.Lock()
	e.undo = append(e.undo, cmd)
	e.mu.Unlock()
	e.publishBulkChange()
	return cmd.Description(), nil
}

func (e *Engine) publishBulkChange() {
	if e.bus != nil {
		e.bus.Publish(events.Event{Type: events.BulkChange})
	}
}

func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo) > 0
}

func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.redo) > 0
}

// UndoDescriptions lists the undo stack, most recent first.
func (e *Engine) UndoDescriptions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.undo))
	for i := len(e.undo) - 1; i >= 0; i-- {
		out = append(out, e.undo[i].Description())
	}
	return out
}

// RedoDescriptions lists the redo stack, most recent first.
func (e *Engine) RedoDescriptions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.redo))
	for i := len(e.redo) - 1; i >= 0; i-- {
		out = append(out, e.redo[i].Description())
	}
	return out
}

// Clear drops both stacks. Called when the open collection changes so stale
// commands can never touch another collection's data.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.undo = nil
	e.redo = nil
	e.mu.Unlock()
}
