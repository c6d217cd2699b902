package service_test

import (
	"context"
	"errors"
	"testing"

	"iromo/internal/modules/command/service"
)

type stubCommand struct {
	name     string
	execErr  error
	undoErr  error
	executed int
	undone   int
	redone   int
}

func (c *stubCommand) Execute(context.Context) error {
	c.executed++
	return c.execErr
}

func (c *stubCommand) Undo(context.Context) error {
	c.undone++
	return c.undoErr
}

func (c *stubCommand) Description() string { return c.name }

type redoableStub struct {
	stubCommand
}

func (c *redoableStub) Redo(context.Context) error {
	c.redone++
	return nil
}

func TestExecutePushesUndoAndClearsRedo(t *testing.T) {
	t.Parallel()
	engine := service.NewEngine(nil, nil)
	ctx := context.Background()

	first := &stubCommand{name: "first"}
	if err := engine.Execute(ctx, first); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := engine.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !engine.CanRedo() {
		t.Fatalf("redo stack should hold the undone command")
	}

	// A new command wipes the redo stack.
	if err := engine.Execute(ctx, &stubCommand{name: "second"}); err != nil {
		t.Fatalf("execute second: %v", err)
	}
	if engine.CanRedo() {
		t.Fatalf("redo stack must be cleared by a new command")
	}
}

func TestFailedExecuteIsNotRecorded(t *testing.T) {
	t.Parallel()
	engine := service.NewEngine(nil, nil)

	boom := errors.New("boom")
	err := engine.Execute(context.Background(), &stubCommand{name: "bad", execErr: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected execute error, got %v", err)
	}
	if engine.CanUndo() {
		t.Fatalf("failed command must not land on the undo stack")
	}
}

func TestFailedUndoRestoresStack(t *testing.T) {
	t.Parallel()
	engine := service.NewEngine(nil, nil)
	ctx := context.Background()

	cmd := &stubCommand{name: "sticky", undoErr: errors.New("undo failed")}
	if err := engine.Execute(ctx, cmd); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := engine.Undo(ctx); err == nil {
		t.Fatalf("expected undo failure")
	}
	if !engine.CanUndo() {
		t.Fatalf("failed undo must leave the command on the undo stack")
	}
	if engine.CanRedo() {
		t.Fatalf("failed undo must not populate the redo stack")
	}
}

func TestRedoPrefersRedoer(t *testing.T) {
	t.Parallel()
	engine := service.NewEngine(nil, nil)
	ctx := context.Background()

	cmd := &redoableStub{stubCommand{name: "redoable"}}
	if err := engine.Execute(ctx, cmd); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := engine.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	desc, err := engine.Redo(ctx)
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	if desc != "redoable" {
		t.Fatalf("description = %q", desc)
	}
	if cmd.redone != 1 || cmd.executed != 1 {
		t.Fatalf("redo must call Redo, not Execute again (executed=%d redone=%d)", cmd.executed, cmd.redone)
	}
}

func TestDescriptionsAreMostRecentFirst(t *testing.T) {
	t.Parallel()
	engine := service.NewEngine(nil, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := engine.Execute(ctx, &stubCommand{name: name}); err != nil {
			t.Fatalf("execute %s: %v", name, err)
		}
	}
	got := engine.UndoDescriptions()
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("undo descriptions = %v, want %v", got, want)
		}
	}
}

func TestClearDropsBothStacks(t *testing.T) {
	t.Parallel()
	engine := service.NewEngine(nil, nil)
	ctx := context.Background()

	if err := engine.Execute(ctx, &stubCommand{name: "a"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := engine.Execute(ctx, &stubCommand{name: "b"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := engine.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}

	engine.Clear()
	if engine.CanUndo() || engine.CanRedo() {
		t.Fatalf("clear must empty both stacks")
	}
}

func TestUndoRedoOnEmptyStacks(t *testing.T) {
	t.Parallel()
	engine := service.NewEngine(nil, nil)
	ctx := context.Background()

	if _, err := engine.Undo(ctx); !errors.Is(err, service.ErrNothingToUndo) {
		t.Fatalf("undo on empty stack: got %v, want ErrNothingToUndo", err)
	}
	if _, err := engine.Redo(ctx); !errors.Is(err, service.ErrNothingToRedo) {
		t.Fatalf("redo on empty stack: got %v, want ErrNothingToRedo", err)
	}
	if engine.CanUndo() || engine.CanRedo() {
		t.Fatalf("empty-stack undo/redo must leave both stacks empty")
	}
}
