package usecase

import (
	"context"

	commandin "iromo/internal/modules/command/port/in"
	"iromo/internal/modules/command/service"
)

type Interactor struct {
	engine *service.Engine
}

func NewInteractor(engine *service.Engine) commandin.Usecase {
	return &Interactor{engine: engine}
}

func (i *Interactor) Undo(ctx context.Context) (string, error) { return i.engine.Undo(ctx) }
func (i *Interactor) Redo(ctx context.Context) (string, error) { return i.engine.Redo(ctx) }
func (i *Interactor) CanUndo() bool                            { return i.engine.CanUndo() }
func (i *Interactor) CanRedo() bool                            { return i.engine.CanRedo() }
func (i *Interactor) UndoDescriptions() []string               { return i.engine.UndoDescriptions() }
func (i *Interactor) RedoDescriptions() []string               { return i.engine.RedoDescriptions() }
func (i *Interactor) Clear()                                   { i.engine.Clear() }
