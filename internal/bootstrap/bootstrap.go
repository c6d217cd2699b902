package bootstrap

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	collectionout "iromo/internal/modules/collection/adapter/out"
	collectiondomain "iromo/internal/modules/collection/domain"
	collectionservice "iromo/internal/modules/collection/service"
	commandin "iromo/internal/modules/command/port/in"
	commandservice "iromo/internal/modules/command/service"
	commandusecase "iromo/internal/modules/command/usecase"
	extractionoutadapter "iromo/internal/modules/extraction/adapter/out"
	extractionin "iromo/internal/modules/extraction/port/in"
	extractionservice "iromo/internal/modules/extraction/service"
	extractionusecase "iromo/internal/modules/extraction/usecase"
	topicoutadapter "iromo/internal/modules/topic/adapter/out"
	topicin "iromo/internal/modules/topic/port/in"
	topicservice "iromo/internal/modules/topic/service"
	topicusecase "iromo/internal/modules/topic/usecase"
	"iromo/internal/platform/clock"
	"iromo/internal/platform/config"
	"iromo/internal/platform/events"
	"iromo/internal/platform/id"
	"iromo/internal/platform/logging"
	"iromo/internal/platform/tx"
	uiapp "iromo/internal/ui/app"
)

// App is one open collection with every service wired. Closing it flushes
// pending body saves and releases the database.
type App struct {
	Topics      topicin.Usecase
	Extractions extractionin.Usecase
	History     commandin.Usecase
	Bus         *events.Bus
	Logger      *zap.Logger

	collection *collectiondomain.Collection
	saver      *topicservice.BodySaver
}

// Open opens (or with createNew, initializes) the collection at path and
// wires the application around it. Undo history starts empty for every
// collection; stacks never carry across collections.
func Open(ctx context.Context, path string, createNew, debug bool) (*App, error) {
	logger, err := logging.New(debug)
	if err != nil {
		return nil, err
	}

	cfg, err := config.New(path)
	if err != nil {
		return nil, err
	}
	collection, err := collectionservice.NewService(collectionout.Migrations(), logger).Open(ctx, cfg, createNew)
	if err != nil {
		return nil, err
	}

	clk := clock.SystemClock{}
	ids := id.UUID{}
	bus := events.NewBus()
	txm := tx.NewSQLiteManager(collection.DB)

	topicStore := topicoutadapter.NewSQLiteTopicStore(collection.DB)
	bodyStore := topicoutadapter.NewFileBodyStore(collection.BodiesPath)
	extractionStore := extractionoutadapter.NewSQLiteExtractionStore(collection.DB)

	topicSvc := topicservice.NewService(clk, ids, topicStore, bodyStore, extractionStore, txm, bus, logger)
	saver := topicservice.NewBodySaver(topicSvc, logger, nil)
	extractionSvc := extractionservice.NewService(
		ids, extractionStore, extractionoutadapter.NewTopicServiceGateway(topicSvc), txm, bus, logger)

	engine := commandservice.NewEngine(bus, logger)

	return &App{
		Topics:      topicusecase.NewInteractor(topicSvc, saver, engine, extractionSvc, txm),
		Extractions: extractionusecase.NewInteractor(extractionSvc, topicSvc, engine),
		History:     commandusecase.NewInteractor(engine),
		Bus:         bus,
		Logger:      logger,
		collection:  collection,
		saver:       saver,
	}, nil
}

func (a *App) Close() error {
	a.saver.Flush()
	return a.collection.Close()
}

func RunTUI(app *App, collectionPath string) error {
	model := uiapp.NewModel(collectionPath, app.Topics, app.Extractions, app.History)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
