package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"iromo/internal/modules/collection/adapter/out"
	"iromo/internal/modules/collection/domain"
	"iromo/internal/platform/config"
	apperrors "iromo/internal/platform/errors"
	"iromo/internal/platform/logging"
)

// Service owns opening and initializing collections. It is the only
// component that creates the on-disk layout.
type Service struct {
	scripts fs.FS
	logger  *zap.Logger
}

func NewService(scripts fs.FS, logger *zap.Logger) *Service {
	return &Service{scripts: scripts, logger: logging.OrNop(logger)}
}

// Open opens the collection at cfg.CollectionPath. With createNew the
// directory, manifest and bodies subdirectory are created first; without it
// a missing or foreign manifest rejects the path. The schema is migrated to
// current before the collection is returned; a migration failure leaves the
// collection unopened.
func (s *Service) Open(ctx context.Context, cfg config.Config, createNew bool) (*domain.Collection, error) {
	if createNew {
		if err := s.initialize(cfg); err != nil {
			return nil, err
		}
	}
	if err := s.checkManifest(cfg.ManifestPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.BodiesPath, 0o755); err != nil {
		return nil, fmt.Errorf("create bodies dir: %w", err)
	}

	db, err := out.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := out.NewMigrator(db, s.scripts, s.logger).Apply(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info("collection opened", zap.String("path", cfg.CollectionPath))
	return &domain.Collection{
		Root:       cfg.CollectionPath,
		BodiesPath: cfg.BodiesPath,
		DB:         db,
	}, nil
}

func (s *Service) initialize(cfg config.Config) error {
	info, err := os.Stat(cfg.CollectionPath)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(cfg.CollectionPath, 0o755); err != nil {
			return fmt.Errorf("create collection dir: %w", err)
		}
	case err != nil:
		return fmt.Errorf("stat collection dir: %w", err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", apperrors.ErrInvalidInput, cfg.CollectionPath)
	}

	if _, err := os.Stat(cfg.ManifestPath); err == nil {
		// Already a collection; Open will validate the manifest.
		return nil
	}
	raw, err := json.MarshalIndent(domain.Manifest{
		Type:    domain.ManifestType,
		Version: domain.ManifestVersion,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(cfg.ManifestPath, raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (s *Service) checkManifest(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: not a collection (missing %s)", apperrors.ErrNotFound, config.ManifestFile)
	}
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var manifest domain.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return fmt.Errorf("%w: parse manifest: %v", apperrors.ErrInvalidInput, err)
	}
	if err := manifest.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}
