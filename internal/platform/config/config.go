package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ManifestFile = "iromo_collection.json"
	DBFile       = "iromo.sqlite"
	BodiesDir    = "bodies"
)

// Config holds the resolved paths of one collection.
type Config struct {
	CollectionPath string
	ManifestPath   string
	DBPath         string
	BodiesPath     string
}

func New(collectionPath string) (Config, error) {
	if collectionPath == "" {
		return Config{}, fmt.Errorf("collection path is required")
	}
	return Config{
		CollectionPath: collectionPath,
		ManifestPath:   filepath.Join(collectionPath, ManifestFile),
		DBPath:         filepath.Join(collectionPath, DBFile),
		BodiesPath:     filepath.Join(collectionPath, BodiesDir),
	}, nil
}

// Settings is the per-user application state persisted between runs.
type Settings struct {
	LastCollection string `yaml:"last_collection"`
	Debug          bool   `yaml:"debug"`
}

func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "iromo", "config.yaml"), nil
}

func LoadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

func SaveSettings(path string, s Settings) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
