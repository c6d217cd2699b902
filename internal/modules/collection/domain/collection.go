package domain

import (
	"database/sql"
	"fmt"
	"strings"
)

const (
	ManifestType    = "iromo_collection"
	ManifestVersion = "1.0"
)

// Manifest marks a directory as a collection. Opening a path without it
// (and not flagged new) is rejected.
type Manifest struct {
	Type    string `json:"type"`
	Version string `json:"version"`
}

func (m Manifest) Validate() error {
	if m.Type != ManifestType {
		return fmt.Errorf("manifest type %q is not %q", m.Type, ManifestType)
	}
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("manifest version is required")
	}
	return nil
}

// Collection is one open on-disk collection: the database handle plus the
// resolved directory layout. It must not be shared by two logical sessions.
type Collection struct {
	Root       string
	BodiesPath string
	DB         *sql.DB
}

func (c *Collection) Close() error {
	if c.DB == nil {
		return nil
	}
	if err := c.DB.Close(); err != nil {
		return fmt.Errorf("close collection database: %w", err)
	}
	c.DB = nil
	return nil
}
