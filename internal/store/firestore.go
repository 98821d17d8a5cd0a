// Package store opens the Firestore database that backs the profile mirror.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// DefaultDatabase is the Firestore database used when none is configured.
const DefaultDatabase = "(default)"

// EmulatorHostEnv points the Firestore client at a local emulator.
const EmulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// Config selects the project and database to open.
type Config struct {
	ProjectID   string
	Database    string // empty means DefaultDatabase
	Credentials string // service account JSON; ignored against the emulator
}

func (c Config) database() string {
	if c.Database == "" {
		return DefaultDatabase
	}
	return c.Database
}

func (c Config) clientOptions(emulator string) []option.ClientOption {
	if c.Credentials == "" || emulator != "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(c.Credentials)}
}

// DB is an open Firestore database.
type DB struct {
	client    *firestore.Client
	projectID string
	database  string
	emulator  string
}

// Open connects to the configured database, or to the emulator named by
// FIRESTORE_EMULATOR_HOST when it is set.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("projectID is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db := &DB{
		projectID: cfg.ProjectID,
		database:  cfg.database(),
		emulator:  os.Getenv(EmulatorHostEnv),
	}

	client, err := firestore.NewClientWithDatabase(ctx, db.projectID, db.database, cfg.clientOptions(db.emulator)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	db.client = client

	logger.Debug("firestore client ready", "firestore", db)
	return db, nil
}

// Close releases the underlying client.
func (d *DB) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

// Firestore returns the underlying client.
func (d *DB) Firestore() *firestore.Client {
	return d.client
}

func (d *DB) ProjectID() string { return d.projectID }

func (d *DB) Database() string { return d.database }

// Emulator is the emulator host in use, or "".
func (d *DB) Emulator() string { return d.emulator }

// LogValue groups the database coordinates under one log attribute.
func (d *DB) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("project_id", d.ProjectID()),
		slog.String("database", d.Database()),
	}
	if d.Emulator() != "" {
		attrs = append(attrs, slog.String("emulator", d.Emulator()))
	}
	return slog.GroupValue(attrs...)
}
