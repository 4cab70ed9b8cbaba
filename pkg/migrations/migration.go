package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection records applied migrations
const Collection = "_migrations"

// Migration is the record of an applied migration
type Migration struct {
	Version     string    `bson:"version"` // e.g., "001_create_privileges_table_indexes"
	Description string    `bson:"description"`
	AppliedAt   time.Time `bson:"applied_at"`
	Checksum    string    `bson:"checksum"`
}

// MigrationFunc defines a migration function signature
type MigrationFunc func(ctx context.Context, db *mongo.Database) error

// RegisteredMigration holds migration metadata and functions
type RegisteredMigration struct {
	Version     string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc // optional
}

// StatusEntry is one line of the migration status
type StatusEntry struct {
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Applied     bool      `json:"applied"`
	AppliedAt   time.Time `json:"applied_at,omitempty"`
}

// Runner manages database migrations
type Runner struct {
	db         *mongo.Database
	collection *mongo.Collection
	migrations []RegisteredMigration
}

// NewRunner creates a new migration runner
func NewRunner(db *mongo.Database) *Runner {
	return &Runner{
		db:         db,
		collection: db.Collection(Collection),
	}
}

// Register adds a migration to the runner
func (r *Runner) Register(migration RegisteredMigration) {
	r.migrations = append(r.migrations, migration)
}

// Migrations returns the registered migrations in registration order
func (r *Runner) Migrations() []RegisteredMigration {
	return append([]RegisteredMigration(nil), r.migrations...)
}

// Pending returns the registered migrations not in applied
func Pending(registered []RegisteredMigration, applied []Migration) []RegisteredMigration {
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}
	var pending []RegisteredMigration
	for _, m := range registered {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// Run executes all pending migrations and returns how many were applied
func (r *Runner) Run(ctx context.Context) (int, error) {
	if err := r.ensureMigrationsIndex(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations index: %w", err)
	}

	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	count := 0
	for _, migration := range Pending(r.migrations, applied) {
		slog.Info("Running migration", "version", migration.Version, "description", migration.Description)

		if err := r.inSession(ctx, func(sc mongo.SessionContext) error {
			if err := migration.Up(sc, r.db); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Version, err)
			}
			record := Migration{
				Version:     migration.Version,
				Description: migration.Description,
				AppliedAt:   time.Now(),
				Checksum:    calculateChecksum(migration),
			}
			if _, err := r.collection.InsertOne(sc, record); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
			}
			return nil
		}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Rollback rolls back the last steps applied migrations
func (r *Runner) Rollback(ctx context.Context, steps int) (int, error) {
	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	if steps > len(applied) {
		steps = len(applied)
	}

	byVersion := make(map[string]RegisteredMigration, len(r.migrations))
	for _, m := range r.migrations {
		byVersion[m.Version] = m
	}

	count := 0
	for i := len(applied) - 1; i >= len(applied)-steps; i-- {
		version := applied[i].Version
		migration, exists := byVersion[version]
		if !exists {
			return count, fmt.Errorf("migration %s not found in registered migrations", version)
		}
		if migration.Down == nil {
			slog.Warn("Migration has no rollback function, skipping", "version", version)
			continue
		}

		slog.Info("Rolling back migration", "version", version)
		if err := r.inSession(ctx, func(sc mongo.SessionContext) error {
			if err := migration.Down(sc, r.db); err != nil {
				return fmt.Errorf("rollback %s failed: %w", version, err)
			}
			if _, err := r.collection.DeleteOne(sc, bson.M{"version": version}); err != nil {
				return fmt.Errorf("failed to remove migration record %s: %w", version, err)
			}
			return nil
		}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Status reports every registered migration with its applied state
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	byVersion := make(map[string]Migration, len(applied))
	for _, m := range applied {
		byVersion[m.Version] = m
	}

	entries := make([]StatusEntry, 0, len(r.migrations))
	for _, migration := range r.migrations {
		entry := StatusEntry{Version: migration.Version, Description: migration.Description}
		if record, ok := byVersion[migration.Version]; ok {
			entry.Applied = true
			entry.AppliedAt = record.AppliedAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *Runner) inSession(ctx context.Context, fn func(mongo.SessionContext) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)
	return mongo.WithSession(ctx, session, fn)
}

func (r *Runner) ensureMigrationsIndex(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := r.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (r *Runner) appliedMigrations(ctx context.Context) ([]Migration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var migrations []Migration
	if err := cursor.All(ctx, &migrations); err != nil {
		return nil, err
	}
	return migrations, nil
}

func calculateChecksum(migration RegisteredMigration) string {
	return fmt.Sprintf("%s:%s", migration.Version, migration.Description)
}
