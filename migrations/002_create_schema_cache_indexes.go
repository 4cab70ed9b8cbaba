package migrations

import (
	"context"

	"redfish-modelgen/pkg/migrations"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func schemaCacheIndexes(collection string) migrations.RegisteredMigration {
	return migrations.RegisteredMigration{
		Version:     "002_create_schema_cache_indexes",
		Description: "Create a unique source index for the schema cache",
		Up: func(ctx context.Context, db *mongo.Database) error {
			return createIndexes(ctx, db.Collection(collection), []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "source", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
			})
		},
		Down: func(ctx context.Context, db *mongo.Database) error {
			return dropIndexes(ctx, db.Collection(collection))
		},
	}
}
