package migrations

import (
	"context"

	"redfish-modelgen/pkg/migrations"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func privilegesTableIndexes(collection string) migrations.RegisteredMigration {
	return migrations.RegisteredMigration{
		Version:     "001_create_privileges_table_indexes",
		Description: "Create indexes for the compiled URI privileges table",
		Up: func(ctx context.Context, db *mongo.Database) error {
			return createIndexes(ctx, db.Collection(collection), []mongo.IndexModel{
				// One rule per entity and pattern
				{
					Keys: bson.D{
						{Key: "Entity", Value: 1},
						{Key: "uri", Value: 1},
					},
					Options: options.Index().SetUnique(true),
				},
				{
					Keys: bson.D{{Key: "uri", Value: 1}},
				},
				{
					Keys: bson.D{{Key: "run_id", Value: 1}},
				},
			})
		},
		Down: func(ctx context.Context, db *mongo.Database) error {
			return dropIndexes(ctx, db.Collection(collection))
		},
	}
}
