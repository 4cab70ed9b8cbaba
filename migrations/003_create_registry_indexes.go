package migrations

import (
	"context"

	"redfish-modelgen/pkg/migrations"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// registryIndexes makes registry Ids unique, which the registry loader
// relies on when it upserts by Id
func registryIndexes(collections ...string) migrations.RegisteredMigration {
	return migrations.RegisteredMigration{
		Version:     "003_create_registry_indexes",
		Description: "Create unique Id indexes for the registry collections",
		Up: func(ctx context.Context, db *mongo.Database) error {
			for _, name := range collections {
				err := createIndexes(ctx, db.Collection(name), []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "Id", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
					{
						Keys: bson.D{{Key: "Name", Value: 1}},
					},
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(ctx context.Context, db *mongo.Database) error {
			for _, name := range collections {
				if err := dropIndexes(ctx, db.Collection(name)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
