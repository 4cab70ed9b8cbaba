package services

import (
	"context"
	"fmt"

	"redfish-modelgen/internal/registry/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists registry and mockup documents
type Store interface {
	Upsert(ctx context.Context, doc models.Document) error
	UpsertMockup(ctx context.Context, doc models.Document) error
	ReplaceServiceFile(ctx context.Context, file models.ServiceFile) error
}

// Repository stores documents in the collection their type names
type Repository struct {
	db *mongo.Database
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{db: db}
}

// Upsert replaces the stored document with the same Id, or inserts it
func (r *Repository) Upsert(ctx context.Context, doc models.Document) error {
	collection := r.db.Collection(doc.Collection())
	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, registryFilter(doc), doc.Body, opts); err != nil {
		return fmt.Errorf("failed to store %s in %s: %w", doc.ID, doc.Collection(), err)
	}
	return nil
}

// UpsertMockup replaces the stored copy of a mockup document, matched by
// @odata.id or else by Id. Documents with neither are inserted.
func (r *Repository) UpsertMockup(ctx context.Context, doc models.Document) error {
	collection := r.db.Collection(doc.MockupCollection())

	filter := mockupFilter(doc)
	var err error
	if filter == nil {
		_, err = collection.InsertOne(ctx, doc.Body)
	} else {
		_, err = collection.ReplaceOne(ctx, filter, doc.Body, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("failed to store %s in %s: %w", doc.Path, doc.MockupCollection(), err)
	}
	return nil
}

// ReplaceServiceFile keeps exactly one {data} document in the file's collection
func (r *Repository) ReplaceServiceFile(ctx context.Context, file models.ServiceFile) error {
	collection := r.db.Collection(file.Collection)
	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", file.Collection, err)
	}
	if _, err := collection.InsertOne(ctx, bson.M{"data": file.Data}); err != nil {
		return fmt.Errorf("failed to store %s in %s: %w", file.Path, file.Collection, err)
	}
	return nil
}

func registryFilter(doc models.Document) bson.M {
	return bson.M{"Id": doc.ID}
}

// mockupFilter matches @odata.id through $getField, since a dotted key in a
// plain filter would be read as a nested path
func mockupFilter(doc models.Document) bson.M {
	switch {
	case doc.ODataID != "":
		return bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$getField": "@odata.id"}, doc.ODataID}}}
	case doc.ID != "":
		return bson.M{"Id": doc.ID}
	default:
		return nil
	}
}
