package services

import (
	"context"
	"errors"
	"fmt"

	"redfish-modelgen/internal/security/models"
	"redfish-modelgen/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNoPrivilegeRegistry is returned when no PrivilegeRegistry document has
// been loaded into the database
var ErrNoPrivilegeRegistry = errors.New("no privilege registry stored")

// Store is the persistence the security compiler needs
type Store interface {
	PrivilegeMappings(ctx context.Context) ([]models.PrivilegeMapping, error)
	ReplaceRules(ctx context.Context, rules []models.SecurityRule) error
	ReplaceSchemaCache(ctx context.Context, docs []models.SchemaDocument) error
	Rules(ctx context.Context) ([]models.SecurityRule, error)
}

// Repository handles the security collections in MongoDB
type Repository struct {
	rules    *mongo.Collection
	schemas  *mongo.Collection
	registry *mongo.Collection
}

// NewRepository creates a repository over the configured collections
func NewRepository(db *mongo.Database, cfg config.SecurityConfig) *Repository {
	return &Repository{
		rules:    db.Collection(cfg.RulesCollection),
		schemas:  db.Collection(cfg.SchemaCacheCollection),
		registry: db.Collection(cfg.RegistryCollection),
	}
}

// PrivilegeMappings reads the Mappings array of the first stored registry
func (r *Repository) PrivilegeMappings(ctx context.Context) ([]models.PrivilegeMapping, error) {
	var registry models.PrivilegeRegistry
	err := r.registry.FindOne(ctx, bson.M{}).Decode(&registry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoPrivilegeRegistry
		}
		return nil, fmt.Errorf("failed to read privilege registry: %w", err)
	}
	return registry.Mappings, nil
}

// ReplaceRules drops every stored rule and inserts rules
func (r *Repository) ReplaceRules(ctx context.Context, rules []models.SecurityRule) error {
	docs := make([]interface{}, len(rules))
	for i := range rules {
		docs[i] = rules[i]
	}
	if err := replaceAll(ctx, r.rules, docs); err != nil {
		return fmt.Errorf("failed to replace security rules: %w", err)
	}
	return nil
}

// ReplaceSchemaCache drops the cached schemas and inserts docs
func (r *Repository) ReplaceSchemaCache(ctx context.Context, docs []models.SchemaDocument) error {
	items := make([]interface{}, len(docs))
	for i := range docs {
		items[i] = docs[i]
	}
	if err := replaceAll(ctx, r.schemas, items); err != nil {
		return fmt.Errorf("failed to replace schema cache: %w", err)
	}
	return nil
}

// Rules returns every stored rule
func (r *Repository) Rules(ctx context.Context) ([]models.SecurityRule, error) {
	cursor, err := r.rules.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query security rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []models.SecurityRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode security rules: %w", err)
	}
	return rules, nil
}

func replaceAll(ctx context.Context, collection *mongo.Collection, docs []interface{}) error {
	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := collection.InsertMany(ctx, docs)
	return err
}
