package services

import (
	"context"
	"testing"
	"time"

	"redfish-modelgen/internal/security/models"
	"redfish-modelgen/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	cfg := config.Default().Security

	mt.Run("privilege mappings decode from the registry", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + cfg.RegistryCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "Id", Value: "Redfish_1.3.1"},
			{Key: "Mappings", Value: bson.A{
				bson.D{
					{Key: "Entity", Value: "Chassis"},
					{Key: "OperationMap", Value: bson.D{
						{Key: "GET", Value: bson.A{bson.D{{Key: "Privilege", Value: bson.A{"Login"}}}}},
					}},
				},
			}},
		}))

		mappings, err := NewRepository(mt.DB, cfg).PrivilegeMappings(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []models.PrivilegeMapping{loginMapping("Chassis")}, mappings)
		assert.Equal(mt, cfg.RegistryCollection, mt.GetStartedEvent().Command.Lookup("find").StringValue())
	})

	mt.Run("no stored registry", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+cfg.RegistryCollection, mtest.FirstBatch))

		_, err := NewRepository(mt.DB, cfg).PrivilegeMappings(context.Background())
		assert.ErrorIs(mt, err, ErrNoPrivilegeRegistry)
	})

	mt.Run("replace rules deletes then inserts", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		rules := []models.SecurityRule{{
			URI:          "/redfish/v1/Chassis/[^/]+",
			Entity:       "Chassis",
			OperationMap: loginMapping("Chassis").OperationMap,
			RunID:        "run-1",
			CompiledAt:   time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
		}}

		require.NoError(mt, NewRepository(mt.DB, cfg).ReplaceRules(context.Background(), rules))

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "delete", events[0].CommandName)
		assert.Equal(mt, cfg.RulesCollection, events[0].Command.Lookup("delete").StringValue())
		assert.Equal(mt, "insert", events[1].CommandName)
	})

	mt.Run("empty schema cache only clears", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		require.NoError(mt, NewRepository(mt.DB, cfg).ReplaceSchemaCache(context.Background(), nil))

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 1)
		assert.Equal(mt, cfg.SchemaCacheCollection, events[0].Command.Lookup("delete").StringValue())
	})

	mt.Run("rules round trip through the cursor", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + cfg.RulesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "uri", Value: "/redfish/v1/Systems/[^/]+/Bios"},
			{Key: "Entity", Value: "Bios"},
			{Key: "OperationMap", Value: bson.D{
				{Key: "GET", Value: bson.A{bson.D{{Key: "Privilege", Value: bson.A{"Login"}}}}},
			}},
			{Key: "run_id", Value: "run-7"},
		}))

		rules, err := NewRepository(mt.DB, cfg).Rules(context.Background())
		require.NoError(mt, err)
		require.Len(mt, rules, 1)
		assert.Equal(mt, "Bios", rules[0].Entity)
		assert.Equal(mt, "run-7", rules[0].RunID)
		assert.Equal(mt, loginMapping("Bios").OperationMap, rules[0].OperationMap)
	})

	mt.Run("delete failure is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		err := NewRepository(mt.DB, cfg).ReplaceRules(context.Background(), nil)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to replace security rules")
	})
}
