package services

import (
	"context"
	"testing"

	"redfish-modelgen/internal/registry/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRegistryFilter(t *testing.T) {
	doc := models.Document{ID: "Base.1.16.0", ODataID: "/redfish/v1/Registries/Base"}
	assert.Equal(t, bson.M{"Id": "Base.1.16.0"}, registryFilter(doc))
}

func TestMockupFilter(t *testing.T) {
	tests := []struct {
		name string
		doc  models.Document
		want bson.M
	}{
		{
			name: "odata id wins over Id",
			doc:  models.Document{ID: "1U", ODataID: "/redfish/v1/Chassis/1U"},
			want: bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$getField": "@odata.id"}, "/redfish/v1/Chassis/1U"}}},
		},
		{
			name: "Id only",
			doc:  models.Document{ID: "Redfish_1.3.1"},
			want: bson.M{"Id": "Redfish_1.3.1"},
		},
		{
			name: "neither is inserted",
			doc:  models.Document{ODataType: "#Event.v1_0_0.Event"},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mockupFilter(tt.doc))
		})
	}
}

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("registry upsert replaces by Id in the type collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		doc := models.Document{
			ID:        "Redfish_1.3.1",
			ODataType: "#PrivilegeRegistry.v1_1_4.PrivilegeRegistry",
			Body:      map[string]any{"Id": "Redfish_1.3.1"},
		}

		require.NoError(mt, NewRepository(mt.DB).Upsert(context.Background(), doc))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		assert.Equal(mt, "PrivilegeRegistry", started.Command.Lookup("update").StringValue())
	})

	mt.Run("mockup without any id is inserted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		doc := models.Document{ODataType: "#Event.v1_0_0.Event", Body: map[string]any{"Name": "Event"}}

		require.NoError(mt, NewRepository(mt.DB).UpsertMockup(context.Background(), doc))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
		assert.Equal(mt, "Event", started.Command.Lookup("insert").StringValue())
	})

	mt.Run("mockup resource goes to RedfishObject", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		doc := models.Document{
			ODataType: "#Chassis.v1_22_1.Chassis",
			ODataID:   "/redfish/v1/Chassis/1U",
			Body:      map[string]any{"@odata.id": "/redfish/v1/Chassis/1U"},
		}

		require.NoError(mt, NewRepository(mt.DB).UpsertMockup(context.Background(), doc))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, models.RedfishObjectCollection, started.Command.Lookup("update").StringValue())
	})

	mt.Run("service file clears the collection first", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)
		file := models.ServiceFile{Path: "odata/index.json", Collection: models.ODataFileCollection, Data: `{"value": []}`}

		require.NoError(mt, NewRepository(mt.DB).ReplaceServiceFile(context.Background(), file))

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "delete", events[0].CommandName)
		assert.Equal(mt, "insert", events[1].CommandName)
		assert.Equal(mt, models.ODataFileCollection, events[1].Command.Lookup("insert").StringValue())
	})

	mt.Run("write failure names the document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "duplicate key"}))
		doc := models.Document{ID: "Base.1.16.0", ODataType: "#MessageRegistry.v1_6_0.MessageRegistry", Body: map[string]any{}}

		err := NewRepository(mt.DB).Upsert(context.Background(), doc)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "Base.1.16.0")
		assert.Contains(mt, err.Error(), "MessageRegistry")
	})
}
