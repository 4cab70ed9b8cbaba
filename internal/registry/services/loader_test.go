package services

import (
	"os"
	"path/filepath"
	"testing"

	"redfish-modelgen/internal/registry/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func registryFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeRegistry(t, filepath.Join(root, "registries"), "Base.1.9.0.json",
		`{"@odata.type": "#MessageRegistry.v1_4_1.MessageRegistry", "Id": "Base.1.9.0", "Name": "Base Message Registry"}`)
	writeRegistry(t, filepath.Join(root, "registries"), "Base.1.16.0.json",
		`{"@odata.type": "#MessageRegistry.v1_6_0.MessageRegistry", "Id": "Base.1.16.0", "Name": "Base Message Registry"}`)
	writeRegistry(t, filepath.Join(root, "registries"), "Base.1.10.0.json",
		`{"@odata.type": "#MessageRegistry.v1_4_1.MessageRegistry", "Id": "Base.1.10.0", "Name": "Base Message Registry"}`)
	writeRegistry(t, filepath.Join(root, "privileges"), "Redfish_1.0.2_PrivilegeRegistry.json",
		`{"@odata.type": "#PrivilegeRegistry.v1_0_0.PrivilegeRegistry", "Id": "Redfish_1.0.2", "Name": "Redfish Privilege Registry"}`)
	writeRegistry(t, filepath.Join(root, "privileges"), "Redfish_1.3.1_PrivilegeRegistry.json",
		`{"@odata.type": "#PrivilegeRegistry.v1_1_4.PrivilegeRegistry", "Id": "Redfish_1.3.1", "Name": "Redfish Privilege Registry", "Mappings": []}`)
	writeRegistry(t, root, "index.json", `{"Members": []}`)
	writeRegistry(t, root, "notes.txt", `not a registry`)
	return root
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.16.0", "1.9.0", 1},
		{"1.9.0", "1.16.0", -1},
		{"1.0.2", "1.0.2", 0},
		{"1.0", "1.0.5", 0},
		{"2", "1.9.9", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			got, err := CompareVersions(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CompareVersions("1.x", "1.2")
	assert.Error(t, err)
}

func TestDocumentVersion(t *testing.T) {
	v, err := DocumentVersion("Redfish_1.3.1", "#PrivilegeRegistry.v1_1_4.PrivilegeRegistry")
	require.NoError(t, err)
	assert.Equal(t, "1.3.1", v)

	v, err = DocumentVersion("Base.1.16.0", "#MessageRegistry.v1_6_0.MessageRegistry")
	require.NoError(t, err)
	assert.Equal(t, "1.16.0", v)

	_, err = DocumentVersion("Base", "#MessageRegistry.v1_6_0.MessageRegistry")
	assert.Error(t, err)
}

func TestDocument_Collection(t *testing.T) {
	assert.Equal(t, "PrivilegeRegistry", models.Document{ODataType: "#PrivilegeRegistry.v1_1_4.PrivilegeRegistry"}.Collection())
	assert.Equal(t, "MessageRegistry", models.Document{ODataType: "#MessageRegistry"}.Collection())
}

func TestLoader_SelectLatest(t *testing.T) {
	report, err := NewLoader().Select(registryFixture(t))
	require.NoError(t, err)

	assert.Equal(t, 6, report.Scanned)
	require.Len(t, report.Selected, 2)

	assert.Equal(t, "Base Message Registry", report.Selected[0].Name)
	assert.Equal(t, "Base.1.16.0", report.Selected[0].ID)
	assert.Equal(t, "MessageRegistry", report.Selected[0].Collection())

	assert.Equal(t, "Redfish Privilege Registry", report.Selected[1].Name)
	assert.Equal(t, "1.3.1", report.Selected[1].Version)
	assert.Contains(t, report.Selected[1].Body, "Mappings")
}

func TestLoader_SkipsUnversioned(t *testing.T) {
	root := t.TempDir()
	writeRegistry(t, root, "Odd.json", `{"@odata.type": "#MessageRegistry.v1_0_0.MessageRegistry", "Id": "Odd", "Name": "Odd"}`)

	report, err := NewLoader().Select(root)
	require.NoError(t, err)
	assert.Empty(t, report.Selected)
	assert.Equal(t, 1, report.Skipped)
}

func TestLoader_MalformedDocument(t *testing.T) {
	root := t.TempDir()
	writeRegistry(t, root, "Broken.json", `{"@odata.type": `)

	_, err := NewLoader().Select(root)
	assert.Error(t, err)
}

func mockupFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeRegistry(t, filepath.Join(root, "redfish", "v1"), "index.json",
		`{"@odata.type": "#ServiceRoot.v1_5_0.ServiceRoot", "@odata.id": "/redfish/v1/", "Id": "RootService"}`)
	writeRegistry(t, filepath.Join(root, "redfish", "v1", "Chassis", "1U"), "index.json",
		`{"@odata.type": "#Chassis.v1_22_1.Chassis", "@odata.id": "/redfish/v1/Chassis/1U", "Id": "1U", "Name": "Computer System Chassis"}`)
	writeRegistry(t, filepath.Join(root, "redfish", "v1", "Registries", "Base"), "index.json",
		`{"@odata.type": "#MessageRegistry.v1_6_0.MessageRegistry", "Id": "Base.1.16.0", "Name": "Base Message Registry"}`)
	writeRegistry(t, filepath.Join(root, "redfish", "v1", "Registries", "Privilege"), "index.json",
		`{"@odata.type": "#PrivilegeRegistry.v1_1_4.PrivilegeRegistry", "Id": "Redfish_1.3.1", "Name": "Redfish Privilege Registry"}`)
	writeRegistry(t, filepath.Join(root, "redfish", "v1", "odata"), "index.json",
		`{"@odata.context": "/redfish/v1/$metadata", "value": []}`)
	writeRegistry(t, filepath.Join(root, "redfish", "v1", "$metadata"), "index.xml",
		`<edmx:Edmx Version="4.0"></edmx:Edmx>`)
	return filepath.Join(root, "redfish", "v1")
}

func TestDocument_MockupCollection(t *testing.T) {
	chassis := models.Document{ODataType: "#Chassis.v1_22_1.Chassis", ODataID: "/redfish/v1/Chassis/1U"}
	assert.Equal(t, models.RedfishObjectCollection, chassis.MockupCollection())

	privileges := models.Document{ODataType: "#PrivilegeRegistry.v1_1_4.PrivilegeRegistry"}
	assert.Equal(t, "PrivilegeRegistry", privileges.MockupCollection())
}

func TestLoader_Mockups(t *testing.T) {
	dir := mockupFixture(t)

	report, err := NewLoader().Mockups(dir)
	require.NoError(t, err)

	// odata/index.json carries no @odata.type and is only stored verbatim
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Documents, 3)

	byType := make(map[string]models.Document)
	for _, doc := range report.Documents {
		assert.NotContains(t, doc.ODataType, "MessageRegistry")
		byType[doc.Collection()] = doc
	}
	assert.Equal(t, "/redfish/v1/Chassis/1U", byType["Chassis"].ODataID)
	assert.Equal(t, models.RedfishObjectCollection, byType["Chassis"].MockupCollection())
	assert.Equal(t, models.RedfishObjectCollection, byType["ServiceRoot"].MockupCollection())
	assert.Equal(t, "PrivilegeRegistry", byType["PrivilegeRegistry"].MockupCollection())

	require.Len(t, report.Files, 2)
	assert.Equal(t, models.ODataFileCollection, report.Files[0].Collection)
	assert.JSONEq(t, `{"@odata.context": "/redfish/v1/$metadata", "value": []}`, report.Files[0].Data)
	assert.Equal(t, models.MetadataFileCollection, report.Files[1].Collection)
	assert.Equal(t, filepath.Join(dir, "$metadata", "index.xml"), report.Files[1].Path)
	assert.Contains(t, report.Files[1].Data, "edmx:Edmx")
}

func TestLoader_MockupsWithoutServiceFiles(t *testing.T) {
	root := t.TempDir()
	writeRegistry(t, root, "index.json", `{"@odata.type": "#Manager.v1_3_0.Manager", "@odata.id": "/redfish/v1/Managers/BMC"}`)

	report, err := NewLoader().Mockups(root)
	require.NoError(t, err)
	assert.Len(t, report.Documents, 1)
	assert.Empty(t, report.Files)
}
