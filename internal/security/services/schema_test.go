package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchemas(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func writeBundleArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func names(files []SchemaFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestLoadSchemaFiles_Directory(t *testing.T) {
	root := t.TempDir()
	writeSchemas(t, filepath.Join(root, "json-schema"), map[string]string{
		"Manager.json":        `{}`,
		"Chassis.v1_0_0.json": `{}`,
		"README.txt":          `ignored`,
	})

	files, err := LoadSchemaFiles(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chassis.v1_0_0.json", "Manager.json"}, names(files))
	assert.Equal(t, "Chassis", files[0].BaseName())
}

func TestLoadSchemaFiles_Override(t *testing.T) {
	root := t.TempDir()
	bundle := filepath.Join(root, "bundle")
	override := filepath.Join(root, "local")
	writeSchemas(t, bundle, map[string]string{
		"Chassis.json": `{"from":"bundle"}`,
		"Manager.json": `{"from":"bundle"}`,
	})
	writeSchemas(t, override, map[string]string{
		"Chassis.json":   `{"from":"local"}`,
		"OemWidget.json": `{"from":"local"}`,
	})

	files, err := LoadSchemaFiles(bundle, override)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chassis.json", "Manager.json", "OemWidget.json"}, names(files))
	assert.JSONEq(t, `{"from":"local"}`, string(files[0].Data))
	assert.JSONEq(t, `{"from":"bundle"}`, string(files[1].Data))
	assert.Equal(t, filepath.Join(override, "Chassis.json"), files[0].Origin)
	assert.Equal(t, filepath.Join(bundle, "Manager.json"), files[1].Origin)
}

func TestLoadSchemaFiles_Archive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "DSP8010.zip")
	writeBundleArchive(t, archive, map[string]string{
		"DSP8010/json-schema/Chassis.json": `{"a":1}`,
		"DSP8010/json-schema/Manager.json": `{"b":2}`,
		"DSP8010/openapi/openapi.json":     `{}`,
		"DSP8010/README.json":              `{}`,
	})

	files, err := LoadSchemaFiles(archive, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chassis.json", "Manager.json"}, names(files))
	assert.JSONEq(t, `{"a":1}`, string(files[0].Data))
}

func TestLoadSchemaFiles_FlatArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "schemas.zip")
	writeBundleArchive(t, archive, map[string]string{
		"Chassis.json": `{}`,
	})

	files, err := LoadSchemaFiles(archive, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chassis.json"}, names(files))
}

func TestLoadSchemaFiles_Missing(t *testing.T) {
	_, err := LoadSchemaFiles(filepath.Join(t.TempDir(), "absent"), "")
	assert.Error(t, err)

	_, err = LoadSchemaFiles(filepath.Join(t.TempDir(), "absent.zip"), "")
	assert.Error(t, err)
}
