package services

import (
	"os"
	"path/filepath"
	"testing"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/config"

	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) config.ModelsConfig {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default().Models
	cfg.Dir = filepath.Join(root, "AllModels")
	cfg.ConfigDir = filepath.Join(root, "config")
	cfg.ConvertersDir = filepath.Join(cfg.ConfigDir, "converters")
	require.NoError(t, os.MkdirAll(cfg.Dir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.ConfigDir, 0o755))
	return cfg
}

func writeModel(t *testing.T, cfg config.ModelsConfig, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, name+cfg.Extension), []byte(src), 0o644))
}

func readModel(t *testing.T, cfg config.ModelsConfig, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Dir, name+cfg.Extension))
	require.NoError(t, err)
	return string(data)
}

func modelExists(cfg config.ModelsConfig, name string) bool {
	_, err := os.Stat(filepath.Join(cfg.Dir, name+cfg.Extension))
	return err == nil
}

func openTestWorkspace(t *testing.T, cfg config.ModelsConfig) *Workspace {
	t.Helper()
	ws, err := OpenWorkspace(cfg.Dir, cfg.Extension)
	require.NoError(t, err)
	return ws
}

// normalizeAndRewrite runs the first two passes the way the pipeline does
func normalizeAndRewrite(t *testing.T, ws *Workspace, report *models.Report) *Normalization {
	t.Helper()
	norm := NewNormalizer().Run(ws, report)
	_, err := ws.Flush()
	require.NoError(t, err)
	NewRewriter().Run(ws, norm)
	_, err = ws.Flush()
	require.NoError(t, err)
	return norm
}

func classModel(name, body string) string {
	return "package com.tutorial.codegen.model;\n\n" +
		"import java.util.Objects;\n\n" +
		"public class " + name + " {\n" +
		body +
		"}\n"
}

func enumModel(name string) string {
	return "package com.tutorial.codegen.model;\n\n" +
		"public enum " + name + " {\n" +
		"  ON(\"On\"),\n" +
		"  OFF(\"Off\");\n\n" +
		"  private String value;\n\n" +
		"  public static " + name + " fromValue(String value) {\n" +
		"    return null;\n" +
		"  }\n" +
		"}\n"
}
