package services

import (
	"testing"

	"redfish-modelgen/internal/modelgen/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriter_Run(t *testing.T) {
	cfg := newTestConfig(t)
	writeModel(t, cfg, "Chassis_V1_0_0", classModel("Chassis_V1_0_0", ""))
	writeModel(t, cfg, "Chassis_V1_1_0", classModel("Chassis_V1_1_0", ""))
	writeModel(t, cfg, "Manager_V1_3_0", classModel("Manager_V1_3_0", ""))
	writeModel(t, cfg, "Resource", classModel("Resource",
		"  private Chassis_V1_0_0 first;\n"+
			"  private Chassis_V1_1_0 second;\n"+
			"  private List<Manager_V1_3_0> managers;\n"+
			"  private Chassis_V1_0_0Extra untouched;\n"))

	ws := openTestWorkspace(t, cfg)
	report := &models.Report{}
	norm := NewNormalizer().Run(ws, report)

	rewriter := NewRewriter()
	assert.Equal(t, 1, rewriter.Run(ws, norm))
	_, err := ws.Flush()
	require.NoError(t, err)

	resource := readModel(t, cfg, "Resource")
	assert.Contains(t, resource, "  private Chassis first;\n")
	assert.Contains(t, resource, "  private Chassis second;\n", "references to a collision loser follow the winner")
	assert.Contains(t, resource, "  private List<Manager> managers;\n")
	assert.Contains(t, resource, "  private Chassis_V1_0_0Extra untouched;\n")
	assert.NotContains(t, resource, "Chassis_V1_1_0 ")

	t.Run("idempotent", func(t *testing.T) {
		before := readModel(t, cfg, "Resource")
		assert.Equal(t, 0, rewriter.Run(ws, norm))
		written, err := ws.Flush()
		require.NoError(t, err)
		assert.Equal(t, 0, written)
		assert.Equal(t, before, readModel(t, cfg, "Resource"))
	})
}

func TestRewriter_NothingToRename(t *testing.T) {
	cfg := newTestConfig(t)
	writeModel(t, cfg, "Resource", classModel("Resource", ""))

	ws := openTestWorkspace(t, cfg)
	norm := NewNormalizer().Run(ws, &models.Report{})
	assert.Equal(t, 0, NewRewriter().Run(ws, norm))
}
