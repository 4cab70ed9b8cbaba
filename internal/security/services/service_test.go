package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"redfish-modelgen/internal/security/models"
	"redfish-modelgen/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) PrivilegeMappings(ctx context.Context) ([]models.PrivilegeMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PrivilegeMapping), args.Error(1)
}

func (m *MockStore) ReplaceRules(ctx context.Context, rules []models.SecurityRule) error {
	args := m.Called(ctx, rules)
	return args.Error(0)
}

func (m *MockStore) ReplaceSchemaCache(ctx context.Context, docs []models.SchemaDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockStore) Rules(ctx context.Context) ([]models.SecurityRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SecurityRule), args.Error(1)
}

func testSecurityConfig(t *testing.T, schemas map[string]string) config.SecurityConfig {
	t.Helper()
	cfg := config.Default().Security
	cfg.SchemaBundle = filepath.Join(t.TempDir(), "json-schema")
	writeSchemas(t, cfg.SchemaBundle, schemas)
	return cfg
}

func TestService_Compile(t *testing.T) {
	cfg := testSecurityConfig(t, map[string]string{
		"Chassis.json": chassisSchema,
		"Bios.json":    biosSchema,
	})
	store := new(MockStore)
	ctx := context.Background()

	store.On("PrivilegeMappings", ctx).Return([]models.PrivilegeMapping{loginMapping("Chassis")}, nil)
	store.On("ReplaceSchemaCache", ctx, mock.MatchedBy(func(docs []models.SchemaDocument) bool {
		return len(docs) == 2 && docs[0].Source == "Bios.json" && docs[1].Source == "Chassis.json"
	})).Return(nil)
	store.On("ReplaceRules", ctx, mock.MatchedBy(func(rules []models.SecurityRule) bool {
		return len(rules) == 2 && rules[0].RunID == "run-1"
	})).Return(nil)

	svc := NewService(store, cfg)
	compilation, authorizer, err := svc.Compile(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, 2, compilation.Report.Rules)
	assert.Equal(t, []string{"Bios"}, compilation.Report.Unmapped)
	assert.Equal(t, 2, compilation.Report.Policies)

	allowed, err := authorizer.Allowed([]string{"Login"}, "/redfish/v1/Chassis/1U", "GET")
	require.NoError(t, err)
	assert.True(t, allowed)

	store.AssertExpectations(t)
}

func TestService_CompileWithoutRegistry(t *testing.T) {
	cfg := testSecurityConfig(t, map[string]string{"Chassis.json": chassisSchema})
	store := new(MockStore)
	store.On("PrivilegeMappings", mock.Anything).Return(nil, ErrNoPrivilegeRegistry)

	_, _, err := NewService(store, cfg).Compile(context.Background(), "run-1")
	assert.ErrorIs(t, err, ErrNoPrivilegeRegistry)
	store.AssertNotCalled(t, "ReplaceRules", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ReplaceSchemaCache", mock.Anything, mock.Anything)
}

func TestService_CompileMalformedWritesNothing(t *testing.T) {
	cfg := testSecurityConfig(t, map[string]string{
		"Chassis.json": chassisSchema,
		"Zzz.json":     `not json`,
	})
	store := new(MockStore)
	store.On("PrivilegeMappings", mock.Anything).Return([]models.PrivilegeMapping{loginMapping("Chassis")}, nil)

	_, _, err := NewService(store, cfg).Compile(context.Background(), "run-1")
	assert.ErrorIs(t, err, ErrMalformedSchema)
	store.AssertNotCalled(t, "ReplaceRules", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ReplaceSchemaCache", mock.Anything, mock.Anything)
}

func TestService_CompileStoreFailure(t *testing.T) {
	cfg := testSecurityConfig(t, map[string]string{"Chassis.json": chassisSchema})
	store := new(MockStore)
	store.On("PrivilegeMappings", mock.Anything).Return([]models.PrivilegeMapping{loginMapping("Chassis")}, nil)
	store.On("ReplaceSchemaCache", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, _, err := NewService(store, cfg).Compile(context.Background(), "run-1")
	assert.Error(t, err)
	store.AssertNotCalled(t, "ReplaceRules", mock.Anything, mock.Anything)
}

func TestService_Authorizer(t *testing.T) {
	store := new(MockStore)
	store.On("Rules", mock.Anything).Return(testRules(), nil)

	authorizer, err := NewService(store, config.Default().Security).Authorizer(context.Background())
	require.NoError(t, err)

	allowed, err := authorizer.Allowed(nil, "/redfish/v1", "GET")
	require.NoError(t, err)
	assert.True(t, allowed)
	store.AssertExpectations(t)
}
