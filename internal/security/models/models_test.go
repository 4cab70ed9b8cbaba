package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationMapMerge(t *testing.T) {
	m := OperationMap{
		"GET": {{Privilege: []string{"Login"}}},
	}
	other := OperationMap{
		"GET":   {{Privilege: []string{"Login"}}, {Privilege: []string{"ConfigureSelf", "Login"}}},
		"PATCH": {{Privilege: []string{"ConfigureComponents"}}},
	}

	assert.Equal(t, 2, m.Merge(other))
	assert.Equal(t, OperationMap{
		"GET":   {{Privilege: []string{"Login"}}, {Privilege: []string{"ConfigureSelf", "Login"}}},
		"PATCH": {{Privilege: []string{"ConfigureComponents"}}},
	}, m)

	// order inside a set does not matter
	assert.Zero(t, m.Merge(OperationMap{"GET": {{Privilege: []string{"Login", "ConfigureSelf"}}}}))

	other["PATCH"][0].Privilege[0] = "Changed"
	assert.Equal(t, "ConfigureComponents", m["PATCH"][0].Privilege[0])
}

func TestOperationMapClone(t *testing.T) {
	m := OperationMap{"GET": {{Privilege: []string{"Login"}}}}
	clone := m.Clone()
	clone["GET"][0].Privilege[0] = "NoAuth"

	assert.Equal(t, "Login", m["GET"][0].Privilege[0])
	assert.Nil(t, OperationMap(nil).Clone())
	assert.Equal(t, []string{"GET"}, m.Operations())
}
