package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
)

func testService(serviceID, category string) *ServiceDefinition {
	return &ServiceDefinition{
		ID:       id.ServiceID(serviceID),
		Version:  1,
		Category: category,
		Requirements: []Requirement{
			{
				ID:        "req_age",
				Type:      RequirementAge,
				Mandatory: true,
				Condition: Condition{Field: "age", Operator: OpGte, Value: IntValue(18)},
			},
		},
	}
}

func testForm(serviceID string) *FormDefinition {
	return &FormDefinition{
		ServiceID: id.ServiceID(serviceID),
		Version:   1,
		Steps: []Step{
			{
				ID: "main",
				Fields: []Field{
					{ID: "full_name", Type: FieldText, Required: true},
				},
			},
		},
	}
}

func TestNewSnapshotRejectsInvalidService(t *testing.T) {
	bad := testService("svc_bad", "social")
	bad.Requirements[0].Condition.Field = "shoe_size"

	_, err := NewSnapshot([]*ServiceDefinition{testService("svc_ok", "social"), bad}, nil)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "svc_bad", cfgErr.ServiceID)
}

func TestNewSnapshotRejectsDuplicateService(t *testing.T) {
	_, err := NewSnapshot([]*ServiceDefinition{testService("svc", "a"), testService("svc", "b")}, nil)
	require.Error(t, err)
}

func TestNewSnapshotRejectsOrphanForm(t *testing.T) {
	_, err := NewSnapshot([]*ServiceDefinition{testService("svc", "a")}, []*FormDefinition{testForm("other")})
	require.Error(t, err)
}

func TestSnapshotLookups(t *testing.T) {
	snapshot, err := NewSnapshot(
		[]*ServiceDefinition{testService("svc_a", "housing"), testService("svc_b", "family"), testService("svc_c", "housing")},
		[]*FormDefinition{testForm("svc_a")},
	)
	require.NoError(t, err)

	svc, err := snapshot.GetService("svc_b")
	require.NoError(t, err)
	assert.Equal(t, id.ServiceID("svc_b"), svc.ID)

	_, err = snapshot.GetService("missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	housing := snapshot.ListByCategory("housing")
	require.Len(t, housing, 2)
	assert.Equal(t, id.ServiceID("svc_a"), housing[0].ID)
	assert.Equal(t, id.ServiceID("svc_c"), housing[1].ID)

	_, err = snapshot.GetForm("svc_a")
	require.NoError(t, err)
	_, err = snapshot.GetForm("svc_b")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestIndexPublishSwapsAtomically(t *testing.T) {
	index := NewIndex()
	assert.Empty(t, index.Snapshot().Services())

	first, err := NewSnapshot([]*ServiceDefinition{testService("svc_a", "x")}, nil)
	require.NoError(t, err)
	index.Publish(first)

	held := index.Snapshot()
	require.Len(t, held.Services(), 1)

	second, err := NewSnapshot([]*ServiceDefinition{testService("svc_a", "x"), testService("svc_b", "x")}, nil)
	require.NoError(t, err)
	index.Publish(second)

	// A snapshot taken before the publish still sees the old view.
	assert.Len(t, held.Services(), 1)
	assert.Len(t, index.Snapshot().Services(), 2)
}

func TestSnapshotPreservesInsertionOrder(t *testing.T) {
	var services []*ServiceDefinition
	for i := 0; i < 10; i++ {
		services = append(services, testService(fmt.Sprintf("svc_%02d", i), "x"))
	}
	snapshot, err := NewSnapshot(services, nil)
	require.NoError(t, err)

	got := snapshot.Services()
	for i, svc := range got {
		assert.Equal(t, id.ServiceID(fmt.Sprintf("svc_%02d", i)), svc.ID)
	}
}
