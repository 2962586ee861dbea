package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGathersAllCollectors(t *testing.T) {
	r := Registry()
	families, err := r.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"collab_updates_applied_total",
		"collab_updates_server_behind_total",
		"collab_updates_document_corrupted_total",
		"collab_actor_restarts_total",
		"collab_active_documents",
		"collab_transform_duration_seconds",
	} {
		assert.True(t, names[want], "missing metric family %q", want)
	}
}

func TestRegistryIsIndependentPerCall(t *testing.T) {
	// Registering the same package-level collectors on two fresh
	// registries must not panic — MustRegister's double-registration
	// guard is per-registry, not global.
	assert.NotPanics(t, func() {
		Registry()
		Registry()
	})
}
