package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPOTMAP_API_URL", "")
	t.Setenv("SPOTMAP_PAGE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "http://localhost:8000/api", cfg.API.APIRoot())
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 100, cfg.Spots.PageSize)
	assert.Equal(t, 50.0, cfg.Map.ClusterRadius)
	assert.Equal(t, 14, cfg.Map.ClusterMaxZoom)
	assert.Equal(t, 15.0, cfg.Map.DefaultExpansionZoom)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SPOTMAP_API_URL", "https://spots.example.com/")
	t.Setenv("SPOTMAP_PAGE_SIZE", "250")
	t.Setenv("SPOTMAP_CLUSTER_RADIUS", "80")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://spots.example.com/api", cfg.API.APIRoot())
	assert.Equal(t, 250, cfg.Spots.PageSize)
	assert.Equal(t, 80.0, cfg.Map.ClusterRadius)
}

func TestLoadRejectsInvalidNumbers(t *testing.T) {
	t.Setenv("SPOTMAP_CLUSTER_MAX_ZOOM", "fourteen")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPOTMAP_CLUSTER_MAX_ZOOM")
}

func TestLoadRejectsNonPositivePageSize(t *testing.T) {
	t.Setenv("SPOTMAP_PAGE_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
}
