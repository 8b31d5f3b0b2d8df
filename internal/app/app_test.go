package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jengzang/spotmap-go/internal/config"
	"github.com/jengzang/spotmap-go/internal/fakeapi"
	"github.com/jengzang/spotmap-go/internal/mapview"
	"github.com/jengzang/spotmap-go/internal/models"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	return &config.Config{
		API:   config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Store: config.StoreConfig{Path: filepath.Join(t.TempDir(), "spotmap.db")},
		Spots: config.SpotsConfig{PageSize: 100},
		Map: config.MapConfig{
			AccessToken:          "pk.test",
			ClusterRadius:        50,
			ClusterMaxZoom:       14,
			DefaultExpansionZoom: 15,
			CenterLat:            59.3293,
			CenterLon:            18.0686,
			Zoom:                 14,
			Width:                1280,
			Height:               800,
		},
	}
}

func startFake(t *testing.T) *httptest.Server {
	gin.SetMode(gin.TestMode)
	fake := fakeapi.New(fakeapi.Config{BcryptCost: bcrypt.MinCost, Quiet: true})
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionSurvivesRestart(t *testing.T) {
	srv := startFake(t)
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	a, err := New(cfg)
	require.NoError(t, err)
	a.Start(ctx)
	assert.False(t, a.Session.IsAuthenticated())
	assert.False(t, a.Session.Loading())

	require.NoError(t, a.Session.Register(ctx, "alice@example.com", "password1", "alice"))
	require.NoError(t, a.Close())

	b, err := New(cfg)
	require.NoError(t, err)
	defer b.Close()
	b.Start(ctx)
	assert.True(t, b.Session.IsAuthenticated())
	assert.Equal(t, "alice", b.Session.User().Username)

	b.Session.Logout()
	access, err := b.Credentials.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)
}

func TestMapFollowsStore(t *testing.T) {
	srv := startFake(t)
	a, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	a.Start(ctx)
	require.NoError(t, a.Session.Register(ctx, "alice@example.com", "password1", "alice"))

	engine := mapview.NewHeadlessEngine(a.Config.Map.AccessToken, a.Viewport())
	renderer := a.NewMap(engine, mapview.LogLayer{})
	engine.Load()
	assert.Empty(t, renderer.LiveMarkerIDs())

	spot, err := a.Spots.CreateSpot(ctx, models.SpotInput{
		Title: "Espresso House", Category: models.CategoryCafe, Latitude: 59.3293, Longitude: 18.0686,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{spot.ID}, renderer.LiveMarkerIDs())

	renderer.ClickMarker(spot.ID)
	require.NotNil(t, a.Spots.Selected())
	assert.Equal(t, spot.ID, a.Spots.Selected().ID)

	require.NoError(t, a.Spots.DeleteSpot(ctx, spot.ID))
	assert.Empty(t, renderer.LiveMarkerIDs())
	assert.Nil(t, a.Spots.Selected())

	require.NoError(t, renderer.Close())
}
