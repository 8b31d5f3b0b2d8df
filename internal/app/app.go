// Package app wires the client components together. It owns every
// long-lived object; nothing in the module is a package-level singleton.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/jengzang/spotmap-go/internal/api"
	"github.com/jengzang/spotmap-go/internal/cluster"
	"github.com/jengzang/spotmap-go/internal/config"
	"github.com/jengzang/spotmap-go/internal/database"
	"github.com/jengzang/spotmap-go/internal/mapview"
	"github.com/jengzang/spotmap-go/internal/repository"
	"github.com/jengzang/spotmap-go/internal/session"
	"github.com/jengzang/spotmap-go/internal/spatial"
	"github.com/jengzang/spotmap-go/internal/spots"
)

// App is the application root
type App struct {
	Config      *config.Config
	DB          *sql.DB
	Credentials *repository.CredentialRepository
	API         *api.Client
	Transport   *api.AuthTransport
	Session     *session.Manager
	Spots       *spots.Store
}

// New opens the local store and builds the client stack
func New(cfg *config.Config) (*App, error) {
	db, err := database.Open(database.Config{Path: cfg.Store.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	creds := repository.NewCredentialRepository(repository.NewSQLiteKV(db))
	httpClient := &http.Client{Timeout: cfg.API.Timeout}

	// refresh must bypass the decorated transport
	raw := api.New(cfg.API.APIRoot(), httpClient)
	transport := api.NewAuthTransport(httpClient, creds, raw.Refresh)
	client := api.New(cfg.API.APIRoot(), transport)

	sess := session.New(client, creds)
	transport.OnPurge(sess.HandleCredentialsPurged)

	return &App{
		Config:      cfg,
		DB:          db,
		Credentials: creds,
		API:         client,
		Transport:   transport,
		Session:     sess,
		Spots:       spots.New(client, spots.WithPageSize(cfg.Spots.PageSize)),
	}, nil
}

// Start restores the persisted session and loads the first page of spots
func (a *App) Start(ctx context.Context) {
	a.Session.CheckAuth(ctx)
	a.Spots.FetchSpots(ctx)
	log.Printf("[App] started (session=%s, spots=%d)", a.Session.State(), len(a.Spots.Spots()))
}

// Viewport is the initial map viewport from the configuration
func (a *App) Viewport() mapview.Viewport {
	m := a.Config.Map
	return mapview.Viewport{
		Center: spatial.Point{Lat: m.CenterLat, Lon: m.CenterLon},
		Zoom:   m.Zoom,
		Width:  m.Width,
		Height: m.Height,
	}
}

// NewMap mounts a renderer for the spot store on engine
func (a *App) NewMap(engine mapview.Engine, layer mapview.MarkerLayer) *mapview.Renderer {
	m := a.Config.Map
	opts := cluster.DefaultOptions()
	opts.Radius = m.ClusterRadius
	opts.MaxZoom = m.ClusterMaxZoom

	return mapview.New(engine, layer, a.Spots, mapview.Options{
		Cluster:              opts,
		DefaultExpansionZoom: m.DefaultExpansionZoom,
	})
}

// Close stops the spot store and closes the local store
func (a *App) Close() error {
	a.Spots.Close()
	return a.DB.Close()
}
