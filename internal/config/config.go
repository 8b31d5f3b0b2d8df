package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	API     APIConfig
	Map     MapConfig
	Store   StoreConfig
	Spots   SpotsConfig
	FakeAPI FakeAPIConfig
}

// APIConfig 远程服务配置
type APIConfig struct {
	BaseURL string        // without the /api suffix
	Timeout time.Duration // per request
}

// MapConfig 地图渲染配置
type MapConfig struct {
	AccessToken          string
	ClusterRadius        float64 // pixels
	ClusterMaxZoom       int
	DefaultExpansionZoom float64
	CenterLat            float64
	CenterLon            float64
	Zoom                 float64
	Width                int
	Height               int
}

// StoreConfig 本地持久化配置
type StoreConfig struct {
	Path string
}

// SpotsConfig 地点列表配置
type SpotsConfig struct {
	PageSize int
}

// FakeAPIConfig 本地模拟服务配置
type FakeAPIConfig struct {
	Addr      string
	JWTSecret string
	RateLimit int // requests per minute per client, 0 disables
}

// Load 加载配置
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	timeout, err := getInt("SPOTMAP_HTTP_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	pageSize, err := getInt("SPOTMAP_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	radius, err := getFloat("SPOTMAP_CLUSTER_RADIUS", 50)
	if err != nil {
		return nil, err
	}
	maxZoom, err := getInt("SPOTMAP_CLUSTER_MAX_ZOOM", 14)
	if err != nil {
		return nil, err
	}
	expansionZoom, err := getFloat("SPOTMAP_DEFAULT_EXPANSION_ZOOM", 15)
	if err != nil {
		return nil, err
	}
	centerLat, err := getFloat("SPOTMAP_CENTER_LAT", 59.3293)
	if err != nil {
		return nil, err
	}
	centerLon, err := getFloat("SPOTMAP_CENTER_LON", 18.0686)
	if err != nil {
		return nil, err
	}
	zoom, err := getFloat("SPOTMAP_CENTER_ZOOM", 12)
	if err != nil {
		return nil, err
	}
	width, err := getInt("SPOTMAP_VIEWPORT_WIDTH", 1280)
	if err != nil {
		return nil, err
	}
	height, err := getInt("SPOTMAP_VIEWPORT_HEIGHT", 800)
	if err != nil {
		return nil, err
	}

	rateLimit, err := getInt("FAKEAPI_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	if pageSize < 1 {
		return nil, fmt.Errorf("SPOTMAP_PAGE_SIZE must be positive, got %d", pageSize)
	}

	return &Config{
		API: APIConfig{
			BaseURL: getEnv("SPOTMAP_API_URL", "http://localhost:8000"),
			Timeout: time.Duration(timeout) * time.Second,
		},
		Map: MapConfig{
			AccessToken:          getEnv("SPOTMAP_MAPBOX_TOKEN", ""),
			ClusterRadius:        radius,
			ClusterMaxZoom:       maxZoom,
			DefaultExpansionZoom: expansionZoom,
			CenterLat:            centerLat,
			CenterLon:            centerLon,
			Zoom:                 zoom,
			Width:                width,
			Height:               height,
		},
		Store: StoreConfig{
			Path: getEnv("SPOTMAP_STORE_PATH", "./data/spotmap.db"),
		},
		Spots: SpotsConfig{
			PageSize: pageSize,
		},
		FakeAPI: FakeAPIConfig{
			Addr:      getEnv("FAKEAPI_ADDR", ":8000"),
			JWTSecret: getEnv("FAKEAPI_JWT_SECRET", "your-secret-key-change-in-production"),
			RateLimit: rateLimit,
		},
	}, nil
}

// APIRoot returns the base URL every remote endpoint hangs off.
func (c *APIConfig) APIRoot() string {
	return trimSlash(c.BaseURL) + "/api"
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
