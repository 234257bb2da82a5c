// Application initialization and setup.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/streamforge/resolver/internal/adapters"
	"github.com/streamforge/resolver/internal/cache"
	"github.com/streamforge/resolver/internal/config"
	"github.com/streamforge/resolver/internal/database"
	"github.com/streamforge/resolver/internal/handlers"
	"github.com/streamforge/resolver/internal/lock"
	"github.com/streamforge/resolver/internal/metadata"
	"github.com/streamforge/resolver/internal/services"
	log "github.com/streamforge/resolver/pkg/logger"
	"github.com/streamforge/resolver/pkg/torrentsearch"
	"github.com/streamforge/resolver/pkg/torrentsearch/providers"
)

// Global application components
var (
	logger      log.Logger
	db          database.Database
	tmdbCache   *cache.LRUCache
	httpHandler *handlers.Handler
	container   *services.Container
	appConfig   *config.Config
)

// initLogger initializes the application logger.
func initLogger() {
	logger = log.New()
}

// initDatabase initializes the BoltDB database.
func initDatabase() {
	dbPath := getDatabasePath()
	
	var err error
	db, err = database.NewBolt(dbPath)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize database: %v", err))
	}
}

// getDatabasePath returns the database file path.
func getDatabasePath() string {
	dir := os.Getenv("DATABASE_DIR")
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "data.db")
}

// initServices creates and initializes all application services.
func initServices() {
	var err error
	appConfig, err = config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	tmdbCache = createCache()
	container = createServiceContainer(tmdbCache, db)
	httpHandler = handlers.New(container, appConfig)
}

// createCache creates a new LRU cache instance.
func createCache() *cache.LRUCache {
	const (
		cacheSize = 5000
		cacheTTL  = 24 * time.Hour
	)
	return cache.New(cacheSize, cacheTTL)
}

// createServiceContainer creates and configures the service container.
func createServiceContainer(c *cache.LRUCache, d database.Database) *services.Container {
	// Initialize services
	tmdb := services.NewTMDB("", c)
	
	// Configure AllDebrid service
	allDebrid := services.NewAllDebrid("")
	allDebrid.SetDB(d)
	
	// Create cleanup service
	cleanup := services.NewCleanupService(d, allDebrid)
	
	// Create torrentsearch with native providers
	torrentSearch := createTorrentSearch(c)

	const (
		resolverCacheSize = 5000
		resolverCacheTTL  = 1 * time.Hour
		metadataRetries   = 2
	)
	resolverCache := cache.NewResolverCache(resolverCacheSize, resolverCacheTTL)
	locks := lock.New()
	metaService := metadata.New([]metadata.Provider{metadata.NewTMDBProvider(tmdb)}, nil, locks, metadataRetries, "")

	return &services.Container{
		TMDB:          tmdb,
		AllDebrid:     allDebrid,
		Cache:         c,
		DB:            d,
		Logger:        log.New(),
		TorrentSorter: services.NewTorrentSorter(nil),
		Cleanup:       cleanup,
		TorrentSearch: torrentSearch,
		ResolverCache: resolverCache,
		Locks:         locks,
		Metadata:      metaService,
	}
}

// createTorrentSearch creates the smart torrentsearch with providers.
func createTorrentSearch(c *cache.LRUCache) *torrentsearch.TorrentSearch {
	// Create cache adapter
	cacheAdapter := adapters.NewCacheAdapter(c)
	
	// Initialize torrentsearch
	search := torrentsearch.New(cacheAdapter)
	
	// Don't set TMDB key here - it will be set per request from client
	
	// Register native providers directly
	yggProvider := providers.NewYGGProvider()
	yggProvider.SetCache(cacheAdapter)
	search.RegisterProvider(providers.ProviderYGG, yggProvider)
	
	torrentsCSVProvider := providers.NewTorrentsCSVProvider()
	torrentsCSVProvider.SetCache(cacheAdapter)
	search.RegisterProvider(providers.ProviderTorrentsCSV, torrentsCSVProvider)
	
	apibayProvider := providers.NewApiBayProvider()
	apibayProvider.SetCache(cacheAdapter)
	search.RegisterProvider(providers.ProviderApiBay, apibayProvider)
	
	return search
}