package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/coldcatalog/catalog-service/auth"
	"github.com/coldcatalog/catalog-service/config"
	"github.com/coldcatalog/catalog-service/handlers"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
	"github.com/coldcatalog/catalog-service/services/impl"
)

// knownBrandCodes seeds the Document Classifier and Retrieval Engine's brand
// detection. In a multi-tenant deployment this would be loaded from the
// brands table at startup; it is a small, slow-changing taxonomic axis
// (spec.md §3), so a static seed is a reasonable simplification here.
var knownBrandCodes = []string{
	"TRUE", "BEVAIR", "HOSHIZAKI", "TURBOAIR", "MANITOWOC", "NORLAKE", "VICTORY", "ARCTIC",
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := initDB(cfg.GetDatabaseDSN(), cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Brand{},
		&models.Family{},
		&models.SpecRegistryEntry{},
		&models.ModelPattern{},
		&models.EquivalenceRule{},
		&models.UseCaseProfile{},
		&models.Product{},
		&models.ProductVersionSnapshot{},
		&models.ProductRelationship{},
		&models.Document{},
		&models.DocumentProductLink{},
		&models.Chunk{},
		&models.SpecConflict{},
		&models.IngestionJob{},
		&models.AuditLogEntry{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddress(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Printf("Warning: Redis connection failed, registry and retrieval caches will be process-local: %v", err)
			redisClient = nil
		}
	}

	// Stores
	productStore := impl.NewProductStore(db)
	documentStore := impl.NewDocumentStore(db)
	chunkStore := impl.NewChunkStore(db)
	conflictStore := impl.NewConflictStore(db)
	auditStore := impl.NewAuditStore(db)
	jobStore := impl.NewJobStore(db)
	registryStore := impl.NewRegistryStore(db)
	profileStore := impl.NewProfileStore(db)

	// Provider clients
	embedderClient := impl.NewEmbedderClient(cfg.Embedder)
	generatorClient := impl.NewGeneratorClient(cfg.Generator)
	externalExtractorClient := impl.NewExternalExtractorClient(cfg.Extractor)

	// Core pipeline services
	registryService := impl.NewRegistryService(registryStore, redisClient)
	extractorService := impl.NewExtractorService(externalExtractorClient)
	classifierService := impl.NewClassifierService(knownBrandCodes, time.Now)
	resolverService := impl.NewResolverService(registryStore)
	fieldMapperService := impl.NewFieldMapperService(registryService)
	compoundParserService := impl.NewCompoundParserService()
	conflictEngineService := impl.NewConflictEngineService(registryService, registryStore, conflictStore, cfg.Retrieval.DefaultTolerance)
	chunkerService := impl.NewChunkerService(registryService)
	retrievalCacheService := impl.NewRetrievalCacheService(redisClient, cfg.Redis)

	retrievalEngine := impl.NewRetrievalEngineService(
		registryService,
		chunkStore,
		embedderClient,
		retrievalCacheService,
		cfg.Embedder,
		cfg.Retrieval,
		knownBrandCodes,
	)
	recommendationEngine := impl.NewRecommendationEngineService(productStore, profileStore, registryStore)
	compareService := impl.NewCompareService(productStore, registryService)

	orchestrator := impl.NewOrchestratorService(
		cfg.Orchestrator,
		cfg.Embedder,
		extractorService,
		classifierService,
		resolverService,
		fieldMapperService,
		compoundParserService,
		registryService,
		conflictEngineService,
		chunkerService,
		embedderClient,
		productStore,
		documentStore,
		chunkStore,
		jobStore,
	)

	apiKeyValidator := auth.NewAPIKeyValidator(cfg.Auth.APIKeySecret, cfg.Auth.APIKeyTTL)

	catalogHandlers := handlers.NewCatalogHandlers(productStore, compareService)
	ingestHandlers := handlers.NewIngestHandlers(orchestrator)
	retrievalHandlers := handlers.NewRetrievalHandlers(retrievalEngine, generatorClient, cfg.Generator)
	recommendHandlers := handlers.NewRecommendHandlers(recommendationEngine)
	compareHandlers := handlers.NewCompareHandlers(compareService)
	conflictHandlers := handlers.NewConflictHandlers(conflictStore, auditStore)

	router := setupRouter(cfg, apiKeyValidator, catalogHandlers, ingestHandlers, retrievalHandlers, recommendHandlers, compareHandlers, conflictHandlers)

	srv := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}

	go func() {
		log.Printf("Catalog service starting on %s", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownTimeout := time.Duration(cfg.Orchestrator.GracefulShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := orchestrator.Shutdown(ctx); err != nil {
		log.Printf("Orchestrator shutdown did not complete cleanly: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func initDB(databaseURL string, dbCfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(dbCfg.MaxLifetime) * time.Second)

	return db, nil
}

func setupRouter(
	cfg *config.Config,
	apiKeyValidator *auth.APIKeyValidator,
	catalogHandlers *handlers.CatalogHandlers,
	ingestHandlers *handlers.IngestHandlers,
	retrievalHandlers *handlers.RetrievalHandlers,
	recommendHandlers *handlers.RecommendHandlers,
	compareHandlers *handlers.CompareHandlers,
	conflictHandlers *handlers.ConflictHandlers,
) *gin.Engine {
	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Auth.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Auth.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", catalogHandlers.Health)

	v1 := router.Group("/api/v1")
	v1.Use(handlers.AuthMiddleware(apiKeyValidator))

	v1.GET("/products", catalogHandlers.ListProducts)
	v1.GET("/products/:id", catalogHandlers.GetProduct)
	v1.GET("/products/model/:model_number", catalogHandlers.GetProductByModelNumber)
	v1.GET("/products/:id/equivalents", catalogHandlers.EquivalentsOf)
	v1.GET("/stats", catalogHandlers.Stats)

	ingest := v1.Group("/ingest")
	ingest.Use(handlers.RequireRole(auth.RoleAdmin, auth.RoleProductManager))
	{
		ingest.POST("", ingestHandlers.Ingest)
	}
	v1.GET("/jobs/:id", ingestHandlers.GetJob)
	v1.POST("/jobs/:id/cancel", handlers.RequireRole(auth.RoleAdmin), ingestHandlers.CancelJob)

	v1.POST("/recommend", recommendHandlers.Recommend)
	v1.POST("/compare", compareHandlers.Compare)
	v1.POST("/ask", retrievalHandlers.Ask)

	v1.GET("/conflicts", conflictHandlers.ListConflicts)
	v1.POST("/conflicts/:id/resolve", handlers.RequireRole(auth.RoleAdmin, auth.RoleProductManager), conflictHandlers.ResolveConflict)

	return router
}

var _ services.OrchestratorService
