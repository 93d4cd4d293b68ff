package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/ethanbaker/learnwithai/internal/bootstrap"
	"github.com/ethanbaker/learnwithai/pkg/sdk"
	"github.com/ethanbaker/learnwithai/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	health_module "github.com/ethanbaker/learnwithai/internal/api/modules/health"
	workflow_module "github.com/ethanbaker/learnwithai/internal/api/modules/workflow"
)

// NewRouter builds the gin engine with every module's routes registered.
// Modules must be initialized before the engine serves requests.
func NewRouter(cfg *utils.Config) *gin.Engine {
	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(noRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	origins := cfg.GetList("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)
	workflow_module.RegisterRoutes(baseGroup, cfg)

	return engine
}

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Build the workflow and its session store
	wf, err := bootstrap.NewWorkflow(context.Background(), cfg)
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to build workflow: ", err)
	}

	store, err := bootstrap.NewStore(cfg)
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to open session store: ", err)
	}

	sweeper, err := bootstrap.NewSweeper(cfg, store)
	if err != nil {
		log.Fatal("[API-MAIN]: Failed to schedule session sweeper: ", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	workflow_module.Init(store, wf.Orchestrator, wf.Transforms.Matrix().Languages)

	// Then after performing initial setup, start the server
	engine := NewRouter(cfg)
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}

// noRouteHandler answers unknown routes with the standard envelope
func noRouteHandler(c *gin.Context) {
	c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Route not found", c.Request.URL.Path).AsGinResponse())
}
