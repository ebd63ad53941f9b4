package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixelboard/internal/config"
	"pixelboard/internal/handler"
	"pixelboard/internal/model"
	"pixelboard/internal/repository"
	"pixelboard/internal/service"
	"pixelboard/internal/ws"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	if err := db.AutoMigrate(
		&model.Board{},
		&model.Chunk{},
		&model.PixelModification{},
		&model.HeatmapSnapshot{},
	); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate schema: %w", err)
	}

	// Setup Gin
	r := gin.Default()

	// Initialize repositories
	boardRepo := repository.NewBoardRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	modRepo := repository.NewModificationRepository(db)
	heatmapRepo := repository.NewHeatmapRepository(db)

	// Initialize services
	hub := ws.NewHub()
	locks := service.NewBoardLocks()
	store := service.NewChunkStore(chunkRepo)
	gate := service.NewPlacementGate(modRepo)
	boardService := service.NewBoardService(boardRepo, store, modRepo, heatmapRepo, locks)
	placementService := service.NewPlacementService(boardRepo, store, modRepo, gate, hub, locks)
	analyticsService := service.NewAnalyticsService(boardRepo, modRepo, heatmapRepo, cfg.HeatmapTTL)

	// Initialize handlers
	boardHandler := handler.NewBoardHandler(boardService)
	pixelHandler := handler.NewPixelHandler(placementService, store, boardService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	wsHandler := handler.NewWSHandler(hub, boardService, store, placementService)

	// Board routes
	r.POST("/boards", boardHandler.Create)
	r.GET("/boards", boardHandler.GetAll)
	r.GET("/boards/:id", boardHandler.GetByID)
	r.PUT("/boards/:id/status", boardHandler.UpdateStatus)
	r.PUT("/boards/:id/resize", boardHandler.Resize)
	r.GET("/boards/:id/time-left", boardHandler.TimeLeft)
	r.DELETE("/boards/:id", boardHandler.Delete)
	r.GET("/stats/boards", boardHandler.Stats)

	// Pixel routes
	r.POST("/boards/:id/pixels", pixelHandler.Place)
	r.GET("/boards/:id/region", pixelHandler.GetRegion)
	r.GET("/boards/:id/chunks/:cx/:cy", pixelHandler.GetChunk)
	r.GET("/boards/:id/pixels/:x/:y/author", pixelHandler.LastAuthor)
	r.GET("/boards/:id/cooldown", pixelHandler.Cooldown)

	// Analytics routes
	r.GET("/boards/:id/heatmap", analyticsHandler.Heatmap)
	r.GET("/boards/:id/replay", analyticsHandler.Replay)

	// Realtime
	r.GET("/ws", wsHandler.Serve)

	// Metrics
	r.GET("/metrics", func(c *gin.Context) {
		metrics.WritePrometheus(c.Writer, true)
	})

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}
