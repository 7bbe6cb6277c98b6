package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/purplearchive/purple-archive-server/config"
	"github.com/purplearchive/purple-archive-server/database"
	"github.com/purplearchive/purple-archive-server/handlers"
	"github.com/purplearchive/purple-archive-server/ocr"
	"github.com/purplearchive/purple-archive-server/repository"
	"github.com/purplearchive/purple-archive-server/storage"
	"github.com/purplearchive/purple-archive-server/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.TempUploadsPath, cfg.ScratchPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	store, err := storage.NewS3Storage(cfg.AWSRegion, cfg.S3BucketName)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize object storage: %v", err)
	}
	annotator := ocr.NewVisionAnnotator(cfg.VisionEndpoint, cfg.VisionAPIKey, cfg.VisionTimeout)

	albumRepo := repository.NewAlbumRepository(db)
	tempAlbumRepo := repository.NewTempAlbumRepository(db)
	tagRepo := repository.NewTagRepository(db)
	gamemodeRepo := repository.NewGamemodeRepository(db)
	userRepo := repository.NewUserRepository(db)

	sweeper := workers.NewTempAlbumSweeper(tempAlbumRepo, cfg.TempUploadsPath, cfg.SweepInterval, cfg.TempAlbumTTL)
	sweeper.Start()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Temp uploads in: %s", cfg.TempUploadsPath)
	log.Printf("S3 bucket: %s (%s)", cfg.S3BucketName, cfg.AWSRegion)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	jwtSecret := []byte(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(userRepo, jwtSecret, cfg.TokenExpiry)
	userHandler := handlers.NewUserHandler(userRepo)
	albumHandler := handlers.NewAlbumHandler(albumRepo, tempAlbumRepo, store, cfg)
	tempAlbumHandler := handlers.NewTempAlbumHandler(albumRepo, tempAlbumRepo, annotator, cfg)
	tagHandler := handlers.NewTagHandler(tagRepo)
	gamemodeHandler := handlers.NewGamemodeHandler(gamemodeRepo)

	authMW := handlers.AuthMiddleware(jwtSecret, userRepo)

	r.Post("/auth", authHandler.Login)

	r.Route("/users", func(r chi.Router) {
		// registration is the only unauthenticated user route
		r.Post("/", userHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", userHandler.List)
			r.Get("/me", userHandler.GetMe)
			r.Post("/me/bookmarks", userHandler.AddBookmarks)
			r.Post("/me/bookmarks/unbookmark", userHandler.RemoveBookmarks)
			r.Get("/{id}", userHandler.GetByID)
		})
	})

	r.Route("/albums", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", albumHandler.List)
		r.Post("/", albumHandler.Create)
		r.Post("/temp", tempAlbumHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", albumHandler.Get)
			r.Put("/", albumHandler.Update)
			r.Delete("/", albumHandler.Delete)
			r.Get("/raw", albumHandler.GetRaw)
			r.Post("/dlcount", albumHandler.IncrementDownloadCount)
		})
	})

	r.Route("/tags", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", tagHandler.List)
		r.Post("/", tagHandler.Create)
	})

	r.Route("/gamemodes", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", gamemodeHandler.List)
		r.Post("/", gamemodeHandler.Create)
		r.Delete("/{id}", gamemodeHandler.Delete)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	sweeper.Stop()
}
