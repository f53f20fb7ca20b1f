package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/handlers"
	"github.com/chefwhisper/recipe-viewer/internal/interpreter"
	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/registry"
	"github.com/chefwhisper/recipe-viewer/internal/render"
	"github.com/chefwhisper/recipe-viewer/internal/repository"
	"github.com/chefwhisper/recipe-viewer/internal/repository/db"
	"github.com/chefwhisper/recipe-viewer/internal/server"
	"github.com/chefwhisper/recipe-viewer/internal/service"
)

func main() {
	// load config.yml
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger with the configured level
	log := logger.Get(logLevel())

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies around the message bus
	repos := repository.NewRepository(sqlDB)
	b := bus.New(log)

	reg := registry.New(b, repos.Snapshots, log)
	if err := reg.Init(context.Background()); err != nil {
		log.Fatalw("failed to init timer registry", "err", err)
	}

	hub := handlers.NewHub(log)
	coordinator := render.New(b, hub, log)
	coordinator.Start()

	// the interpreter gets its own client so its exchanges never share a
	// mutex with the API's
	interp := interpreter.New(b, registry.NewClient(b), log)
	interp.Start()

	recorder := service.NewEventRecorder(b, repos.EventRepo, log)
	recorder.Start()

	services := service.NewService(repos, b, reg)
	apiHandler := handlers.NewHandler(services, hub, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log, func() {
		recorder.Stop()
		interp.Stop()
		coordinator.Stop()
		reg.Close()
	})
}

// ... existing code ...

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func logLevel() string {
	if lvl := viper.GetString("log.level"); lvl != "" {
		return lvl
	}
	return logger.InfoLevel
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger, stopWorkers func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}

	// detach bus workers once no request can arrive anymore
	stopWorkers()
}
