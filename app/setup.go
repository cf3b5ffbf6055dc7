package app

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/api"
	"github.com/cliniclog/logbook-api/config"
	"github.com/cliniclog/logbook-api/database"
	"github.com/cliniclog/logbook-api/router"
	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/services/cron"
	"github.com/cliniclog/logbook-api/utils/auth"
)

// SetupAndRunServer boots the whole service: env, database, cron, routes
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Background jobs run unless explicitly disabled
	var cronManager *cron.Manager
	if os.Getenv("CRON_ENABLED") != "false" {
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: Failed to get database connection for cron jobs\n")
		} else {
			stores := database.NewStores(db)
			blacklist := auth.NewBlacklistService(db)
			stats := services.NewStatsService(db)
			mailer := services.NewEmailService()

			cronManager = cron.NewManager(db, stores, blacklist, stats, mailer)
			if err := cronManager.Start(); err != nil {
				print("Warning: Failed to start cron jobs\n")
				print("Error: ", err.Error(), "\n")
			}
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	app.Use(logger.New())
	app.Use(recover.New())

	router.SetupRoutes(app, store)

	return server.Run()
}
