package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	adapterHTTP "github.com/comitanigiacomo/duo-sync-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/duo-sync-engine/internal/config"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/services"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/workers"
)

type app struct {
	router *gin.Engine
	worker *workers.SyncWorker
}

// newApp wires the read API over the configured stores. The sync endpoint
// and the scheduler only exist when an account is configured.
func newApp(cfg *config.Config, stores *repository.Stores, source services.ProgressSource, startTime time.Time) *app {
	progressRepo := repository.NewProgressRepository(stores.Documents, cfg.ProgressKey)
	statisticsRepo := repository.NewStatisticsRepository(stores.Documents, cfg.StatisticsKey)

	a := &app{}
	deps := adapterHTTP.RouterDependencies{
		ProgressHandler: adapterHTTP.NewProgressHandler(services.NewProgressService(progressRepo, statisticsRepo)),
		APITokenHash:    cfg.Server.APITokenHash,
		Store:           stores,
		Redis:           stores.Redis,
		RateLimit: middleware.RateLimitConfig{
			Prefix: cfg.Store.KeyPrefix,
			Limit:  cfg.Server.RateLimit,
			Window: cfg.Server.RateWindow,
		},
		StartTime: startTime,
	}

	if err := cfg.RequireAccount(); err != nil {
		log.Printf("[API] Sync disabled: %v", err)
	} else {
		syncSvc := services.NewSyncService(source, progressRepo, statisticsRepo, services.SyncOptions{
			Username:   cfg.Username,
			Credential: cfg.Credential,
			Location:   cfg.Location,
		})
		a.worker = workers.NewSyncWorker(syncSvc, cfg.Server.SyncInterval)
		deps.SyncHandler = adapterHTTP.NewSyncHandler(a.worker)
	}

	a.router = adapterHTTP.NewRouter(deps)
	return a
}
