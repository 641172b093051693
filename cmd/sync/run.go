package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/duolingo"
	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/duo-sync-engine/internal/config"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/services"
)

type runOptions struct {
	ConfigFile string
	EnvFile    string
	DryRun     bool
}

// errRunFailed is returned once the failure has been reported, so main only
// has to pick the exit code.
var errRunFailed = errors.New("sync run failed")

func run(ctx context.Context, logger *log.Logger, opts runOptions) error {
	logger.Println("Script is starting and running now.")
	defer logger.Println("Duolingo progress sync has finished running.")

	cfg, err := config.Load(config.Options{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile})
	if err == nil {
		err = cfg.RequireAccount()
	}
	if err != nil {
		logger.Printf("Configuration error: %v", err)
		return errRunFailed
	}

	stores, err := repository.OpenStores(ctx, cfg)
	if err != nil {
		logger.Printf("Unexpected Exception: %v", err)
		return errRunFailed
	}
	defer stores.Close()

	var documents domain.DocumentStore = stores.Documents
	if opts.DryRun {
		mem := repository.NewInMemoryDocumentStore()
		if err := mem.Seed(ctx, stores.Documents, cfg.ProgressKey, cfg.StatisticsKey); err != nil {
			logger.Printf("Unexpected Exception: %v", err)
			return errRunFailed
		}
		documents = mem
		logger.Println("Dry run: nothing will be written back.")
	}

	client := duolingo.NewClient(duolingo.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.HTTPTimeout,
		FetchDays: cfg.FetchDays,
		Location:  cfg.Location,
	})

	svc := services.NewSyncService(
		client,
		repository.NewProgressRepository(documents, cfg.ProgressKey),
		repository.NewStatisticsRepository(documents, cfg.StatisticsKey),
		services.SyncOptions{
			Username:   cfg.Username,
			Credential: cfg.Credential,
			Location:   cfg.Location,
		},
	)

	result, err := svc.Run(ctx)
	if err != nil {
		reportFailure(logger, err)
		return errRunFailed
	}

	reportSuccess(logger, result)
	return nil
}

func reportSuccess(logger *log.Logger, result *services.SyncResult) {
	if result.Passwordless {
		logger.Println("Script authenticated with your JWT.")
	} else {
		logger.Println("Script authenticated with your password. Please change it to JWT.")
	}

	if result.Changed {
		logger.Println("Script found discrepancies between current data and online data. Synchronization is done automatically.")
	} else {
		logger.Println("Script did not find discrepancies between current data and online data. Synchronization not required.")
	}

	logger.Println("Script run successfully! Please check the specified path to see your newly updated data.")
}

func reportFailure(logger *log.Logger, err error) {
	var schemaErr *domain.SchemaValidationError

	switch {
	case errors.As(err, &schemaErr):
		logger.Printf("Error encountered when parsing data. Potentially, a breaking API change: %v", err)
		logger.Println("This usually means the API response format has changed or contains unexpected null values.")
		logger.Println("Check the persisted documents and the remote response for the offending field.")

	case domain.RemoteErrorKind(err) != "":
		logger.Printf("%s: %v", domain.RemoteErrorKind(err), err)

	default:
		logger.Printf("Unexpected Exception: %s", describe(err))
	}
}

func describe(err error) string {
	msg := err.Error()
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		msg += fmt.Sprintf("\n  caused by %T: %v", e, e)
	}
	return msg
}
