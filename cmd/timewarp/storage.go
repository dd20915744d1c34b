package main

import (
	"github.com/rs/zerolog"

	"github.com/animtools/timewarp/internal/api"
	"github.com/animtools/timewarp/internal/cache"
	"github.com/animtools/timewarp/internal/config"
	"github.com/animtools/timewarp/internal/storage"
)

func initStorage(zlog zerolog.Logger) (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()

	backend, err := storage.NewBackend(storageCfg, cache.NewPinRowCache(), LogManager.Logger(), zlog, projectCtx)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, err
	}

	Logger.Info("Storage backend ready", "backend", storageCfg.Backend)
	return backend, nil
}

// uploadResult sends the exported session file to the review frontend,
// when one is configured and the backend produced a file.
func uploadResult(backend storage.Backend) {
	url := config.GetString("api.url")
	if url == "" {
		return
	}

	exp, ok := backend.(storage.Exportable)
	if !ok {
		return
	}
	path := exp.GetExportedFilePath()
	if path == "" {
		Logger.Debug("No exported file to upload")
		return
	}

	client := api.New(url, config.GetString("api.key"))
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("Review frontend unreachable, skipping upload", "error", err)
		return
	}
	if err := client.Upload(path, exp.GetExportMetadata()); err != nil {
		Logger.Error("Upload failed", "path", path, "error", err)
		return
	}
	Logger.Info("Uploaded session result", "path", path)
}
