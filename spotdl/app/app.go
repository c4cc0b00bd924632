// Package app wires the application dependencies and drives album runs.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/Kon-Geo/librespot-downloader/spotdl/config"
	"github.com/Kon-Geo/librespot-downloader/spotdl/cover"
	"github.com/Kon-Geo/librespot-downloader/spotdl/db"
	"github.com/Kon-Geo/librespot-downloader/spotdl/downloader"
	logpkg "github.com/Kon-Geo/librespot-downloader/spotdl/logger"
	"github.com/Kon-Geo/librespot-downloader/spotdl/remote"
	"github.com/Kon-Geo/librespot-downloader/spotdl/spclient"
	"github.com/Kon-Geo/librespot-downloader/spotdl/tag"
)

// App wires all application dependencies.
type App struct {
	Config     *config.Config
	Logger     *logpkg.Logger
	History    *db.Repository
	Downloader *downloader.Downloader
}

// New builds the application container.
func New(ctx context.Context, configPath string) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logpkg.New(conf.GetString("LogLevel"), conf.GetString("LogFormat"), conf.GetString("LogDir"), conf.GetBool("LogSource"))
	if err != nil {
		return nil, err
	}

	var repo *db.Repository
	if conf.GetBool("HistoryEnabled") {
		gormLogger := logpkg.NewGormLogger(log.Slog(), mapGormLevel(conf.GetString("GormLogLevel")))
		databasePath := conf.GetString("Database")
		if strings.TrimSpace(databasePath) == "" {
			databasePath = "history.db"
		}
		repo, err = db.NewSQLiteRepository(databasePath, gormLogger)
		if err != nil {
			return nil, fmt.Errorf("init db: %w", err)
		}
	}

	api := spclient.New(spclient.Options{
		BaseURL:           conf.GetString("APIBaseURL"),
		AccessToken:       conf.GetString("AccessToken"),
		RequestsPerSecond: conf.GetFloat64("RequestsPerSecond"),
		RequestBurst:      conf.GetInt("RequestBurst"),
	}, log)

	if timeout := conf.GetInt("DownloadTimeout"); timeout > 0 {
		api.HTTPClient().HTTPClient.Timeout = time.Duration(timeout) * time.Second
	}

	store := remote.NewStore(api.HTTPClient(), api, log)
	covers := cover.New(api.HTTPClient(), conf.GetString("ImageCDNBaseURL"), log)
	tags := tag.NewService(log, conf.GetInt("MaxCoverEdge"))

	var history downloader.History
	if repo != nil {
		history = repo
	}

	dl := downloader.New(downloader.Options{
		Client:  api,
		Store:   store,
		Keys:    api,
		Covers:  covers,
		Tags:    tags,
		History: history,
		Logger:  log,
		BaseDir: conf.GetString("DownloadDir"),
	})

	return &App{
		Config:     conf,
		Logger:     log,
		History:    repo,
		Downloader: dl,
	}, nil
}

// Run downloads the given albums in order. The first fatal error aborts the
// run; per-track skips do not.
func (a *App) Run(ctx context.Context, albumIDs []string) error {
	for _, albumID := range albumIDs {
		result, err := a.Downloader.DownloadAlbum(ctx, albumID)
		if err != nil {
			return fmt.Errorf("album %s: %w", albumID, err)
		}
		downloaded, skipped, degraded := result.Counts()
		a.Logger.Info("album done", "album_id", albumID, "name", result.AlbumName,
			"downloaded", downloaded, "skipped", skipped, "degraded", degraded)
	}
	return nil
}

// Shutdown releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.History != nil {
		if err := a.History.Close(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("failed to close database", "error", err)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("close logger: %w", err)
			}
		}
	}

	return firstErr
}

func mapGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "info":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "warn", "warning":
		fallthrough
	default:
		return gormlogger.Warn
	}
}
