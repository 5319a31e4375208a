package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"soundfolio/cache"
	"soundfolio/config"
	"soundfolio/core/audio"
	"soundfolio/core/auth"
	"soundfolio/core/catalog"
	"soundfolio/core/durations"
	"soundfolio/core/player"
	"soundfolio/core/playlist"
	"soundfolio/db"
	"soundfolio/logger"
	"soundfolio/model"
	"soundfolio/repository"
	"soundfolio/server"
	"soundfolio/storage"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the player server",
	Long:  `Loads the track catalog, starts the playback controller and the HTTP/WebSocket API, and serves the static site.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

// optional backing services; each is nil when not configured or unreachable.
type services struct {
	objects *storage.MinioClient
	cache   *cache.PlayerCache
	plays   repository.PlayRepository
	issuer  *auth.Issuer
}

func connectServices(cfg *config.Config) (*services, func(), error) {
	s := &services{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MinioEnabled() {
		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return nil, cleanup, err
		}
		s.objects = client
	}

	if cfg.RedisEnabled() {
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("redis unavailable, durations and volume will not persist", logger.ErrorField(err))
		} else {
			closers = append(closers, func() { cache.CloseRedis() })
			s.cache = cache.NewPlayerCache()
		}
	}

	if cfg.DBEnabled() {
		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Warn("database unavailable, play history disabled", logger.ErrorField(err))
		} else {
			closers = append(closers, func() { db.CloseGormDB() })
			if err := db.AutoMigrateModels(&model.PlayRecord{}); err != nil {
				cleanup()
				return nil, func() {}, err
			}
			s.plays = repository.NewGormPlayRepository(db.GormDB)
		}
	}

	if cfg.AuthEnabled() {
		issuer, err := auth.NewIssuer(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		s.issuer = issuer
	}
	return s, cleanup, nil
}

// objectFetcher avoids handing the loader a typed nil.
func (s *services) objectFetcher() catalog.ObjectFetcher {
	if s.objects == nil {
		return nil
	}
	return s.objects
}

func runServer(ctx context.Context, cfg *config.Config) error {
	svc, cleanup, err := connectServices(cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	loader := catalog.NewLoader(cfg.CatalogSource, svc.objectFetcher())
	cat, loadErr := loader.Load(ctx)
	if loadErr != nil {
		logger.Error("track catalog unavailable", logger.ErrorField(loadErr))
		cat = catalog.New(nil)
	}

	processor := audio.NewFFmpegProcessor(cfg.FFmpegPath)
	backend := audio.NewFFplayBackend(cfg.FFplayPath, processor)
	defer backend.Close()

	hub := server.NewHub()
	go hub.Run()
	defer hub.Stop()

	var renderer *playlist.Renderer
	var store durations.Store
	if svc.cache != nil {
		store = svc.cache
	}
	prefetcher := durations.NewPrefetcher(durations.NewCache(), processor, store, func(index int, label string) {
		renderer.PatchDuration(index, label)
		hub.Publish(server.MsgTypeDuration, server.DurationData{Index: index, Label: label})
	})

	opts := []player.Option{player.WithDurationSink(prefetcher)}
	if svc.cache != nil {
		opts = append(opts, player.WithVolumeStore(svc.cache))
	}
	if svc.plays != nil {
		opts = append(opts, player.WithPlayRecorder(svc.plays))
	}
	ctrl := player.NewController(backend, cat, opts...)

	renderer = playlist.NewRenderer(cat, prefetcher.Cache(), ctrl, playlist.WithLanguage(cfg.DefaultLanguage))
	renderer.Apply(renderer.Query())

	ctrl.OnChange(player.LatestOnly(func(v player.View) {
		renderer.SetPlayback(v.Index, v.IsPlaying)
		hub.Publish(server.MsgTypePlayer, v)
	}))
	ctrl.InitVolume(ctx)

	handler := server.NewAPIHandler(ctrl, renderer, hub, svc.issuer, svc.plays)
	if loadErr != nil {
		handler.SetCatalogError(loadErr)
	}

	go ctrl.Run(ctx)
	prefetcher.Start(ctx, cat)

	if loader.IsFile() {
		watcher := catalog.NewWatcher(loader, func(c *catalog.Catalog) {
			prefetcher.Reset()
			ctrl.SetCatalog(c)
			hub.Publish(server.MsgTypePlaylist, renderer.SetCatalog(c))
			handler.SetCatalogError(nil)
			prefetcher.Start(ctx, c)
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("catalog watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	var media http.Handler
	if svc.objects != nil {
		media = server.NewMediaHandler(svc.objects, svc.objects.Bucket())
	}
	return server.Serve(ctx, cfg.ListenAddr, server.NewRouter(handler, cfg.StaticDir, media))
}
