package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/paddock-hq/paddock-news/internal/article"
	"github.com/paddock-hq/paddock-news/internal/config"
	"github.com/paddock-hq/paddock-news/internal/logger"
	"github.com/paddock-hq/paddock-news/internal/newsfeed"
	"github.com/paddock-hq/paddock-news/internal/notify"
	"github.com/paddock-hq/paddock-news/internal/render"
	"github.com/paddock-hq/paddock-news/internal/server"
	"github.com/paddock-hq/paddock-news/internal/storage"
	"github.com/paddock-hq/paddock-news/pkg/httpclient"
	"github.com/paddock-hq/paddock-news/pkg/publishers"
)

const shutdownTimeout = 10 * time.Second

// App is the news panel runtime. It owns the refresh schedule, the HTTP
// surface with its per-viewer article resolvers and the optional headline
// notifier.
type App struct {
	cfg       *config.Config
	page      *render.Page
	loader    *newsfeed.Loader
	scheduler *newsfeed.Scheduler
	server    *server.Server
	fanout    *publishers.Fanout
	store     storage.Store
	log       logger.Logger
}

// New wires the runtime from cfg. ctx bounds background work started by the
// HTTP surface, such as article fetches.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	a := &App{cfg: cfg, page: render.NewPage(), log: log}

	base := httpclient.NewRestyClient(cfg.RequestTimeout).
		WithUserAgent(cfg.UserAgent).
		WithBodyLimit(cfg.MaxResponseBytes)
	relay := httpclient.NewRelay(cfg.ProxyBase, base)

	observers, err := a.initNotifier(ctx)
	if err != nil {
		return nil, errors.Join(err, a.closeResources())
	}

	a.loader, err = newsfeed.NewLoader(relay, a.page, newsfeed.Options{
		FeedURL:          cfg.FeedURL,
		PlaceholderImage: cfg.PlaceholderImageURL,
		Observers:        observers,
	}, log)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init feed loader: %w", err), a.closeResources())
	}

	a.scheduler, err = newsfeed.NewScheduler(a.loader, cfg.RefreshInterval, log)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init scheduler: %w", err), a.closeResources())
	}

	extractor, err := article.NewExtractor(article.ExtractorOptions{
		Kind:     cfg.ArticleExtractor,
		Selector: cfg.ArticleSelector,
		Strip:    cfg.ArticleStripSelectors,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init article extractor: %w", err), a.closeResources())
	}

	newArticles := func(surface render.ArticleSurface) (server.ArticleService, error) {
		r, err := article.NewResolver(relay, extractor, surface, log)
		if err != nil {
			return nil, fmt.Errorf("init article resolver: %w", err)
		}
		return r, nil
	}

	a.server, err = server.New(server.Options{
		Addr:           cfg.HTTPAddr,
		BaseContext:    ctx,
		Debug:          cfg.Env == "development" && cfg.LogLevel == "debug",
		SessionIdleTTL: cfg.SessionIdleTTL,
		MaxSessions:    cfg.MaxSessions,
	}, a.loader, a.page, newArticles, log)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init http server: %w", err), a.closeResources())
	}

	log.InfoObj("news panel initialized", "app_config", map[string]any{
		"feed_url":         cfg.FeedURL,
		"proxy_base":       cfg.ProxyBase,
		"refresh_interval": cfg.RefreshInterval.String(),
		"extractor":        cfg.ArticleExtractor,
		"publishers":       a.fanout.Size(),
	})
	return a, nil
}

// initNotifier builds the headline notifier when a publishers file is configured.
func (a *App) initNotifier(ctx context.Context) ([]newsfeed.Observer, error) {
	cfg := a.cfg
	if cfg.PublishersFile == "" {
		a.log.InfoObj("headline notifications disabled", "publishers_file", "")
		return nil, nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		a.log.WarnObj("publishers file has no enabled publishers", "publishers_file", cfg.PublishersFile)
		return nil, nil
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, a.log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	a.fanout = publishers.NewFanout(pubClients)

	if !storage.Persistent(cfg.StorageType) {
		a.log.WarnObj("headline storage disabled, every refresh re-announces all headlines", "storage_config", map[string]any{
			"storage_type":     cfg.StorageType,
			"publishers":       len(enabled),
			"refresh_interval": cfg.RefreshInterval.String(),
			"hint":             "set STORAGE_TYPE=bbolt to announce each headline once",
		})
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	a.log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	a.store, err = storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		HeadlineTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"headline_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	notifier, err := notify.NewNotifier(feedSource(cfg.FeedURL), a.fanout, a.store, a.log)
	if err != nil {
		return nil, err
	}
	return []newsfeed.Observer{notifier}, nil
}

// Run starts the refresh schedule and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.scheduler == nil || a.server == nil {
		return fmt.Errorf("app is not initialized")
	}
	defer func() {
		if err := a.closeResources(); err != nil {
			a.log.ErrorObj("resource close failed", "error", err.Error())
		}
	}()

	handle := a.scheduler.Start(ctx)
	defer handle.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.log.InfoObj("news panel shutting down", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

// Server exposes the HTTP surface.
func (a *App) Server() *server.Server {
	return a.server
}

func (a *App) closeResources() error {
	var errs []error
	if a.fanout != nil {
		if err := a.fanout.Close(); err != nil {
			errs = append(errs, err)
		}
		a.fanout = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		a.store = nil
	}
	return errors.Join(errs...)
}

// feedSource names the feed host in published events.
func feedSource(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}
