package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/five82/reviewdeck/internal/bootstrap"
	"github.com/five82/reviewdeck/internal/config"
	"github.com/five82/reviewdeck/internal/logger"
	"github.com/five82/reviewdeck/internal/prefs"
	"github.com/five82/reviewdeck/internal/reviews"
	"github.com/five82/reviewdeck/internal/state"
	"github.com/five82/reviewdeck/internal/ui"
)

// App holds the wired components of reviewdeck.
type App struct {
	Config config.Config
	Log    logger.Logger
	Prefs  *prefs.Store
	Client *reviews.Client
	Store  *state.Store
	Engine *Engine

	closers []io.Closer
}

// New wires configuration, preferences, the wiki list, the state store, the
// API client and the engine. Preferences seed the selection, sort order and
// panel flag.
func New(cfg config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	wikis, err := bootstrap.Load(cfg.WikisFile)
	if err != nil {
		return nil, fmt.Errorf("load wikis: %w", err)
	}

	userPrefs, prefsCloser, err := prefs.Open(cfg.Prefs.Backend, cfg.Prefs.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}

	store := state.NewStore(state.Initial{
		Wikis:             wikis,
		SelectedWikiID:    userPrefs.LoadSelectedWiki(wikis),
		SortOrder:         userPrefs.LoadSortOrder(),
		ConfigurationOpen: userPrefs.LoadFlag(prefs.KeyConfigurationOpen),
	})

	client, err := reviews.NewClient(cfg.APIBase,
		reviews.WithErrorSlot(store),
		reviews.WithTimeout(cfg.RequestTimeout),
		reviews.WithLogger(log),
	)
	if err != nil {
		_ = prefsCloser.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	engine := NewEngine(EngineOptions{
		API:                 client,
		Store:               store,
		Prefs:               userPrefs,
		Log:                 log,
		BackfillConcurrency: cfg.BackfillConcurrency,
	})

	return &App{
		Config:  cfg,
		Log:     log,
		Prefs:   userPrefs,
		Client:  client,
		Store:   store,
		Engine:  engine,
		closers: []io.Closer{prefsCloser},
	}, nil
}

// Close releases the preference backend.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run starts the background poller and the dashboard, blocking until the
// user quits or ctx is canceled.
func Run(ctx context.Context, a *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	StartPoller(ctx, a.Engine, a.Config.PollInterval, a.Log)

	return ui.Run(ui.Options{
		Context:      ctx,
		Engine:       a.Engine,
		Store:        a.Store,
		Prefs:        a.Prefs,
		ThemeName:    a.Prefs.LoadTheme(),
		DisplayLimit: a.Config.DisplayLimit,
		LogPath:      a.Config.Log.File,
		APIBase:      a.Client.BaseURL(),
	})
}
