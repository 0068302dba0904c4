package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/atsform/internal/backend"
	"github.com/san-kum/atsform/internal/config"
	"github.com/san-kum/atsform/internal/form"
	"github.com/san-kum/atsform/internal/frontend"
	"github.com/san-kum/atsform/internal/logging"
	"github.com/san-kum/atsform/internal/session"
)

type env struct {
	cfg    *config.Config
	log    *zap.Logger
	reg    session.Registry
	store  session.Store
	id     string
	client *backend.Client
	layout form.Layout
}

// resolveConfig applies, in order: defaults or profile, config file, flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if profile != "" {
		cfg = config.GetProfile(profile)
		if cfg == nil {
			return nil, fmt.Errorf("unknown profile: %s (available: %v)", profile, config.ListProfiles())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || cfg.Session.Dir == "" {
		cfg.Session.Dir = dataDir
	}
	if flags.Changed("backend") {
		cfg.Backend.URL = backendURL
	}
	if flags.Changed("driver") {
		cfg.Session.Driver = driver
	}
	if flags.Changed("session") {
		cfg.Session.ID = sessionID
	}
	if flags.Changed("timeout") {
		cfg.Backend.Timeout = timeout
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func layoutOf(cfg *config.Config) form.Layout {
	full := form.FullLayout()
	l := form.LayoutOf(cfg.Layout.InitialConditions, cfg.Layout.Restrictions)
	if len(cfg.Layout.InitialConditions) == 0 {
		l.Initial = full.Initial
	}
	if len(cfg.Layout.Restrictions) == 0 {
		l.Restrictions = full.Restrictions
	}
	return l
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log, cfg.LogPath())
	if err != nil {
		return nil, err
	}

	reg, err := session.Open(session.Config{Driver: cfg.Session.Driver, Dir: cfg.Session.Dir})
	if err != nil {
		return nil, err
	}
	id := cfg.Session.ID
	if id == "" {
		if cfg.Session.Driver == session.DriverMemory {
			id = session.NewID()
		} else if id, err = session.CurrentID(cfg.Session.Dir); err != nil {
			reg.Close()
			return nil, err
		}
	}
	store, err := reg.Open(id)
	if err != nil {
		reg.Close()
		return nil, err
	}

	client, err := backend.New(backend.Config{
		BaseURL:    cfg.Backend.URL,
		SubmitPath: cfg.Backend.SubmitPath,
		Timeout:    cfg.Backend.Timeout,
		Logger:     log,
	})
	if err != nil {
		store.Close()
		reg.Close()
		return nil, err
	}

	log.Debug("session opened",
		zap.String("id", id),
		zap.String("driver", cfg.Session.Driver),
		zap.String("backend", cfg.Backend.URL))

	return &env{
		cfg:    cfg,
		log:    log,
		reg:    reg,
		store:  store,
		id:     id,
		client: client,
		layout: layoutOf(cfg),
	}, nil
}

func (e *env) pageOptions() frontend.Options {
	return frontend.Options{
		Layout:      e.layout,
		ResultsPath: e.cfg.Backend.ResultsPath,
		Logger:      e.log,
	}
}

// newPage builds a page over the session; nav may be nil for commands that
// never submit.
func (e *env) newPage(nav frontend.Navigator) *frontend.Page {
	if nav == nil {
		nav = frontend.NavigatorFunc(func(string) {})
	}
	return frontend.New(e.store, e.client, nav, e.pageOptions())
}

func (e *env) Close() {
	_ = e.store.Close()
	_ = e.reg.Close()
	_ = e.log.Sync()
}
