package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/client"
	"github.com/rebeliceyang/lazyreport/internal/config"
	"github.com/rebeliceyang/lazyreport/internal/credentials"
	"github.com/rebeliceyang/lazyreport/internal/db/connection"
	"github.com/rebeliceyang/lazyreport/internal/db/source"
	"github.com/rebeliceyang/lazyreport/internal/favorites"
	"github.com/rebeliceyang/lazyreport/internal/history"
	"github.com/rebeliceyang/lazyreport/internal/logging"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/reports"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// env is what every command needs: configuration, a logger and the
// directory local state lives in
type env struct {
	cfg       *config.Config
	configDir string
	log       *logrus.Logger
	closers   []io.Closer
}

func newEnv(configPath string) (*env, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load config: %v (using defaults)\n", err)
			cfg = config.GetDefaults()
		}
	}

	configDir, err := config.GetConfigPath()
	if err != nil {
		return nil, errors.Wrap(err, "locate config directory")
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create config directory")
	}

	log, closer, err := logging.New(cfg.Log, configDir)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:       cfg,
		configDir: configDir,
		log:       log,
		closers:   []io.Closer{closer},
	}, nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}

func (e *env) tokens() (*credentials.TokenStore, error) {
	return credentials.NewTokenStore(e.configDir)
}

// postgresKey is the credential key of the configured database
func (e *env) postgresKey() string {
	pg := e.cfg.Postgres
	return fmt.Sprintf("postgres://%s:%d/%s", pg.Host, pg.Port, pg.Database)
}

// openSource connects to the configured report source and resolves the
// definition of the named report. The returned cleanup releases the source.
func (e *env) openSource(ctx context.Context, reportName string) (client.Source, models.ReportDefinition, func(), error) {
	log := logrus.NewEntry(e.log)
	noop := func() {}

	tokens, err := e.tokens()
	if err != nil {
		return nil, models.ReportDefinition{}, noop, err
	}
	if tokens.IsUsingFallback() {
		log.Warn("system keyring unavailable, using encrypted file store")
	}

	switch e.cfg.Source.Kind {
	case models.SourcePostgres:
		pool, err := e.openPool(ctx, tokens)
		if err != nil {
			return nil, models.ReportDefinition{}, noop, err
		}

		src := source.NewPostgres(pool, e.cfg.Source.Schema, e.cfg.Source.RowLimit, log)
		def, err := src.Definition(ctx, reportName)
		if err != nil {
			pool.Close()
			return nil, models.ReportDefinition{}, noop, err
		}
		return src, def, pool.Close, nil

	default:
		token, err := tokens.Get(e.cfg.Source.URL, e.cfg.Source.User)
		if err != nil && !errors.Is(err, credentials.ErrTokenNotFound) {
			return nil, models.ReportDefinition{}, noop, err
		}
		if token == "" {
			log.WithField("url", e.cfg.Source.URL).Warn("no API token stored, requests are unauthenticated")
		}

		httpClient, err := client.NewHTTPClient(e.cfg.Source.URL, token, e.cfg.Source.Timeout(), log)
		if err != nil {
			return nil, models.ReportDefinition{}, noop, err
		}

		defs, err := e.definitions()
		if err != nil {
			return nil, models.ReportDefinition{}, noop, err
		}
		def, err := reports.Find(defs, reportName)
		if err != nil {
			return nil, models.ReportDefinition{}, noop, errors.Wrapf(err, "available reports: %v", reports.Names(defs))
		}
		return httpClient, def, noop, nil
	}
}

// openPool connects to the configured database. A missing password is
// looked up in the credential store.
func (e *env) openPool(ctx context.Context, tokens *credentials.TokenStore) (*connection.Pool, error) {
	pgCfg := e.cfg.Postgres
	if pgCfg.Password == "" {
		password, err := tokens.Get(e.postgresKey(), pgCfg.User)
		switch {
		case err == nil:
			pgCfg.Password = password
		case !errors.Is(err, credentials.ErrTokenNotFound):
			return nil, err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return connection.NewPool(connectCtx, pgCfg)
}

// definitions returns the reports the service source offers: the reports
// file when one is configured, the built-in reports otherwise
func (e *env) definitions() ([]models.ReportDefinition, error) {
	path := e.cfg.General.ReportsFile
	if path == "" {
		return reports.Builtin(time.Now()), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.configDir, path)
	}
	return reports.LoadFile(path)
}

// openLocalState opens the run history and the saved reports side by side.
// History is optional; a failure to open it is logged and it stays nil.
func (e *env) openLocalState() (*history.Store, *favorites.Manager, error) {
	var (
		store    *history.Store
		storeErr error
		saved    *favorites.Manager
		savedErr error
	)

	var wg conc.WaitGroup
	if e.cfg.History.Enabled {
		wg.Go(func() {
			store, storeErr = history.NewStore(filepath.Join(e.configDir, "history.db"))
		})
	}
	wg.Go(func() {
		saved, savedErr = favorites.NewManager(e.configDir)
	})
	wg.Wait()

	if savedErr != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, savedErr
	}
	if storeErr != nil {
		e.log.WithError(storeErr).Warn("report history disabled")
		store = nil
	}
	if store != nil {
		e.closers = append(e.closers, store)
	}
	return store, saved, nil
}
