package commands

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/planwizard/internal/broker"
	"github.com/jask/planwizard/internal/catalog"
	"github.com/jask/planwizard/internal/database/repository"
	"github.com/jask/planwizard/internal/flow"
	"github.com/jask/planwizard/internal/locale"
	"github.com/jask/planwizard/internal/operator"
	"github.com/jask/planwizard/internal/service"
	"github.com/jask/planwizard/internal/tui"
	"github.com/jask/planwizard/internal/version"
)

func runWizard(ctx context.Context, debugChanged bool) error {
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	log := e.log

	if debugChanged {
		if err := e.settings.SetDebug(ctx, debugFlag); err != nil {
			return err
		}
	}
	if launchURL != "" {
		launch, err := locale.ParseLaunchURL(launchURL)
		if err != nil {
			return err
		}
		if err := launch.Apply(ctx, e.settings); err != nil {
			return err
		}
		log.Info("launch parameters applied",
			zap.String("url", launch.URL),
			zap.Bool("locale_set", launch.HasLocale),
			zap.Bool("debug_set", launch.HasDebug))
	}

	cat, err := catalog.Load(cfg.Operators.Catalog)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info("no catalog file, broker codes are not checked", zap.String("path", cfg.Operators.Catalog))
	case err != nil:
		return err
	}
	brokers := broker.NewDirectory(cat.Brokers)
	validators := flow.DefaultValidators().With(flow.StepBroker, brokers.Validator())

	installID, _, err := e.state.Get(ctx, repository.KeyInstallID)
	if err != nil {
		return err
	}
	caches := repository.NewCacheRepo(e.db)

	var source operator.Source
	switch {
	case cfg.Operators.BaseURL != "":
		source = &operator.HTTPSource{
			BaseURL:   cfg.Operators.BaseURL,
			PageSize:  cfg.Operators.PageSize,
			Client:    &http.Client{Timeout: cfg.Operators.Timeout},
			Cache:     caches,
			CacheTTL:  cfg.Operators.CacheTTL,
			InstallID: installID,
			Log:       log.Named("operators"),
		}
	case len(cat.Operators) > 0:
		source = &operator.CatalogSource{Operators: cat.Operators, PageSize: cfg.Operators.PageSize}
	}

	checker := &version.Checker{
		Endpoints: cfg.Version.Endpoints,
		Client:    &http.Client{Timeout: cfg.Version.Timeout},
		Store:     e.state,
		Caches:    caches,
		Log:       log.Named("version"),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	app := tui.New(gctx, cfg, tui.Deps{
		Operators:   source,
		Issuance:    &service.IssuanceService{Submissions: repository.NewSubmissionRepo(e.db), Log: log},
		Maintenance: &service.MaintenanceService{DB: e.db, Caches: caches},
		Versions:    checker,
		Settings:    e.settings,
		Validators:  validators,
		Log:         log.Named("tui"),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(gctx))

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	g.Go(func() error {
		sched := &version.Scheduler{Checker: checker, Interval: cfg.Version.Interval}
		return sched.Run(gctx, func(r version.Result) {
			p.Send(tui.VersionMsg(r))
		})
	})
	return g.Wait()
}
