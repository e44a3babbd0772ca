package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/localmandi/storefront/internal/bus"
	"github.com/localmandi/storefront/internal/clients/orders"
	"github.com/localmandi/storefront/internal/handlers"
	"github.com/localmandi/storefront/internal/platform/auth"
	"github.com/localmandi/storefront/internal/platform/config"
	"github.com/localmandi/storefront/internal/platform/idempotency"
	"github.com/localmandi/storefront/internal/platform/observability"
	"github.com/localmandi/storefront/internal/platform/slot"
	"github.com/localmandi/storefront/internal/repositories"
	"github.com/localmandi/storefront/internal/repositories/jsonfile"
	"github.com/localmandi/storefront/internal/services"
)

const offersFileName = "offers.yaml"

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	bagSlot, err := slot.NewFileSlot(cfg.State.Dir, cfg.State.SlotName)
	if err != nil {
		logger.Fatal("failed to open bag slot", zap.Error(err))
	}

	events := bus.New()

	catalogRepo, err := jsonfile.NewCatalogRepository(filepath.Join(cfg.State.ContentDir, cfg.State.ProductsFile))
	if err != nil {
		logger.Fatal("failed to open product catalog", zap.Error(err))
	}
	offerRepo, err := jsonfile.NewOfferRepository(filepath.Join(cfg.State.ContentDir, offersFileName))
	if err != nil {
		logger.Fatal("failed to open checkout offers", zap.Error(err))
	}

	sessionToken, verifier := resolveSession(logger, cfg)
	authenticated := sessionToken != ""

	var ordersClient *orders.Client
	if strings.TrimSpace(cfg.Orders.BaseURL) != "" {
		provider := orders.TokenProvider(func() string { return sessionToken })
		ordersClient, err = orders.NewClient(cfg.Orders.BaseURL, provider,
			orders.WithTimeout(cfg.Orders.Timeout),
			orders.WithLogger(logger.Named("orders")),
		)
		if err != nil {
			logger.Fatal("failed to initialise orders client", zap.Error(err))
		}
	}

	cartLogger := observability.ServiceLogger(logger.Named("cart"))
	sourceDeps := services.CartSourceDeps{
		Slot:             bagSlot,
		Bus:              events,
		Authenticated:    authenticated,
		RebroadcastDelay: cfg.Cart.RebroadcastDelay,
		Logger:           cartLogger,
	}
	if ordersClient != nil {
		sourceDeps.API = ordersClient
	}
	store, err := services.SelectCartStore(ctx, sourceDeps)
	if err != nil {
		logger.Fatal("failed to initialise cart store", zap.Error(err))
	}

	// Another process writing the slot file is the cross-tab signal: the
	// watcher folds the external change back into this cart.
	watcher, err := slot.NewWatcher(bagSlot.Path(), cfg.Cart.PanelRecheckDelay, func() {
		if err := store.Refresh(context.Background()); err != nil {
			logger.Warn("cart refresh after external change failed", zap.Error(err))
		}
	}, logger.Named("watcher"))
	if err != nil {
		logger.Fatal("failed to initialise slot watcher", zap.Error(err))
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Fatal("failed to start slot watcher", zap.Error(err))
	}
	defer watcher.Stop()

	// Content files are replaced in place by the sync job; drop the caches so
	// the next read picks up the new revision.
	catalogWatcher, err := slot.NewWatcher(catalogRepo.Path(), cfg.Cart.PanelRecheckDelay, catalogRepo.Reload, logger.Named("watcher"))
	if err != nil {
		logger.Fatal("failed to initialise catalog watcher", zap.Error(err))
	}
	if err := catalogWatcher.Start(ctx); err != nil {
		logger.Fatal("failed to start catalog watcher", zap.Error(err))
	}
	defer catalogWatcher.Stop()

	offerWatcher, err := slot.NewWatcher(offerRepo.Path(), cfg.Cart.PanelRecheckDelay, offerRepo.Reload, logger.Named("watcher"))
	if err != nil {
		logger.Fatal("failed to initialise offers watcher", zap.Error(err))
	}
	if err := offerWatcher.Start(ctx); err != nil {
		logger.Fatal("failed to start offers watcher", zap.Error(err))
	}
	defer offerWatcher.Stop()

	badge, err := services.NewBadgeView(services.BadgeViewDeps{
		Store:        store,
		Bus:          events,
		TickInterval: cfg.Cart.BadgeTickInterval,
		Logger:       observability.ServiceLogger(logger.Named("badge")),
	})
	if err != nil {
		logger.Fatal("failed to initialise badge view", zap.Error(err))
	}
	defer badge.Close()

	panel, err := services.NewPanelView(services.PanelViewDeps{
		Store:        store,
		Bus:          events,
		PollInterval: cfg.Cart.PanelPollInterval,
		Logger:       observability.ServiceLogger(logger.Named("panel")),
	})
	if err != nil {
		logger.Fatal("failed to initialise panel view", zap.Error(err))
	}
	defer panel.Close()

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: catalogRepo,
		Offers:  offerRepo,
		Logger:  observability.ServiceLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	checkoutDeps := services.CheckoutServiceDeps{
		Store:  store,
		Offers: offerRepo,
		Logger: observability.ServiceLogger(logger.Named("checkout")),
	}
	if ordersClient != nil {
		checkoutDeps.Orders = ordersClient
	}
	checkoutService, err := services.NewCheckoutService(checkoutDeps)
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	systemService, err := newSystemService(bagSlot, catalogRepo)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	cartHandlers := handlers.NewCartHandlers(store, catalogService)
	checkoutHandlers := handlers.NewCheckoutHandlers(checkoutService)
	catalogHandlers := handlers.NewCatalogHandlers(catalogService)
	viewHandlers := handlers.NewViewHandlers(badge, panel)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}
	if verifier != nil {
		middlewares = append(middlewares, verifier.OptionalSession())
	}

	// Retrying a dropped place-order call must not create a second order.
	idempotencyMiddleware := idempotency.Middleware(
		idempotency.NewMemoryStore(),
		idempotency.WithMethods(http.MethodPost),
		idempotency.WithLogger(zap.NewStdLog(logger.Named("idempotency"))),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithSystemHandlers(handlers.NewSystemHandlers(systemService)),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithCheckoutMiddlewares(idempotencyMiddleware),
		handlers.WithViewRoutes(viewHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("storefront listening",
			zap.String("addr", server.Addr),
			zap.Bool("authenticated", authenticated),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received; draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("storefront exited with error", zap.Error(err))
		os.Exit(1)
	}
}

// resolveSession reads the shopper session token from the environment and
// verifies it against the configured secret. An absent or unverifiable token
// starts a guest session.
func resolveSession(logger *zap.Logger, cfg config.Config) (string, *auth.SessionVerifier) {
	token := strings.TrimSpace(os.Getenv("STOREFRONT_SESSION_TOKEN"))
	secret := strings.TrimSpace(cfg.Session.Secret)
	if secret == "" {
		if token != "" {
			logger.Warn("session token present but no session secret configured; starting as guest")
		}
		return "", nil
	}

	verifier, err := auth.NewSessionVerifier(secret)
	if err != nil {
		logger.Warn("failed to initialise session verifier; starting as guest", zap.Error(err))
		return "", nil
	}
	if token == "" {
		return "", verifier
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		logger.Warn("session token rejected; starting as guest", zap.Error(err))
		return "", verifier
	}
	logger.Info("session verified", zap.String("userId", claims.Subject))
	return token, verifier
}

func newSystemService(bagSlot *slot.FileSlot, catalog *jsonfile.CatalogRepository) (*services.SystemService, error) {
	checks := []repositories.DependencyCheck{
		{
			Name:    "slot",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := bagSlot.Read()
				return err
			},
		},
		{
			Name:    "catalog",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := catalog.ListProducts(ctx)
				return err
			},
		},
	}
	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{Health: repo})
}
