package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"yapisite/internal/admin"
	"yapisite/internal/catalog"
	"yapisite/internal/gateway/canonical"
	"yapisite/internal/gateway/classify"
	"yapisite/internal/gateway/dispatch"
	"yapisite/internal/gateway/localeprefix"
	"yapisite/internal/gateway/sessiongate"
	"yapisite/internal/i18n"
	"yapisite/internal/infra"
	"yapisite/internal/platform/config"
	"yapisite/internal/platform/metrics"
	"yapisite/internal/platform/middleware"
	"yapisite/internal/platform/postgres"
	"yapisite/internal/platform/redis"
	"yapisite/internal/ratelimit"
	"yapisite/internal/search"
	"yapisite/internal/session"
	"yapisite/internal/settings"
	"yapisite/internal/site"
	"yapisite/pkg/platform/tx"
)

// app is the fully wired site.
type app struct {
	Handler http.Handler
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// stores are the persistence adapters, Postgres-backed when a database URL
// is configured and in-memory otherwise.
type stores struct {
	products   catalog.ProductStore
	categories catalog.CategoryStore
	settings   settings.Store
	users      admin.UserStore
	checkers   []infra.Checker
}

func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	locales, err := cfg.LocaleSet()
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	st, err := openStores(ctx, cfg, log, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	var (
		revocations session.RevocationList = session.NewMemoryRevocationList()
		reader      settings.Reader        = settings.NewDirectReader(st.settings, st.categories)
		failures    ratelimit.Store        = ratelimit.NewMemoryStore()
	)
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
		st.checkers = append(st.checkers, rdb)
		revocations = session.NewRedisRevocationList(rdb.Client, cfg.Cache.KeyPrefix)
		failures = ratelimit.NewRedisStore(rdb.Client, cfg.Cache.KeyPrefix)
		reader = settings.NewCachedReader(reader, settings.NewRedisCache(rdb.Client, cfg.Cache.KeyPrefix), cfg.Cache.TTL,
			settings.WithMetrics(m),
			settings.WithLogger(log),
		)
	} else {
		log.Info("redis not configured; using in-process revocation list, login lockout and cache")
		reader = settings.NewCachedReader(reader, settings.NewMemoryCache(), cfg.Cache.TTL,
			settings.WithMetrics(m),
			settings.WithLogger(log),
		)
	}

	limiter, err := ratelimit.New(failures,
		ratelimit.WithConfig(ratelimit.Config{AttemptsPerWindow: cfg.Session.LoginAttempts, Window: cfg.Session.LoginWindow}),
		ratelimit.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens := session.NewTokenService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.TTL)
	verifier := session.NewVerifier(tokens, revocations)
	scheme := canonical.SchemePolicy{TrustForwardedProto: cfg.Site.TrustForwardedProto}
	cookie := session.Cookie{Name: cfg.Session.CookieName, Scheme: scheme}

	resolver := i18n.NewResolver(locales, cfg.FallbackChain()...)
	policy, _ := localeprefix.ParseUnsupportedPolicy(cfg.Locale.UnsupportedPrefix)
	negotiator := localeprefix.New(locales, localeprefix.Policy{
		RedirectDefaultPrefix: cfg.Locale.RedirectDefaultPrefix,
		Unsupported:           policy,
	})
	productSearch := search.NewPaginator[catalog.Product]("product", st.products, locales.Supported(), m)
	categorySearch := search.NewPaginator[catalog.Category]("category", st.categories, locales.Supported(), m)

	infraRouter := chi.NewRouter()
	infra.New(infra.Config{
		BaseURL:     cfg.Site.CanonicalURL,
		AdminPrefix: cfg.Routing.AdminPrefix,
		StaticDir:   cfg.StaticDir,
		UploadsDir:  cfg.UploadsDir,
		CORSOrigins: cfg.CORSOrigins,
	}, infra.Deps{
		Checkers:   st.checkers,
		Products:   productSearch,
		Catalog:    st.products,
		Categories: st.categories,
		Negotiator: negotiator,
		Resolver:   resolver,
		Logger:     log,
	}).Register(infraRouter)

	adminRouter := chi.NewRouter()
	admin.New(admin.Config{
		Prefix:        cfg.Routing.AdminPrefix,
		LoginPath:     cfg.Routing.LoginPath,
		ReturnToParam: cfg.Routing.ReturnToParam,
		Role:          cfg.Session.AdminRole,
		DisplayLocale: locales.Default(),
	}, admin.Deps{
		Users:      st.users,
		Sessions:   tokens,
		Revoker:    verifier,
		Cookie:     cookie,
		Products:   productSearch,
		Categories: categorySearch,
		Cache:      reader,
		Limiter:    limiter,
		Resolver:   resolver,
		Metrics:    m,
		Logger:     log,
	}).Register(adminRouter)

	publicRouter := chi.NewRouter()
	site.New(reader, st.products, st.categories, productSearch, negotiator, resolver, search.DefaultPageSize, log).
		Register(publicRouter)

	canonicalizer, err := canonical.New(cfg.Site.CanonicalURL, scheme)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("canonical url: %w", err)
	}
	gate := sessiongate.New(verifier, sessiongate.Config{
		LoginPath:     cfg.Routing.LoginPath,
		ReturnToParam: cfg.Routing.ReturnToParam,
		Cookie:        cookie,
	}, log)

	dispatcher, err := dispatch.New(
		canonicalizer,
		classify.New(cfg.Routing.AdminPrefix, cfg.Routing.InfraPrefixes...),
		gate,
		negotiator,
		dispatch.Handlers{
			Infrastructure: middleware.Annotate(infraRouter),
			Admin:          middleware.Annotate(adminRouter),
			Public:         middleware.Annotate(publicRouter),
		},
		dispatch.WithMetrics(m),
		dispatch.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	var h http.Handler = dispatcher
	h = middleware.Recovery(log)(h)
	h = middleware.Logger(log)(h)
	h = middleware.ClientMetadata(cfg.Site.TrustForwardedProto)(h)
	h = middleware.RequestTime(h)
	h = middleware.RequestID(h)
	a.Handler = h
	return a, nil
}

func openStores(ctx context.Context, cfg config.Server, log *slog.Logger, a *app) (stores, error) {
	adminUser, hasAdmin := bootstrapAdmin(cfg.Session)
	if !hasAdmin {
		log.Warn("no administrator configured; set ADMIN_EMAIL and ADMIN_PASSWORD_HASH to enable admin login")
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return stores{}, err
	}
	if db == nil {
		log.Info("database not configured; using in-memory stores with sample catalogue")
		products := catalog.NewMemoryProductStore(catalog.SampleProducts()...)
		categories := catalog.NewMemoryCategoryStore(catalog.SampleCategories()...)
		var users []admin.User
		if hasAdmin {
			users = append(users, adminUser)
		}
		return stores{
			products:   products,
			categories: categories,
			settings:   settings.NewMemoryStore(defaultSettings()),
			users:      admin.NewMemoryUserStore(users...),
		}, nil
	}
	a.closers = append(a.closers, db.Close)

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db.DB); err != nil {
			return stores{}, err
		}
	}
	st := stores{
		products:   catalog.NewPostgresProductStore(db.DB),
		categories: catalog.NewPostgresCategoryStore(db.DB),
		settings:   settings.NewPostgresStore(db.DB),
		checkers:   []infra.Checker{db},
	}
	users := admin.NewPostgresUserStore(db.DB)
	st.users = users

	err = tx.Run(ctx, db.DB, func(ctx context.Context) error {
		if hasAdmin {
			if err := users.Upsert(ctx, adminUser); err != nil {
				return fmt.Errorf("bootstrap administrator: %w", err)
			}
		}
		if !cfg.Database.SeedSample {
			return nil
		}
		log.Info("seeding sample catalogue")
		if err := catalog.Seed(ctx, st.categories, st.products); err != nil {
			return err
		}
		return st.settings.Save(ctx, defaultSettings())
	})
	if err != nil {
		return stores{}, err
	}
	return st, nil
}

func bootstrapAdmin(cfg config.Session) (admin.User, bool) {
	if cfg.AdminEmail == "" || cfg.AdminHash == "" {
		return admin.User{}, false
	}
	return admin.User{Email: cfg.AdminEmail, PasswordHash: cfg.AdminHash, Role: cfg.AdminRole}, true
}

func defaultSettings() settings.SiteSettings {
	return settings.SiteSettings{
		SiteName: i18n.Text("tr", "Yapı Sistemleri", "en", "Yapi Systems"),
		Tagline:  i18n.Text("tr", "Kalıp ve iskele çözümleri", "en", "Formwork and scaffolding solutions"),
	}
}
