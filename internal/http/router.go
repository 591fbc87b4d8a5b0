package http

import (
	"log/slog"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/auth"
	"github.com/UVMHacks2025/BashProShop/internal/cache"
	"github.com/UVMHacks2025/BashProShop/internal/config"
	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
	"github.com/UVMHacks2025/BashProShop/internal/http/handlers"
	"github.com/UVMHacks2025/BashProShop/internal/http/middlewares"
	"github.com/UVMHacks2025/BashProShop/internal/notifications"
	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/UVMHacks2025/BashProShop/internal/payment"
	"github.com/UVMHacks2025/BashProShop/internal/redisclient"
	"github.com/UVMHacks2025/BashProShop/internal/repo/postgres"
	"github.com/UVMHacks2025/BashProShop/internal/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "bashproshop-api"

// Options carries the optional collaborators. Zero values fall back to
// the production wiring derived from cfg.
type Options struct {
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	// Redis backs session revocation; nil keeps revocations in memory.
	Redis     *redisclient.Client
	Processor payment.Processor
	Notifier  notifications.Notifier
}

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, opts Options) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// ClientIP feeds the per-IP limiter; an empty list trusts no proxy
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid TRUSTED_PROXIES, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware

	r.Use(gin.Recovery())
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if opts.Prom != nil {
		r.Use(opts.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	// health
	checks := map[string]handlers.ReadinessCheck{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if opts.Redis != nil {
		checks["redis"] = opts.Redis.Ping
	}
	h := handlers.NewHealthHandler(checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, opts.Prom)
	listingsRepo := postgres.NewListingsRepo(pool, opts.Prom)
	cartRepo := postgres.NewCartRepo(pool, opts.Prom)
	ordersRepo := postgres.NewOrdersRepo(pool, opts.Prom)
	confirmationsRepo := postgres.NewPaymentConfirmationsRepo(pool, opts.Prom)

	// sessions
	tokens := auth.NewManager(cfg.SessionSecret, cfg.SessionTTL())
	var revocations sessions.RevocationStore
	if opts.Redis != nil {
		revocations = sessions.NewRedisStore(opts.Redis)
	} else {
		revocations = sessions.NewMemoryStore(cache.New(cfg.SessionTTL()))
	}

	// payments
	processor := opts.Processor
	if processor == nil {
		processor = payment.NewStripeProcessor(cfg.StripeSecretKey)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.FromConfig(cfg.Mail, log)
	}
	bridge := payment.NewBridge(payment.Config{
		Processor:     processor,
		WebhookSecret: cfg.StripeWebhookSecret,
		Notifier:      notifier,
		Ledger:        confirmationsRepo,
		Orders:        ordersRepo,
		SupportEmail:  cfg.Mail.SupportEmail,
		Logger:        log,
		Prom:          opts.Prom,
	})

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, tokens, revocations, cfg, log)
	listingsHandler := handlers.NewListingsHandler(listingsRepo, cache.New(10*time.Second), log)
	cartHandler := handlers.NewCartHandler(cartRepo, listingsRepo, log)
	checkoutHandler := handlers.NewCheckoutHandler(listingsRepo, bridge, cfg.PublicBaseURL, log)
	webhookHandler := handlers.NewWebhookHandler(bridge, opts.Prom, log)

	authMiddleware := middlewares.NewAuthMiddleware(tokens, revocations)
	formOrJSON := middlewares.RequireFormOrJSON()

	// 10 attempts per minute per ip on the credential routes
	credentialLimiter := middlewares.NewRateLimiter(10, time.Minute)
	limitByIP := credentialLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	// public
	r.GET("/", listingsHandler.Index)
	r.GET("/listing-detail", listingsHandler.ListingDetail)

	r.GET("/signup", authHandler.SignUpForm)
	r.POST("/signup", limitByIP, formOrJSON, authHandler.SignUp)
	r.POST("/login", limitByIP, formOrJSON, authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	r.GET("/payment_success", checkoutHandler.PaymentSuccess)
	r.GET("/payment_cancel", checkoutHandler.PaymentCancel)

	r.POST("/webhook", middlewares.MaxBodyBytes(handlers.WebhookMaxBodyBytes), webhookHandler.Handle)

	// authenticated
	checkoutLimiter := middlewares.NewRateLimiter(20, time.Minute)

	authed := r.Group("/")
	authed.Use(authMiddleware.RequireAuth())
	{
		authed.GET("/my-listings", listingsHandler.MyListings)
		authed.GET("/create-listing", listingsHandler.CreateListingForm)
		authed.POST("/create-listing",
			middlewares.MaxBodyBytes(listing.MaxCreateBodyBytes),
			formOrJSON,
			listingsHandler.CreateListing,
		)

		authed.GET("/add-to-cart", cartHandler.ViewCart)
		authed.POST("/add-to-cart", formOrJSON, cartHandler.AddToCart)

		authed.GET("/checkout", checkoutHandler.Checkout)
		authed.POST("/create_checkout_session",
			checkoutLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
			formOrJSON,
			checkoutHandler.CreateCheckoutSession,
		)
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	return r
}
