package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/nkoudou/brocante/internal/config"
	"github.com/nkoudou/brocante/internal/http/handlers"
	"github.com/nkoudou/brocante/internal/http/middlewares"
	"github.com/nkoudou/brocante/internal/imagestore"
	"github.com/nkoudou/brocante/internal/observability"
	"github.com/nkoudou/brocante/internal/payments"
	"github.com/nkoudou/brocante/internal/queue/cleanup"
	"github.com/nkoudou/brocante/internal/queue/redisclient"
	"github.com/nkoudou/brocante/internal/repo/postgres"
	"github.com/nkoudou/brocante/internal/service"
)

const maxBodySize = 1 << 20 // 1 MiB, offer pictures arrive as data URLs

func NewRouter(
	cfg config.Config,
	log *slog.Logger,
	pool *pgxpool.Pool,
	queue *redisclient.Client,
	prom *observability.Prom,
	metrics prometheus.Gatherer,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodySize))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("brocante-api"))
	r.Use(prom.GinHandleMiddleware())

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	offersRepo := postgres.NewOffersRepo(pool, prom)
	transactionsRepo := postgres.NewTransactionsRepo(pool, prom)

	// external collaborators
	images := imagestore.New(imagestore.Config{
		CloudName: cfg.ImageCloudName,
		APIKey:    cfg.ImageAPIKey,
		APISecret: cfg.ImageAPISecret,
	}, prom)

	gateway := payments.New(payments.Config{SecretKey: cfg.PaymentSecretKey}, prom)

	cleaner := cleanup.NewProducer(queue, log)

	// services
	credentialService := service.NewCredentialService(usersRepo, images, log)
	offerService := service.NewOfferService(offersRepo, images, cleaner, log)
	paymentService := service.NewPaymentService(gateway, transactionsRepo, log)

	// handlers
	usersHandler := handlers.NewUsersHandler(credentialService)
	offersHandler := handlers.NewOffersHandler(offerService)
	paymentsHandler := handlers.NewPaymentsHandler(paymentService)
	queryHandler := handlers.NewQueryHandler(credentialService, credentialService, offerService, paymentService)

	auth := middlewares.NewAuthMiddleware(credentialService)

	// signup and login get a tighter per-IP window than the rest
	authLimiter := middlewares.NewRateLimiter(20, time.Minute)
	limitByIP := authLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	r.POST("/user/signup", limitByIP, usersHandler.SignUp)
	r.POST("/user/login", limitByIP, usersHandler.Login)

	r.GET("/offers", offersHandler.ListOffers)
	r.GET("/offer/:id", offersHandler.GetOfferById)

	protected := r.Group("/", auth.RequireAuth())
	protected.POST("/offer/publish", offersHandler.PublishOffer)
	protected.PUT("/offer/:id", offersHandler.UpdateOffer)
	protected.DELETE("/offer/:id", offersHandler.DeleteOffer)

	r.POST("/pay", paymentsHandler.Pay)

	// query-style boundary: one endpoint, operation selected by name
	r.POST("/query", queryHandler.Query)

	return r
}
