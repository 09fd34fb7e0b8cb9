package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"softcrate-backend/internal/config"
	httpctrl "softcrate-backend/internal/controllers/http"
	"softcrate-backend/internal/infra/kv"
	"softcrate-backend/internal/infra/mailer"
	"softcrate-backend/internal/infra/paypal"
	"softcrate-backend/internal/infra/rabbitmq"
	"softcrate-backend/internal/infra/sellhub"
	"softcrate-backend/internal/repository/kvstore"
	"softcrate-backend/internal/services"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	store := kv.NewRedisStore(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(ctx); err != nil {
		cancel()
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}
	cancel()
	defer store.Close()

	orderRepo := kvstore.NewOrderRepository(store, logger)
	inventoryRepo := kvstore.NewInventoryRepository(store)
	catalogRepo := kvstore.NewCatalogRepository(store)

	// Mail and events are optional; the store runs without them.
	var m mailer.Mailer
	if cfg.ResendAPIKey != "" {
		m = mailer.NewResendClient(cfg.ResendAPIKey, cfg.MailFrom, 10*time.Second)
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set, emails disabled")
	}

	var publisher rabbitmq.PublisherInterface
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("rabbitmq connect failed")
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Warn().Msg("AMQP_URL not set, order events disabled")
	}

	paypalClient := paypal.NewClient(cfg.PayPal.ClientID, cfg.PayPal.Secret, cfg.PayPal.Mode, 15*time.Second)
	sellhubClient := sellhub.NewClient(cfg.Sellhub, 15*time.Second)

	locks := services.NewProductLocks()
	fulfillment := services.NewFulfillmentService(orderRepo, inventoryRepo, catalogRepo, m, publisher, locks, logger)
	checkout := services.NewCheckoutService(orderRepo, catalogRepo, fulfillment, paypalClient, m, publisher, services.CheckoutConfig{
		BrandName:          "Softcrate",
		Currency:           cfg.Currency,
		SuccessURL:         cfg.SuccessURL,
		CancelURL:          cfg.CancelURL,
		DefaultProductSlug: cfg.DefaultProductSlug,
		AdminEmail:         cfg.AdminEmail,
	}, logger)
	catalog := services.NewCatalogService(orderRepo, inventoryRepo, catalogRepo, locks, logger)

	handler := httpctrl.NewHandler(checkout, fulfillment, catalog, sellhubClient, &cfg, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpctrl.CORS())
	r.Use(httpctrl.Maintenance(cfg.MaintenanceMode))
	handler.RegisterRoutes(r)

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting storefront api")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal().Err(err).Msg("server run failed")
	}
}
