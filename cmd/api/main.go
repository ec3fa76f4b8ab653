// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/domain/admin"
	"github.com/thesheunit/storefront/internal/domain/analytics"
	"github.com/thesheunit/storefront/internal/domain/cart"
	"github.com/thesheunit/storefront/internal/domain/identity"
	"github.com/thesheunit/storefront/internal/domain/message"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/domain/wishlist"
	"github.com/thesheunit/storefront/internal/infrastructure/database/postgres"
	"github.com/thesheunit/storefront/internal/infrastructure/database/redis"
	"github.com/thesheunit/storefront/internal/infrastructure/firebase"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/interfaces/http"
	"github.com/thesheunit/storefront/internal/interfaces/http/routes"
	"github.com/thesheunit/storefront/internal/pkg/auth"
	"github.com/thesheunit/storefront/internal/pkg/email"
	"github.com/thesheunit/storefront/internal/pkg/logger"
	"github.com/thesheunit/storefront/internal/pkg/metrics"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
	"github.com/thesheunit/storefront/internal/pkg/pdf"
	"github.com/thesheunit/storefront/internal/pkg/retry"
	"github.com/thesheunit/storefront/internal/session"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"cart_store":  cfg.Cart.Store,
		"identity":    cfg.Identity.Provider,
	}).Infof("Starting %s", cfg.App.Name)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Storefront stopped with an error")
	}
	log.Info("Server shutdown completed")
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(ctx); err != nil {
		return err
	}
	if err := migration.CreateIndexes(ctx); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}
	if cfg.IsDevelopment() {
		seed := postgres.SeedOptions{
			AdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
			AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
			BcryptCost:    cfg.Security.BcryptCost,
		}
		if err := migration.SeedInitialData(ctx, seed); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}

	fb := firebase.New(cfg.Firebase, log)
	defer fb.Close()

	m := metrics.New(cfg.Metrics.Namespace)
	retrier := retry.New(cfg, log)
	emailService := email.NewEmailService(cfg, log)

	gdb := db.GetDB()
	services := routes.Services{
		Users:     user.NewService(gdb, cfg, emailService, log),
		Products:  product.NewService(gdb, cfg),
		Orders:    order.NewService(gdb, cfg, emailService, log),
		Messages:  message.NewService(gdb, emailService, log),
		Analytics: analytics.NewService(gdb),
		PDF:       pdf.NewService(cfg),
	}

	verifier, err := buildVerifier(ctx, cfg, fb, services.Users)
	if err != nil {
		return err
	}
	cartRepo, err := buildCartRepository(ctx, cfg, gdb, redisClient, fb)
	if err != nil {
		return err
	}

	deps := &session.Dependencies{
		CartRepository: cart.WithRetry(cartRepo, retrier),
		CartOptions: cart.Options{
			WriteDebounce: cfg.Cart.WriteDebounce,
			WriteTimeout:  cfg.Cart.WriteTimeout,
		},
		CartObserver:       m,
		WishlistRepository: wishlist.NewGormRepository(gdb, retrier),
		Profiles:           services.Users,
		Admin:              buildAdminRepositories(gdb, services.Orders, retrier),
		SignInPath:         cfg.Identity.SignInPath,
		Logger:             log,
		MutationOptions: []optimistic.Option{
			optimistic.WithClassifier(storeerr.MutationKind),
			optimistic.WithObserver(m),
		},
	}
	sessions := session.NewRegistry(deps, cfg.Session.IdleTTL, m)
	defer sessions.Close()
	go sessions.Run(ctx, cfg.Session.JanitorInterval)

	server := http.NewServer(cfg, log, http.Dependencies{
		Services: services,
		Sessions: sessions,
		Verifier: verifier,
		Metrics:  m,
		Redis:    redisClient.GetClient(),
		Checks: map[string]http.HealthChecker{
			"database": db,
			"redis":    redisClient,
		},
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

func buildVerifier(ctx context.Context, cfg *config.Config, fb *firebase.Clients, users *user.Service) (identity.Verifier, error) {
	switch cfg.Identity.Provider {
	case "firebase":
		client, err := fb.Auth(ctx)
		if err != nil {
			return nil, err
		}
		return identity.NewFirebaseVerifier(client, users), nil
	default:
		return identity.NewJWTVerifier(auth.NewJWTManager(cfg)), nil
	}
}

func buildCartRepository(ctx context.Context, cfg *config.Config, db *gorm.DB, rc *redis.Client, fb *firebase.Clients) (cart.Repository, error) {
	switch cfg.Cart.Store {
	case "postgres":
		return cart.NewPostgresRepository(db), nil
	case "firestore":
		client, err := fb.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		return cart.NewFirestoreRepository(client, cfg.Firebase.CartCollection), nil
	case "memory":
		return cart.NewMemoryRepository(), nil
	default:
		return cart.NewRedisRepository(rc.GetClient(), cfg.Cart.RedisKeyPrefix, cfg.Cart.RedisTTL), nil
	}
}

func buildAdminRepositories(db *gorm.DB, orders *order.Service, r *retry.Retrier) session.AdminRepositories {
	newest := admin.OrderBy("created_at DESC, id DESC")
	return session.AdminRepositories{
		Products:  admin.NewGormRepository[product.Product](db, newest, admin.WithRetrier(r)),
		Orders:    order.NewAdminRepository(db, orders, admin.WithRetrier(r)),
		Customers: admin.NewGormRepository[user.User](db, newest, admin.WithRetrier(r)),
		Messages:  admin.NewGormRepository[message.Message](db, newest, admin.WithRetrier(r)),
	}
}
