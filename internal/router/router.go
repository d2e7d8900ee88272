package router

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/auth"
	"github.com/anonto42/nano-social/backend/internal/handlers"
	"github.com/anonto42/nano-social/backend/internal/media"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

const timeoutIndexes = 10 * time.Second

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Users     repositories.UserRepository
	Posts     repositories.PostRepository
	Reactions repositories.ReactionRepository
	Accounts  repositories.AccountRepository
	Tokens    *auth.TokenIssuer
	Media     media.Store
	// Firebase is optional; without it /firebase-login is not registered.
	Firebase handlers.IDTokenVerifier
	// Ping checks the database for /health; nil skips the check.
	Ping func(context.Context) error
}

// SetupRoutes migrates the schema, builds repositories for the configured
// stores and registers every route.
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, firebaseAuth handlers.IDTokenVerifier) error {
	log := logger.WithSource("router")

	schema := []interface{}{&models.User{}}
	if cfg.PostStore == config.PostStorePostgres {
		schema = append(schema, &models.Post{}, &models.PostLike{}, &models.PostDislike{})
	}
	if err := db.Postgres.AutoMigrate(schema...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed")

	deps := Deps{
		Users:    repositories.NewPostgresUserRepository(db.Postgres),
		Tokens:   auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Firebase: firebaseAuth,
	}

	switch cfg.PostStore {
	case config.PostStoreMongo:
		mdb := db.Mongo.Database(cfg.MongoDatabase)
		posts := repositories.NewMongoPostRepository(mdb)
		ctx, cancel := context.WithTimeout(context.Background(), timeoutIndexes)
		defer cancel()
		if err := posts.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create MongoDB indexes: %w", err)
		}
		reactions := repositories.NewMongoReactionRepository(mdb)
		deps.Posts = posts
		deps.Reactions = reactions
		deps.Accounts = repositories.NewMongoAccountRepository(db.Postgres, posts, reactions)
	default:
		deps.Posts = repositories.NewPostgresPostRepository(db.Postgres)
		deps.Reactions = repositories.NewPostgresReactionRepository(db.Postgres)
		deps.Accounts = repositories.NewPostgresAccountRepository(db.Postgres)
	}
	log.WithField("post_store", cfg.PostStore).Info("repositories configured")

	store, err := media.NewStore(cfg)
	if err != nil {
		return err
	}
	deps.Media = store
	if cfg.MediaBackend == config.MediaBackendLocal {
		e.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	sqlDB, err := db.Postgres.DB()
	if err != nil {
		return err
	}
	deps.Ping = sqlDB.PingContext

	RegisterRoutes(e, deps)
	return nil
}

// RegisterRoutes wires handlers onto e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/health", handlers.HealthCheck(d.Ping))

	requireAuth := middleware.JWTAuthMiddleware(d.Tokens)
	optionalAuth := middleware.OptionalJWTAuth(d.Tokens)
	api := e.Group("")

	handlers.NewAuthHandler(d.Users, d.Tokens, d.Media, d.Firebase).RegisterAuthRoutes(api)
	handlers.NewUserHandler(d.Users, d.Accounts, d.Media).RegisterUserRoutes(api, requireAuth)
	handlers.NewPostHandler(d.Posts, d.Users, d.Reactions, d.Media).RegisterPostRoutes(api, requireAuth, optionalAuth)
	handlers.NewReactionHandler(d.Reactions, d.Users).RegisterReactionRoutes(api, requireAuth)

	logger.WithSource("router").WithField("firebase_login", d.Firebase != nil).Info("all routes configured")
}
