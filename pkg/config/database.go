package config

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
}

// InitDB opens PostgreSQL and, when posts live in MongoDB, the Mongo client.
func InitDB(cfg *Config) (*DB, error) {
	postgresDB, err := initPostgres(cfg.PostgresConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db := &DB{Postgres: postgresDB}

	if cfg.PostStore == PostStoreMongo {
		mongoClient, err := initMongo(cfg.MongoURI)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db.Mongo = mongoClient
	}

	return db, nil
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger:         logger.GormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.WithSource("database").Info("connected to PostgreSQL")
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.WithSource("database").Info("connected to MongoDB")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	log := logger.WithSource("database")

	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			log.WithError(err).Error("error getting SQL DB from GORM")
		} else if err := sqlDB.Close(); err != nil {
			log.WithError(err).Error("error closing PostgreSQL connection")
		} else {
			log.Info("PostgreSQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.WithError(err).Error("error closing MongoDB connection")
		} else {
			log.Info("MongoDB connection closed")
		}
	}
}
