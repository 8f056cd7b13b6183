// Package database opens the configured store and hands back repositories bound to it.
package database

import (
	"context"
	"fmt"
	"time"

	"phonebook/internal/models"
	"phonebook/internal/repositories"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Options selects the backend and its connection settings.
type Options struct {
	Driver        string
	DSN           string
	MongoURI      string
	MongoDatabase string
}

// Store bundles the repositories of one open backend.
type Store struct {
	Users    repositories.UserRepository
	Contacts repositories.ContactRepository
	close    func() error
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the backend named by opts.Driver and prepares its schema.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	switch opts.Driver {
	case "sqlite", "postgres":
		db, err := OpenGORM(opts.Driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		logger.Info("database connected", zap.String("driver", opts.Driver))
		return &Store{
			Users:    repositories.NewGORMUserRepository(db),
			Contacts: repositories.NewGORMContactRepository(db),
			close:    sqlDB.Close,
		}, nil
	case "mongo":
		client, db, err := OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		users := repositories.NewMongoUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info("database connected", zap.String("driver", opts.Driver), zap.String("database", opts.MongoDatabase))
		return &Store{
			Users:    users,
			Contacts: repositories.NewMongoContactRepository(db),
			close: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
				defer cancel()
				return client.Disconnect(ctx)
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// OpenGORM opens a SQL database and migrates the user and contact tables.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Contact{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// OpenMongo connects to uri and checks the server answers before returning.
func OpenMongo(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, client.Database(name), nil
}
