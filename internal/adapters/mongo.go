package adapters

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"omega/internal/bootstrap"
)

type AdapterMongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	cfg      *bootstrap.Config
	log      *zap.SugaredLogger
}

func NewAdapterMongo(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterMongo {
	return &AdapterMongo{
		cfg: cfg,
		log: log,
	}
}

func (a *AdapterMongo) Init(ctx context.Context) error {
	clientOpts := options.Client().ApplyURI(a.cfg.MongoUri)

	ctxConnect, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxConnect, clientOpts)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err = client.Ping(ctxConnect, nil); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	a.Client = client
	a.Database = client.Database(a.cfg.MongoDatabase)

	a.log.Infow("connected to MongoDB", "database", a.cfg.MongoDatabase)
	return a.ensureArchiveIndexes(ctx)
}

// ArchiveCollection holds one document per recorded game.
const ArchiveCollection = "archive"

// ensureArchiveIndexes indexes the fields the archive is paged and searched by.
func (a *AdapterMongo) ensureArchiveIndexes(ctx context.Context) error {
	ctxIndex, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	names, err := a.Database.Collection(ArchiveCollection).Indexes().CreateMany(ctxIndex, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "info.player_black", Value: 1}}},
		{Keys: bson.D{{Key: "info.player_white", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create archive indexes: %w", err)
	}
	a.log.Debugw("archive indexes ready", "indexes", names)
	return nil
}

func (a *AdapterMongo) Close(ctx context.Context) error {
	if a.Client != nil {
		return a.Client.Disconnect(ctx)
	}
	return nil
}
