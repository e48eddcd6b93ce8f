package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Config struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
}

// NewConnection connects and pings the primary before returning the client.
func NewConnection(ctx context.Context, cfg Config, log *zap.Logger) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo connection URI is empty")
	}

	opts := options.Client().ApplyURI(cfg.URI).
		SetMaxPoolSize(orDefault(cfg.MaxPoolSize, 50)).
		SetMinPoolSize(orDefault(cfg.MinPoolSize, 5)).
		SetConnectTimeout(orDuration(cfg.ConnectTimeout, 5*time.Second)).
		SetSocketTimeout(orDuration(cfg.SocketTimeout, 10*time.Second)).
		SetReadPreference(readpref.SecondaryPreferred())

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("Successfully connected to MongoDB", zap.String("database", cfg.Database))
	return client, nil
}

func Close(ctx context.Context, client *mongo.Client) error {
	return client.Disconnect(ctx)
}

func orDefault(v, def uint64) uint64 {
	if v == 0 {
		return def
	}
	return v
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
