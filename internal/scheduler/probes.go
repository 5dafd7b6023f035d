package scheduler

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// PostgresProbe pings the content store pool.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

// RedisProbe pings the event bus.
func RedisProbe(rdb *redis.Client) Probe {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
