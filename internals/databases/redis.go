package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jadwalku_backend/internals/configs"
)

// ConnectRedis: nil kalau REDIS_ADDR kosong atau server tidak bisa di-ping.
// Broadcast jadwal otomatis nonaktif tanpa Redis.
func ConnectRedis(cfg configs.RedisConfig, log *slog.Logger) *redis.Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Addr == "" {
		log.Warn("REDIS_ADDR tidak di-set, broadcast jadwal dimatikan")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("gagal konek Redis", slog.String("addr", cfg.Addr), slog.Any("error", err))
		_ = rdb.Close()
		return nil
	}

	log.Info("Redis connected", slog.String("addr", cfg.Addr))
	return rdb
}
