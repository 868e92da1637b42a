package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "token_blacklist:"

// BlacklistKey: token disimpan sebagai hash, bukan raw.
func BlacklistKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return blacklistKeyPrefix + hex.EncodeToString(sum[:])
}

// RedisBlacklist: checker untuk ActorJWTOpts. rdb nil → nil (tanpa cek).
func RedisBlacklist(rdb *redis.Client) func(c *fiber.Ctx, raw string) (bool, error) {
	if rdb == nil {
		return nil
	}
	return func(c *fiber.Ctx, raw string) (bool, error) {
		n, err := rdb.Exists(c.UserContext(), BlacklistKey(raw)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}
