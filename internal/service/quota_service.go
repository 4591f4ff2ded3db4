package service

import (
	"context"
	"fmt"
	"time"

	"quiz_nft_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// QuotaService 每用户每日配额计数，redis INCR + 当日过期。
// 只做配额计数，支付与铸造状态永远从关系库重读
type QuotaService struct {
	rdb *redis.Client
}

func NewQuotaService(rdb *redis.Client) *QuotaService {
	return &QuotaService{rdb: rdb}
}

// Allow 配额内返回 true 并计数。limit<=0 表示不限；
// redis 不可用时放行，配额是软限制，不应拦住正常业务
func (s *QuotaService) Allow(ctx context.Context, kind string, userID uint, limit int) bool {
	if limit <= 0 || s.rdb == nil {
		return true
	}

	key := fmt.Sprintf("quota:%s:%d:%s", kind, userID, time.Now().Format("2006-01-02"))
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.Log.Warn("quota check failed, allowing", zap.String("key", key), zap.Error(err))
		return true
	}
	if count == 1 {
		s.rdb.Expire(ctx, key, 24*time.Hour)
	}

	return count <= int64(limit)
}
