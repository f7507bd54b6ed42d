package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"LovMapServer/consts"
	rediskey "LovMapServer/consts/redisKey"
	"LovMapServer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ==================== Redis 令牌桶 Lua 脚本 ====================

// luaTokenBucket 原子性地更新令牌桶并判断是否允许通过
// KEYS[1]: 限流 key
// ARGV[1]: 当前时间戳（毫秒）
// ARGV[2]: 令牌桶容量
// ARGV[3]: 每秒产生的令牌数
// ARGV[4]: 每次请求消耗的令牌数
// 返回: 1 允许通过, 0 令牌不足
const luaTokenBucket = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

if current_tokens == nil then
    current_tokens = capacity
end
if last_time == nil then
    last_time = now
end

local time_diff = math.max(0, now - last_time)
local new_tokens = math.floor((time_diff * rate) / 1000)

if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now
end

local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

redis.call('HMSET', key, 'tokens', current_tokens, 'last_time', last_time)

local fill_time = math.ceil(capacity / rate)
local ttl = math.max(60, fill_time * 2)
redis.call('EXPIRE', key, ttl)

return allowed
`

// ==================== 限流器 ====================

// RateLimiter 两级限流器：
//   - Redis 令牌桶做跨实例的精确限流；
//   - Redis 不可用时降级为进程内 x/time/rate 限流，放行策略保守但不至于裸奔。
type RateLimiter struct {
	redisClient *redis.Client
	ratePerSec  float64
	burst       int

	mu     sync.Mutex
	locals map[string]*rate.Limiter // 降级用本地限流器，按 key 维护
}

// NewRateLimiter 创建限流器
// ratePerSec: 每秒产生的令牌数
// burst: 令牌桶容量
func NewRateLimiter(redisClient *redis.Client, ratePerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		ratePerSec:  ratePerSec,
		burst:       burst,
		locals:      make(map[string]*rate.Limiter),
	}
}

// Allow 检查是否允许请求通过
func (r *RateLimiter) Allow(ctx context.Context, key string) bool {
	if r.redisClient == nil {
		return r.allowLocal(key)
	}

	// Redis 操作加独立短超时，防止 Redis 响应慢拖死请求
	redisCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	now := time.Now().UnixMilli()
	result, err := r.redisClient.Eval(redisCtx, luaTokenBucket,
		[]string{key}, now, r.burst, r.ratePerSec, 1,
	).Result()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 限流检查超时，降级为本地限流",
				logger.String("key", key),
			)
		} else {
			logger.Error(ctx, "Redis 限流检查失败，降级为本地限流",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
		}
		return r.allowLocal(key)
	}

	allowed, ok := result.(int64)
	if !ok {
		return r.allowLocal(key)
	}
	return allowed == 1
}

// allowLocal 本地限流兜底
func (r *RateLimiter) allowLocal(key string) bool {
	r.mu.Lock()
	limiter, ok := r.locals[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.ratePerSec), r.burst)
		r.locals[key] = limiter
		// 粗暴的内存保护：key 过多时整体重置
		if len(r.locals) > 100000 {
			r.locals = make(map[string]*rate.Limiter)
		}
	}
	r.mu.Unlock()
	return limiter.Allow()
}

// ==================== 限流中间件 ====================

// IPRateLimitMiddleware 基于 IP 的限流中间件
func IPRateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip, ok := GetClientIPSafe(c)
		if !ok {
			// 无法获取 IP，放行请求
			c.Next()
			return
		}

		if !limiter.Allow(NewContextWithGin(c), rediskey.RateLimitIPKey(ip)) {
			logger.Warn(NewContextWithGin(c), "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    consts.CodeTooManyRequests,
				"message": consts.GetMessage(consts.CodeTooManyRequests),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserRateLimitMiddleware 基于用户 UUID 的限流中间件
// 需要在 JWTAuthMiddleware 之后使用
func UserRateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userUUID, ok := GetUserUUID(c)
		if !ok {
			c.Next()
			return
		}

		if !limiter.Allow(NewContextWithGin(c), rediskey.RateLimitUserKey(userUUID)) {
			logger.Warn(NewContextWithGin(c), "用户请求被限流",
				logger.String("user_uuid", userUUID),
				logger.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    consts.CodeTooManyRequests,
				"message": consts.GetMessage(consts.CodeTooManyRequests),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
