package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	rediskey "LovMapServer/consts/redisKey"
	"LovMapServer/model"
	"LovMapServer/pkg/async"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// profileEmptyValue 空值占位，缓存穿透保护
const profileEmptyValue = "__EMPTY__"

// userRepositoryImpl 用户资料数据访问层实现
type userRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewUserRepository 创建用户资料仓储实例
func NewUserRepository(db *gorm.DB, redisClient *redis.Client) IUserRepository {
	return &userRepositoryImpl{db: db, redisClient: redisClient}
}

// EnsureProfile 幂等写入用户资料
// 使用 Upsert (INSERT ON DUPLICATE KEY UPDATE) 策略：
//   - 不存在则整条创建；
//   - 存在则只刷新 email 和 updated_at，绝不覆盖 pseudo/code/昵称定稿标记，
//     保证重复调用不会回退用户已有的资料。
func (r *userRepositoryImpl) EnsureProfile(ctx context.Context, profile *model.UserProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uuid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email":      profile.Email,
			"updated_at": time.Now(),
		}),
	}).Create(profile).Error

	if err != nil {
		return WrapDBError(err)
	}

	// 缓存里可能是穿透占位或旧值，直接失效
	r.invalidateProfileCacheAsync(ctx, profile.Uuid)

	return nil
}

// GetByUUID 按 uuid 查询资料
// 采用 Cache-Aside Pattern：优先查 Redis String(JSON)，未命中则回源 MySQL 并缓存
func (r *userRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.UserProfile, error) {
	cacheKey := rediskey.ProfileKey(uuid)

	// ==================== 1. 查询 Redis ====================
	raw, err := r.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		if raw == profileEmptyValue {
			// 穿透占位命中，确认不存在
			return nil, ErrRecordNotFound
		}
		var profile model.UserProfile
		if jsonErr := json.Unmarshal([]byte(raw), &profile); jsonErr == nil {
			return &profile, nil
		}
		// 缓存内容损坏，删除后回源
		_ = r.redisClient.Del(ctx, cacheKey).Err()
	} else if err != redis.Nil {
		if isRedisWrongType(err) {
			_ = r.redisClient.Del(ctx, cacheKey).Err()
		} else {
			// Redis 挂了，记录日志，降级去查 DB
			LogRedisError(ctx, err)
		}
	}

	// ==================== 2. 缓存未命中，回源查询 MySQL ====================
	var profile model.UserProfile
	err = r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		First(&profile).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 写入穿透占位，短 TTL
			r.cacheProfileAsync(ctx, uuid, nil)
			return nil, ErrRecordNotFound
		}
		return nil, WrapDBError(err)
	}

	// ==================== 3. 重建缓存 ====================
	r.cacheProfileAsync(ctx, uuid, &profile)

	return &profile, nil
}

// GetByCode 按好友码查询资料（低频操作，不走缓存）
func (r *userRepositoryImpl) GetByCode(ctx context.Context, code string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&profile).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &profile, nil
}

// GetByEmail 按邮箱查询资料（登录路径，不走缓存）
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&profile).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &profile, nil
}

// UpdatePseudo 更新昵称并置位初始昵称标记
// 昵称是否允许修改由 Service 层判断，这里只负责写入。
func (r *userRepositoryImpl) UpdatePseudo(ctx context.Context, uuid, pseudo string) error {
	result := r.db.WithContext(ctx).
		Model(&model.UserProfile{}).
		Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"pseudo":                 pseudo,
			"has_set_initial_pseudo": true,
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	r.invalidateProfileCacheAsync(ctx, uuid)

	return nil
}

// UpdateNotifyPrefs 更新通知偏好
func (r *userRepositoryImpl) UpdateNotifyPrefs(ctx context.Context, uuid string, newLovs, newFriendships, newReactions bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.UserProfile{}).
		Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"notify_new_lovs":        newLovs,
			"notify_new_friendships": newFriendships,
			"notify_new_reactions":   newReactions,
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	r.invalidateProfileCacheAsync(ctx, uuid)

	return nil
}

// Delete 删除用户资料（注销流程的最后一步，由 Service 层保证顺序）
func (r *userRepositoryImpl) Delete(ctx context.Context, uuid string) error {
	result := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		Delete(&model.UserProfile{})

	if result.Error != nil {
		return WrapDBError(result.Error)
	}

	r.invalidateProfileCacheAsync(ctx, uuid)

	return nil
}

// cacheProfileAsync 异步写入资料缓存
// profile 为 nil 时写入穿透占位（短 TTL）
func (r *userRepositoryImpl) cacheProfileAsync(ctx context.Context, uuid string, profile *model.UserProfile) {
	cacheKey := rediskey.ProfileKey(uuid)
	async.RunSafe(ctx, func(runCtx context.Context) {
		if profile == nil {
			if err := r.redisClient.Set(runCtx, cacheKey, profileEmptyValue, rediskey.ProfileEmptyTTL).Err(); err != nil {
				LogRedisError(runCtx, err)
			}
			return
		}

		data, err := json.Marshal(profile)
		if err != nil {
			return
		}
		if err := r.redisClient.Set(runCtx, cacheKey, data, getRandomExpireTime(rediskey.ProfileTTL)).Err(); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// invalidateProfileCacheAsync 异步失效资料缓存
func (r *userRepositoryImpl) invalidateProfileCacheAsync(ctx context.Context, uuid string) {
	cacheKey := rediskey.ProfileKey(uuid)
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Del(runCtx, cacheKey).Err(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}
