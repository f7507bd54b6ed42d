package repository

import (
	"context"
	"time"

	"LovMapServer/consts"
	rediskey "LovMapServer/consts/redisKey"
	"LovMapServer/model"
	"LovMapServer/pkg/async"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// friendshipRepositoryImpl 好友关系数据访问层实现
type friendshipRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewFriendshipRepository 创建好友关系仓储实例
func NewFriendshipRepository(db *gorm.DB, redisClient *redis.Client) IFriendshipRepository {
	return &friendshipRepositoryImpl{db: db, redisClient: redisClient}
}

// ListTouching 查询与用户相关的全部关系（两个方向）
// 关系物理上只存一条有向记录，读取必须双向匹配。
func (r *friendshipRepositoryImpl) ListTouching(ctx context.Context, userUUID string) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := r.db.WithContext(ctx).
		Where("user_uuid = ? OR friend_uuid = ?", userUUID, userUUID).
		Order("created_at ASC, id ASC").
		Find(&friendships).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return friendships, nil
}

// GetBetween 查询两用户间任一方向的关系
func (r *friendshipRepositoryImpl) GetBetween(ctx context.Context, a, b string) (*model.Friendship, error) {
	var friendship model.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_uuid = ? AND friend_uuid = ?) OR (user_uuid = ? AND friend_uuid = ?)", a, b, b, a).
		First(&friendship).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &friendship, nil
}

// Create 创建有向关系
// 事务内复核：
//  1. 两个方向都不存在该关系（并发添加时先到者胜出）；
//  2. 分配的颜色未被发起方的其他好友占用，被占用则在事务内换下一个空闲色。
func (r *friendshipRepositoryImpl) Create(ctx context.Context, friendship *model.Friendship) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 双向查重
		var count int64
		if err := tx.Model(&model.Friendship{}).
			Where("(user_uuid = ? AND friend_uuid = ?) OR (user_uuid = ? AND friend_uuid = ?)",
				friendship.UserUuid, friendship.FriendUuid,
				friendship.FriendUuid, friendship.UserUuid).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return gorm.ErrDuplicatedKey
		}

		// 颜色复核：预分配的颜色可能已被并发写入占用
		var usedColors []string
		if err := tx.Model(&model.Friendship{}).
			Where("user_uuid = ?", friendship.UserUuid).
			Pluck("friend_color", &usedColors).Error; err != nil {
			return err
		}
		used := make(map[string]bool, len(usedColors))
		for _, c := range usedColors {
			used[c] = true
		}
		if used[friendship.FriendColor] {
			friendship.FriendColor = pickFreeColor(used)
		}

		return tx.Create(friendship).Error
	})

	if err != nil {
		return WrapDBError(err)
	}

	// 异步更新双方的好友缓存
	r.insertFriendCacheAsync(ctx, friendship)

	return nil
}

// pickFreeColor 从配色池选取第一个未占用的颜色，池耗尽时降级为随机色
func pickFreeColor(used map[string]bool) string {
	for _, c := range consts.FriendColors {
		if !used[c] {
			return c
		}
	}
	return consts.RandomFriendColor()
}

// DeleteBetween 删除两用户间两个方向的关系
func (r *friendshipRepositoryImpl) DeleteBetween(ctx context.Context, a, b string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("(user_uuid = ? AND friend_uuid = ?) OR (user_uuid = ? AND friend_uuid = ?)", a, b, b, a).
		Delete(&model.Friendship{})

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}

	// 异步从双方缓存中移除对方
	r.removeFriendCacheAsync(ctx, a, b)
	r.removeFriendCacheAsync(ctx, b, a)

	return result.RowsAffected, nil
}

// UsedColors 查询用户已分配给好友的颜色列表
func (r *friendshipRepositoryImpl) UsedColors(ctx context.Context, userUUID string) ([]string, error) {
	var colors []string
	err := r.db.WithContext(ctx).
		Model(&model.Friendship{}).
		Where("user_uuid = ?", userUUID).
		Pluck("friend_color", &colors).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return colors, nil
}

// UpdateColor 更新某条关系的好友颜色
func (r *friendshipRepositoryImpl) UpdateColor(ctx context.Context, id int64, color string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Friendship{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"friend_color": color,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdatePseudoSnapshots 昵称变更后刷新关系表两侧的昵称快照
// 两条 UPDATE 分别覆盖用户作为发起方和被添加方的记录。
func (r *friendshipRepositoryImpl) UpdatePseudoSnapshots(ctx context.Context, userUUID, pseudo string) error {
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Friendship{}).
			Where("user_uuid = ?", userUUID).
			Updates(map[string]interface{}{
				"user_pseudo": pseudo,
				"updated_at":  now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&model.Friendship{}).
			Where("friend_uuid = ?", userUUID).
			Updates(map[string]interface{}{
				"friend_pseudo": pseudo,
				"updated_at":    now,
			}).Error
	})

	if err != nil {
		return WrapDBError(err)
	}

	// 本用户的昵称存在每个对端的缓存条目里，覆盖写入新值
	if friendships, listErr := r.ListTouching(ctx, userUUID); listErr == nil {
		r.upsertPeerPseudoCacheAsync(ctx, userUUID, pseudo, friendships)
	}

	return nil
}

// upsertPeerPseudoCacheAsync 改名后把新昵称覆盖写进每个对端的好友缓存。
// 仅在对端缓存存在时更新，不为改名重建缓存。
func (r *friendshipRepositoryImpl) upsertPeerPseudoCacheAsync(ctx context.Context, userUUID, pseudo string, friendships []*model.Friendship) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		now := time.Now().UnixMilli()
		luaScript := redis.NewScript(luaUpsertFriendEntryIfExists)

		for _, f := range friendships {
			peer := f.OtherParty(userUUID)
			if peer == "" {
				continue
			}
			// 对端视角的颜色：对端是发起方时才有
			color := ""
			if f.UserUuid == peer {
				color = f.FriendColor
			}
			cacheKey := rediskey.FriendRelationKey(peer)
			expireSeconds := int(getRandomExpireTime(rediskey.FriendRelationTTL).Seconds())
			_, err := luaScript.Run(runCtx, r.redisClient,
				[]string{cacheKey},
				userUUID,
				buildFriendEntryJSON(color, pseudo, now),
				expireSeconds,
			).Result()
			if err != nil && err != redis.Nil {
				if isRedisWrongType(err) {
					_ = r.redisClient.Del(runCtx, cacheKey).Err()
					continue
				}
				LogRedisError(runCtx, err)
			}
		}
	}, 0)
}

// CheckIsFriend 判断两用户是否互为好友（任一方向）
// 采用 Cache-Aside Pattern：优先查 Redis Hash，未命中则回源 MySQL 并缓存
func (r *friendshipRepositoryImpl) CheckIsFriend(ctx context.Context, userUUID, peerUUID string) (bool, error) {
	cacheKey := rediskey.FriendRelationKey(userUUID)

	// ==================== 1. 组合查询 Redis (Pipeline) ====================
	// 使用 Pipeline 一次性发送命令，减少网络 RTT
	pipe := r.redisClient.Pipeline()

	// 命令1: 检查 Key 是否存在 (区分缓存命中/未命中)
	existsCmd := pipe.Exists(ctx, cacheKey)
	// 命令2: 读取好友元数据 (只有 Key 存在时此结果才有效)
	entryCmd := pipe.HGet(ctx, cacheKey, peerUUID)

	// 概率续期优化：1% 的概率在读取时顺便续期
	// 无论 Key 是否存在，Expire 都是安全的 (不存在则返回0)
	if getRandomBool(0.01) {
		pipe.Expire(ctx, cacheKey, getRandomExpireTime(rediskey.FriendRelationTTL))
	}

	_, err := pipe.Exec(ctx)

	if err != nil && err != redis.Nil {
		if isRedisWrongType(err) {
			_ = r.redisClient.Del(ctx, cacheKey).Err()
		} else {
			// Redis 挂了，记录日志，降级去查 DB
			LogRedisError(ctx, err)
		}
	} else if err == nil {
		// Redis 正常返回
		// 核心逻辑：先看 Key 在不在
		if existsCmd.Val() > 0 {
			// Case A: 缓存命中 (Hit)
			switch {
			case entryCmd.Err() == nil:
				if _, parseErr := parseFriendEntryJSON(entryCmd.Val()); parseErr == nil {
					return true, nil
				}
				// 条目损坏，整个 Hash 不可信，删掉回源重建
				_ = r.redisClient.Del(ctx, cacheKey).Err()
			case entryCmd.Err() == redis.Nil:
				return false, nil
			case isRedisWrongType(entryCmd.Err()):
				_ = r.redisClient.Del(ctx, cacheKey).Err()
			default:
				LogRedisError(ctx, entryCmd.Err())
			}
		}
		// Case B: 缓存未命中 (Miss) -> Exists 返回 0
		// 代码继续往下走，去查数据库
	}

	// ==================== 2. 缓存未命中，回源查询 MySQL ====================
	friendships, err := r.ListTouching(ctx, userUUID)
	if err != nil {
		return false, err
	}

	// ==================== 3. 重建缓存 (Hash) ====================
	r.rebuildFriendCacheAsync(ctx, userUUID, friendships)

	// 计算结果
	for _, f := range friendships {
		if f.OtherParty(userUUID) == peerUUID {
			return true, nil
		}
	}

	return false, nil
}

// DeleteAllTouching 删除与用户相关的全部关系（注销流程）
func (r *friendshipRepositoryImpl) DeleteAllTouching(ctx context.Context, userUUID string) (int64, error) {
	// 先查出对端列表用于失效缓存
	friendships, err := r.ListTouching(ctx, userUUID)
	if err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).
		Where("user_uuid = ? OR friend_uuid = ?", userUUID, userUUID).
		Delete(&model.Friendship{})

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}

	r.invalidateFriendCacheAsync(ctx, userUUID)
	for _, f := range friendships {
		if peer := f.OtherParty(userUUID); peer != "" {
			r.removeFriendCacheAsync(ctx, peer, userUUID)
		}
	}

	return result.RowsAffected, nil
}

// insertFriendCacheAsync 异步更新双方的好友缓存
// 在单个协程中同时处理关系双方的缓存更新
func (r *friendshipRepositoryImpl) insertFriendCacheAsync(ctx context.Context, friendship *model.Friendship) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		now := time.Now().UnixMilli()
		pairs := []struct {
			cacheKey string
			field    string
			entry    string
		}{
			{
				// 发起方视角：记录自己为好友分配的颜色
				cacheKey: rediskey.FriendRelationKey(friendship.UserUuid),
				field:    friendship.FriendUuid,
				entry:    buildFriendEntryJSON(friendship.FriendColor, friendship.FriendPseudo, now),
			},
			{
				// 被添加方视角：颜色归对方所有，不缓存
				cacheKey: rediskey.FriendRelationKey(friendship.FriendUuid),
				field:    friendship.UserUuid,
				entry:    buildFriendEntryJSON("", friendship.UserPseudo, now),
			},
		}
		expireSeconds := int(getRandomExpireTime(rediskey.FriendRelationTTL).Seconds())
		luaScript := redis.NewScript(luaInsertFriendEntryIfExists)

		for _, pair := range pairs {
			_, err := luaScript.Run(runCtx, r.redisClient,
				[]string{pair.cacheKey},
				pair.field,
				pair.entry,
				expireSeconds,
			).Result()
			if err != nil && err != redis.Nil {
				if isRedisWrongType(err) {
					_ = r.redisClient.Del(runCtx, pair.cacheKey).Err()
					continue
				}
				LogRedisError(runCtx, err)
			}
		}
	}, 0)
}

// removeFriendCacheAsync 异步删除好友缓存（单向）
// 仅在缓存存在时做增量更新，避免过期后写入不完整 Hash
func (r *friendshipRepositoryImpl) removeFriendCacheAsync(ctx context.Context, userUUID, peerUUID string) {
	cacheKey := rediskey.FriendRelationKey(userUUID)

	async.RunSafe(ctx, func(runCtx context.Context) {
		luaScript := redis.NewScript(luaRemoveFriendEntryIfExists)
		placeholderJSON := buildFriendEntryJSON("", "", 0)
		expireSeconds := int(getRandomExpireTime(rediskey.FriendRelationTTL).Seconds())
		_, err := luaScript.Run(runCtx, r.redisClient,
			[]string{cacheKey},
			peerUUID,
			placeholderJSON,
			expireSeconds,
		).Result()

		if err != nil && err != redis.Nil {
			if isRedisWrongType(err) {
				_ = r.redisClient.Del(runCtx, cacheKey).Err()
				return
			}
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// rebuildFriendCacheAsync 异步重建好友关系缓存（Hash）
func (r *friendshipRepositoryImpl) rebuildFriendCacheAsync(ctx context.Context, userUUID string, friendships []*model.Friendship) {
	cacheKey := rediskey.FriendRelationKey(userUUID)
	async.RunSafe(ctx, func(runCtx context.Context) {
		pipe := r.redisClient.Pipeline()
		pipe.Del(runCtx, cacheKey)

		if len(friendships) == 0 {
			pipe.HSet(runCtx, cacheKey, "__EMPTY__", buildFriendEntryJSON("", "", 0))
			pipe.Expire(runCtx, cacheKey, rediskey.FriendRelationEmptyTTL)
		} else {
			fields := make(map[string]interface{}, len(friendships))
			for _, f := range friendships {
				peer := f.OtherParty(userUUID)
				if peer == "" {
					continue
				}
				// 颜色只在用户是发起方时属于用户
				color := ""
				pseudo := f.UserPseudo
				if f.UserUuid == userUUID {
					color = f.FriendColor
					pseudo = f.FriendPseudo
				}
				fields[peer] = buildFriendEntryJSON(color, pseudo, f.UpdatedAt.UnixMilli())
			}
			if len(fields) > 0 {
				pipe.HSet(runCtx, cacheKey, fields)
			}
			pipe.Expire(runCtx, cacheKey, getRandomExpireTime(rediskey.FriendRelationTTL))
		}

		if _, err := pipe.Exec(runCtx); err != nil && err != redis.Nil {
			if isRedisWrongType(err) {
				_ = r.redisClient.Del(runCtx, cacheKey).Err()
				return
			}
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// invalidateFriendCacheAsync 异步失效整个好友缓存 Hash
func (r *friendshipRepositoryImpl) invalidateFriendCacheAsync(ctx context.Context, userUUID string) {
	cacheKey := rediskey.FriendRelationKey(userUUID)
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Del(runCtx, cacheKey).Err(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}
