package repository

import (
	"context"
	"strconv"

	rediskey "LovMapServer/consts/redisKey"
	"LovMapServer/model"
	"LovMapServer/pkg/async"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// lovRepositoryImpl LOV 点位数据访问层实现
// MySQL 是事实来源，Redis GEO 索引只服务附近查询，两者最终一致。
type lovRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewLovRepository 创建 LOV 仓储实例
func NewLovRepository(db *gorm.DB, redisClient *redis.Client) ILovRepository {
	return &lovRepositoryImpl{db: db, redisClient: redisClient}
}

// Create 创建点位并写入 GEO 索引
func (r *lovRepositoryImpl) Create(ctx context.Context, lov *model.Lov) error {
	if err := r.db.WithContext(ctx).Create(lov).Error; err != nil {
		return WrapDBError(err)
	}

	r.geoAddAsync(ctx, lov)

	return nil
}

// GetByID 按 ID 查询点位
func (r *lovRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Lov, error) {
	var lov model.Lov
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&lov).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &lov, nil
}

// Update 按字段增量更新点位
// 传入坐标字段时同步刷新 GEO 索引。
func (r *lovRepositoryImpl) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.Lov{}).
		Where("id = ?", id).
		Updates(fields)

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	_, latOk := fields["latitude"]
	_, lonOk := fields["longitude"]
	if latOk || lonOk {
		// 坐标变更，回读后刷新 GEO 索引
		if lov, err := r.GetByID(ctx, id); err == nil {
			r.geoAddAsync(ctx, lov)
		}
	}

	return nil
}

// Delete 删除点位并移除 GEO 索引
func (r *lovRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Lov{})

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	r.geoRemoveAsync(ctx, []int64{id})

	return nil
}

// ListByOwners 查询一组用户的全部点位，按创建时间倒序
func (r *lovRepositoryImpl) ListByOwners(ctx context.Context, ownerUUIDs []string) ([]*model.Lov, error) {
	if len(ownerUUIDs) == 0 {
		return nil, nil
	}

	var lovs []*model.Lov
	err := r.db.WithContext(ctx).
		Where("user_uuid IN ?", ownerUUIDs).
		Order("created_at DESC, id DESC").
		Find(&lovs).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return lovs, nil
}

// ListByOwner 查询单个用户的全部点位
func (r *lovRepositoryImpl) ListByOwner(ctx context.Context, ownerUUID string) ([]*model.Lov, error) {
	return r.ListByOwners(ctx, []string{ownerUUID})
}

// ListIDsByOwner 查询单个用户的全部点位 ID（注销级联用）
func (r *lovRepositoryImpl) ListIDsByOwner(ctx context.Context, ownerUUID string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Lov{}).
		Where("user_uuid = ?", ownerUUID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return ids, nil
}

// DeleteAllByOwner 删除单个用户的全部点位
func (r *lovRepositoryImpl) DeleteAllByOwner(ctx context.Context, ownerUUID string) (int64, error) {
	ids, err := r.ListIDsByOwner(ctx, ownerUUID)
	if err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).
		Where("user_uuid = ?", ownerUUID).
		Delete(&model.Lov{})

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}

	if len(ids) > 0 {
		r.geoRemoveAsync(ctx, ids)
	}

	return result.RowsAffected, nil
}

// NearbyIDs 查询某坐标半径内的点位 ID（GEO 索引）
func (r *lovRepositoryImpl) NearbyIDs(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 100
	}

	locs, err := r.redisClient.GeoSearch(ctx, rediskey.LovGeoKey(), &redis.GeoSearchQuery{
		Longitude:  lon,
		Latitude:   lat,
		Radius:     radiusMeters,
		RadiusUnit: "m",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, WrapRedisError(err)
	}

	ids := make([]int64, 0, len(locs))
	for _, name := range locs {
		id, parseErr := strconv.ParseInt(name, 10, 64)
		if parseErr != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetByIDs 按 ID 批量查询点位
func (r *lovRepositoryImpl) GetByIDs(ctx context.Context, ids []int64) ([]*model.Lov, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var lovs []*model.Lov
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&lovs).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return lovs, nil
}

// geoAddAsync 异步写入 GEO 索引
func (r *lovRepositoryImpl) geoAddAsync(ctx context.Context, lov *model.Lov) {
	id := lov.Id
	lat := lov.Latitude
	lon := lov.Longitude
	async.RunSafe(ctx, func(runCtx context.Context) {
		err := r.redisClient.GeoAdd(runCtx, rediskey.LovGeoKey(), &redis.GeoLocation{
			Name:      strconv.FormatInt(id, 10),
			Latitude:  lat,
			Longitude: lon,
		}).Err()
		if err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}

// geoRemoveAsync 异步移除 GEO 索引
func (r *lovRepositoryImpl) geoRemoveAsync(ctx context.Context, ids []int64) {
	async.RunSafe(ctx, func(runCtx context.Context) {
		members := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			members = append(members, strconv.FormatInt(id, 10))
		}
		if err := r.redisClient.ZRem(runCtx, rediskey.LovGeoKey(), members...).Err(); err != nil && err != redis.Nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}
