package repository

import (
	"context"

	"LovMapServer/model"

	"gorm.io/gorm"
)

// reactionRepositoryImpl 表态数据访问层实现
// 表态读写都是点查/小范围查询，直接走 MySQL 不加缓存。
type reactionRepositoryImpl struct {
	db *gorm.DB
}

// NewReactionRepository 创建表态仓储实例
func NewReactionRepository(db *gorm.DB) IReactionRepository {
	return &reactionRepositoryImpl{db: db}
}

// Get 按主键查询表态
func (r *reactionRepositoryImpl) Get(ctx context.Context, id string) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&reaction).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &reaction, nil
}

// Create 创建表态
func (r *reactionRepositoryImpl) Create(ctx context.Context, reaction *model.Reaction) error {
	if err := r.db.WithContext(ctx).Create(reaction).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

// Delete 按主键删除表态
func (r *reactionRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Reaction{})

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListByLov 查询某点位的全部表态
func (r *reactionRepositoryImpl) ListByLov(ctx context.Context, lovID int64) ([]*model.Reaction, error) {
	var reactions []*model.Reaction
	err := r.db.WithContext(ctx).
		Where("lov_id = ?", lovID).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return reactions, nil
}

// DeleteAllByLov 删除某点位的全部表态（点位删除级联）
func (r *reactionRepositoryImpl) DeleteAllByLov(ctx context.Context, lovID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("lov_id = ?", lovID).
		Delete(&model.Reaction{})

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAllByLovs 批量删除一组点位的全部表态（注销级联）
func (r *reactionRepositoryImpl) DeleteAllByLovs(ctx context.Context, lovIDs []int64) (int64, error) {
	if len(lovIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Where("lov_id IN ?", lovIDs).
		Delete(&model.Reaction{})

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAllByUser 删除某用户发出的全部表态（注销级联）
func (r *reactionRepositoryImpl) DeleteAllByUser(ctx context.Context, userUUID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_uuid = ?", userUUID).
		Delete(&model.Reaction{})

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}
