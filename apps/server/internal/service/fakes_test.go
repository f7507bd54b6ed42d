package service

import (
	"context"
	"sync"
	"testing"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/model"
	"LovMapServer/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var serviceTestLoggerOnce sync.Once

func initServiceTestLogger() {
	serviceTestLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

// requireBizCode 断言错误为指定业务码
func requireBizCode(t *testing.T, err error, wantCode int32) {
	t.Helper()
	require.Error(t, err)
	code, ok := utils.IsBizError(err)
	require.True(t, ok, "expected biz error, got %v", err)
	require.Equal(t, wantCode, code)
}

// ==================== 用户资料仓储 fake ====================

type fakeUserRepo struct {
	ensureProfileFn     func(context.Context, *model.UserProfile) error
	getByUUIDFn         func(context.Context, string) (*model.UserProfile, error)
	getByCodeFn         func(context.Context, string) (*model.UserProfile, error)
	getByEmailFn        func(context.Context, string) (*model.UserProfile, error)
	updatePseudoFn      func(context.Context, string, string) error
	updateNotifyPrefsFn func(context.Context, string, bool, bool, bool) error
	deleteFn            func(context.Context, string) error
}

var _ repository.IUserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) EnsureProfile(ctx context.Context, profile *model.UserProfile) error {
	if f.ensureProfileFn == nil {
		return nil
	}
	return f.ensureProfileFn(ctx, profile)
}

func (f *fakeUserRepo) GetByUUID(ctx context.Context, uuid string) (*model.UserProfile, error) {
	if f.getByUUIDFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeUserRepo) GetByCode(ctx context.Context, code string) (*model.UserProfile, error) {
	if f.getByCodeFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.getByCodeFn(ctx, code)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	if f.getByEmailFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepo) UpdatePseudo(ctx context.Context, uuid, pseudo string) error {
	if f.updatePseudoFn == nil {
		return nil
	}
	return f.updatePseudoFn(ctx, uuid, pseudo)
}

func (f *fakeUserRepo) UpdateNotifyPrefs(ctx context.Context, uuid string, newLovs, newFriendships, newReactions bool) error {
	if f.updateNotifyPrefsFn == nil {
		return nil
	}
	return f.updateNotifyPrefsFn(ctx, uuid, newLovs, newFriendships, newReactions)
}

func (f *fakeUserRepo) Delete(ctx context.Context, uuid string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, uuid)
}

// ==================== 好友关系仓储 fake ====================

type fakeFriendRepo struct {
	listTouchingFn          func(context.Context, string) ([]*model.Friendship, error)
	getBetweenFn            func(context.Context, string, string) (*model.Friendship, error)
	createFn                func(context.Context, *model.Friendship) error
	deleteBetweenFn         func(context.Context, string, string) (int64, error)
	usedColorsFn            func(context.Context, string) ([]string, error)
	updateColorFn           func(context.Context, int64, string) error
	updatePseudoSnapshotsFn func(context.Context, string, string) error
	checkIsFriendFn         func(context.Context, string, string) (bool, error)
	deleteAllTouchingFn     func(context.Context, string) (int64, error)
}

var _ repository.IFriendshipRepository = (*fakeFriendRepo)(nil)

func (f *fakeFriendRepo) ListTouching(ctx context.Context, userUUID string) ([]*model.Friendship, error) {
	if f.listTouchingFn == nil {
		return nil, nil
	}
	return f.listTouchingFn(ctx, userUUID)
}

func (f *fakeFriendRepo) GetBetween(ctx context.Context, a, b string) (*model.Friendship, error) {
	if f.getBetweenFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.getBetweenFn(ctx, a, b)
}

func (f *fakeFriendRepo) Create(ctx context.Context, friendship *model.Friendship) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, friendship)
}

func (f *fakeFriendRepo) DeleteBetween(ctx context.Context, a, b string) (int64, error) {
	if f.deleteBetweenFn == nil {
		return 0, nil
	}
	return f.deleteBetweenFn(ctx, a, b)
}

func (f *fakeFriendRepo) UsedColors(ctx context.Context, userUUID string) ([]string, error) {
	if f.usedColorsFn == nil {
		return nil, nil
	}
	return f.usedColorsFn(ctx, userUUID)
}

func (f *fakeFriendRepo) UpdateColor(ctx context.Context, id int64, color string) error {
	if f.updateColorFn == nil {
		return nil
	}
	return f.updateColorFn(ctx, id, color)
}

func (f *fakeFriendRepo) UpdatePseudoSnapshots(ctx context.Context, userUUID, pseudo string) error {
	if f.updatePseudoSnapshotsFn == nil {
		return nil
	}
	return f.updatePseudoSnapshotsFn(ctx, userUUID, pseudo)
}

func (f *fakeFriendRepo) CheckIsFriend(ctx context.Context, userUUID, peerUUID string) (bool, error) {
	if f.checkIsFriendFn == nil {
		return false, nil
	}
	return f.checkIsFriendFn(ctx, userUUID, peerUUID)
}

func (f *fakeFriendRepo) DeleteAllTouching(ctx context.Context, userUUID string) (int64, error) {
	if f.deleteAllTouchingFn == nil {
		return 0, nil
	}
	return f.deleteAllTouchingFn(ctx, userUUID)
}

// ==================== 标记点仓储 fake ====================

type fakeLovRepo struct {
	createFn           func(context.Context, *model.Lov) error
	getByIDFn          func(context.Context, int64) (*model.Lov, error)
	updateFn           func(context.Context, int64, map[string]interface{}) error
	deleteFn           func(context.Context, int64) error
	listByOwnersFn     func(context.Context, []string) ([]*model.Lov, error)
	listByOwnerFn      func(context.Context, string) ([]*model.Lov, error)
	listIDsByOwnerFn   func(context.Context, string) ([]int64, error)
	deleteAllByOwnerFn func(context.Context, string) (int64, error)
	nearbyIDsFn        func(context.Context, float64, float64, float64, int) ([]int64, error)
	getByIDsFn         func(context.Context, []int64) ([]*model.Lov, error)
}

var _ repository.ILovRepository = (*fakeLovRepo)(nil)

func (f *fakeLovRepo) Create(ctx context.Context, lov *model.Lov) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, lov)
}

func (f *fakeLovRepo) GetByID(ctx context.Context, id int64) (*model.Lov, error) {
	if f.getByIDFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeLovRepo) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(ctx, id, fields)
}

func (f *fakeLovRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeLovRepo) ListByOwners(ctx context.Context, ownerUUIDs []string) ([]*model.Lov, error) {
	if f.listByOwnersFn == nil {
		return nil, nil
	}
	return f.listByOwnersFn(ctx, ownerUUIDs)
}

func (f *fakeLovRepo) ListByOwner(ctx context.Context, ownerUUID string) ([]*model.Lov, error) {
	if f.listByOwnerFn == nil {
		return nil, nil
	}
	return f.listByOwnerFn(ctx, ownerUUID)
}

func (f *fakeLovRepo) ListIDsByOwner(ctx context.Context, ownerUUID string) ([]int64, error) {
	if f.listIDsByOwnerFn == nil {
		return nil, nil
	}
	return f.listIDsByOwnerFn(ctx, ownerUUID)
}

func (f *fakeLovRepo) DeleteAllByOwner(ctx context.Context, ownerUUID string) (int64, error) {
	if f.deleteAllByOwnerFn == nil {
		return 0, nil
	}
	return f.deleteAllByOwnerFn(ctx, ownerUUID)
}

func (f *fakeLovRepo) NearbyIDs(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]int64, error) {
	if f.nearbyIDsFn == nil {
		return nil, nil
	}
	return f.nearbyIDsFn(ctx, lat, lon, radiusMeters, limit)
}

func (f *fakeLovRepo) GetByIDs(ctx context.Context, ids []int64) ([]*model.Lov, error) {
	if f.getByIDsFn == nil {
		return nil, nil
	}
	return f.getByIDsFn(ctx, ids)
}

// ==================== 表态仓储 fake ====================

type fakeReactionRepo struct {
	getFn             func(context.Context, string) (*model.Reaction, error)
	createFn          func(context.Context, *model.Reaction) error
	deleteFn          func(context.Context, string) error
	listByLovFn       func(context.Context, int64) ([]*model.Reaction, error)
	deleteAllByLovFn  func(context.Context, int64) (int64, error)
	deleteAllByLovsFn func(context.Context, []int64) (int64, error)
	deleteAllByUserFn func(context.Context, string) (int64, error)
}

var _ repository.IReactionRepository = (*fakeReactionRepo)(nil)

func (f *fakeReactionRepo) Get(ctx context.Context, id string) (*model.Reaction, error) {
	if f.getFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeReactionRepo) Create(ctx context.Context, reaction *model.Reaction) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, reaction)
}

func (f *fakeReactionRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeReactionRepo) ListByLov(ctx context.Context, lovID int64) ([]*model.Reaction, error) {
	if f.listByLovFn == nil {
		return nil, nil
	}
	return f.listByLovFn(ctx, lovID)
}

func (f *fakeReactionRepo) DeleteAllByLov(ctx context.Context, lovID int64) (int64, error) {
	if f.deleteAllByLovFn == nil {
		return 0, nil
	}
	return f.deleteAllByLovFn(ctx, lovID)
}

func (f *fakeReactionRepo) DeleteAllByLovs(ctx context.Context, lovIDs []int64) (int64, error) {
	if f.deleteAllByLovsFn == nil {
		return 0, nil
	}
	return f.deleteAllByLovsFn(ctx, lovIDs)
}

func (f *fakeReactionRepo) DeleteAllByUser(ctx context.Context, userUUID string) (int64, error) {
	if f.deleteAllByUserFn == nil {
		return 0, nil
	}
	return f.deleteAllByUserFn(ctx, userUUID)
}

// ==================== 通知仓储 fake ====================

type fakeNotificationRepo struct {
	createFn          func(context.Context, *model.Notification) error
	listByUserFn      func(context.Context, string, int, int) ([]*model.Notification, int64, error)
	markReadFn        func(context.Context, string, int64) error
	markAllReadFn     func(context.Context, string) (int64, error)
	countUnreadFn     func(context.Context, string) (int64, error)
	deleteFn          func(context.Context, string, int64) error
	deleteAllByUserFn func(context.Context, string) (int64, error)
}

var _ repository.INotificationRepository = (*fakeNotificationRepo)(nil)

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *model.Notification) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, notification)
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userUUID string, page, pageSize int) ([]*model.Notification, int64, error) {
	if f.listByUserFn == nil {
		return nil, 0, nil
	}
	return f.listByUserFn(ctx, userUUID, page, pageSize)
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, userUUID string, id int64) error {
	if f.markReadFn == nil {
		return nil
	}
	return f.markReadFn(ctx, userUUID, id)
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userUUID string) (int64, error) {
	if f.markAllReadFn == nil {
		return 0, nil
	}
	return f.markAllReadFn(ctx, userUUID)
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userUUID string) (int64, error) {
	if f.countUnreadFn == nil {
		return 0, nil
	}
	return f.countUnreadFn(ctx, userUUID)
}

func (f *fakeNotificationRepo) Delete(ctx context.Context, userUUID string, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, userUUID, id)
}

func (f *fakeNotificationRepo) DeleteAllByUser(ctx context.Context, userUUID string) (int64, error) {
	if f.deleteAllByUserFn == nil {
		return 0, nil
	}
	return f.deleteAllByUserFn(ctx, userUUID)
}

// ==================== 事件总线与通知分发 fake ====================

// recordedEvent 记录一次发布（单主题一条记录，PublishMany 展开）
type recordedEvent struct {
	Topic string
	Event dto.Event
}

type fakeLiveBus struct {
	mu     sync.Mutex
	events []recordedEvent
}

var _ ILiveBus = (*fakeLiveBus)(nil)

func (f *fakeLiveBus) Publish(_ context.Context, topic string, event dto.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Topic: topic, Event: event})
}

func (f *fakeLiveBus) PublishMany(ctx context.Context, topics []string, event dto.Event) {
	for _, topic := range topics {
		f.Publish(ctx, topic, event)
	}
}

func (f *fakeLiveBus) recorded() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

var _ INotifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) Notify(_ context.Context, notification *model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification)
}

func (f *fakeNotifier) notifications() []*model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Notification, len(f.sent))
	copy(out, f.sent)
	return out
}
