package service

import (
	"context"
	"errors"
	"testing"

	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationServiceList(t *testing.T) {
	initServiceTestLogger()

	t.Run("converts_and_returns_total", func(t *testing.T) {
		svc := NewNotificationService(&fakeNotificationRepo{
			listByUserFn: func(_ context.Context, userUUID string, page, pageSize int) ([]*model.Notification, int64, error) {
				require.Equal(t, "user-a", userUUID)
				require.Equal(t, 2, page)
				require.Equal(t, 10, pageSize)
				return []*model.Notification{
					{Id: 11, UserUuid: "user-a", Type: model.NotifyTypeNewReaction, ActorUuid: "user-b", LovId: 100},
				}, 7, nil
			},
		})

		items, total, err := svc.ListNotifications(context.Background(), "user-a", 2, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		require.Len(t, items, 1)
		assert.Equal(t, int64(11), items[0].Id)
		assert.Equal(t, model.NotifyTypeNewReaction, items[0].Type)
		assert.Equal(t, "user-b", items[0].ActorUuid)
	})

	t.Run("repo_error_passthrough", func(t *testing.T) {
		wantErr := errors.New("db down")
		svc := NewNotificationService(&fakeNotificationRepo{
			listByUserFn: func(_ context.Context, _ string, _, _ int) ([]*model.Notification, int64, error) {
				return nil, 0, wantErr
			},
		})

		_, _, err := svc.ListNotifications(context.Background(), "user-a", 1, 20)
		require.ErrorIs(t, err, wantErr)
	})
}

func TestNotificationServiceMarkRead(t *testing.T) {
	initServiceTestLogger()

	t.Run("scoped_to_owner", func(t *testing.T) {
		var gotUUID string
		var gotID int64
		svc := NewNotificationService(&fakeNotificationRepo{
			markReadFn: func(_ context.Context, userUUID string, id int64) error {
				gotUUID, gotID = userUUID, id
				return nil
			},
		})

		require.NoError(t, svc.MarkRead(context.Background(), "user-a", 42))
		assert.Equal(t, "user-a", gotUUID)
		assert.Equal(t, int64(42), gotID)
	})

	t.Run("not_found_passthrough", func(t *testing.T) {
		svc := NewNotificationService(&fakeNotificationRepo{
			markReadFn: func(_ context.Context, _ string, _ int64) error {
				return repository.ErrRecordNotFound
			},
		})

		err := svc.MarkRead(context.Background(), "user-a", 42)
		require.ErrorIs(t, err, repository.ErrRecordNotFound)
	})
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	initServiceTestLogger()

	svc := NewNotificationService(&fakeNotificationRepo{
		markAllReadFn: func(_ context.Context, userUUID string) (int64, error) {
			require.Equal(t, "user-a", userUUID)
			return 3, nil
		},
	})

	updated, err := svc.MarkAllRead(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
}

func TestNotificationServiceCountUnread(t *testing.T) {
	initServiceTestLogger()

	svc := NewNotificationService(&fakeNotificationRepo{
		countUnreadFn: func(_ context.Context, userUUID string) (int64, error) {
			require.Equal(t, "user-a", userUUID)
			return 5, nil
		},
	})

	count, err := svc.CountUnread(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestNotificationServiceDelete(t *testing.T) {
	initServiceTestLogger()

	t.Run("success", func(t *testing.T) {
		var gotID int64
		svc := NewNotificationService(&fakeNotificationRepo{
			deleteFn: func(_ context.Context, userUUID string, id int64) error {
				require.Equal(t, "user-a", userUUID)
				gotID = id
				return nil
			},
		})

		require.NoError(t, svc.DeleteNotification(context.Background(), "user-a", 42))
		assert.Equal(t, int64(42), gotID)
	})

	t.Run("not_found_passthrough", func(t *testing.T) {
		svc := NewNotificationService(&fakeNotificationRepo{
			deleteFn: func(_ context.Context, _ string, _ int64) error {
				return repository.ErrRecordNotFound
			},
		})

		err := svc.DeleteNotification(context.Background(), "user-a", 42)
		require.ErrorIs(t, err, repository.ErrRecordNotFound)
	})
}

func TestNotificationServiceClear(t *testing.T) {
	initServiceTestLogger()

	svc := NewNotificationService(&fakeNotificationRepo{
		deleteAllByUserFn: func(_ context.Context, userUUID string) (int64, error) {
			require.Equal(t, "user-a", userUUID)
			return 9, nil
		},
	})

	deleted, err := svc.ClearNotifications(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, int64(9), deleted)
}
