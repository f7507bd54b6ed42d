package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/config"
	"LovMapServer/consts"
	"LovMapServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func accountTestConfig() config.ServerConfig {
	return config.ServerConfig{ReauthWindow: 5 * time.Minute}
}

func profileWithPassword(t *testing.T, uuid, password string) *model.UserProfile {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.UserProfile{Uuid: uuid, Email: uuid + "@test.io", PasswordHash: string(hash)}
}

func TestAccountServiceDeleteAccountReauth(t *testing.T) {
	initServiceTestLogger()

	profile := profileWithPassword(t, "user-a", "secret-pass")

	t.Run("wrong_password", func(t *testing.T) {
		svc := NewAccountService(&fakeUserRepo{
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserProfile, error) {
				return profile, nil
			},
		}, &fakeFriendRepo{}, &fakeLovRepo{}, &fakeReactionRepo{}, &fakeNotificationRepo{}, &fakeLiveBus{}, accountTestConfig())

		err := svc.DeleteAccount(context.Background(), "user-a", "wrong", time.Now())
		requireBizCode(t, err, consts.CodePasswordError)
	})

	t.Run("stale_token_outside_reauth_window", func(t *testing.T) {
		svc := NewAccountService(&fakeUserRepo{
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserProfile, error) {
				return profile, nil
			},
		}, &fakeFriendRepo{}, &fakeLovRepo{}, &fakeReactionRepo{}, &fakeNotificationRepo{}, &fakeLiveBus{}, accountTestConfig())

		err := svc.DeleteAccount(context.Background(), "user-a", "secret-pass", time.Now().Add(-time.Hour))
		requireBizCode(t, err, consts.CodeReauthRequired)
	})

	t.Run("missing_profile_is_idempotent_success", func(t *testing.T) {
		svc := NewAccountService(&fakeUserRepo{
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserProfile, error) {
				return nil, repository.ErrRecordNotFound
			},
		}, &fakeFriendRepo{}, &fakeLovRepo{}, &fakeReactionRepo{}, &fakeNotificationRepo{}, &fakeLiveBus{}, accountTestConfig())

		require.NoError(t, svc.DeleteAccount(context.Background(), "user-a", "whatever", time.Now()))
	})
}

func TestAccountServiceDeleteAccountCascade(t *testing.T) {
	initServiceTestLogger()

	profile := profileWithPassword(t, "user-a", "secret-pass")

	t.Run("serialized_order_profile_last", func(t *testing.T) {
		var order []string
		bus := &fakeLiveBus{}

		svc := NewAccountService(&fakeUserRepo{
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserProfile, error) {
				return profile, nil
			},
			deleteFn: func(_ context.Context, _ string) error {
				order = append(order, "profile")
				return nil
			},
		}, &fakeFriendRepo{
			listTouchingFn: func(_ context.Context, _ string) ([]*model.Friendship, error) {
				return []*model.Friendship{{UserUuid: "user-a", FriendUuid: "user-b"}}, nil
			},
			deleteAllTouchingFn: func(_ context.Context, _ string) (int64, error) {
				order = append(order, "friendships")
				return 1, nil
			},
		}, &fakeLovRepo{
			listIDsByOwnerFn: func(_ context.Context, _ string) ([]int64, error) {
				return []int64{100, 101}, nil
			},
			deleteAllByOwnerFn: func(_ context.Context, _ string) (int64, error) {
				order = append(order, "lovs")
				return 2, nil
			},
		}, &fakeReactionRepo{
			deleteAllByUserFn: func(_ context.Context, _ string) (int64, error) {
				order = append(order, "reactions_sent")
				return 1, nil
			},
			deleteAllByLovsFn: func(_ context.Context, ids []int64) (int64, error) {
				require.Equal(t, []int64{100, 101}, ids)
				order = append(order, "reactions_received")
				return 4, nil
			},
		}, &fakeNotificationRepo{
			deleteAllByUserFn: func(_ context.Context, _ string) (int64, error) {
				order = append(order, "notifications")
				return 3, nil
			},
		}, bus, accountTestConfig())

		require.NoError(t, svc.DeleteAccount(context.Background(), "user-a", "secret-pass", time.Now()))

		assert.Equal(t, []string{
			"reactions_sent",
			"reactions_received",
			"lovs",
			"friendships",
			"notifications",
			"profile",
		}, order)

		// 前好友的会话收到好友变更事件
		events := bus.recorded()
		require.Len(t, events, 1)
		assert.Equal(t, live.TopicFriends("user-b"), events[0].Topic)
	})

	t.Run("midway_failure_keeps_profile", func(t *testing.T) {
		wantErr := errors.New("db down")
		profileDeleted := false

		svc := NewAccountService(&fakeUserRepo{
			getByUUIDFn: func(_ context.Context, _ string) (*model.UserProfile, error) {
				return profile, nil
			},
			deleteFn: func(_ context.Context, _ string) error {
				profileDeleted = true
				return nil
			},
		}, &fakeFriendRepo{}, &fakeLovRepo{
			deleteAllByOwnerFn: func(_ context.Context, _ string) (int64, error) {
				return 0, wantErr
			},
		}, &fakeReactionRepo{}, &fakeNotificationRepo{}, &fakeLiveBus{}, accountTestConfig())

		err := svc.DeleteAccount(context.Background(), "user-a", "secret-pass", time.Now())
		require.ErrorIs(t, err, wantErr)
		// 资料未删，账号仍可登录重试
		assert.False(t, profileDeleted)
	})
}
