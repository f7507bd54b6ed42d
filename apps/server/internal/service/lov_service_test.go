package service

import (
	"context"
	"errors"
	"testing"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/consts"
	"LovMapServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }
func intPtr(v int) *int             { return &v }

func validAddLovRequest() *dto.AddLovRequest {
	return &dto.AddLovRequest{
		Latitude:     float64Ptr(48.8566),
		Longitude:    float64Ptr(2.3522),
		Emoji:        consts.LovEmojiAubergine,
		LocationType: consts.LovLocationAddress,
		AddressLabel: "12 rue de Rivoli",
		City:         "Paris",
		Rating:       4,
	}
}

func TestLovServiceAddLovValidation(t *testing.T) {
	initServiceTestLogger()

	newService := func() ILovService {
		return NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})
	}

	tests := []struct {
		name     string
		mutate   func(*dto.AddLovRequest)
		wantCode int32
	}{
		{
			name:     "missing_latitude",
			mutate:   func(r *dto.AddLovRequest) { r.Latitude = nil },
			wantCode: consts.CodeLocationMissing,
		},
		{
			name:     "missing_longitude",
			mutate:   func(r *dto.AddLovRequest) { r.Longitude = nil },
			wantCode: consts.CodeLocationMissing,
		},
		{
			name:     "latitude_out_of_range",
			mutate:   func(r *dto.AddLovRequest) { r.Latitude = float64Ptr(91) },
			wantCode: consts.CodeParamError,
		},
		{
			name:     "longitude_out_of_range",
			mutate:   func(r *dto.AddLovRequest) { r.Longitude = float64Ptr(-181) },
			wantCode: consts.CodeParamError,
		},
		{
			name:     "unknown_emoji",
			mutate:   func(r *dto.AddLovRequest) { r.Emoji = "banana" },
			wantCode: consts.CodeEmojiNotSupport,
		},
		{
			name:     "unknown_location_type",
			mutate:   func(r *dto.AddLovRequest) { r.LocationType = "planet" },
			wantCode: consts.CodeParamError,
		},
		{
			name:     "rating_too_low",
			mutate:   func(r *dto.AddLovRequest) { r.Rating = 0 },
			wantCode: consts.CodeRatingOutOfRange,
		},
		{
			name:     "rating_too_high",
			mutate:   func(r *dto.AddLovRequest) { r.Rating = 6 },
			wantCode: consts.CodeRatingOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validAddLovRequest()
			tt.mutate(req)
			_, err := newService().AddLov(context.Background(), "user-a", req)
			requireBizCode(t, err, tt.wantCode)
		})
	}
}

func TestLovServiceAddLovSuccess(t *testing.T) {
	initServiceTestLogger()

	var created *model.Lov
	bus := &fakeLiveBus{}
	notifier := &fakeNotifier{}
	svc := NewLovService(&fakeUserRepo{
		getByUUIDFn: func(_ context.Context, _ string) (*model.UserProfile, error) {
			return &model.UserProfile{Uuid: "user-a", Pseudo: "Alice", Email: "a@test.io"}, nil
		},
	}, &fakeFriendRepo{
		listTouchingFn: func(_ context.Context, _ string) ([]*model.Friendship, error) {
			return []*model.Friendship{
				{UserUuid: "user-a", FriendUuid: "user-b"},
			}, nil
		},
	}, &fakeLovRepo{
		createFn: func(_ context.Context, l *model.Lov) error {
			created = l
			return nil
		},
	}, &fakeReactionRepo{}, bus, notifier)

	req := validAddLovRequest()
	req.City = " Paris 11 "
	req.PartnerName = " Léa "

	resp, err := svc.AddLov(context.Background(), "user-a", req)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotZero(t, created.Id)
	assert.Equal(t, consts.SelfColor, created.UserColor)
	assert.Equal(t, "Alice", created.UserPseudo)
	// 城市名归一化：去数字、压空白
	assert.Equal(t, "Paris", created.City)
	assert.Equal(t, "Léa", created.PartnerName)
	assert.Equal(t, created.Id, resp.Id)

	// 实时事件发到创建者自己的标记点主题
	events := bus.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, live.TopicLov("user-a"), events[0].Topic)
	assert.Equal(t, dto.EventLovAdded, events[0].Event.Type)

	// 好友收到新标记点通知
	sent := notifier.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "user-b", sent[0].UserUuid)
	assert.Equal(t, model.NotifyTypeNewLov, sent[0].Type)
	assert.Equal(t, created.Id, sent[0].LovId)
}

func TestLovServiceUpdateLov(t *testing.T) {
	initServiceTestLogger()

	owned := &model.Lov{Id: 100, UserUuid: "user-a", Emoji: consts.LovEmojiAubergine, Rating: 3}

	t.Run("not_owner", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				return owned, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})
		_, err := svc.UpdateLov(context.Background(), "user-b", 100, &dto.UpdateLovRequest{Rating: intPtr(5)})
		requireBizCode(t, err, consts.CodeNotLovOwner)
	})

	t.Run("not_found", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})
		_, err := svc.UpdateLov(context.Background(), "user-a", 100, &dto.UpdateLovRequest{Rating: intPtr(5)})
		requireBizCode(t, err, consts.CodeLovNotFound)
	})

	t.Run("coords_must_be_updated_as_pair", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				return owned, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})
		_, err := svc.UpdateLov(context.Background(), "user-a", 100, &dto.UpdateLovRequest{Latitude: float64Ptr(1)})
		requireBizCode(t, err, consts.CodeLocationMissing)
	})

	t.Run("nil_fields_untouched", func(t *testing.T) {
		var gotFields map[string]interface{}
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				return owned, nil
			},
			updateFn: func(_ context.Context, _ int64, fields map[string]interface{}) error {
				gotFields = fields
				return nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})

		_, err := svc.UpdateLov(context.Background(), "user-a", 100, &dto.UpdateLovRequest{
			Rating:      intPtr(5),
			PartnerName: stringPtr(""),
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{
			"rating":       5,
			"partner_name": "",
		}, gotFields)
	})

	t.Run("empty_patch_is_noop", func(t *testing.T) {
		bus := &fakeLiveBus{}
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				return owned, nil
			},
			updateFn: func(_ context.Context, _ int64, _ map[string]interface{}) error {
				t.Fatal("update should not be called for empty patch")
				return nil
			},
		}, &fakeReactionRepo{}, bus, &fakeNotifier{})

		resp, err := svc.UpdateLov(context.Background(), "user-a", 100, &dto.UpdateLovRequest{})
		require.NoError(t, err)
		assert.Equal(t, owned.Id, resp.Id)
		assert.Empty(t, bus.recorded())
	})

	t.Run("success_publishes_updated_event", func(t *testing.T) {
		bus := &fakeLiveBus{}
		calls := 0
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				calls++
				if calls == 1 {
					return owned, nil
				}
				updated := *owned
				updated.Rating = 5
				return &updated, nil
			},
		}, &fakeReactionRepo{}, bus, &fakeNotifier{})

		resp, err := svc.UpdateLov(context.Background(), "user-a", 100, &dto.UpdateLovRequest{Rating: intPtr(5)})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.Rating)

		events := bus.recorded()
		require.Len(t, events, 1)
		assert.Equal(t, dto.EventLovUpdated, events[0].Event.Type)
	})
}

func TestLovServiceDeleteLov(t *testing.T) {
	initServiceTestLogger()

	owned := &model.Lov{Id: 100, UserUuid: "user-a"}

	t.Run("not_owner", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				return owned, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})
		err := svc.DeleteLov(context.Background(), "user-b", 100)
		requireBizCode(t, err, consts.CodeNotLovOwner)
	})

	t.Run("reactions_cascade_before_lov", func(t *testing.T) {
		var order []string
		bus := &fakeLiveBus{}
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				return owned, nil
			},
			deleteFn: func(_ context.Context, _ int64) error {
				order = append(order, "lov")
				return nil
			},
		}, &fakeReactionRepo{
			deleteAllByLovFn: func(_ context.Context, lovID int64) (int64, error) {
				require.Equal(t, int64(100), lovID)
				order = append(order, "reactions")
				return 3, nil
			},
		}, bus, &fakeNotifier{})

		require.NoError(t, svc.DeleteLov(context.Background(), "user-a", 100))
		assert.Equal(t, []string{"reactions", "lov"}, order)

		events := bus.recorded()
		require.Len(t, events, 1)
		assert.Equal(t, dto.EventLovDeleted, events[0].Event.Type)
	})

	t.Run("concurrent_delete_treated_as_success", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			getByIDFn: func(_ context.Context, _ int64) (*model.Lov, error) {
				return owned, nil
			},
			deleteFn: func(_ context.Context, _ int64) error {
				return repository.ErrRecordNotFound
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})
		require.NoError(t, svc.DeleteLov(context.Background(), "user-a", 100))
	})
}

func TestLovServiceGetUserLovs(t *testing.T) {
	initServiceTestLogger()

	t.Run("non_friend_silently_empty", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{
			listTouchingFn: func(_ context.Context, _ string) ([]*model.Friendship, error) {
				return nil, nil
			},
		}, &fakeLovRepo{
			listByOwnerFn: func(_ context.Context, _ string) ([]*model.Lov, error) {
				t.Fatal("repo should not be queried without permission")
				return nil, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})

		lovs, err := svc.GetUserLovs(context.Background(), "user-a", "user-x")
		require.NoError(t, err)
		assert.NotNil(t, lovs)
		assert.Empty(t, lovs)
	})

	t.Run("self_always_allowed", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{
			listByOwnerFn: func(_ context.Context, owner string) ([]*model.Lov, error) {
				require.Equal(t, "user-a", owner)
				return []*model.Lov{{Id: 1, UserUuid: "user-a"}}, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})

		lovs, err := svc.GetUserLovs(context.Background(), "user-a", "user-a")
		require.NoError(t, err)
		require.Len(t, lovs, 1)
	})

	t.Run("friend_allowed", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{
			listTouchingFn: func(_ context.Context, _ string) ([]*model.Friendship, error) {
				return []*model.Friendship{{UserUuid: "user-b", FriendUuid: "user-a"}}, nil
			},
		}, &fakeLovRepo{
			listByOwnerFn: func(_ context.Context, owner string) ([]*model.Lov, error) {
				require.Equal(t, "user-b", owner)
				return []*model.Lov{{Id: 2, UserUuid: "user-b"}}, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})

		lovs, err := svc.GetUserLovs(context.Background(), "user-a", "user-b")
		require.NoError(t, err)
		require.Len(t, lovs, 1)
	})
}

func TestLovServiceGetNearbyLovs(t *testing.T) {
	initServiceTestLogger()

	req := &dto.NearbyRequest{Latitude: 48.85, Longitude: 2.35}

	t.Run("filters_by_visibility", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{
			listTouchingFn: func(_ context.Context, _ string) ([]*model.Friendship, error) {
				return []*model.Friendship{{UserUuid: "user-a", FriendUuid: "user-b"}}, nil
			},
		}, &fakeLovRepo{
			nearbyIDsFn: func(_ context.Context, _, _, radius float64, limit int) ([]int64, error) {
				// 缺省值生效
				require.Equal(t, float64(5000), radius)
				require.Equal(t, 100, limit)
				return []int64{1, 2, 3}, nil
			},
			getByIDsFn: func(_ context.Context, ids []int64) ([]*model.Lov, error) {
				require.Equal(t, []int64{1, 2, 3}, ids)
				return []*model.Lov{
					{Id: 1, UserUuid: "user-a"},
					{Id: 2, UserUuid: "user-b"},
					{Id: 3, UserUuid: "user-stranger"},
				}, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})

		lovs, err := svc.GetNearbyLovs(context.Background(), "user-a", req)
		require.NoError(t, err)
		require.Len(t, lovs, 2)
		assert.Equal(t, int64(1), lovs[0].Id)
		assert.Equal(t, int64(2), lovs[1].Id)
	})

	t.Run("geo_failure_degrades_to_full_visible_set", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{
			listTouchingFn: func(_ context.Context, _ string) ([]*model.Friendship, error) {
				return nil, nil
			},
		}, &fakeLovRepo{
			nearbyIDsFn: func(_ context.Context, _, _, _ float64, _ int) ([]int64, error) {
				return nil, errors.New("redis down")
			},
			listByOwnersFn: func(_ context.Context, owners []string) ([]*model.Lov, error) {
				require.Equal(t, []string{"user-a"}, owners)
				return []*model.Lov{{Id: 9, UserUuid: "user-a"}}, nil
			},
		}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})

		lovs, err := svc.GetNearbyLovs(context.Background(), "user-a", req)
		require.NoError(t, err)
		require.Len(t, lovs, 1)
		assert.Equal(t, int64(9), lovs[0].Id)
	})

	t.Run("invalid_coord", func(t *testing.T) {
		svc := NewLovService(&fakeUserRepo{}, &fakeFriendRepo{}, &fakeLovRepo{}, &fakeReactionRepo{}, &fakeLiveBus{}, &fakeNotifier{})
		_, err := svc.GetNearbyLovs(context.Background(), "user-a", &dto.NearbyRequest{Latitude: 120, Longitude: 0})
		requireBizCode(t, err, consts.CodeParamError)
	})
}
