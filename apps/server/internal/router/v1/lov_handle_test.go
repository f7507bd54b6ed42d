package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/marker"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/consts"
	"LovMapServer/pkg/ctxmeta"
	"LovMapServer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLovHTTPService struct {
	addLovFn            func(context.Context, string, *dto.AddLovRequest) (*dto.LovResponse, error)
	updateLovFn         func(context.Context, string, int64, *dto.UpdateLovRequest) (*dto.LovResponse, error)
	deleteLovFn         func(context.Context, string, int64) error
	getVisibleLovsFn    func(context.Context, string) ([]*dto.LovResponse, error)
	getVisibleMarkersFn func(context.Context, string) ([]*marker.Group, error)
	getUserLovsFn       func(context.Context, string, string) ([]*dto.LovResponse, error)
	getNearbyLovsFn     func(context.Context, string, *dto.NearbyRequest) ([]*dto.LovResponse, error)
}

var _ service.ILovService = (*fakeLovHTTPService)(nil)

func (f *fakeLovHTTPService) AddLov(ctx context.Context, userUUID string, req *dto.AddLovRequest) (*dto.LovResponse, error) {
	if f.addLovFn == nil {
		return &dto.LovResponse{}, nil
	}
	return f.addLovFn(ctx, userUUID, req)
}

func (f *fakeLovHTTPService) UpdateLov(ctx context.Context, userUUID string, lovID int64, req *dto.UpdateLovRequest) (*dto.LovResponse, error) {
	if f.updateLovFn == nil {
		return &dto.LovResponse{}, nil
	}
	return f.updateLovFn(ctx, userUUID, lovID, req)
}

func (f *fakeLovHTTPService) DeleteLov(ctx context.Context, userUUID string, lovID int64) error {
	if f.deleteLovFn == nil {
		return nil
	}
	return f.deleteLovFn(ctx, userUUID, lovID)
}

func (f *fakeLovHTTPService) GetVisibleLovs(ctx context.Context, userUUID string) ([]*dto.LovResponse, error) {
	if f.getVisibleLovsFn == nil {
		return nil, nil
	}
	return f.getVisibleLovsFn(ctx, userUUID)
}

func (f *fakeLovHTTPService) GetVisibleMarkers(ctx context.Context, userUUID string) ([]*marker.Group, error) {
	if f.getVisibleMarkersFn == nil {
		return nil, nil
	}
	return f.getVisibleMarkersFn(ctx, userUUID)
}

func (f *fakeLovHTTPService) GetUserLovs(ctx context.Context, viewerUUID, targetUUID string) ([]*dto.LovResponse, error) {
	if f.getUserLovsFn == nil {
		return nil, nil
	}
	return f.getUserLovsFn(ctx, viewerUUID, targetUUID)
}

func (f *fakeLovHTTPService) GetNearbyLovs(ctx context.Context, userUUID string, req *dto.NearbyRequest) ([]*dto.LovResponse, error) {
	if f.getNearbyLovsFn == nil {
		return nil, nil
	}
	return f.getNearbyLovsFn(ctx, userUUID, req)
}

type lovHandlerResultBody struct {
	Code int `json:"code"`
}

var lovHandlerLoggerOnce sync.Once

func initLovHandlerLogger() {
	lovHandlerLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		gin.SetMode(gin.TestMode)
	})
}

func decodeLovHandlerCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body lovHandlerResultBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

// newLovTestContext 构造已通过认证中间件的测试上下文
func newLovTestContext(t *testing.T, w *httptest.ResponseRecorder, method, target, body, userUUID string) *gin.Context {
	t.Helper()
	req, err := http.NewRequest(method, target, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if userUUID != "" {
		c.Set(ctxmeta.GinKeyUserUUID, userUUID)
	}
	return c
}

func validAddLovBody() string {
	return `{"latitude":48.873782,"longitude":2.350134,"emoji":"aubergine","location_type":"address","rating":4}`
}

func TestLovHandlerAddLov(t *testing.T) {
	initLovHandlerLogger()

	tests := []struct {
		name     string
		userUUID string
		body     string
		setup    func(*fakeLovHTTPService)
		wantCode int
	}{
		{
			name:     "success",
			userUUID: "user-a",
			body:     validAddLovBody(),
			setup: func(s *fakeLovHTTPService) {
				s.addLovFn = func(_ context.Context, userUUID string, req *dto.AddLovRequest) (*dto.LovResponse, error) {
					require.Equal(t, "user-a", userUUID)
					require.Equal(t, consts.LovEmojiAubergine, req.Emoji)
					return &dto.LovResponse{Id: 100}, nil
				}
			},
			wantCode: consts.CodeSuccess,
		},
		{
			name:     "unauthenticated",
			userUUID: "",
			body:     validAddLovBody(),
			setup:    func(_ *fakeLovHTTPService) {},
			wantCode: consts.CodeUnauthorized,
		},
		{
			name:     "malformed_body",
			userUUID: "user-a",
			body:     `{"latitude":`,
			setup:    func(_ *fakeLovHTTPService) {},
			wantCode: consts.CodeBodyError,
		},
		{
			name:     "missing_required_fields",
			userUUID: "user-a",
			body:     `{"latitude":48.87}`,
			setup:    func(_ *fakeLovHTTPService) {},
			wantCode: consts.CodeBodyError,
		},
		{
			name:     "business_error_passthrough",
			userUUID: "user-a",
			body:     validAddLovBody(),
			setup: func(s *fakeLovHTTPService) {
				s.addLovFn = func(_ context.Context, _ string, _ *dto.AddLovRequest) (*dto.LovResponse, error) {
					return nil, utils.NewBizError(consts.CodeEmojiNotSupport)
				}
			},
			wantCode: consts.CodeEmojiNotSupport,
		},
		{
			name:     "internal_error_masked",
			userUUID: "user-a",
			body:     validAddLovBody(),
			setup: func(s *fakeLovHTTPService) {
				s.addLovFn = func(_ context.Context, _ string, _ *dto.AddLovRequest) (*dto.LovResponse, error) {
					return nil, errors.New("db down")
				}
			},
			wantCode: consts.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLovHTTPService{}
			tt.setup(svc)
			h := NewLovHandler(svc)

			w := httptest.NewRecorder()
			c := newLovTestContext(t, w, http.MethodPost, "/api/v1/lov", tt.body, tt.userUUID)
			h.AddLov(c)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCode, decodeLovHandlerCode(t, w))
		})
	}
}

func TestLovHandlerDeleteLov(t *testing.T) {
	initLovHandlerLogger()

	t.Run("invalid_id_param", func(t *testing.T) {
		h := NewLovHandler(&fakeLovHTTPService{})

		w := httptest.NewRecorder()
		c := newLovTestContext(t, w, http.MethodDelete, "/api/v1/lov/abc", "", "user-a")
		c.Params = gin.Params{{Key: "id", Value: "abc"}}
		h.DeleteLov(c)

		assert.Equal(t, consts.CodeParamError, decodeLovHandlerCode(t, w))
	})

	t.Run("success", func(t *testing.T) {
		var gotID int64
		h := NewLovHandler(&fakeLovHTTPService{
			deleteLovFn: func(_ context.Context, _ string, lovID int64) error {
				gotID = lovID
				return nil
			},
		})

		w := httptest.NewRecorder()
		c := newLovTestContext(t, w, http.MethodDelete, "/api/v1/lov/100", "", "user-a")
		c.Params = gin.Params{{Key: "id", Value: "100"}}
		h.DeleteLov(c)

		assert.Equal(t, consts.CodeSuccess, decodeLovHandlerCode(t, w))
		assert.Equal(t, int64(100), gotID)
	})

	t.Run("not_owner", func(t *testing.T) {
		h := NewLovHandler(&fakeLovHTTPService{
			deleteLovFn: func(_ context.Context, _ string, _ int64) error {
				return utils.NewBizError(consts.CodeNotLovOwner)
			},
		})

		w := httptest.NewRecorder()
		c := newLovTestContext(t, w, http.MethodDelete, "/api/v1/lov/100", "", "user-b")
		c.Params = gin.Params{{Key: "id", Value: "100"}}
		h.DeleteLov(c)

		assert.Equal(t, consts.CodeNotLovOwner, decodeLovHandlerCode(t, w))
	})
}

func TestLovHandlerNearby(t *testing.T) {
	initLovHandlerLogger()

	t.Run("missing_coordinates", func(t *testing.T) {
		h := NewLovHandler(&fakeLovHTTPService{})

		w := httptest.NewRecorder()
		c := newLovTestContext(t, w, http.MethodGet, "/api/v1/lov/nearby", "", "user-a")
		h.Nearby(c)

		assert.Equal(t, consts.CodeParamError, decodeLovHandlerCode(t, w))
	})

	t.Run("success", func(t *testing.T) {
		var gotReq *dto.NearbyRequest
		h := NewLovHandler(&fakeLovHTTPService{
			getNearbyLovsFn: func(_ context.Context, _ string, req *dto.NearbyRequest) ([]*dto.LovResponse, error) {
				gotReq = req
				return []*dto.LovResponse{{Id: 100}}, nil
			},
		})

		w := httptest.NewRecorder()
		c := newLovTestContext(t, w, http.MethodGet, "/api/v1/lov/nearby?latitude=48.87&longitude=2.35&radius_meters=1000", "", "user-a")
		h.Nearby(c)

		assert.Equal(t, consts.CodeSuccess, decodeLovHandlerCode(t, w))
		require.NotNil(t, gotReq)
		assert.InDelta(t, 48.87, gotReq.Latitude, 1e-9)
		assert.InDelta(t, 1000, gotReq.RadiusMeters, 1e-9)
	})
}
