package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/manager"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/pkg/ctxmeta"
	"LovMapServer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// WebSocket 协议层错误码（仅用于 ws 帧内的 error 消息，不是 HTTP 状态码）
	wsFrameInvalidFormatCode = 10001
	wsFrameUnsupportedCode   = 10002

	defaultDeviceID = "default"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 当前阶段放开来源校验，方便移动端模拟器与本地 Web 调试
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// wsFrame 下行/上行帧信封
type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WSHandler 处理 /ws 实时同步接入。
// 每条连接绑定一个 LovWatcher（好友标记点订阅）和一个 NotifyWatcher（个人通知订阅），
// 连接断开时两者必须随连接一起释放。
type WSHandler struct {
	connManager   *manager.ConnectionManager
	hub           *live.Hub
	friendService service.IFriendService
	jwtSecret     string
}

// NewWSHandler 创建 WebSocket 入口处理器
func NewWSHandler(connManager *manager.ConnectionManager, hub *live.Hub, friendService service.IFriendService, jwtSecret string) *WSHandler {
	return &WSHandler{
		connManager:   connManager,
		hub:           hub,
		friendService: friendService,
		jwtSecret:     jwtSecret,
	}
}

// ServeWS 处理 WebSocket 握手与接入。
// 鉴权走 query token：移动端 WebSocket 库普遍不支持自定义 Header。
func (h *WSHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "token is required",
		})
		return
	}

	claims, err := utils.ParseToken(h.jwtSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "token invalid or expired",
		})
		return
	}

	deviceID := c.Query("device_id")
	if deviceID == "" {
		deviceID = defaultDeviceID
	}

	connCtx := context.Background()
	if traceID := ctxmeta.TraceIDFromGin(c); traceID != "" {
		connCtx = ctxmeta.WithTraceID(connCtx, traceID)
	}
	connCtx = ctxmeta.WithUserUUID(connCtx, claims.UserUuid)
	connCtx = ctxmeta.WithClientIP(connCtx, c.ClientIP())

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败",
			logger.ErrorField("error", err),
		)
		return
	}

	h.handleConnection(connCtx, conn, claims.UserUuid, deviceID)
}

// handleConnection 承载单条连接的完整生命周期。
// 同设备重复连接时用新连接替换旧连接；watcher 的生命周期与连接严格一致。
func (h *WSHandler) handleConnection(ctx context.Context, conn *websocket.Conn, userUUID, deviceID string) {
	client := manager.NewClient(conn, userUUID, deviceID)
	if replaced := h.connManager.Register(client); replaced != nil {
		replaced.Close()
	}

	listFriends := func(ctx context.Context) ([]string, error) {
		return h.friendService.ListFriendUUIDs(ctx, userUUID)
	}
	watcher := live.NewLovWatcher(h.hub, userUUID, listFriends)
	if err := watcher.Start(ctx); err != nil {
		logger.Error(ctx, "标记点订阅启动失败",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		h.connManager.Unregister(client)
		client.Close()
		return
	}
	notifyWatcher := live.NewNotifyWatcher(h.hub, userUUID)

	middleware.WebSocketConnections.Inc()
	logger.Info(ctx, "WebSocket 连接已建立",
		logger.String("user_uuid", userUUID),
		logger.String("device_id", deviceID),
		logger.Int("online_count", h.connManager.Count()),
	)

	// 下行泵：把两条事件流汇成 ws 帧写入连接
	go h.pumpEvents(ctx, client, watcher, notifyWatcher)

	client.Run(ctx, func(raw []byte) {
		h.handleMessage(ctx, client, raw)
	}, func() {
		watcher.Close()
		notifyWatcher.Close()
		h.connManager.Unregister(client)
		middleware.WebSocketConnections.Dec()
		logger.Info(ctx, "WebSocket 连接已断开",
			logger.String("user_uuid", userUUID),
			logger.String("device_id", deviceID),
			logger.Int("online_count", h.connManager.Count()),
		)
	})
}

// pumpEvents 消费 watcher 事件流并下发。
// 两条流都关闭后退出；写队列满视为连接不健康，直接断开。
func (h *WSHandler) pumpEvents(ctx context.Context, client *manager.Client, watcher *live.LovWatcher, notifyWatcher *live.NotifyWatcher) {
	lovCh := watcher.Events()
	notifyCh := notifyWatcher.Events()

	for lovCh != nil || notifyCh != nil {
		var (
			event dto.Event
			ok    bool
		)
		select {
		case <-client.Done():
			return
		case event, ok = <-lovCh:
			if !ok {
				lovCh = nil
				continue
			}
		case event, ok = <-notifyCh:
			if !ok {
				notifyCh = nil
				continue
			}
		}

		frame, err := json.Marshal(event)
		if err != nil {
			logger.Warn(ctx, "事件序列化失败",
				logger.String("event_type", event.Type),
				logger.ErrorField("error", err),
			)
			continue
		}
		if !client.Enqueue(frame) {
			client.Close()
			return
		}
	}
}

// handleMessage 处理客户端上行帧，当前仅支持 heartbeat
func (h *WSHandler) handleMessage(ctx context.Context, client *manager.Client, raw []byte) {
	var frame wsFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.sendErrorFrame(ctx, client, wsFrameInvalidFormatCode, "invalid frame format")
		return
	}

	switch frame.Type {
	case "heartbeat":
		ack, err := json.Marshal(wsFrame{Type: "heartbeat_ack"})
		if err != nil {
			return
		}
		if !client.Enqueue(ack) {
			client.Close()
		}
	default:
		h.sendErrorFrame(ctx, client, wsFrameUnsupportedCode, "unsupported message type")
	}
}

// sendErrorFrame 发送 ws 协议层错误帧，发送失败表示连接不可写，主动关闭
func (h *WSHandler) sendErrorFrame(ctx context.Context, client *manager.Client, code int, message string) {
	data, _ := json.Marshal(gin.H{"code": code, "message": message})
	payload, err := json.Marshal(wsFrame{Type: "error", Data: data})
	if err != nil {
		logger.Warn(ctx, "错误帧序列化失败",
			logger.Int("code", code),
			logger.ErrorField("error", err),
		)
		return
	}
	if !client.Enqueue(payload) {
		client.Close()
	}
}
