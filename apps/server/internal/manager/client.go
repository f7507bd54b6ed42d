package manager

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendQueueSize  = 64
	wsWriteTimeout = 5 * time.Second
)

// MessageHandler 上行消息回调，raw 为客户端原始帧（JSON 字节）。
type MessageHandler func(raw []byte)

// CloseHandler 连接关闭回调，在读写循环退出后执行清理（注销连接、关闭 watcher）。
type CloseHandler func()

// Client 封装单条实时同步 WebSocket 连接。
// send 队列削峰，避免事件分发 goroutine 阻塞在网络写；
// done 为统一关闭信号；once 保证 Close 幂等。
type Client struct {
	conn     *websocket.Conn
	userUUID string
	deviceID string
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewClient 创建连接包装对象。
func NewClient(conn *websocket.Conn, userUUID, deviceID string) *Client {
	return &Client{
		conn:     conn,
		userUUID: userUUID,
		deviceID: deviceID,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// Key 返回连接唯一键（user_uuid:device_id），用于同设备连接替换。
func (c *Client) Key() string {
	return buildKey(c.userUUID, c.deviceID)
}

func (c *Client) UserUUID() string {
	return c.userUUID
}

func (c *Client) DeviceID() string {
	return c.deviceID
}

// Done 返回连接关闭信号通道。
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Enqueue 将待发送帧投递到写队列。
// 返回 false 表示连接已关闭或队列已满，调用方可选择断开连接。
func (c *Client) Enqueue(msg []byte) bool {
	if len(msg) == 0 {
		return true
	}
	cloned := append([]byte(nil), msg...)
	select {
	case <-c.done:
		return false
	case c.send <- cloned:
		return true
	default:
		return false
	}
}

// Run 启动读写循环并阻塞到 readLoop 结束。
// writeLoop 在独立 goroutine 运行；退出时保证调用 Close 与 onClose。
func (c *Client) Run(ctx context.Context, onMessage MessageHandler, onClose CloseHandler) {
	defer func() {
		c.Close()
		if onClose != nil {
			onClose()
		}
	}()

	go c.writeLoop(ctx)
	c.readLoop(ctx, onMessage)
}

// Close 幂等关闭：先关 done 信号通知读写循环，再关底层连接。
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readLoop(ctx context.Context, onMessage MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if onMessage != nil {
			onMessage(raw)
		}
	}
}

// writeLoop 每次写操作设置超时，避免慢连接长期占用写协程。
func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		}
	}
}
