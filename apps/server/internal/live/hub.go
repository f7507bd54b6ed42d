package live

import (
	"context"
	"fmt"
	"sync"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/pkg/logger"
)

// 订阅主题构造函数。
// 一个主题对应一类事件流，订阅方按需组合。
func TopicLov(ownerUUID string) string     { return fmt.Sprintf("lov:%s", ownerUUID) }
func TopicFriends(userUUID string) string  { return fmt.Sprintf("friends:%s", userUUID) }
func TopicPersonal(userUUID string) string { return fmt.Sprintf("user:%s", userUUID) }

// subscriberBuffer 单个订阅通道的缓冲大小。
// 写满说明消费方卡死，直接丢弃事件（客户端重连后全量拉取兜底）。
const subscriberBuffer = 16

// Hub 进程内事件总线。
// 按主题维护订阅通道集合，推送是尽力而为的：没有订阅方或通道写满都不报错。
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[int64]chan dto.Event
	nextID int64
}

// NewHub 创建事件总线
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[int64]chan dto.Event),
	}
}

// Subscribe 订阅一个主题。
// 返回事件通道和取消函数；取消函数幂等，可安全多次调用。
// 取消后通道会被关闭，订阅方以通道关闭作为结束信号。
func (h *Hub) Subscribe(topic string) (<-chan dto.Event, func()) {
	ch := make(chan dto.Event, subscriberBuffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[int64]chan dto.Event)
		h.topics[topic] = subs
	}
	subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	dispose := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			// 持锁关闭：Publish 发送也持锁，保证不会向已关闭通道发送
			close(ch)
			h.mu.Unlock()
		})
	}

	return ch, dispose
}

// Publish 向单个主题推送事件
func (h *Hub) Publish(ctx context.Context, topic string, event dto.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.topics[topic] {
		select {
		case ch <- event:
		default:
			// 订阅方消费不过来，丢弃并记日志
			logger.Warn(ctx, "live 事件丢弃：订阅通道已满",
				logger.String("topic", topic),
				logger.String("event_type", event.Type),
			)
		}
	}
}

// PublishMany 向多个主题推送同一事件
func (h *Hub) PublishMany(ctx context.Context, topics []string, event dto.Event) {
	for _, topic := range topics {
		h.Publish(ctx, topic, event)
	}
}

// SubscriberCount 某主题当前订阅数（监控用）
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
