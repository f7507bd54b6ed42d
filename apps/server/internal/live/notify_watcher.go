package live

import (
	"sync"

	"LovMapServer/apps/server/internal/dto"
)

// NotifyWatcher 单个会话的个人通知订阅。
// 与 LovWatcher 一样归属单条连接，绝不挂到进程级生命周期上，
// 否则会话结束后订阅残留，用户会继续收到推送。
type NotifyWatcher struct {
	out       <-chan dto.Event
	dispose   func()
	closeOnce sync.Once
}

// NewNotifyWatcher 订阅用户的个人通知主题
func NewNotifyWatcher(hub *Hub, userUUID string) *NotifyWatcher {
	ch, dispose := hub.Subscribe(TopicPersonal(userUUID))
	return &NotifyWatcher{
		out:     ch,
		dispose: dispose,
	}
}

// Events 返回通知事件流，Close 后关闭
func (w *NotifyWatcher) Events() <-chan dto.Event {
	return w.out
}

// Close 释放订阅。幂等。
func (w *NotifyWatcher) Close() {
	w.closeOnce.Do(func() {
		w.dispose()
	})
}
