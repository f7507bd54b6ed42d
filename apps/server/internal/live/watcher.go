package live

import (
	"context"
	"errors"
	"sync"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/pkg/logger"
)

// 订阅状态机。
// 标记点订阅嵌套在好友集合订阅之内：好友集合每次变化，
// 必须先同步释放旧的标记点订阅，再按新集合重建，否则会泄漏订阅
// 或收到已删除好友的事件。
type watcherState int32

const (
	stateIdle watcherState = iota
	stateAwaitingFriends
	stateActive
	stateClosed
)

// FriendLister 获取当前好友 uuid 集合的回调
type FriendLister func(ctx context.Context) ([]string, error)

// LovWatcher 单个会话的标记点实时订阅。
// 生命周期归属一条 WebSocket 连接，连接断开必须调用 Close。
type LovWatcher struct {
	hub         *Hub
	me          string
	listFriends FriendLister

	out chan dto.Event

	mu            sync.Mutex
	state         watcherState
	friendDispose func()   // 外层：好友集合订阅
	lovDisposers  []func() // 内层：各好友的标记点订阅
	forwardWG     sync.WaitGroup
	closeOnce     sync.Once
	currentOwners []string
}

// NewLovWatcher 创建会话订阅
func NewLovWatcher(hub *Hub, me string, listFriends FriendLister) *LovWatcher {
	return &LovWatcher{
		hub:         hub,
		me:          me,
		listFriends: listFriends,
		out:         make(chan dto.Event, subscriberBuffer*2),
		state:       stateIdle,
	}
}

// Events 返回合并后的事件流。
// 流在 Close 后关闭。
func (w *LovWatcher) Events() <-chan dto.Event {
	return w.out
}

// Start 启动订阅。
// 流程：先订阅好友集合变化（外层），再取好友快照建立标记点订阅（内层）。
// 顺序不能反：先拿快照再订阅会漏掉窗口期内的好友变更。
func (w *LovWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.state != stateIdle {
		w.mu.Unlock()
		return errors.New("watcher already started")
	}
	w.state = stateAwaitingFriends

	friendCh, friendDispose := w.hub.Subscribe(TopicFriends(w.me))
	w.friendDispose = friendDispose
	w.mu.Unlock()

	// 好友快照
	friends, err := w.listFriends(ctx)
	if err != nil {
		// 快照失败不中断会话：先只订阅自己的标记点，好友事件到达时再重建
		logger.Warn(ctx, "好友快照获取失败，降级为仅自己",
			logger.String("user_uuid", w.me),
			logger.ErrorField("error", err),
		)
		friends = nil
	}

	w.mu.Lock()
	if w.state == stateClosed {
		w.mu.Unlock()
		return nil
	}
	w.resubscribeLocked(ctx, friends)
	w.state = stateActive
	w.mu.Unlock()

	// 外层事件循环：好友集合变化 → 重建内层订阅
	go w.friendLoop(ctx, friendCh)

	return nil
}

// friendLoop 消费好友集合变化事件
func (w *LovWatcher) friendLoop(ctx context.Context, friendCh <-chan dto.Event) {
	for event := range friendCh {
		// 好友事件原样转发给客户端
		w.emit(event)

		friends, err := w.listFriends(ctx)
		if err != nil {
			logger.Warn(ctx, "好友集合刷新失败，保留现有订阅",
				logger.String("user_uuid", w.me),
				logger.ErrorField("error", err),
			)
			continue
		}

		w.mu.Lock()
		if w.state != stateActive {
			w.mu.Unlock()
			return
		}
		w.resubscribeLocked(ctx, friends)
		w.mu.Unlock()
	}
}

// resubscribeLocked 重建内层标记点订阅。
// 必须持有 w.mu。先同步释放全部旧订阅，再按 me+friends 建新订阅。
func (w *LovWatcher) resubscribeLocked(ctx context.Context, friends []string) {
	// 1. 同步释放旧订阅（dispose 会关闭通道，转发协程随之退出）
	for _, dispose := range w.lovDisposers {
		dispose()
	}
	w.lovDisposers = w.lovDisposers[:0]

	// 2. 计算新的授权集合：自己 + 好友，去重
	owners := make([]string, 0, len(friends)+1)
	seen := map[string]bool{w.me: true}
	owners = append(owners, w.me)
	for _, f := range friends {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		owners = append(owners, f)
	}
	w.currentOwners = owners

	// 3. 建立新订阅并启动转发
	for _, owner := range owners {
		ch, dispose := w.hub.Subscribe(TopicLov(owner))
		w.lovDisposers = append(w.lovDisposers, dispose)
		w.forwardWG.Add(1)
		go w.forward(ch)
	}
}

// forward 把单个内层通道的事件汇入出口
func (w *LovWatcher) forward(ch <-chan dto.Event) {
	defer w.forwardWG.Done()
	for event := range ch {
		w.emit(event)
	}
}

// emit 非阻塞写出口，Close 后的竞态写由 recover 兜底
func (w *LovWatcher) emit(event dto.Event) {
	defer func() {
		_ = recover()
	}()
	select {
	case w.out <- event:
	default:
	}
}

// Owners 当前订阅的标记点所有者集合（测试与监控用）
func (w *LovWatcher) Owners() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.currentOwners))
	copy(out, w.currentOwners)
	return out
}

// Close 释放全部订阅。幂等，可安全多次调用。
func (w *LovWatcher) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.state = stateClosed
		if w.friendDispose != nil {
			w.friendDispose()
		}
		for _, dispose := range w.lovDisposers {
			dispose()
		}
		w.lovDisposers = nil
		w.mu.Unlock()

		// 等转发协程退出后关闭出口
		w.forwardWG.Wait()
		close(w.out)
	})
}
